// Package swap 提供替班评估与推荐：为某个班次（空缺或需要请假顶替）
// 在现有员工中寻找可行的接替人选
package swap

import (
	"fmt"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// Issue 替班问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// CoverEvaluation 替班评估结果
type CoverEvaluation struct {
	Feasible       bool    `json:"feasible"`
	Score          float64 `json:"score"` // 0-100
	Penalty        int     `json:"penalty"`
	Issues         []Issue `json:"issues"`
	HoursBefore    float64 `json:"hours_before"` // 候选人在周期内的当前工时
	HoursAfter     float64 `json:"hours_after"`
	TargetHours    float64 `json:"target_hours"` // 候选人按合同折算的周期目标工时
	Recommendation string  `json:"recommendation"`
}

// Evaluator 替班评估器
type Evaluator struct {
	cm *constraint.Manager
}

// NewEvaluator 创建替班评估器
func NewEvaluator(cm *constraint.Manager) *Evaluator {
	return &Evaluator{cm: cm}
}

// EvaluateCover 评估候选人接替指定班次的可行性。
// 被评估班次若已有人，先在模拟上下文中将其置为空缺再评估，
// 因此同一人不会被自己的班次挡住。
func (e *Evaluator) EvaluateCover(
	ctx *constraint.Context,
	target *model.Shift,
	candidate *model.StaffMember,
) *CoverEvaluation {
	result := &CoverEvaluation{
		Feasible: true,
		Score:    100,
		Issues:   make([]Issue, 0),
	}

	if target == nil || candidate == nil {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type:     "invalid_request",
			Severity: "error",
			Message:  "替班请求缺少班次或候选人",
		})
		return result
	}

	simCtx := e.simulateWithout(ctx, target)
	slot := shiftSlot(target)

	ok, penalty, violations := e.cm.EvaluateAssignment(simCtx, candidate, slot)
	result.Penalty = penalty
	for _, v := range violations {
		result.Issues = append(result.Issues, Issue{
			Type:     string(v.ConstraintType),
			Severity: v.Severity,
			Message:  v.Message,
		})
	}
	if !ok {
		result.Feasible = false
		result.Score = 0
	} else {
		result.Score = 100 - float64(penalty)
		if result.Score < 0 {
			result.Score = 0
		}
	}

	result.HoursBefore = simCtx.GetStaffHours(candidate.ID)
	result.HoursAfter = result.HoursBefore + target.WorkedHours()
	days := model.DateRange{Start: ctx.StartDate, End: ctx.EndDate}.Days()
	result.TargetHours = candidate.PeriodTargetHours(days)
	result.Recommendation = e.recommendation(result)

	return result
}

// CanCover 快速检查候选人能否接替班次
func (e *Evaluator) CanCover(ctx *constraint.Context, target *model.Shift, candidate *model.StaffMember) (bool, string) {
	eval := e.EvaluateCover(ctx, target, candidate)
	if eval.Feasible {
		return true, ""
	}
	if len(eval.Issues) > 0 {
		return false, eval.Issues[0].Message
	}
	return false, "无法接替该班次"
}

// simulateWithout 构造一个把目标班次置为空缺的模拟上下文，
// 原上下文不被修改
func (e *Evaluator) simulateWithout(ctx *constraint.Context, target *model.Shift) *constraint.Context {
	simCtx := constraint.NewContext(ctx.StartDate, ctx.EndDate)
	simCtx.SetStaff(ctx.Staff)
	simCtx.SetSlots(ctx.Slots)

	for _, s := range ctx.Shifts {
		copied := *s
		if sameShift(s, target) {
			copied.AssignedEmployeeID = nil
			copied.IsUnfilled = true
		}
		simCtx.AddShift(&copied)
	}
	return simCtx
}

// sameShift 按ID匹配，无ID时退化为日期+时间窗+角色匹配
func sameShift(a, b *model.Shift) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Date == b.Date && a.StartTime == b.StartTime && a.EndTime == b.EndTime && a.RequiredRole == b.RequiredRole
}

// shiftSlot 把班次还原为可供约束评估的 Slot
func shiftSlot(s *model.Shift) model.Slot {
	return model.Slot{
		Date:         s.Date,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Role:         s.RequiredRole,
		Headcount:    1,
		IncludeLunch: s.LunchDurationMinutes != nil && *s.LunchDurationMinutes > 0,
		FillType:     model.FillExactTime,
	}
}

// recommendation 生成替班建议文案
func (e *Evaluator) recommendation(result *CoverEvaluation) string {
	if !result.Feasible {
		return "不可行，存在硬约束冲突"
	}
	if result.TargetHours > 0 && result.HoursAfter > result.TargetHours {
		return fmt.Sprintf("可行，但接替后将超出目标工时 %.1f 小时", result.HoursAfter-result.TargetHours)
	}
	if result.Score >= 90 {
		return "推荐，接替后工时分布依然均衡"
	}
	if result.Score >= 70 {
		return "可以接替，存在少量软约束扣分"
	}
	return "可行但不理想，会拉大工时差距"
}
