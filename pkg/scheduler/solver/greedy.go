// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/skiftplan/skiftplan/pkg/logger"
	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// Solver 求解器接口
type Solver interface {
	// Solve 生成排班方案
	Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// Result 求解结果
type Result struct {
	Shifts           []*model.Shift     `json:"shifts"`
	Statistics       *Statistics        `json:"statistics"`
	ConstraintResult *constraint.Result `json:"constraint_result"`
	Duration         time.Duration      `json:"duration"`
	Success          bool               `json:"success"`
	Message          string             `json:"message,omitempty"`
}

// Statistics 求解统计
type Statistics struct {
	TotalShifts    int     `json:"total_shifts"`
	FilledShifts   int     `json:"filled_shifts"`
	UnfilledShifts int     `json:"unfilled_shifts"`
	FillRate       float64 `json:"fill_rate"`
	TotalHours     float64 `json:"total_hours"`
	Iterations     int     `json:"iterations"`
}

// LunchPolicy 午休扣除策略
type LunchPolicy struct {
	Minutes        int     // 扣除时长（分钟），0 表示不扣
	ThresholdHours float64 // 时间窗达到该小时数才扣午休
}

// DefaultLunchPolicy 默认午休策略
func DefaultLunchPolicy() LunchPolicy {
	return LunchPolicy{Minutes: 30, ThresholdHours: 6.0}
}

// GreedySolver 贪心求解器：按稳定顺序遍历 Slot，
// 每个 Slot 选取软排序最优的硬可行候选人，并即时更新运行计数
type GreedySolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SchedulerLogger
	lunch             LunchPolicy
}

// NewGreedySolver 创建贪心求解器
func NewGreedySolver(cm *constraint.Manager) *GreedySolver {
	return &GreedySolver{
		constraintManager: cm,
		logger:            logger.NewSchedulerLogger(),
		lunch:             DefaultLunchPolicy(),
	}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// SetLunchPolicy 设置午休扣除策略
func (s *GreedySolver) SetLunchPolicy(p LunchPolicy) {
	s.lunch = p
}

// Solve 使用贪心算法生成排班。
// 人手不足只产生未填充班次，永远不报错；相同输入产生相同输出。
func (s *GreedySolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()
	periodDays := model.DateRange{Start: schedCtx.StartDate, End: schedCtx.EndDate}.Days()
	s.logger.StartGeneration(schedCtx.StartDate, len(schedCtx.Staff), len(schedCtx.Slots), periodDays)

	result := &Result{
		Shifts:     make([]*model.Shift, 0, len(schedCtx.Slots)),
		Statistics: &Statistics{},
		Success:    false,
	}

	if len(schedCtx.Slots) == 0 {
		result.Success = true
		result.Message = "没有排班需求"
		result.Duration = time.Since(startTime)
		result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
		return result, nil
	}

	iterations := 0
	filled := 0

	for i, slot := range schedCtx.Slots {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		iterations++

		shift := s.newShift(i, slot)

		// 候选人按软排序取最优
		candidates := s.getCandidates(schedCtx, slot, periodDays)
		for _, staff := range candidates {
			canAssign, reason := s.constraintManager.CanAssign(schedCtx, staff, slot)
			if !canAssign {
				s.logger.ConstraintRejection(reason, staff.ID, slot.Date)
				continue
			}

			id := staff.ID
			shift.AssignedEmployeeID = &id
			shift.IsUnfilled = false
			filled++
			break
		}

		schedCtx.AddShift(shift)
		result.Shifts = append(result.Shifts, shift)
	}

	// 评估最终结果
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Success = true
	result.Duration = time.Since(startTime)

	result.Statistics.TotalShifts = len(result.Shifts)
	result.Statistics.FilledShifts = filled
	result.Statistics.UnfilledShifts = len(result.Shifts) - filled
	result.Statistics.Iterations = iterations
	if len(result.Shifts) > 0 {
		result.Statistics.FillRate = float64(filled) / float64(len(result.Shifts)) * 100
	}
	for _, staff := range schedCtx.Staff {
		result.Statistics.TotalHours += schedCtx.GetStaffHours(staff.ID)
	}

	s.logger.GenerationComplete(schedCtx.StartDate, result.Duration,
		result.Statistics.TotalShifts, result.Statistics.UnfilledShifts)

	if result.Statistics.UnfilledShifts > 0 {
		result.Message = fmt.Sprintf("生成完成，%d 个班次未填充", result.Statistics.UnfilledShifts)
	} else {
		result.Message = fmt.Sprintf("排班成功，满足率 %.1f%%", result.Statistics.FillRate)
	}

	return result, nil
}

// newShift 由 Slot 构造班次，标识由序号派生以保证确定性
func (s *GreedySolver) newShift(seq int, slot model.Slot) *model.Shift {
	shift := &model.Shift{
		ID:           fmt.Sprintf("%s-%s-%s-%03d", slot.Date, slot.StartTime, slot.Role, seq),
		Date:         slot.Date,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		RequiredRole: slot.Role,
		IsUnfilled:   true,
	}

	if slot.IncludeLunch && s.lunch.Minutes > 0 {
		if float64(slot.WindowMinutes())/60.0 >= s.lunch.ThresholdHours {
			minutes := s.lunch.Minutes
			shift.LunchDurationMinutes = &minutes
		}
	}

	return shift
}

// getCandidates 获取候选员工并按软目标排序：
// 距目标工时缺口大的在前，其次本周班次数少的在前，最后按员工 ID 保证确定性
func (s *GreedySolver) getCandidates(ctx *constraint.Context, slot model.Slot, periodDays int) []*model.StaffMember {
	var candidates []*model.StaffMember
	for _, staff := range ctx.Staff {
		if staff.Role != slot.Role {
			continue
		}
		candidates = append(candidates, staff)
	}

	weekKey := ""
	if d, err := model.ParseDate(slot.Date); err == nil {
		weekKey = model.ISOWeekKey(d)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		// 盈余 = 已分配工时 - 周期目标；盈余小者优先
		surplusA := ctx.GetStaffHours(a.ID) - a.PeriodTargetHours(periodDays)
		surplusB := ctx.GetStaffHours(b.ID) - b.PeriodTargetHours(periodDays)
		if surplusA != surplusB {
			return surplusA < surplusB
		}
		weekA := ctx.GetStaffWeekShifts(a.ID, weekKey)
		weekB := ctx.GetStaffWeekShifts(b.ID, weekKey)
		if weekA != weekB {
			return weekA < weekB
		}
		return a.ID < b.ID
	})

	return candidates
}
