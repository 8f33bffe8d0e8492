package builtin

import (
	"fmt"
	"math"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// TargetHoursConstraint 目标工时软约束：员工累计工时应接近按周期折算的目标工时。
// 偏差只产生惩罚值，不阻止分配。
type TargetHoursConstraint struct {
	*BaseConstraint
	toleranceHours float64
}

// NewTargetHoursConstraint 创建目标工时约束
func NewTargetHoursConstraint(toleranceHours float64) *TargetHoursConstraint {
	return &TargetHoursConstraint{
		BaseConstraint: NewBaseConstraint(
			"目标工时",
			constraint.TypeTargetHours,
			constraint.CategorySoft,
			50,
		),
		toleranceHours: toleranceHours,
	}
}

// periodDays 返回上下文的排班周期天数
func (c *TargetHoursConstraint) periodDays(ctx *constraint.Context) int {
	return model.DateRange{Start: ctx.StartDate, End: ctx.EndDate}.Days()
}

// Evaluate 评估整个排班
func (c *TargetHoursConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true
	days := c.periodDays(ctx)

	for _, staff := range ctx.Staff {
		target := staff.PeriodTargetHours(days)
		assigned := ctx.GetStaffHours(staff.ID)
		deviation := math.Abs(assigned - target)
		if deviation <= c.toleranceHours {
			continue
		}

		// 小时工低于目标属于正常
		if assigned < target && staff.EmploymentType.IsHourly() {
			continue
		}

		isValid = false
		penalty := c.Weight() * int(deviation-c.toleranceHours)
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(
			staff.ID, "",
			fmt.Sprintf("员工 %s 工时 %.1f 偏离目标 %.1f 超过 %.1f 小时", staff.Name, assigned, target, c.toleranceHours),
			penalty,
		))
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配：惩罚值为分配后超出目标的小时数
func (c *TargetHoursConstraint) EvaluateAssignment(ctx *constraint.Context, staff *model.StaffMember, slot model.Slot) (bool, int) {
	target := staff.PeriodTargetHours(c.periodDays(ctx))
	after := ctx.GetStaffHours(staff.ID) + float64(slot.WindowMinutes())/60.0
	if after <= target {
		return true, 0
	}
	return true, int(after - target)
}
