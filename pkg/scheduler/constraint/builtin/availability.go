package builtin

import (
	"fmt"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// AvailabilityConstraint 可用性约束：班次日期不得落在员工的不可用日期内
type AvailabilityConstraint struct {
	*BaseConstraint
}

// NewAvailabilityConstraint 创建可用性约束
func NewAvailabilityConstraint() *AvailabilityConstraint {
	return &AvailabilityConstraint{
		BaseConstraint: NewBaseConstraint(
			"员工可用性",
			constraint.TypeAvailability,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *AvailabilityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, shift := range ctx.Shifts {
		if shift.AssignedEmployeeID == nil {
			continue
		}
		staff := ctx.GetStaff(*shift.AssignedEmployeeID)
		if staff == nil || !staff.IsUnavailableOn(shift.Date) {
			continue
		}

		isValid = false
		penalty := c.Weight()
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(
			staff.ID, shift.Date,
			fmt.Sprintf("员工 %s 在 %s 不可用", staff.Name, shift.Date),
			penalty,
		))
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *AvailabilityConstraint) EvaluateAssignment(ctx *constraint.Context, staff *model.StaffMember, slot model.Slot) (bool, int) {
	if staff.IsUnavailableOn(slot.Date) {
		return false, c.Weight()
	}
	return true, 0
}
