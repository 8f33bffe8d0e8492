package builtin

import (
	"fmt"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// RoleMatchConstraint 角色匹配约束：员工角色必须与班次要求的角色一致
type RoleMatchConstraint struct {
	*BaseConstraint
}

// NewRoleMatchConstraint 创建角色匹配约束
func NewRoleMatchConstraint() *RoleMatchConstraint {
	return &RoleMatchConstraint{
		BaseConstraint: NewBaseConstraint(
			"角色匹配",
			constraint.TypeRoleMatch,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *RoleMatchConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, shift := range ctx.Shifts {
		if shift.AssignedEmployeeID == nil {
			continue
		}
		staff := ctx.GetStaff(*shift.AssignedEmployeeID)
		if staff == nil || staff.Role == shift.RequiredRole {
			continue
		}

		isValid = false
		penalty := c.Weight()
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(
			staff.ID, shift.Date,
			fmt.Sprintf("员工 %s 的角色 %s 与班次要求的 %s 不符", staff.Name, staff.Role, shift.RequiredRole),
			penalty,
		))
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *RoleMatchConstraint) EvaluateAssignment(ctx *constraint.Context, staff *model.StaffMember, slot model.Slot) (bool, int) {
	if staff.Role != slot.Role {
		return false, c.Weight()
	}
	return true, 0
}
