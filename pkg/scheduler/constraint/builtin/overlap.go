package builtin

import (
	"fmt"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// NoOverlapConstraint 禁止重复排班约束：同一员工同一天的班次时间窗不得重叠
type NoOverlapConstraint struct {
	*BaseConstraint
}

// NewNoOverlapConstraint 创建禁止重复排班约束
func NewNoOverlapConstraint() *NoOverlapConstraint {
	return &NoOverlapConstraint{
		BaseConstraint: NewBaseConstraint(
			"禁止重复排班",
			constraint.TypeNoOverlap,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *NoOverlapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, staff := range ctx.Staff {
		shifts := ctx.GetStaffShifts(staff.ID)
		for i := 0; i < len(shifts); i++ {
			for j := i + 1; j < len(shifts); j++ {
				if !shifts[i].Overlaps(shifts[j]) {
					continue
				}

				isValid = false
				penalty := c.Weight()
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(
					staff.ID, shifts[i].Date,
					fmt.Sprintf("员工 %s 在 %s 有重叠班次 %s-%s 与 %s-%s",
						staff.Name, shifts[i].Date,
						shifts[i].StartTime, shifts[i].EndTime,
						shifts[j].StartTime, shifts[j].EndTime),
					penalty,
				))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *NoOverlapConstraint) EvaluateAssignment(ctx *constraint.Context, staff *model.StaffMember, slot model.Slot) (bool, int) {
	for _, existing := range ctx.GetStaffShifts(staff.ID) {
		candidate := model.Slot{
			Date:      existing.Date,
			StartTime: existing.StartTime,
			EndTime:   existing.EndTime,
		}
		if slot.Overlaps(candidate) {
			return false, c.Weight()
		}
	}
	return true, 0
}
