package builtin

import (
	"fmt"
	"sort"
	"time"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// MaxConsecutiveDaysConstraint 最大连续工作天数约束。
// 上限是员工个人属性，未设置的员工不受限。
type MaxConsecutiveDaysConstraint struct {
	*BaseConstraint
}

// NewMaxConsecutiveDaysConstraint 创建最大连续工作天数约束
func NewMaxConsecutiveDaysConstraint() *MaxConsecutiveDaysConstraint {
	return &MaxConsecutiveDaysConstraint{
		BaseConstraint: NewBaseConstraint(
			"最大连续工作天数",
			constraint.TypeMaxConsecutiveDays,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个排班
func (c *MaxConsecutiveDaysConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, staff := range ctx.Staff {
		maxDays, ok := staff.MaxConsecutive()
		if !ok {
			continue
		}

		shifts := ctx.GetStaffShifts(staff.ID)
		if len(shifts) == 0 {
			continue
		}

		// 去重后按日期排序
		workDates := make(map[string]bool)
		for _, s := range shifts {
			workDates[s.Date] = true
		}
		dates := make([]string, 0, len(workDates))
		for d := range workDates {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		// 统计最长连续天数
		consecutive := 1
		maxConsecutive := 1
		for i := 1; i < len(dates); i++ {
			if isConsecutiveDate(dates[i-1], dates[i]) {
				consecutive++
				if consecutive > maxConsecutive {
					maxConsecutive = consecutive
				}
			} else {
				consecutive = 1
			}
		}

		if maxConsecutive > maxDays {
			isValid = false
			penalty := c.Weight() * (maxConsecutive - maxDays)
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(
				staff.ID, "",
				fmt.Sprintf("员工 %s 连续工作 %d 天，超过限制 %d 天", staff.Name, maxConsecutive, maxDays),
				penalty,
			))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单个分配
func (c *MaxConsecutiveDaysConstraint) EvaluateAssignment(ctx *constraint.Context, staff *model.StaffMember, slot model.Slot) (bool, int) {
	maxDays, ok := staff.MaxConsecutive()
	if !ok {
		return true, 0
	}

	// 同一天已有班次不会拉长连续天数
	for _, s := range ctx.GetStaffShifts(staff.ID) {
		if s.Date == slot.Date {
			return true, 0
		}
	}

	// 计算加上新分配后的连续天数
	consecutiveDays := ctx.GetStaffConsecutiveDays(staff.ID, slot.Date) + 1
	if consecutiveDays > maxDays {
		return false, c.Weight() * (consecutiveDays - maxDays)
	}

	return true, 0
}

// isConsecutiveDate 判断两个日期是否为相邻两天
func isConsecutiveDate(prev, next string) bool {
	p, err := time.Parse(model.DateLayout, prev)
	if err != nil {
		return false
	}
	n, err := time.Parse(model.DateLayout, next)
	if err != nil {
		return false
	}
	return n.Sub(p) == 24*time.Hour
}
