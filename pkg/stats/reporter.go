// Package stats 提供排班统计分析功能
package stats

import (
	"fmt"
	"sort"

	"github.com/skiftplan/skiftplan/pkg/model"
)

// Reporter 统计与告警汇总器：把最终班次序列汇总为
// 覆盖告警、公平性告警和按员工的利用率统计
type Reporter struct {
	toleranceHours float64
}

// NewReporter 创建汇总器，toleranceHours 为公平性容差（小时）
func NewReporter(toleranceHours float64) *Reporter {
	if toleranceHours <= 0 {
		toleranceHours = 5.0
	}
	return &Reporter{toleranceHours: toleranceHours}
}

// Report 汇总生成结果。
// 告警文案固定格式，测试可据此断言数量、角色与日期。
func (r *Reporter) Report(shifts []model.Shift, staff []model.StaffMember, periodDays int) (model.GenerationStats, []string, []string) {
	stats := model.GenerationStats{
		TotalShifts:         len(shifts),
		EmployeeUtilization: make(map[string]model.EmployeeUtilization, len(staff)),
	}

	// 按员工累计工时与班次数
	hoursByID := make(map[string]float64)
	countsByID := make(map[string]int)
	for _, s := range shifts {
		if s.IsUnfilled {
			stats.UnfilledShifts++
			continue
		}
		if s.AssignedEmployeeID == nil {
			continue
		}
		hoursByID[*s.AssignedEmployeeID] += s.WorkedHours()
		countsByID[*s.AssignedEmployeeID]++
	}

	// 利用率按姓名索引（外部契约要求）
	for _, member := range staff {
		stats.EmployeeUtilization[member.Name] = model.EmployeeUtilization{
			AssignedHours: hoursByID[member.ID],
			TargetHours:   member.PeriodTargetHours(periodDays),
			ShiftsCount:   countsByID[member.ID],
		}
	}

	return stats, r.coverageWarnings(shifts), r.fairnessWarnings(staff, hoursByID, periodDays)
}

// coverageWarnings 汇总未填充班次：按日期与角色分组，日期升序
func (r *Reporter) coverageWarnings(shifts []model.Shift) []string {
	type key struct {
		date string
		role model.Role
	}
	counts := make(map[key]int)
	for _, s := range shifts {
		if s.IsUnfilled {
			counts[key{date: s.Date, role: s.RequiredRole}]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return roleOrder(keys[i].role) < roleOrder(keys[j].role)
	})

	warnings := make([]string, 0, len(keys))
	for _, k := range keys {
		warnings = append(warnings, fmt.Sprintf(
			"%d %s shift(s) on %s could not be filled.",
			counts[k], k.role.Display(), k.date))
	}
	return warnings
}

// fairnessWarnings 工时相对周期目标的偏差告警；
// 小时工低于目标属于正常，不告警
func (r *Reporter) fairnessWarnings(staff []model.StaffMember, hoursByID map[string]float64, periodDays int) []string {
	var warnings []string
	for _, member := range staff {
		target := member.PeriodTargetHours(periodDays)
		assigned := hoursByID[member.ID]

		switch {
		case assigned < target-r.toleranceHours:
			if member.EmploymentType.IsHourly() {
				continue
			}
			warnings = append(warnings, fmt.Sprintf(
				"%s is %.1f hours under target (%.1f/%.1f).",
				member.Name, target-assigned, assigned, target))
		case assigned > target+r.toleranceHours:
			warnings = append(warnings, fmt.Sprintf(
				"%s is %.1f hours over target (%.1f/%.1f).",
				member.Name, assigned-target, assigned, target))
		}
	}
	return warnings
}

// roleOrder 返回角色的固定排序序号
func roleOrder(role model.Role) int {
	for i, r := range model.AllRoles {
		if r == role {
			return i
		}
	}
	return len(model.AllRoles)
}
