// Package validator 提供排班验证功能
package validator

import (
	"fmt"

	"github.com/skiftplan/skiftplan/pkg/model"
)

// RoleStatus 角色人力状态
type RoleStatus string

const (
	StatusOK           RoleStatus = "ok"
	StatusUnderstaffed RoleStatus = "understaffed"
	StatusOverstaffed  RoleStatus = "overstaffed"
)

// RosterReport 生成前的人力评估结果
type RosterReport struct {
	Statuses map[model.Role]RoleStatus `json:"statuses"`
	Warnings []string                  `json:"warnings"`
}

// RosterValidator 人力评估器：在生成前比较各角色的需求人数与可用人数。
// 只产生建议性告警，不阻止生成，可在名单或需求变化时反复调用。
type RosterValidator struct{}

// NewRosterValidator 创建人力评估器
func NewRosterValidator() *RosterValidator {
	return &RosterValidator{}
}

// Validate 评估名单相对需求的人力情况。
// 各角色的需求人数取该角色所有需求与最低在岗规则中的最大值。
func (v *RosterValidator) Validate(requirements []model.CoverageRequirement, rules []model.MinStaffingRule, staff []model.StaffMember) *RosterReport {
	report := &RosterReport{
		Statuses: make(map[model.Role]RoleStatus),
	}

	required := make(map[model.Role]int)
	for _, r := range requirements {
		if !r.IsActive() {
			continue
		}
		if r.RequiredCount > required[r.RequiredRole] {
			required[r.RequiredRole] = r.RequiredCount
		}
	}
	for _, rule := range rules {
		if !rule.IsActive() {
			continue
		}
		if rule.Count > required[rule.Role] {
			required[rule.Role] = rule.Count
		}
	}

	available := make(map[model.Role]int)
	for _, member := range staff {
		available[member.Role]++
	}

	// 固定角色顺序保证告警顺序稳定
	for _, role := range model.AllRoles {
		need := required[role]
		if need == 0 {
			continue
		}
		have := available[role]

		switch {
		case need > have:
			report.Statuses[role] = StatusUnderstaffed
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"You need %d %s(s) but only have %d available.",
				need, role.Display(), have))
		case have > need+1:
			report.Statuses[role] = StatusOverstaffed
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"You have %d %s(s) available but only need %d. This may lead to unassigned staff.",
				have, role.Display(), need))
		default:
			report.Statuses[role] = StatusOK
		}
	}

	return report
}
