// Package constraints 对外暴露排班引擎支持的约束目录
package constraints

import "github.com/skiftplan/skiftplan/pkg/scheduler/constraint"

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`   // hard 硬约束, soft 软约束
	Source      string            `json:"source"` // rules 全局规则, employee 员工个人限制, builtin 固定内置
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 返回引擎实际执行的全部约束定义
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        string(constraint.TypeRoleMatch),
			DisplayName: "角色匹配",
			Type:        string(constraint.CategoryHard),
			Source:      "builtin",
			Description: "员工角色必须与班次要求的角色一致，药剂师班次只能由药剂师承担。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        string(constraint.TypeAvailability),
			DisplayName: "可用日期",
			Type:        string(constraint.CategoryHard),
			Source:      "employee",
			Description: "员工在其标记为不可用的日期不会被排班。",
			Params: []ConstraintParam{
				{Name: "unavailableDates", Type: "array", Description: "不可用日期列表（YYYY-MM-DD）"},
			},
		},
		{
			Name:        string(constraint.TypeNoOverlap),
			DisplayName: "同日班次不重叠",
			Type:        string(constraint.CategoryHard),
			Source:      "builtin",
			Description: "同一名员工同一天不会被分配两个时间窗重叠的班次。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        string(constraint.TypeMaxConsecutiveDays),
			DisplayName: "最大连续工作天数",
			Type:        string(constraint.CategoryHard),
			Source:      "employee",
			Description: "员工连续工作天数不超过其个人上限，未设置时不限制。",
			Params: []ConstraintParam{
				{Name: "maxConsecutiveDays", Type: "int", Description: "最大连续工作天数", Min: "1"},
			},
		},
		// =====================================================
		// 软约束
		// =====================================================
		{
			Name:        string(constraint.TypeTargetHours),
			DisplayName: "目标工时公平",
			Type:        string(constraint.CategorySoft),
			Source:      "rules",
			Description: "优先把班次分给距离折算目标工时缺口最大的员工，周期结束时工时偏差超出容差会产生公平性告警；小时工不参与告警。",
			Params: []ConstraintParam{
				{Name: "minstaAntalTimmar", Type: "float", Description: "员工每周目标工时", Min: "0"},
				{Name: "fairness_tolerance_hours", Type: "float", Description: "公平性告警容差（小时）", Default: "5"},
			},
		},
	}
}
