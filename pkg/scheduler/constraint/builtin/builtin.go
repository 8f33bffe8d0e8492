package builtin

import (
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// DefaultFairnessToleranceHours 默认公平性容差（小时）
const DefaultFairnessToleranceHours = 5.0

// RegisterDefaultConstraints 注册默认约束集：
// 四条硬约束（角色匹配、可用性、禁止重叠、最大连续天数）加目标工时软约束
func RegisterDefaultConstraints(m *constraint.Manager, fairnessToleranceHours float64) {
	if fairnessToleranceHours <= 0 {
		fairnessToleranceHours = DefaultFairnessToleranceHours
	}

	m.Register(NewRoleMatchConstraint())
	m.Register(NewAvailabilityConstraint())
	m.Register(NewNoOverlapConstraint())
	m.Register(NewMaxConsecutiveDaysConstraint())
	m.Register(NewTargetHoursConstraint(fairnessToleranceHours))
}
