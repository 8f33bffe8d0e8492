package model

// StaffConstraints 员工个人排班限制
type StaffConstraints struct {
	MaxConsecutiveDays *int     `json:"maxConsecutiveDays"`         // 最大连续工作天数，nil 表示不限
	UnavailableDates   []string `json:"unavailableDates,omitempty"` // 不可用日期（YYYY-MM-DD）
}

// StaffMember 员工（正式员工与手工录入员工统一为同一形态，
// 来源标记仅供持久化层使用，引擎本身不读取）
type StaffMember struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Role              Role              `json:"role"`
	WeeklyTargetHours float64           `json:"minstaAntalTimmar"` // 每周目标工时
	EmploymentType    EmploymentType    `json:"anstallningstyp"`
	Constraints       *StaffConstraints `json:"constraints,omitempty"`
	IsManual          bool              `json:"isManual,omitempty"`
}

// IsUnavailableOn 判断员工在某日期是否不可用
func (s *StaffMember) IsUnavailableOn(date string) bool {
	if s.Constraints == nil {
		return false
	}
	for _, d := range s.Constraints.UnavailableDates {
		if d == date {
			return true
		}
	}
	return false
}

// MaxConsecutive 返回最大连续工作天数限制，第二个返回值表示是否设置
func (s *StaffMember) MaxConsecutive() (int, bool) {
	if s.Constraints == nil || s.Constraints.MaxConsecutiveDays == nil {
		return 0, false
	}
	return *s.Constraints.MaxConsecutiveDays, true
}

// PeriodTargetHours 把每周目标工时按排班周期天数折算
func (s *StaffMember) PeriodTargetHours(periodDays int) float64 {
	if periodDays <= 0 {
		return 0
	}
	return s.WeeklyTargetHours * float64(periodDays) / 7.0
}
