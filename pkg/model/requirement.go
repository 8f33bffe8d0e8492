package model

// FillType 需求的填充策略
type FillType string

const (
	FillFullDay   FillType = "full_day"   // 覆盖当日全部营业时间
	FillExactTime FillType = "exact_time" // 仅覆盖配置的精确时间窗
)

// CoverageRequirement 周期性人员需求：在指定星期的时间窗内需要若干名指定角色
type CoverageRequirement struct {
	ID            string   `json:"id,omitempty"`
	DaysOfWeek    []int    `json:"daysOfWeek"` // 0=周日 ... 6=周六
	StartTime     string   `json:"startTime"`  // HH:MM
	EndTime       string   `json:"endTime"`    // HH:MM
	RequiredRole  Role     `json:"requiredRole"`
	RequiredCount int      `json:"requiredCount"`
	IncludeLunch  bool     `json:"includeLunch"`
	FillType      FillType `json:"fillType"`
}

// IsActive 需求是否生效：星期集合非空、角色属于固定角色集、人数至少为 1
func (r *CoverageRequirement) IsActive() bool {
	return len(r.DaysOfWeek) > 0 && r.RequiredRole.Valid() && r.RequiredCount >= 1
}

// AppliesOn 判断需求是否作用于某个星期（0=周日 ... 6=周六）
func (r *CoverageRequirement) AppliesOn(weekday int) bool {
	for _, d := range r.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}

// MinStaffingRule 最低在岗规则：营业时间内每个时刻某角色的人数下限
type MinStaffingRule struct {
	Role  Role `json:"role"`
	Count int  `json:"count"`
}

// IsActive 规则是否生效：角色属于固定角色集且人数至少为 1
func (r MinStaffingRule) IsActive() bool {
	return r.Role.Valid() && r.Count >= 1
}

// DayHours 某个星期的营业时间，open/close 为 nil 表示当天不营业
type DayHours struct {
	DayOfWeek int     `json:"dayOfWeek"` // 0=周日 ... 6=周六
	OpenTime  *string `json:"openTime"`
	CloseTime *string `json:"closeTime"`
}

// IsOpen 当天是否营业
func (h DayHours) IsOpen() bool {
	return h.OpenTime != nil && *h.OpenTime != "" && h.CloseTime != nil && *h.CloseTime != ""
}

// PharmacyHours 一周七天的营业时间
type PharmacyHours []DayHours

// ForWeekday 返回某个星期的营业时间，缺失时视为不营业
func (ph PharmacyHours) ForWeekday(weekday int) (DayHours, bool) {
	for _, h := range ph {
		if h.DayOfWeek == weekday {
			return h, h.IsOpen()
		}
	}
	return DayHours{DayOfWeek: weekday}, false
}

// SchedulingRules 全局排班规则
type SchedulingRules struct {
	DefaultLunchMinutes int               `json:"defaultLunchMinutes,omitempty"` // 默认午休时长（分钟）
	MinStaffing         []MinStaffingRule `json:"minStaffing,omitempty"`
}

// ActiveMinStaffing 返回生效的最低在岗规则（保持原始顺序）
func (r SchedulingRules) ActiveMinStaffing() []MinStaffingRule {
	active := make([]MinStaffingRule, 0, len(r.MinStaffing))
	for _, rule := range r.MinStaffing {
		if rule.IsActive() {
			active = append(active, rule)
		}
	}
	return active
}
