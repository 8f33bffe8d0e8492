package model

import "time"

// Slot 展开后的具体人员需求：某日期某时间窗内需要若干名某角色。
// 经过单人拆分后 Headcount 恒为 1，由求解器逐个转化为 Shift。
type Slot struct {
	Date         string   `json:"date"`       // YYYY-MM-DD
	StartTime    string   `json:"start_time"` // HH:MM
	EndTime      string   `json:"end_time"`   // HH:MM
	Role         Role     `json:"role"`
	Headcount    int      `json:"headcount"`
	IncludeLunch bool     `json:"include_lunch"`
	FillType     FillType `json:"fill_type"`
}

// WindowMinutes 返回时间窗的时长（分钟），非法时刻返回 0
func (s Slot) WindowMinutes() int {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return 0
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Overlaps 判断两个 Slot 是否在同一日期且时间窗重叠
func (s Slot) Overlaps(other Slot) bool {
	if s.Date != other.Date {
		return false
	}
	return clockRangesOverlap(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}

// clockRangesOverlap 判断同一天内两个 HH:MM 时间窗是否重叠
func clockRangesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	as, err1 := ParseClock(aStart)
	ae, err2 := ParseClock(aEnd)
	bs, err3 := ParseClock(bStart)
	be, err4 := ParseClock(bEnd)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return as < be && bs < ae
}

// Shift 生成的排班班次（单人），引擎产出后即视为不可变
type Shift struct {
	ID                   string  `json:"-"` // 内部/持久化标识，不进入响应契约
	Date                 string  `json:"date"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	RequiredRole         Role    `json:"required_role"`
	AssignedEmployeeID   *string `json:"assigned_employee_id"`
	IsUnfilled           bool    `json:"is_unfilled"`
	LunchDurationMinutes *int    `json:"lunch_duration_minutes"`
	Notes                string  `json:"notes"`
	PublishedShiftNeedID *string `json:"published_shift_need_id,omitempty"` // 对外发布的空缺引用
}

// Overlaps 判断两个班次是否在同一日期且时间窗重叠
func (s *Shift) Overlaps(other *Shift) bool {
	if s.Date != other.Date {
		return false
	}
	return clockRangesOverlap(s.StartTime, s.EndTime, other.StartTime, other.EndTime)
}

// WindowHours 返回班次时间窗的时长（小时），不扣午休
func (s *Shift) WindowHours() float64 {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return 0
	}
	if end <= start {
		return 0
	}
	return float64(end-start) / 60.0
}

// WorkedHours 返回扣除午休后的实际工时（小时）
func (s *Shift) WorkedHours() float64 {
	hours := s.WindowHours()
	if s.LunchDurationMinutes != nil {
		hours -= float64(*s.LunchDurationMinutes) / 60.0
	}
	if hours < 0 {
		return 0
	}
	return hours
}

// DateTime 返回班次日期对象（用于连续天数与周统计）
func (s *Shift) DateTime() (time.Time, error) {
	return ParseDate(s.Date)
}

// EmployeeUtilization 单个员工的工时利用情况
type EmployeeUtilization struct {
	AssignedHours float64 `json:"assignedHours"`
	TargetHours   float64 `json:"targetHours"`
	ShiftsCount   int     `json:"shiftsCount"`
}

// GenerationStats 排班统计
type GenerationStats struct {
	TotalShifts         int                            `json:"totalShifts"`
	UnfilledShifts      int                            `json:"unfilledShifts"`
	EmployeeUtilization map[string]EmployeeUtilization `json:"employeeUtilization"` // 按员工姓名索引
}

// GenerationResult 一次排班生成的完整结果
type GenerationResult struct {
	Schedule         []Shift         `json:"schedule"`
	Warnings         []string        `json:"warnings"`
	FairnessWarnings []string        `json:"fairnessWarnings"`
	Stats            GenerationStats `json:"stats"`
	Error            string          `json:"error,omitempty"` // 仅在输入非法时出现
}

// GenerateRequest 排班生成请求（外部契约）
type GenerateRequest struct {
	StartDate     string                `json:"startDate"` // YYYY-MM-DD
	EndDate       string                `json:"endDate"`   // YYYY-MM-DD
	PharmacyHours PharmacyHours         `json:"pharmacyHours"`
	Requirements  []CoverageRequirement `json:"requirements"`
	Employees     []StaffMember         `json:"employees"`
	Rules         SchedulingRules       `json:"rules"`
}

// Period 返回请求的日期范围
func (r *GenerateRequest) Period() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// ActiveRequirements 返回生效的需求（保持原始顺序）
func (r *GenerateRequest) ActiveRequirements() []CoverageRequirement {
	active := make([]CoverageRequirement, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		if req.IsActive() {
			active = append(active, req)
		}
	}
	return active
}
