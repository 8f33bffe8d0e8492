package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/skiftplan/skiftplan/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"      // 时间重叠
	ConflictRoleMismatch ConflictType = "role"         // 角色不匹配
	ConflictConsecutive  ConflictType = "consecutive"  // 连续天数超限
	ConflictAvailability ConflictType = "availability" // 不可用日期被排班
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	StaffID  string       `json:"staff_id"`
	Date     string       `json:"date"`
	Message  string       `json:"message"`
	ShiftIDs []string     `json:"shift_ids,omitempty"`
}

// ConflictDetector 冲突检测器：对最终排班做硬约束完备性检查
type ConflictDetector struct{}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// DetectAll 检测全部冲突。正确生成的排班应返回空结果。
func (d *ConflictDetector) DetectAll(shifts []model.Shift, staff []model.StaffMember) []Conflict {
	staffMap := make(map[string]*model.StaffMember, len(staff))
	for i := range staff {
		staffMap[staff[i].ID] = &staff[i]
	}

	byStaff := make(map[string][]model.Shift)
	for _, s := range shifts {
		if s.AssignedEmployeeID == nil {
			continue
		}
		byStaff[*s.AssignedEmployeeID] = append(byStaff[*s.AssignedEmployeeID], s)
	}

	ids := make([]string, 0, len(byStaff))
	for id := range byStaff {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var conflicts []Conflict
	for _, id := range ids {
		member := staffMap[id]
		if member == nil {
			continue
		}
		assigned := byStaff[id]
		conflicts = append(conflicts, d.detectRoleMismatches(member, assigned)...)
		conflicts = append(conflicts, d.detectAvailabilityViolations(member, assigned)...)
		conflicts = append(conflicts, d.detectOverlaps(member, assigned)...)
		conflicts = append(conflicts, d.detectConsecutiveViolations(member, assigned)...)
	}
	return conflicts
}

// detectRoleMismatches 检查角色匹配
func (d *ConflictDetector) detectRoleMismatches(member *model.StaffMember, shifts []model.Shift) []Conflict {
	var conflicts []Conflict
	for _, s := range shifts {
		if s.RequiredRole == member.Role {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictRoleMismatch,
			Severity: "error",
			StaffID:  member.ID,
			Date:     s.Date,
			Message: fmt.Sprintf("员工 %s 的角色 %s 与班次要求的 %s 不符",
				member.Name, member.Role, s.RequiredRole),
			ShiftIDs: []string{s.ID},
		})
	}
	return conflicts
}

// detectAvailabilityViolations 检查不可用日期
func (d *ConflictDetector) detectAvailabilityViolations(member *model.StaffMember, shifts []model.Shift) []Conflict {
	var conflicts []Conflict
	for _, s := range shifts {
		if !member.IsUnavailableOn(s.Date) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictAvailability,
			Severity: "error",
			StaffID:  member.ID,
			Date:     s.Date,
			Message:  fmt.Sprintf("员工 %s 在不可用日期 %s 被排班", member.Name, s.Date),
			ShiftIDs: []string{s.ID},
		})
	}
	return conflicts
}

// detectOverlaps 检查同日时间窗重叠
func (d *ConflictDetector) detectOverlaps(member *model.StaffMember, shifts []model.Shift) []Conflict {
	sorted := make([]model.Shift, len(shifts))
	copy(sorted, shifts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	var conflicts []Conflict
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Date != sorted[i].Date {
				break
			}
			if !sorted[i].Overlaps(&sorted[j]) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: "error",
				StaffID:  member.ID,
				Date:     sorted[i].Date,
				Message: fmt.Sprintf("员工 %s 在 %s 有重叠班次 %s-%s 与 %s-%s",
					member.Name, sorted[i].Date,
					sorted[i].StartTime, sorted[i].EndTime,
					sorted[j].StartTime, sorted[j].EndTime),
				ShiftIDs: []string{sorted[i].ID, sorted[j].ID},
			})
		}
	}
	return conflicts
}

// detectConsecutiveViolations 检查最大连续工作天数
func (d *ConflictDetector) detectConsecutiveViolations(member *model.StaffMember, shifts []model.Shift) []Conflict {
	maxDays, ok := member.MaxConsecutive()
	if !ok || len(shifts) == 0 {
		return nil
	}

	dateSet := make(map[string]bool)
	for _, s := range shifts {
		dateSet[s.Date] = true
	}
	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var conflicts []Conflict
	runStart := 0
	run := 1
	for i := 1; i <= len(dates); i++ {
		if i < len(dates) && consecutiveDates(dates[i-1], dates[i]) {
			run++
			continue
		}
		if run > maxDays {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictConsecutive,
				Severity: "error",
				StaffID:  member.ID,
				Date:     dates[runStart],
				Message: fmt.Sprintf("员工 %s 自 %s 起连续工作 %d 天，超过限制 %d 天",
					member.Name, dates[runStart], run, maxDays),
			})
		}
		runStart = i
		run = 1
	}
	return conflicts
}

// consecutiveDates 判断两个日期是否为相邻两天
func consecutiveDates(prev, next string) bool {
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
