// Package expander 把周期性人员需求、营业时间与最低在岗规则
// 展开为具体日期上的 Slot 序列
package expander

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/skiftplan/skiftplan/pkg/errors"
	"github.com/skiftplan/skiftplan/pkg/logger"
	"github.com/skiftplan/skiftplan/pkg/model"
)

// Expander 需求展开器
type Expander struct{}

// New 创建需求展开器
func New() *Expander {
	return &Expander{}
}

// slotKey 合并用的唯一键：同角色同日期同时间窗的需求取人数最大值，不叠加
type slotKey struct {
	date  string
	start string
	end   string
	role  model.Role
}

// Expand 展开请求中的需求为有序 Slot 序列（未做单人拆分）。
// 返回展开阶段产生的告警（如时间窗落在营业时间之外）。
// 对同一输入重复调用产生完全相同的结果。
func (e *Expander) Expand(req *model.GenerateRequest) ([]model.Slot, []string, error) {
	if req.StartDate == "" || req.EndDate == "" {
		return nil, nil, apperrors.InvalidInput("startDate/endDate", "排班周期不能为空")
	}

	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return nil, nil, apperrors.InvalidInput("startDate", err.Error())
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		return nil, nil, apperrors.InvalidInput("endDate", err.Error())
	}
	if end.Before(start) {
		return nil, nil, apperrors.InvalidTimeRange(req.StartDate, req.EndDate)
	}

	merged := make(map[slotKey]model.Slot)
	var warnings []string

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		e.expandDate(req, d, merged, &warnings)
	}

	slots := make([]model.Slot, 0, len(merged))
	for _, s := range merged {
		slots = append(slots, s)
	}

	// 稳定顺序：日期、开始时刻、结束时刻、角色
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.EndTime != b.EndTime {
			return a.EndTime < b.EndTime
		}
		return a.Role < b.Role
	})

	logger.Debug().
		Int("slots", len(slots)).
		Int("warnings", len(warnings)).
		Msg("需求展开完成")

	return slots, warnings, nil
}

// expandDate 展开单个日期上的全部需求
func (e *Expander) expandDate(req *model.GenerateRequest, d time.Time, merged map[slotKey]model.Slot, warnings *[]string) {
	weekday := model.WeekdayOf(d)
	hours, open := req.PharmacyHours.ForWeekday(weekday)
	if !open {
		return
	}

	date := d.Format(model.DateLayout)
	openTime := *hours.OpenTime
	closeTime := *hours.CloseTime

	for _, r := range req.Requirements {
		if !r.IsActive() || !r.AppliesOn(weekday) {
			continue
		}

		startTime, endTime, ok := effectiveWindow(&r, openTime, closeTime, date, warnings)
		if !ok {
			continue
		}

		mergeSlot(merged, model.Slot{
			Date:         date,
			StartTime:    startTime,
			EndTime:      endTime,
			Role:         r.RequiredRole,
			Headcount:    r.RequiredCount,
			IncludeLunch: r.IncludeLunch,
			FillType:     r.FillType,
		})
	}

	// 最低在岗规则作为覆盖全部营业时间的下限
	for _, rule := range req.Rules.MinStaffing {
		if !rule.IsActive() {
			continue
		}
		mergeSlot(merged, model.Slot{
			Date:      date,
			StartTime: openTime,
			EndTime:   closeTime,
			Role:      rule.Role,
			Headcount: rule.Count,
			FillType:  model.FillFullDay,
		})
	}
}

// effectiveWindow 求需求在当天的实际时间窗。
// full_day 覆盖全部营业时间；exact_time 按配置时间窗并裁剪到营业时间内，
// 完全落在营业时间之外时跳过并告警。
func effectiveWindow(r *model.CoverageRequirement, openTime, closeTime, date string, warnings *[]string) (string, string, bool) {
	if r.FillType == model.FillFullDay {
		return openTime, closeTime, true
	}

	startTime, endTime := r.StartTime, r.EndTime
	if startTime == "" || endTime == "" || startTime >= endTime {
		*warnings = append(*warnings, fmt.Sprintf(
			"Requirement for %s on %s has an invalid time window (%s-%s) and was skipped.",
			r.RequiredRole.Display(), date, r.StartTime, r.EndTime))
		return "", "", false
	}

	// HH:MM 字符串可直接按字典序比较
	if endTime <= openTime || startTime >= closeTime {
		*warnings = append(*warnings, fmt.Sprintf(
			"Requirement for %s on %s (%s-%s) falls outside opening hours (%s-%s) and was skipped.",
			r.RequiredRole.Display(), date, r.StartTime, r.EndTime, openTime, closeTime))
		return "", "", false
	}

	clipped := false
	if startTime < openTime {
		startTime = openTime
		clipped = true
	}
	if endTime > closeTime {
		endTime = closeTime
		clipped = true
	}
	if clipped {
		*warnings = append(*warnings, fmt.Sprintf(
			"Requirement for %s on %s was clipped to opening hours (%s-%s).",
			r.RequiredRole.Display(), date, startTime, endTime))
	}

	return startTime, endTime, true
}

// mergeSlot 合并同键 Slot，人数取最大值，午休标记取并集
func mergeSlot(merged map[slotKey]model.Slot, s model.Slot) {
	key := slotKey{date: s.Date, start: s.StartTime, end: s.EndTime, role: s.Role}
	if existing, ok := merged[key]; ok {
		if s.Headcount > existing.Headcount {
			existing.Headcount = s.Headcount
		}
		existing.IncludeLunch = existing.IncludeLunch || s.IncludeLunch
		merged[key] = existing
		return
	}
	merged[key] = s
}

// FanOut 把多人 Slot 拆分为单人 Slot，保持原有顺序
func FanOut(slots []model.Slot) []model.Slot {
	units := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		for i := 0; i < s.Headcount; i++ {
			unit := s
			unit.Headcount = 1
			units = append(units, unit)
		}
	}
	return units
}
