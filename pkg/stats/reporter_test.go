package stats

import (
	"fmt"
	"strings"
	"testing"

	"github.com/skiftplan/skiftplan/pkg/model"
)

func assigned(id string) *string { return &id }

func TestReporterCounts(t *testing.T) {
	staff := []model.StaffMember{
		{ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40, EmploymentType: model.EmploymentFullTime},
	}
	shifts := []model.Shift{
		{Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00", RequiredRole: model.RolePharmacist, AssignedEmployeeID: assigned("e1")},
		{Date: "2026-01-06", StartTime: "09:00", EndTime: "17:00", RequiredRole: model.RolePharmacist, IsUnfilled: true},
	}

	r := NewReporter(5.0)
	stats, warnings, _ := r.Report(shifts, staff, 7)

	if stats.TotalShifts != 2 {
		t.Errorf("TotalShifts = %d, want 2", stats.TotalShifts)
	}
	if stats.UnfilledShifts != 1 {
		t.Errorf("UnfilledShifts = %d, want 1", stats.UnfilledShifts)
	}
	if len(warnings) != 1 {
		t.Fatalf("覆盖告警数 = %d, want 1", len(warnings))
	}
	if !strings.Contains(warnings[0], "2026-01-06") || !strings.Contains(warnings[0], "Farmaceut") {
		t.Errorf("覆盖告警应包含日期与角色展示名: %s", warnings[0])
	}

	util, ok := stats.EmployeeUtilization["Anna"]
	if !ok {
		t.Fatal("利用率应按姓名索引")
	}
	if util.AssignedHours != 8 || util.ShiftsCount != 1 {
		t.Errorf("利用率 = %+v, want 8 小时 1 班", util)
	}
	if util.TargetHours != 40 {
		t.Errorf("TargetHours = %v, want 40", util.TargetHours)
	}
}

func TestReporterCoverageWarningGrouping(t *testing.T) {
	shifts := []model.Shift{
		{Date: "2026-01-06", RequiredRole: model.RoleSalesperson, StartTime: "09:00", EndTime: "17:00", IsUnfilled: true},
		{Date: "2026-01-05", RequiredRole: model.RolePharmacist, StartTime: "09:00", EndTime: "17:00", IsUnfilled: true},
		{Date: "2026-01-05", RequiredRole: model.RolePharmacist, StartTime: "09:00", EndTime: "13:00", IsUnfilled: true},
	}

	r := NewReporter(5.0)
	_, warnings, _ := r.Report(shifts, nil, 7)

	if len(warnings) != 2 {
		t.Fatalf("告警数 = %d, want 2（按日期角色分组）", len(warnings))
	}
	// 日期升序
	if !strings.HasPrefix(warnings[0], "2 Farmaceut") || !strings.Contains(warnings[0], "2026-01-05") {
		t.Errorf("首条告警应为 01-05 的 2 个药剂师班次: %s", warnings[0])
	}
	if !strings.Contains(warnings[1], "2026-01-06") || !strings.Contains(warnings[1], "Säljare") {
		t.Errorf("次条告警应为 01-06 的销售班次: %s", warnings[1])
	}
}

func TestReporterFairnessWarnings(t *testing.T) {
	periodDays := 7

	tests := []struct {
		name       string
		member     model.StaffMember
		hours      float64
		wantWarn   bool
		wantSubstr string
	}{
		{
			"全职严重不足产生告警",
			model.StaffMember{ID: "e1", Name: "Anna", WeeklyTargetHours: 40, EmploymentType: model.EmploymentFullTime},
			8, true, "under target",
		},
		{
			"容差内不告警",
			model.StaffMember{ID: "e2", Name: "Bo", WeeklyTargetHours: 40, EmploymentType: model.EmploymentFullTime},
			38, false, "",
		},
		{
			"小时工不足不告警",
			model.StaffMember{ID: "e3", Name: "Tim", WeeklyTargetHours: 40, EmploymentType: model.EmploymentHourly},
			0, false, "",
		},
		{
			"小时工超时仍告警",
			model.StaffMember{ID: "e4", Name: "Siv", WeeklyTargetHours: 10, EmploymentType: model.EmploymentHourly},
			40, true, "over target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shifts := buildShiftsFor(tt.member.ID, tt.hours)
			r := NewReporter(5.0)
			_, _, fairness := r.Report(shifts, []model.StaffMember{tt.member}, periodDays)

			if (len(fairness) > 0) != tt.wantWarn {
				t.Fatalf("告警 = %v, wantWarn %v", fairness, tt.wantWarn)
			}
			if tt.wantWarn {
				if !strings.Contains(fairness[0], tt.member.Name) || !strings.Contains(fairness[0], tt.wantSubstr) {
					t.Errorf("告警文案不符: %s", fairness[0])
				}
			}
		})
	}
}

// buildShiftsFor 构造指定总工时的整点班次（每班 8 小时，余数一班）
func buildShiftsFor(staffID string, hours float64) []model.Shift {
	var shifts []model.Shift
	day := 5
	for hours > 0 {
		h := hours
		if h > 8 {
			h = 8
		}
		end := 9 + int(h)
		shifts = append(shifts, model.Shift{
			Date:               formatDay(day),
			StartTime:          "09:00",
			EndTime:            formatClock(end),
			RequiredRole:       model.RolePharmacist,
			AssignedEmployeeID: assigned(staffID),
		})
		hours -= h
		day++
	}
	return shifts
}

func formatDay(d int) string {
	return fmt.Sprintf("2026-01-%02d", d)
}

func formatClock(h int) string {
	return fmt.Sprintf("%02d:00", h)
}
