package validator

import (
	"testing"

	"github.com/skiftplan/skiftplan/pkg/model"
)

func assignedShift(id, date, start, end string, role model.Role, staffID string) model.Shift {
	return model.Shift{
		ID:                 id,
		Date:               date,
		StartTime:          start,
		EndTime:            end,
		RequiredRole:       role,
		AssignedEmployeeID: &staffID,
	}
}

func TestConflictDetector_干净排班无冲突(t *testing.T) {
	staff := []model.StaffMember{
		{ID: "e1", Name: "Anna", Role: model.RolePharmacist},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s2", "2026-01-13", "09:00", "17:00", model.RolePharmacist, "e1"),
		{ID: "s3", Date: "2026-01-14", StartTime: "09:00", EndTime: "17:00",
			RequiredRole: model.RolePharmacist, IsUnfilled: true},
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 0 {
		t.Fatalf("期望无冲突，实际 %d 个: %+v", len(conflicts), conflicts)
	}
}

func TestConflictDetector_角色不匹配(t *testing.T) {
	staff := []model.StaffMember{
		{ID: "e1", Name: "Erik", Role: model.RoleSalesperson},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 1 {
		t.Fatalf("期望 1 个冲突，实际 %d", len(conflicts))
	}
	if conflicts[0].Type != ConflictRoleMismatch {
		t.Errorf("期望类型 %s，实际 %s", ConflictRoleMismatch, conflicts[0].Type)
	}
	if conflicts[0].StaffID != "e1" {
		t.Errorf("期望员工 e1，实际 %s", conflicts[0].StaffID)
	}
}

func TestConflictDetector_不可用日期(t *testing.T) {
	staff := []model.StaffMember{
		{
			ID: "e1", Name: "Anna", Role: model.RolePharmacist,
			Constraints: &model.StaffConstraints{
				UnavailableDates: []string{"2026-01-13"},
			},
		},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-13", "09:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 1 || conflicts[0].Type != ConflictAvailability {
		t.Fatalf("期望 1 个不可用日期冲突，实际 %+v", conflicts)
	}
	if conflicts[0].Date != "2026-01-13" {
		t.Errorf("期望日期 2026-01-13，实际 %s", conflicts[0].Date)
	}
}

func TestConflictDetector_同日重叠(t *testing.T) {
	staff := []model.StaffMember{
		{ID: "e1", Name: "Anna", Role: model.RolePharmacist},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "14:00", model.RolePharmacist, "e1"),
		assignedShift("s2", "2026-01-12", "13:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 1 || conflicts[0].Type != ConflictOverlap {
		t.Fatalf("期望 1 个重叠冲突，实际 %+v", conflicts)
	}
	if len(conflicts[0].ShiftIDs) != 2 {
		t.Errorf("期望记录 2 个班次 ID，实际 %v", conflicts[0].ShiftIDs)
	}
}

func TestConflictDetector_同日相邻不算重叠(t *testing.T) {
	staff := []model.StaffMember{
		{ID: "e1", Name: "Anna", Role: model.RolePharmacist},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "13:00", model.RolePharmacist, "e1"),
		assignedShift("s2", "2026-01-12", "13:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 0 {
		t.Fatalf("相邻班次不应视为重叠: %+v", conflicts)
	}
}

func TestConflictDetector_连续天数超限(t *testing.T) {
	maxDays := 2
	staff := []model.StaffMember{
		{
			ID: "e1", Name: "Anna", Role: model.RolePharmacist,
			Constraints: &model.StaffConstraints{MaxConsecutiveDays: &maxDays},
		},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s2", "2026-01-13", "09:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s3", "2026-01-14", "09:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 1 || conflicts[0].Type != ConflictConsecutive {
		t.Fatalf("期望 1 个连续天数冲突，实际 %+v", conflicts)
	}
}

func TestConflictDetector_连续天数有间断不告警(t *testing.T) {
	maxDays := 2
	staff := []model.StaffMember{
		{
			ID: "e1", Name: "Anna", Role: model.RolePharmacist,
			Constraints: &model.StaffConstraints{MaxConsecutiveDays: &maxDays},
		},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s2", "2026-01-13", "09:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s3", "2026-01-15", "09:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s4", "2026-01-16", "09:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 0 {
		t.Fatalf("有间断的排班不应告警: %+v", conflicts)
	}
}

func TestConflictDetector_同日多班不累计连续天数(t *testing.T) {
	maxDays := 2
	staff := []model.StaffMember{
		{
			ID: "e1", Name: "Anna", Role: model.RolePharmacist,
			Constraints: &model.StaffConstraints{MaxConsecutiveDays: &maxDays},
		},
	}
	shifts := []model.Shift{
		assignedShift("s1", "2026-01-12", "09:00", "13:00", model.RolePharmacist, "e1"),
		assignedShift("s2", "2026-01-12", "14:00", "17:00", model.RolePharmacist, "e1"),
		assignedShift("s3", "2026-01-13", "09:00", "17:00", model.RolePharmacist, "e1"),
	}

	conflicts := NewConflictDetector().DetectAll(shifts, staff)
	if len(conflicts) != 0 {
		t.Fatalf("同日多班不应累计为超限: %+v", conflicts)
	}
}
