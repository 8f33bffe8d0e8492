package solver

import (
	"context"
	"reflect"
	"testing"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint/builtin"
)

func newSolverContext(staff []*model.StaffMember, slots []model.Slot) *constraint.Context {
	ctx := constraint.NewContext("2026-01-05", "2026-01-09")
	ctx.SetStaff(staff)
	ctx.SetSlots(slots)
	return ctx
}

func newSolver() *GreedySolver {
	cm := constraint.NewManager()
	builtin.RegisterDefaultConstraints(cm, 5.0)
	return NewGreedySolver(cm)
}

func weekSlots(role model.Role) []model.Slot {
	dates := []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"}
	slots := make([]model.Slot, 0, len(dates))
	for _, d := range dates {
		slots = append(slots, model.Slot{
			Date: d, StartTime: "09:00", EndTime: "17:00", Role: role, Headcount: 1,
		})
	}
	return slots
}

func TestGreedySolverFillsAllSlots(t *testing.T) {
	staff := []*model.StaffMember{
		{ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40, EmploymentType: model.EmploymentFullTime},
	}
	schedCtx := newSolverContext(staff, weekSlots(model.RolePharmacist))

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if result.Statistics.TotalShifts != 5 {
		t.Errorf("TotalShifts = %d, want 5", result.Statistics.TotalShifts)
	}
	if result.Statistics.UnfilledShifts != 0 {
		t.Errorf("UnfilledShifts = %d, want 0", result.Statistics.UnfilledShifts)
	}
	for _, s := range result.Shifts {
		if s.AssignedEmployeeID == nil || *s.AssignedEmployeeID != "e1" {
			t.Errorf("班次 %s 未分配给 e1", s.Date)
		}
	}
	if got := schedCtx.GetStaffHours("e1"); got != 40 {
		t.Errorf("累计工时 = %v, want 40", got)
	}
}

func TestGreedySolverNoEligibleRole(t *testing.T) {
	staff := []*model.StaffMember{
		{ID: "e1", Name: "Bo", Role: model.RoleSalesperson, WeeklyTargetHours: 40},
	}
	schedCtx := newSolverContext(staff, weekSlots(model.RolePharmacist))

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	// 人手不足不是错误，全部班次未填充
	if !result.Success {
		t.Error("覆盖不足时求解器仍应 Success")
	}
	if result.Statistics.UnfilledShifts != 5 {
		t.Errorf("UnfilledShifts = %d, want 5", result.Statistics.UnfilledShifts)
	}
	for _, s := range result.Shifts {
		if !s.IsUnfilled || s.AssignedEmployeeID != nil {
			t.Errorf("班次 %s 应未填充", s.Date)
		}
	}
}

func TestGreedySolverFairnessBalance(t *testing.T) {
	// 两名同角色员工，十个班次应均分
	staff := []*model.StaffMember{
		{ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40},
		{ID: "e2", Name: "Curt", Role: model.RolePharmacist, WeeklyTargetHours: 40},
	}
	slots := make([]model.Slot, 0, 10)
	for _, d := range []string{"2026-01-05", "2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09"} {
		slots = append(slots,
			model.Slot{Date: d, StartTime: "09:00", EndTime: "13:00", Role: model.RolePharmacist, Headcount: 1},
			model.Slot{Date: d, StartTime: "13:00", EndTime: "17:00", Role: model.RolePharmacist, Headcount: 1},
		)
	}
	schedCtx := newSolverContext(staff, slots)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if result.Statistics.UnfilledShifts != 0 {
		t.Fatalf("UnfilledShifts = %d, want 0", result.Statistics.UnfilledShifts)
	}

	counts := map[string]int{}
	for _, s := range result.Shifts {
		counts[*s.AssignedEmployeeID]++
	}
	if counts["e1"] != 5 || counts["e2"] != 5 {
		t.Errorf("班次分布 = %v, want 均分 5/5", counts)
	}
}

func TestGreedySolverMaxConsecutive(t *testing.T) {
	two := 2
	staff := []*model.StaffMember{
		{
			ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40,
			Constraints: &model.StaffConstraints{MaxConsecutiveDays: &two},
		},
	}
	schedCtx := newSolverContext(staff, weekSlots(model.RolePharmacist))

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	// 最长连续分配不超过 2 天
	consecutive := 0
	maxRun := 0
	for _, s := range result.Shifts {
		if s.AssignedEmployeeID != nil {
			consecutive++
			if consecutive > maxRun {
				maxRun = consecutive
			}
		} else {
			consecutive = 0
		}
	}
	if maxRun > 2 {
		t.Errorf("最长连续分配 = %d 天, 超过上限 2", maxRun)
	}
	if result.Statistics.UnfilledShifts == 0 {
		t.Error("五天需求在连续上限 2 下应产生未填充班次")
	}
}

func TestGreedySolverUnavailableDate(t *testing.T) {
	staff := []*model.StaffMember{
		{
			ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40,
			Constraints: &model.StaffConstraints{UnavailableDates: []string{"2026-01-07"}},
		},
	}
	schedCtx := newSolverContext(staff, weekSlots(model.RolePharmacist))

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	for _, s := range result.Shifts {
		if s.Date == "2026-01-07" {
			if !s.IsUnfilled {
				t.Error("不可用日期的班次即使无其他候选人也不得分配")
			}
		} else if s.IsUnfilled {
			t.Errorf("班次 %s 应已填充", s.Date)
		}
	}
}

func TestGreedySolverLunchDeduction(t *testing.T) {
	tests := []struct {
		name      string
		slot      model.Slot
		wantLunch bool
	}{
		{
			"八小时班扣午休",
			model.Slot{Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00", Role: model.RolePharmacist, Headcount: 1, IncludeLunch: true},
			true,
		},
		{
			"四小时班不扣午休",
			model.Slot{Date: "2026-01-05", StartTime: "09:00", EndTime: "13:00", Role: model.RolePharmacist, Headcount: 1, IncludeLunch: true},
			false,
		},
		{
			"未启用午休不扣",
			model.Slot{Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00", Role: model.RolePharmacist, Headcount: 1},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staff := []*model.StaffMember{
				{ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40},
			}
			schedCtx := newSolverContext(staff, []model.Slot{tt.slot})

			result, err := newSolver().Solve(context.Background(), schedCtx)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			got := result.Shifts[0].LunchDurationMinutes != nil
			if got != tt.wantLunch {
				t.Errorf("午休扣除 = %v, want %v", got, tt.wantLunch)
			}
			if tt.wantLunch && *result.Shifts[0].LunchDurationMinutes != 30 {
				t.Errorf("午休时长 = %d, want 30", *result.Shifts[0].LunchDurationMinutes)
			}
		})
	}
}

func TestGreedySolverDeterminism(t *testing.T) {
	build := func() *constraint.Context {
		staff := []*model.StaffMember{
			{ID: "e2", Name: "Curt", Role: model.RolePharmacist, WeeklyTargetHours: 40},
			{ID: "e1", Name: "Anna", Role: model.RolePharmacist, WeeklyTargetHours: 40},
			{ID: "e3", Name: "Siv", Role: model.RoleSalesperson, WeeklyTargetHours: 20},
		}
		slots := append(weekSlots(model.RolePharmacist), weekSlots(model.RoleSalesperson)...)
		return newSolverContext(staff, slots)
	}

	first, err := newSolver().Solve(context.Background(), build())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	second, err := newSolver().Solve(context.Background(), build())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if !reflect.DeepEqual(first.Shifts, second.Shifts) {
		t.Error("相同输入两次求解结果应完全一致")
	}
}
