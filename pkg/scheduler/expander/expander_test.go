package expander

import (
	"reflect"
	"testing"

	"github.com/skiftplan/skiftplan/pkg/model"
)

func strPtr(s string) *string { return &s }

// weekdayHours 周一到周五 09:00-17:00 营业
func weekdayHours() model.PharmacyHours {
	hours := make(model.PharmacyHours, 0, 7)
	for dow := 0; dow < 7; dow++ {
		h := model.DayHours{DayOfWeek: dow}
		if dow >= 1 && dow <= 5 {
			h.OpenTime = strPtr("09:00")
			h.CloseTime = strPtr("17:00")
		}
		hours = append(hours, h)
	}
	return hours
}

func baseRequest() *model.GenerateRequest {
	return &model.GenerateRequest{
		StartDate:     "2026-01-05", // 周一
		EndDate:       "2026-01-09", // 周五
		PharmacyHours: weekdayHours(),
		Requirements: []model.CoverageRequirement{
			{
				DaysOfWeek:    []int{1, 2, 3, 4, 5},
				StartTime:     "09:00",
				EndTime:       "17:00",
				RequiredRole:  model.RolePharmacist,
				RequiredCount: 1,
				FillType:      model.FillFullDay,
			},
		},
	}
}

func TestExpandWorkWeek(t *testing.T) {
	e := New()

	slots, warnings, err := e.Expand(baseRequest())
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("不应有告警, got %v", warnings)
	}
	if len(slots) != 5 {
		t.Fatalf("期望 5 个 Slot, got %d", len(slots))
	}

	for i, s := range slots {
		if s.StartTime != "09:00" || s.EndTime != "17:00" {
			t.Errorf("slot[%d] 时间窗 = %s-%s, want 09:00-17:00", i, s.StartTime, s.EndTime)
		}
		if s.Role != model.RolePharmacist || s.Headcount != 1 {
			t.Errorf("slot[%d] = %+v, 角色或人数不符", i, s)
		}
	}
	if slots[0].Date != "2026-01-05" || slots[4].Date != "2026-01-09" {
		t.Errorf("日期顺序不符: %s ... %s", slots[0].Date, slots[4].Date)
	}
}

func TestExpandClosedDaySkipped(t *testing.T) {
	e := New()
	req := baseRequest()
	req.StartDate = "2026-01-03" // 周六
	req.EndDate = "2026-01-05"   // 周一
	req.Requirements[0].DaysOfWeek = []int{0, 1, 2, 3, 4, 5, 6}

	slots, _, err := e.Expand(req)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	// 周六周日不营业，仅周一产生 Slot
	if len(slots) != 1 || slots[0].Date != "2026-01-05" {
		t.Errorf("期望仅周一的 1 个 Slot, got %+v", slots)
	}
}

func TestExpandExactTimeClipping(t *testing.T) {
	e := New()

	tests := []struct {
		name        string
		start, end  string
		wantSlots   int
		wantWarning bool
		wantWindow  [2]string
	}{
		{"窗口在营业时间内", "10:00", "14:00", 5, false, [2]string{"10:00", "14:00"}},
		{"窗口部分超出被裁剪", "07:00", "12:00", 5, true, [2]string{"09:00", "12:00"}},
		{"窗口完全在营业时间外被跳过", "18:00", "21:00", 0, true, [2]string{"", ""}},
		{"非法窗口被跳过", "14:00", "10:00", 0, true, [2]string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.Requirements[0].FillType = model.FillExactTime
			req.Requirements[0].StartTime = tt.start
			req.Requirements[0].EndTime = tt.end

			slots, warnings, err := e.Expand(req)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if len(slots) != tt.wantSlots {
				t.Errorf("Slot 数 = %d, want %d", len(slots), tt.wantSlots)
			}
			if (len(warnings) > 0) != tt.wantWarning {
				t.Errorf("告警 = %v, wantWarning %v", warnings, tt.wantWarning)
			}
			if tt.wantSlots > 0 {
				if slots[0].StartTime != tt.wantWindow[0] || slots[0].EndTime != tt.wantWindow[1] {
					t.Errorf("时间窗 = %s-%s, want %s-%s",
						slots[0].StartTime, slots[0].EndTime, tt.wantWindow[0], tt.wantWindow[1])
				}
			}
		})
	}
}

func TestExpandMinStaffingMerge(t *testing.T) {
	e := New()

	t.Run("同窗口取最大人数不叠加", func(t *testing.T) {
		req := baseRequest()
		req.Requirements[0].RequiredCount = 2
		req.Rules.MinStaffing = []model.MinStaffingRule{
			{Role: model.RolePharmacist, Count: 1},
		}

		slots, _, err := e.Expand(req)
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		if len(slots) != 5 {
			t.Fatalf("Slot 数 = %d, want 5", len(slots))
		}
		for _, s := range slots {
			if s.Headcount != 2 {
				t.Errorf("人数 = %d, want 2 (max 合并)", s.Headcount)
			}
		}
	})

	t.Run("无需求时规则独立产生下限", func(t *testing.T) {
		req := baseRequest()
		req.Requirements = nil
		req.Rules.MinStaffing = []model.MinStaffingRule{
			{Role: model.RoleSalesperson, Count: 1},
		}

		slots, _, err := e.Expand(req)
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		if len(slots) != 5 {
			t.Fatalf("Slot 数 = %d, want 5", len(slots))
		}
		for _, s := range slots {
			if s.Role != model.RoleSalesperson || s.StartTime != "09:00" || s.EndTime != "17:00" {
				t.Errorf("下限 Slot 不符: %+v", s)
			}
		}
	})
}

func TestExpandEmptyInputs(t *testing.T) {
	e := New()

	t.Run("无需求无规则得到空序列", func(t *testing.T) {
		req := baseRequest()
		req.Requirements = nil

		slots, warnings, err := e.Expand(req)
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		if len(slots) != 0 || len(warnings) != 0 {
			t.Errorf("期望空结果, got %d slots, %d warnings", len(slots), len(warnings))
		}
	})

	t.Run("星期集合为空的需求不展开", func(t *testing.T) {
		req := baseRequest()
		req.Requirements[0].DaysOfWeek = nil

		slots, _, err := e.Expand(req)
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		if len(slots) != 0 {
			t.Errorf("期望 0 个 Slot, got %d", len(slots))
		}
	})

	t.Run("结束日期早于开始日期报错", func(t *testing.T) {
		req := baseRequest()
		req.StartDate, req.EndDate = req.EndDate, req.StartDate

		if _, _, err := e.Expand(req); err == nil {
			t.Error("期望报错")
		}
	})
}

func TestExpandIdempotent(t *testing.T) {
	e := New()
	req := baseRequest()
	req.Requirements = append(req.Requirements, model.CoverageRequirement{
		DaysOfWeek:    []int{1, 3, 5},
		StartTime:     "10:00",
		EndTime:       "15:00",
		RequiredRole:  model.RoleSelfCareAdvisor,
		RequiredCount: 2,
		FillType:      model.FillExactTime,
	})
	req.Rules.MinStaffing = []model.MinStaffingRule{
		{Role: model.RoleSalesperson, Count: 1},
	}

	first, _, err := e.Expand(req)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	second, _, err := e.Expand(req)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("相同输入两次展开结果应一致")
	}
}

func TestFanOut(t *testing.T) {
	slots := []model.Slot{
		{Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00", Role: model.RolePharmacist, Headcount: 2},
		{Date: "2026-01-05", StartTime: "10:00", EndTime: "15:00", Role: model.RoleSalesperson, Headcount: 1},
	}

	units := FanOut(slots)
	if len(units) != 3 {
		t.Fatalf("单人 Slot 数 = %d, want 3", len(units))
	}
	for i, u := range units {
		if u.Headcount != 1 {
			t.Errorf("units[%d].Headcount = %d, want 1", i, u.Headcount)
		}
	}
	// 拆分保持顺序：前两个来自药剂师需求
	if units[0].Role != model.RolePharmacist || units[1].Role != model.RolePharmacist || units[2].Role != model.RoleSalesperson {
		t.Error("拆分应保持原有顺序")
	}
}
