// Package integration 提供跨包集成测试
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skiftplan/skiftplan/internal/constraints"
	"github.com/skiftplan/skiftplan/internal/handler"
	"github.com/skiftplan/skiftplan/pkg/scheduler"
)

func newHandler() *handler.ScheduleHandler {
	return handler.NewScheduleHandler(scheduler.NewEngine(scheduler.DefaultOptions()), nil, nil, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

const scheduleJSON = `[
	{"date": "2026-01-12", "start_time": "09:00", "end_time": "17:00",
	 "required_role": "pharmacist", "assigned_employee_id": "emp-1",
	 "is_unfilled": false, "lunch_duration_minutes": 30, "notes": ""},
	{"date": "2026-01-13", "start_time": "09:00", "end_time": "17:00",
	 "required_role": "pharmacist", "assigned_employee_id": "emp-2",
	 "is_unfilled": false, "lunch_duration_minutes": 30, "notes": ""}
]`

const employeesJSON = `[
	{"id": "emp-1", "name": "Anna", "role": "pharmacist",
	 "minstaAntalTimmar": 40, "anstallningstyp": "Heltid"},
	{"id": "emp-2", "name": "Björn", "role": "pharmacist",
	 "minstaAntalTimmar": 40, "anstallningstyp": "Heltid"}
]`

// TestUtilizationAPI 工时利用分析端点
func TestUtilizationAPI(t *testing.T) {
	h := newHandler()

	rec := postJSON(t, h.Utilization, "/api/v1/stats/utilization",
		`{"schedule": `+scheduleJSON+`, "employees": `+employeesJSON+`,
		  "startDate": "2026-01-12", "endDate": "2026-01-16"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			AvgHours     float64 `json:"avg_hours"`
			Gini         float64 `json:"gini"`
			CoverageRate float64 `json:"coverage_rate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if !body.Success {
		t.Error("期望 success = true")
	}
	if body.Data.AvgHours != 7.5 {
		t.Errorf("AvgHours = %v, want 7.5", body.Data.AvgHours)
	}
	if body.Data.CoverageRate != 100 {
		t.Errorf("CoverageRate = %v, want 100", body.Data.CoverageRate)
	}
}

// TestUtilizationAPI_缺少输入 返回 400 与错误说明
func TestUtilizationAPI_缺少输入(t *testing.T) {
	h := newHandler()

	rec := postJSON(t, h.Utilization, "/api/v1/stats/utilization", `{"schedule": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("状态码 = %d, want 400", rec.Code)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Errorf("期望失败响应带错误说明，实际 %+v", body)
	}
}

// TestRecommendCoverAPI 替班推荐端点
func TestRecommendCoverAPI(t *testing.T) {
	h := newHandler()

	rec := postJSON(t, h.RecommendCover, "/api/v1/schedule/recommend-cover",
		`{"startDate": "2026-01-12", "endDate": "2026-01-16",
		  "schedule": `+scheduleJSON+`, "employees": `+employeesJSON+`,
		  "staffId": "emp-1", "date": "2026-01-12"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Recommendations []struct {
			Staff struct {
				ID string `json:"id"`
			} `json:"staff"`
			Rank int `json:"rank"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if len(body.Recommendations) != 1 {
		t.Fatalf("推荐数量 = %d, want 1", len(body.Recommendations))
	}
	if body.Recommendations[0].Staff.ID != "emp-2" {
		t.Errorf("推荐人选 = %s, want emp-2", body.Recommendations[0].Staff.ID)
	}
}

// TestRecommendCoverAPI_找不到班次 返回 404
func TestRecommendCoverAPI_找不到班次(t *testing.T) {
	h := newHandler()

	rec := postJSON(t, h.RecommendCover, "/api/v1/schedule/recommend-cover",
		`{"startDate": "2026-01-12", "endDate": "2026-01-16",
		  "schedule": `+scheduleJSON+`, "employees": `+employeesJSON+`,
		  "staffId": "emp-1", "date": "2026-01-15"}`)

	if rec.Code != http.StatusNotFound {
		t.Errorf("状态码 = %d, want 404, body: %s", rec.Code, rec.Body.String())
	}
}

// TestConstraintLibrary 约束库覆盖引擎全部内置约束
func TestConstraintLibrary(t *testing.T) {
	library := constraints.GetLibrary()

	want := map[string]string{
		"role_match":           "hard",
		"availability":         "hard",
		"no_overlap":           "hard",
		"max_consecutive_days": "hard",
		"target_hours":         "soft",
	}
	if len(library) != len(want) {
		t.Fatalf("约束数量 = %d, want %d", len(library), len(want))
	}
	for _, def := range library {
		typ, ok := want[def.Name]
		if !ok {
			t.Errorf("意外的约束 %q", def.Name)
			continue
		}
		if def.Type != typ {
			t.Errorf("约束 %s 类型 = %s, want %s", def.Name, def.Type, typ)
		}
	}
}
