// Package e2e 提供端到端测试：以原始 JSON 走完整 HTTP 请求/响应
package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skiftplan/skiftplan/internal/handler"
	"github.com/skiftplan/skiftplan/pkg/scheduler"
)

func newTestHandler() *handler.ScheduleHandler {
	engine := scheduler.NewEngine(scheduler.DefaultOptions())
	return handler.NewScheduleHandler(engine, nil, nil, nil)
}

const generateRequestJSON = `{
	"startDate": "2026-01-12",
	"endDate": "2026-01-16",
	"pharmacyHours": [
		{"dayOfWeek": 0, "openTime": null, "closeTime": null},
		{"dayOfWeek": 1, "openTime": "09:00", "closeTime": "17:00"},
		{"dayOfWeek": 2, "openTime": "09:00", "closeTime": "17:00"},
		{"dayOfWeek": 3, "openTime": "09:00", "closeTime": "17:00"},
		{"dayOfWeek": 4, "openTime": "09:00", "closeTime": "17:00"},
		{"dayOfWeek": 5, "openTime": "09:00", "closeTime": "17:00"},
		{"dayOfWeek": 6, "openTime": null, "closeTime": null}
	],
	"requirements": [
		{
			"daysOfWeek": [1, 2, 3, 4, 5],
			"startTime": "09:00",
			"endTime": "17:00",
			"requiredRole": "pharmacist",
			"requiredCount": 1,
			"includeLunch": true,
			"fillType": "full_day"
		}
	],
	"employees": [
		{
			"id": "emp-1",
			"name": "Anna",
			"role": "pharmacist",
			"minstaAntalTimmar": 40,
			"anstallningstyp": "Heltid",
			"constraints": {"maxConsecutiveDays": null, "unavailableDates": []}
		}
	],
	"rules": {"defaultLunchMinutes": 30, "minStaffing": []}
}`

// TestGenerateEndpoint 完整生成流程：请求与响应的字段名遵循对外契约
func TestGenerateEndpoint(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/generate",
		bytes.NewReader([]byte(generateRequestJSON)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}

	// 顶层字段为 camelCase
	for _, field := range []string{"schedule", "warnings", "fairnessWarnings", "stats"} {
		if _, ok := body[field]; !ok {
			t.Errorf("响应缺少字段 %q", field)
		}
	}
	if _, ok := body["error"]; ok {
		t.Error("成功响应不应包含 error 字段")
	}

	// 班次字段为 snake_case
	var schedule []map[string]json.RawMessage
	if err := json.Unmarshal(body["schedule"], &schedule); err != nil {
		t.Fatalf("schedule 解析失败: %v", err)
	}
	if len(schedule) != 5 {
		t.Fatalf("期望 5 个班次，实际 %d", len(schedule))
	}
	for _, field := range []string{"date", "start_time", "end_time", "required_role",
		"assigned_employee_id", "is_unfilled", "lunch_duration_minutes", "notes"} {
		if _, ok := schedule[0][field]; !ok {
			t.Errorf("班次缺少字段 %q", field)
		}
	}

	// 统计按员工姓名索引
	var stats struct {
		TotalShifts         int                        `json:"totalShifts"`
		UnfilledShifts      int                        `json:"unfilledShifts"`
		EmployeeUtilization map[string]json.RawMessage `json:"employeeUtilization"`
	}
	if err := json.Unmarshal(body["stats"], &stats); err != nil {
		t.Fatalf("stats 解析失败: %v", err)
	}
	if stats.TotalShifts != 5 || stats.UnfilledShifts != 0 {
		t.Errorf("stats = %d/%d, want 5/0", stats.TotalShifts, stats.UnfilledShifts)
	}
	if _, ok := stats.EmployeeUtilization["Anna"]; !ok {
		t.Error("employeeUtilization 应按姓名索引")
	}
}

// TestGenerateEndpoint_畸形输入 畸形输入返回带 error 字段的响应
func TestGenerateEndpoint_畸形输入(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/generate",
		bytes.NewReader([]byte(`{"startDate": "2026-01-16", "endDate": "2026-01-12"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("畸形输入不应返回 200, body: %s", rec.Body.String())
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if body.Error == "" {
		t.Error("畸形输入响应应包含 error 字段")
	}
}

// TestValidateEndpoint 人员配备验证返回角色状态与告警
func TestValidateEndpoint(t *testing.T) {
	h := newTestHandler()

	reqJSON := `{
		"requirements": [
			{
				"daysOfWeek": [1, 2, 3, 4, 5],
				"startTime": "09:00",
				"endTime": "17:00",
				"requiredRole": "pharmacist",
				"requiredCount": 2,
				"fillType": "full_day"
			}
		],
		"employees": [
			{"id": "emp-1", "name": "Anna", "role": "pharmacist",
			 "minstaAntalTimmar": 40, "anstallningstyp": "Heltid"}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/validate",
		bytes.NewReader([]byte(reqJSON)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Validate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if len(body.Warnings) == 0 {
		t.Error("需要 2 名药剂师但只有 1 名，应产生告警")
	}
}

// TestSaveEndpoint_数据库未启用 持久化端点在仓储缺失时返回 503
func TestSaveEndpoint_数据库未启用(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules",
		bytes.NewReader([]byte(`{"employer_id": "a", "name": "v3"}`)))
	rec := httptest.NewRecorder()

	h.Save(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("状态码 = %d, want 503", rec.Code)
	}
}
