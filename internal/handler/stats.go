package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skiftplan/skiftplan/internal/metrics"
	apperrors "github.com/skiftplan/skiftplan/pkg/errors"
	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/stats"
)

// UtilizationRequest 工时利用分析请求
type UtilizationRequest struct {
	Schedule   []model.Shift       `json:"schedule"`
	Employees  []model.StaffMember `json:"employees"`
	StartDate  string              `json:"startDate"`
	EndDate    string              `json:"endDate"`
	PeriodDays int                 `json:"periodDays"`
}

// StatsResponse 统计接口统一响应格式
type StatsResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Utilization 分析排班结果的工时分布、公平性与覆盖率
func (h *ScheduleHandler) Utilization(w http.ResponseWriter, r *http.Request) {
	var req UtilizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondStatsError(w, http.StatusBadRequest, "解析请求失败: "+err.Error())
		return
	}

	if len(req.Schedule) == 0 {
		respondStatsError(w, http.StatusBadRequest, "schedule 不能为空")
		return
	}
	if len(req.Employees) == 0 {
		respondStatsError(w, http.StatusBadRequest, "employees 不能为空")
		return
	}

	periodDays := req.PeriodDays
	if periodDays <= 0 {
		days, appErr := periodFromDates(req.StartDate, req.EndDate)
		if appErr != nil {
			respondStatsError(w, appErr.HTTPStatus, appErr.Message)
			return
		}
		periodDays = days
	}

	result := stats.NewUtilizationAnalyzer().Analyze(req.Schedule, req.Employees, periodDays)
	metrics.SetFairnessGini(result.Gini)

	respondJSON(w, http.StatusOK, StatsResponse{Success: true, Data: result})
}

// periodFromDates 根据起止日期计算排班周期天数（含两端）
func periodFromDates(startDate, endDate string) (int, *apperrors.AppError) {
	if startDate == "" || endDate == "" {
		return 0, apperrors.InvalidInput("periodDays", "需要提供 periodDays 或 startDate/endDate")
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return 0, apperrors.InvalidInput("startDate", "日期格式应为 YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return 0, apperrors.InvalidInput("endDate", "日期格式应为 YYYY-MM-DD")
	}
	if end.Before(start) {
		return 0, apperrors.InvalidTimeRange(startDate, endDate)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// respondStatsError 以统计接口格式返回错误
func respondStatsError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, StatsResponse{Success: false, Error: message})
}
