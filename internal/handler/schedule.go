// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skiftplan/skiftplan/internal/metrics"
	"github.com/skiftplan/skiftplan/internal/repository"
	apperrors "github.com/skiftplan/skiftplan/pkg/errors"
	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler"
	"github.com/skiftplan/skiftplan/pkg/validator"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	engine         *scheduler.Engine
	schedules      repository.ScheduleRepositoryInterface
	postings       *repository.PostingRepository
	employeeShifts *repository.EmployeeShiftRepository
}

// NewScheduleHandler 创建排班处理器。仓储为 nil 时持久化端点返回 503。
func NewScheduleHandler(
	engine *scheduler.Engine,
	schedules repository.ScheduleRepositoryInterface,
	postings *repository.PostingRepository,
	employeeShifts *repository.EmployeeShiftRepository,
) *ScheduleHandler {
	return &ScheduleHandler{
		engine:         engine,
		schedules:      schedules,
		postings:       postings,
		employeeShifts: employeeShifts,
	}
}

// Generate 生成排班
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondGenerationError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondGenerationError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	started := time.Now()
	result, err := h.engine.Generate(r.Context(), &req)
	duration := time.Since(started)

	if err != nil {
		metrics.RecordScheduleGeneration(false, duration, 0)
		respondGenerationError(w, toAppError(err))
		return
	}

	metrics.RecordScheduleGeneration(true, duration, result.Stats.UnfilledShifts)
	if result.Stats.TotalShifts > 0 {
		filled := result.Stats.TotalShifts - result.Stats.UnfilledShifts
		metrics.SetCoverageRate(float64(filled) / float64(result.Stats.TotalShifts) * 100)
	}

	respondJSON(w, http.StatusOK, result)
}

// ValidateRequest 人力评估请求
type ValidateRequest struct {
	Requirements []model.CoverageRequirement `json:"requirements"`
	Rules        model.SchedulingRules       `json:"rules"`
	Employees    []model.StaffMember         `json:"employees"`
	Schedule     []model.Shift               `json:"schedule,omitempty"` // 可选：对已有排班做冲突检测
}

// ValidateResponse 人力评估响应
type ValidateResponse struct {
	Statuses  map[model.Role]validator.RoleStatus `json:"statuses"`
	Warnings  []string                            `json:"warnings"`
	Conflicts []validator.Conflict                `json:"conflicts,omitempty"`
}

// Validate 生成前人力评估；附带排班时同时做硬约束冲突检测
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	report := validator.NewRosterValidator().Validate(req.Requirements, req.Rules.MinStaffing, req.Employees)

	resp := ValidateResponse{
		Statuses: report.Statuses,
		Warnings: report.Warnings,
	}
	if len(req.Schedule) > 0 {
		resp.Conflicts = validator.NewConflictDetector().DetectAll(req.Schedule, req.Employees)
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// respondGenerationError 按生成契约返回失败：响应体携带 error 字段
func respondGenerationError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(model.GenerationResult{
		Schedule:         []model.Shift{},
		Warnings:         []string{},
		FairnessWarnings: []string{},
		Stats: model.GenerationStats{
			EmployeeUtilization: map[string]model.EmployeeUtilization{},
		},
		Error: err.Message,
	})
}

// toAppError 将任意错误归一化为AppError
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return apperrors.Wrap(err, apperrors.CodeInternal, "排班失败")
}
