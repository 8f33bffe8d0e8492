// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/skiftplan/skiftplan/internal/repository"
	apperrors "github.com/skiftplan/skiftplan/pkg/errors"
	"github.com/skiftplan/skiftplan/pkg/model"
)

// SaveScheduleRequest 保存排班计划请求
type SaveScheduleRequest struct {
	EmployerID string              `json:"employer_id"`
	Name       string              `json:"name"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Schedule   []model.Shift       `json:"schedule"`
	Employees  []model.StaffMember `json:"employees"`
}

// SaveScheduleResponse 保存排班计划响应
type SaveScheduleResponse struct {
	ScheduleID string `json:"schedule_id"`
	Shifts     int    `json:"shifts"`
}

// Save 将生成结果保存为命名的排班计划
func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.persistenceReady(w) {
		return
	}

	var req SaveScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}

	employerID, err := uuid.Parse(req.EmployerID)
	if err != nil {
		respondError(w, apperrors.InvalidInput("employer_id", "无效的雇主ID格式"))
		return
	}
	if req.Name == "" {
		respondError(w, apperrors.InvalidInput("name", "计划名称不能为空"))
		return
	}

	unfilled := 0
	for _, s := range req.Schedule {
		if s.IsUnfilled {
			unfilled++
		}
	}

	schedule := &repository.Schedule{
		EmployerID:     employerID,
		Name:           req.Name,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TotalShifts:    len(req.Schedule),
		UnfilledShifts: unfilled,
	}
	if err := h.schedules.Create(r.Context(), schedule); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存排班计划失败"))
		return
	}

	rows := repository.ShiftRowsFromResult(employerID, req.Schedule, req.Employees)
	if err := h.schedules.ReplaceShifts(r.Context(), schedule.ID, rows); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存班次行失败"))
		return
	}

	respondJSON(w, http.StatusCreated, SaveScheduleResponse{
		ScheduleID: schedule.ID.String(),
		Shifts:     len(rows),
	})
}

// List 列出排班计划
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.persistenceReady(w) {
		return
	}

	filter := repository.DefaultListFilter()
	if v := r.URL.Query().Get("employer_id"); v != "" {
		employerID, err := uuid.Parse(v)
		if err != nil {
			respondError(w, apperrors.InvalidInput("employer_id", "无效的雇主ID格式"))
			return
		}
		filter = filter.WithEmployerID(employerID)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter = filter.WithStatus(v)
	}

	schedules, total, err := h.schedules.List(r.Context(), filter)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班计划失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"total":     total,
	})
}

// GetShifts 获取排班计划的班次行
func (h *ScheduleHandler) GetShifts(w http.ResponseWriter, r *http.Request) {
	if !h.persistenceReady(w) {
		return
	}

	scheduleID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.GetByID(r.Context(), scheduleID)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班计划失败"))
		return
	}
	if schedule == nil {
		respondError(w, apperrors.NotFound("schedule", scheduleID.String()))
		return
	}

	shifts, err := h.schedules.GetShifts(r.Context(), scheduleID)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询班次行失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule": schedule,
		"shifts":   shifts,
	})
}

// PublishResponse 外发空缺班次响应
type PublishResponse struct {
	PostingID string `json:"posting_id"`
}

// Publish 将一个空缺班次外发为公开职位，并把职位ID回写到班次行
func (h *ScheduleHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if !h.persistenceReady(w) {
		return
	}

	shiftID, ok := parseIDParam(w, r, "shiftID")
	if !ok {
		return
	}

	shift, err := h.schedules.GetShiftByID(r.Context(), shiftID)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询班次行失败"))
		return
	}
	if shift == nil {
		respondError(w, apperrors.NotFound("shift", shiftID.String()))
		return
	}
	if !shift.IsUnfilled {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "只能外发未填充的班次"))
		return
	}
	if shift.PublishedShiftNeedID != nil {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "班次已外发"))
		return
	}

	role := model.Role(shift.RequiredRole)
	posting := &repository.Posting{
		EmployerID:   shift.EmployerID,
		Title:        fmt.Sprintf("%s Behövs", role.Display()),
		Date:         shift.ShiftDate,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		RequiredRole: shift.RequiredRole,
	}
	if shift.LunchDurationMinutes != nil {
		posting.LunchMinutes = *shift.LunchDurationMinutes
	}

	if err := h.postings.Create(r.Context(), posting); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "创建外发职位失败"))
		return
	}
	if err := h.schedules.MarkShiftPublished(r.Context(), shift.ID, posting.ID); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "回写外发职位ID失败"))
		return
	}

	respondJSON(w, http.StatusCreated, PublishResponse{PostingID: posting.ID.String()})
}

// Sync 将员工个人班次与排班计划对账
func (h *ScheduleHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if !h.persistenceReady(w) {
		return
	}

	scheduleID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	shifts, err := h.schedules.GetShifts(r.Context(), scheduleID)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询班次行失败"))
		return
	}

	result, err := h.employeeShifts.SyncSchedule(r.Context(), scheduleID, shifts)
	if err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeDatabaseError, "同步员工班次失败"))
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// persistenceReady 检查仓储是否配置
func (h *ScheduleHandler) persistenceReady(w http.ResponseWriter) bool {
	if h.schedules == nil {
		respondError(w, apperrors.New(apperrors.CodeUnavailable, "持久化未启用").WithDetails("设置 DB_ENABLED=true 以启用"))
		return false
	}
	return true
}

// parseIDParam 解析路径中的UUID参数
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		respondError(w, apperrors.InvalidInput(name, "无效的ID格式"))
		return uuid.Nil, false
	}
	return id, true
}
