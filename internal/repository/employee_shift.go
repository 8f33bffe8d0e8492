// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmployeeShift 员工个人日程中的一条工作班次
type EmployeeShift struct {
	ID              uuid.UUID `json:"id"`
	ScheduleID      uuid.UUID `json:"schedule_id"`
	ScheduleShiftID uuid.UUID `json:"schedule_shift_id"`
	ProfileID       string    `json:"profile_id"`
	ShiftDate       string    `json:"shift_date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Role            string    `json:"role"`
	Status          string    `json:"status"` // scheduled/cancelled
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SyncResult 对账结果
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Cancelled int `json:"cancelled"`
}

// EmployeeShiftRepository 员工班次仓储
type EmployeeShiftRepository struct {
	db DB
}

// NewEmployeeShiftRepository 创建员工班次仓储
func NewEmployeeShiftRepository(db DB) *EmployeeShiftRepository {
	return &EmployeeShiftRepository{db: db}
}

// SyncSchedule 将员工个人班次与已保存的排班计划对账。
// 对每个分配给平台账户的班次行确保存在对应的个人班次；
// 排班计划中已不存在的个人班次标记为 cancelled。
func (r *EmployeeShiftRepository) SyncSchedule(ctx context.Context, scheduleID uuid.UUID, shifts []*ScheduleShift) (*SyncResult, error) {
	existing, err := r.listBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	existingByShiftID := make(map[uuid.UUID]*EmployeeShift, len(existing))
	for _, es := range existing {
		existingByShiftID[es.ScheduleShiftID] = es
	}

	result := &SyncResult{}
	wanted := make(map[uuid.UUID]bool)

	for _, shift := range shifts {
		if shift.AssignedProfileID == nil {
			continue
		}
		wanted[shift.ID] = true

		current, ok := existingByShiftID[shift.ID]
		if !ok {
			if err := r.create(ctx, scheduleID, shift); err != nil {
				return nil, err
			}
			result.Created++
			continue
		}

		if r.needsUpdate(current, shift) {
			if err := r.update(ctx, current.ID, shift); err != nil {
				return nil, err
			}
			result.Updated++
		}
	}

	for _, es := range existing {
		if wanted[es.ScheduleShiftID] || es.Status == "cancelled" {
			continue
		}
		if err := r.cancel(ctx, es.ID); err != nil {
			return nil, err
		}
		result.Cancelled++
	}

	return result, nil
}

// ListByProfile 获取员工在日期范围内的个人班次
func (r *EmployeeShiftRepository) ListByProfile(ctx context.Context, profileID, startDate, endDate string) ([]*EmployeeShift, error) {
	query := `
		SELECT id, schedule_id, schedule_shift_id, profile_id, shift_date,
			start_time, end_time, role, status, created_at, updated_at
		FROM employee_shifts
		WHERE profile_id = $1 AND shift_date >= $2 AND shift_date <= $3
		ORDER BY shift_date, start_time
	`

	rows, err := r.db.QueryContext(ctx, query, profileID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询员工班次失败: %w", err)
	}
	defer rows.Close()

	return scanEmployeeShifts(rows)
}

// listBySchedule 获取排班计划已同步的全部个人班次
func (r *EmployeeShiftRepository) listBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*EmployeeShift, error) {
	query := `
		SELECT id, schedule_id, schedule_shift_id, profile_id, shift_date,
			start_time, end_time, role, status, created_at, updated_at
		FROM employee_shifts
		WHERE schedule_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("查询已同步班次失败: %w", err)
	}
	defer rows.Close()

	return scanEmployeeShifts(rows)
}

// needsUpdate 判断个人班次是否与班次行不一致
func (r *EmployeeShiftRepository) needsUpdate(current *EmployeeShift, shift *ScheduleShift) bool {
	return current.ProfileID != *shift.AssignedProfileID ||
		current.ShiftDate != shift.ShiftDate ||
		current.StartTime != shift.StartTime ||
		current.EndTime != shift.EndTime ||
		current.Role != shift.RequiredRole ||
		current.Status != "scheduled"
}

// create 创建个人班次
func (r *EmployeeShiftRepository) create(ctx context.Context, scheduleID uuid.UUID, shift *ScheduleShift) error {
	now := time.Now()
	query := `
		INSERT INTO employee_shifts (
			id, schedule_id, schedule_shift_id, profile_id, shift_date,
			start_time, end_time, role, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled', $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New(), scheduleID, shift.ID, *shift.AssignedProfileID,
		shift.ShiftDate, shift.StartTime, shift.EndTime, shift.RequiredRole,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("创建员工班次失败: %w", err)
	}

	return nil
}

// update 用班次行内容覆盖个人班次
func (r *EmployeeShiftRepository) update(ctx context.Context, id uuid.UUID, shift *ScheduleShift) error {
	query := `
		UPDATE employee_shifts SET
			profile_id = $2, shift_date = $3, start_time = $4, end_time = $5,
			role = $6, status = 'scheduled', updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		id, *shift.AssignedProfileID, shift.ShiftDate,
		shift.StartTime, shift.EndTime, shift.RequiredRole, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("更新员工班次失败: %w", err)
	}

	return nil
}

// cancel 取消个人班次
func (r *EmployeeShiftRepository) cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE employee_shifts SET status = 'cancelled', updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("取消员工班次失败: %w", err)
	}

	return nil
}

// scanEmployeeShifts 扫描多行员工班次
func scanEmployeeShifts(rows *sql.Rows) ([]*EmployeeShift, error) {
	var shifts []*EmployeeShift
	for rows.Next() {
		es := &EmployeeShift{}
		if err := rows.Scan(
			&es.ID, &es.ScheduleID, &es.ScheduleShiftID, &es.ProfileID,
			&es.ShiftDate, &es.StartTime, &es.EndTime, &es.Role,
			&es.Status, &es.CreatedAt, &es.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描员工班次失败: %w", err)
		}
		shifts = append(shifts, es)
	}
	return shifts, nil
}
