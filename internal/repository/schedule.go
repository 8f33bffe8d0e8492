// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skiftplan/skiftplan/pkg/model"
)

// Schedule 已保存的排班计划
type Schedule struct {
	ID             uuid.UUID `json:"id"`
	EmployerID     uuid.UUID `json:"employer_id"`
	Name           string    `json:"name"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Status         string    `json:"status"` // draft/published/archived
	TotalShifts    int       `json:"total_shifts"`
	UnfilledShifts int       `json:"unfilled_shifts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ScheduleShift 排班计划中的班次行。
// 分配对象为平台账户时写 assigned_profile_id，为手工名单成员时写 assigned_staff_id。
type ScheduleShift struct {
	ID                   uuid.UUID  `json:"id"`
	ScheduleID           uuid.UUID  `json:"schedule_id"`
	EmployerID           uuid.UUID  `json:"employer_id"`
	ShiftDate            string     `json:"shift_date"`
	StartTime            string     `json:"start_time"`
	EndTime              string     `json:"end_time"`
	RequiredRole         string     `json:"required_role"`
	AssignedProfileID    *string    `json:"assigned_profile_id,omitempty"`
	AssignedStaffID      *string    `json:"assigned_staff_id,omitempty"`
	AssignedStaffName    *string    `json:"assigned_staff_name,omitempty"`
	IsUnfilled           bool       `json:"is_unfilled"`
	LunchDurationMinutes *int       `json:"lunch_duration_minutes,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	PublishedShiftNeedID *uuid.UUID `json:"published_shift_need_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// ScheduleRepositoryInterface 排班计划仓储接口
type ScheduleRepositoryInterface interface {
	Create(ctx context.Context, schedule *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, schedule *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*Schedule, int, error)

	ReplaceShifts(ctx context.Context, scheduleID uuid.UUID, shifts []*ScheduleShift) error
	GetShifts(ctx context.Context, scheduleID uuid.UUID) ([]*ScheduleShift, error)
	GetShiftByID(ctx context.Context, shiftID uuid.UUID) (*ScheduleShift, error)
	MarkShiftPublished(ctx context.Context, shiftID, postingID uuid.UUID) error
}

// ScheduleRepository 排班计划仓储实现
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班计划仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create 创建排班计划记录
func (r *ScheduleRepository) Create(ctx context.Context, schedule *Schedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = "draft"
	}

	query := `
		INSERT INTO schedules (
			id, employer_id, name, start_date, end_date, status,
			total_shifts, unfilled_shifts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID, schedule.EmployerID, schedule.Name, schedule.StartDate, schedule.EndDate,
		schedule.Status, schedule.TotalShifts, schedule.UnfilledShifts,
		schedule.CreatedAt, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班计划失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取排班计划
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	query := `
		SELECT id, employer_id, name, start_date, end_date, status,
			total_shifts, unfilled_shifts, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`

	return r.scanSchedule(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新排班计划
func (r *ScheduleRepository) Update(ctx context.Context, schedule *Schedule) error {
	schedule.UpdatedAt = time.Now()

	query := `
		UPDATE schedules SET
			name = $2, status = $3, total_shifts = $4, unfilled_shifts = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID, schedule.Name, schedule.Status,
		schedule.TotalShifts, schedule.UnfilledShifts, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新排班计划失败: %w", err)
	}

	return nil
}

// Delete 删除排班计划及其班次行
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM schedule_shifts WHERE schedule_id = $1", id)
	if err != nil {
		return fmt.Errorf("删除班次行失败: %w", err)
	}

	_, err = r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除排班计划失败: %w", err)
	}

	return nil
}

// List 列出排班计划
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*Schedule, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.EmployerID != nil {
		conditions = append(conditions, fmt.Sprintf("employer_id = $%d", argNum))
		args = append(args, *filter.EmployerID)
		argNum++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedules %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计排班计划数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, employer_id, name, start_date, end_date, status,
			total_shifts, unfilled_shifts, created_at, updated_at
		FROM schedules %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排班计划列表失败: %w", err)
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		s := &Schedule{}
		if err := rows.Scan(
			&s.ID, &s.EmployerID, &s.Name, &s.StartDate, &s.EndDate, &s.Status,
			&s.TotalShifts, &s.UnfilledShifts, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描排班计划失败: %w", err)
		}
		schedules = append(schedules, s)
	}

	return schedules, total, nil
}

// ReplaceShifts 清空并重写排班计划的班次行
func (r *ScheduleRepository) ReplaceShifts(ctx context.Context, scheduleID uuid.UUID, shifts []*ScheduleShift) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM schedule_shifts WHERE schedule_id = $1", scheduleID)
	if err != nil {
		return fmt.Errorf("清空原班次行失败: %w", err)
	}

	query := `
		INSERT INTO schedule_shifts (
			id, schedule_id, employer_id, shift_date, start_time, end_time,
			required_role, assigned_profile_id, assigned_staff_id, assigned_staff_name,
			is_unfilled, lunch_duration_minutes, notes, published_shift_need_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	now := time.Now()
	for _, shift := range shifts {
		if shift.ID == uuid.Nil {
			shift.ID = uuid.New()
		}
		shift.ScheduleID = scheduleID
		shift.CreatedAt = now

		_, err := r.db.ExecContext(ctx, query,
			shift.ID, shift.ScheduleID, shift.EmployerID, shift.ShiftDate,
			shift.StartTime, shift.EndTime, shift.RequiredRole,
			shift.AssignedProfileID, shift.AssignedStaffID, shift.AssignedStaffName,
			shift.IsUnfilled, shift.LunchDurationMinutes, shift.Notes,
			shift.PublishedShiftNeedID, shift.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("写入班次行失败: %w", err)
		}
	}

	return nil
}

// GetShifts 获取排班计划的全部班次行
func (r *ScheduleRepository) GetShifts(ctx context.Context, scheduleID uuid.UUID) ([]*ScheduleShift, error) {
	query := `
		SELECT id, schedule_id, employer_id, shift_date, start_time, end_time,
			required_role, assigned_profile_id, assigned_staff_id, assigned_staff_name,
			is_unfilled, lunch_duration_minutes, notes, published_shift_need_id, created_at
		FROM schedule_shifts
		WHERE schedule_id = $1
		ORDER BY shift_date, start_time, required_role
	`

	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("查询班次行失败: %w", err)
	}
	defer rows.Close()

	var shifts []*ScheduleShift
	for rows.Next() {
		s, err := scanScheduleShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}

	return shifts, nil
}

// GetShiftByID 根据ID获取单个班次行
func (r *ScheduleRepository) GetShiftByID(ctx context.Context, shiftID uuid.UUID) (*ScheduleShift, error) {
	query := `
		SELECT id, schedule_id, employer_id, shift_date, start_time, end_time,
			required_role, assigned_profile_id, assigned_staff_id, assigned_staff_name,
			is_unfilled, lunch_duration_minutes, notes, published_shift_need_id, created_at
		FROM schedule_shifts
		WHERE id = $1
	`

	s, err := scanScheduleShift(r.db.QueryRowContext(ctx, query, shiftID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// MarkShiftPublished 将外发的职位ID回写到班次行
func (r *ScheduleRepository) MarkShiftPublished(ctx context.Context, shiftID, postingID uuid.UUID) error {
	query := `
		UPDATE schedule_shifts SET published_shift_need_id = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, shiftID, postingID)
	if err != nil {
		return fmt.Errorf("回写外发职位ID失败: %w", err)
	}

	return nil
}

// ShiftRowsFromResult 将生成结果转换为可持久化的班次行。
// 手工名单成员的ID写入 assigned_staff_id，平台账户写入 assigned_profile_id。
func ShiftRowsFromResult(employerID uuid.UUID, shifts []model.Shift, staff []model.StaffMember) []*ScheduleShift {
	staffMap := make(map[string]*model.StaffMember, len(staff))
	for i := range staff {
		staffMap[staff[i].ID] = &staff[i]
	}

	rows := make([]*ScheduleShift, 0, len(shifts))
	for _, shift := range shifts {
		row := &ScheduleShift{
			EmployerID:           employerID,
			ShiftDate:            shift.Date,
			StartTime:            shift.StartTime,
			EndTime:              shift.EndTime,
			RequiredRole:         string(shift.RequiredRole),
			IsUnfilled:           shift.IsUnfilled,
			LunchDurationMinutes: shift.LunchDurationMinutes,
			Notes:                shift.Notes,
		}

		if shift.AssignedEmployeeID != nil {
			id := *shift.AssignedEmployeeID
			if member := staffMap[id]; member != nil {
				name := member.Name
				row.AssignedStaffName = &name
				if member.IsManual {
					row.AssignedStaffID = &id
				} else {
					row.AssignedProfileID = &id
				}
			} else {
				row.AssignedStaffID = &id
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// scanSchedule 扫描单行排班计划
func (r *ScheduleRepository) scanSchedule(row *sql.Row) (*Schedule, error) {
	s := &Schedule{}

	err := row.Scan(
		&s.ID, &s.EmployerID, &s.Name, &s.StartDate, &s.EndDate, &s.Status,
		&s.TotalShifts, &s.UnfilledShifts, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班计划失败: %w", err)
	}

	return s, nil
}

// scanScheduleShift 扫描单个班次行
func scanScheduleShift(s Scanner) (*ScheduleShift, error) {
	shift := &ScheduleShift{}

	err := s.Scan(
		&shift.ID, &shift.ScheduleID, &shift.EmployerID, &shift.ShiftDate,
		&shift.StartTime, &shift.EndTime, &shift.RequiredRole,
		&shift.AssignedProfileID, &shift.AssignedStaffID, &shift.AssignedStaffName,
		&shift.IsUnfilled, &shift.LunchDurationMinutes, &shift.Notes,
		&shift.PublishedShiftNeedID, &shift.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次行失败: %w", err)
	}

	return shift, nil
}
