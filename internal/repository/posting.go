// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Posting 外发到公开市场的空缺班次
type Posting struct {
	ID           uuid.UUID `json:"id"`
	EmployerID   uuid.UUID `json:"employer_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	RequiredRole string    `json:"required_role"`
	LunchMinutes int       `json:"lunch_minutes"`
	Status       string    `json:"status"` // open/filled/cancelled
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PostingRepository 外发职位仓储
type PostingRepository struct {
	db DB
}

// NewPostingRepository 创建外发职位仓储
func NewPostingRepository(db DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// Create 创建外发职位，返回时 ID 已填充
func (r *PostingRepository) Create(ctx context.Context, posting *Posting) error {
	if posting.ID == uuid.Nil {
		posting.ID = uuid.New()
	}
	now := time.Now()
	posting.CreatedAt = now
	posting.UpdatedAt = now
	if posting.Status == "" {
		posting.Status = "open"
	}

	query := `
		INSERT INTO shift_postings (
			id, employer_id, title, description, date, start_time, end_time,
			required_role, lunch_minutes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		posting.ID, posting.EmployerID, posting.Title, posting.Description,
		posting.Date, posting.StartTime, posting.EndTime, posting.RequiredRole,
		posting.LunchMinutes, posting.Status, posting.CreatedAt, posting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建外发职位失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取外发职位
func (r *PostingRepository) GetByID(ctx context.Context, id uuid.UUID) (*Posting, error) {
	query := `
		SELECT id, employer_id, title, description, date, start_time, end_time,
			required_role, lunch_minutes, status, created_at, updated_at
		FROM shift_postings
		WHERE id = $1
	`

	p := &Posting{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.EmployerID, &p.Title, &p.Description, &p.Date,
		&p.StartTime, &p.EndTime, &p.RequiredRole, &p.LunchMinutes,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询外发职位失败: %w", err)
	}

	return p, nil
}

// ListOpen 获取雇主当前开放的外发职位
func (r *PostingRepository) ListOpen(ctx context.Context, employerID uuid.UUID) ([]*Posting, error) {
	query := `
		SELECT id, employer_id, title, description, date, start_time, end_time,
			required_role, lunch_minutes, status, created_at, updated_at
		FROM shift_postings
		WHERE employer_id = $1 AND status = 'open'
		ORDER BY date, start_time
	`

	rows, err := r.db.QueryContext(ctx, query, employerID)
	if err != nil {
		return nil, fmt.Errorf("查询开放职位失败: %w", err)
	}
	defer rows.Close()

	var postings []*Posting
	for rows.Next() {
		p := &Posting{}
		if err := rows.Scan(
			&p.ID, &p.EmployerID, &p.Title, &p.Description, &p.Date,
			&p.StartTime, &p.EndTime, &p.RequiredRole, &p.LunchMinutes,
			&p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描外发职位失败: %w", err)
		}
		postings = append(postings, p)
	}

	return postings, nil
}

// UpdateStatus 更新外发职位状态
func (r *PostingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE shift_postings SET status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新外发职位状态失败: %w", err)
	}

	return nil
}
