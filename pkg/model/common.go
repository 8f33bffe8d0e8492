// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 日期与时间的统一格式
const (
	DateLayout  = "2006-01-02" // 日期格式 YYYY-MM-DD
	ClockLayout = "15:04"      // 时刻格式 HH:MM
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ParseDate 解析 YYYY-MM-DD 格式的日期
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期 %q: %w", s, err)
	}
	return t, nil
}

// ParseClock 解析 HH:MM 格式的时刻，返回从零点起的分钟数
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("无效的时刻 %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockOnDate 把 HH:MM 时刻落到某个日期上
func ClockOnDate(date time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		minutes/60, minutes%60, 0, 0, date.Location()), nil
}

// AddDays 在 YYYY-MM-DD 日期上加减天数（调用方保证 date 合法）
func AddDays(date string, days int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(DateLayout)
}

// WeekdayOf 返回日期的星期序号（0=周日 ... 6=周六）
func WeekdayOf(date time.Time) int {
	return int(date.Weekday())
}

// ISOWeekKey 返回日期所属的 ISO 周标识（YYYY-Www），用于周内班次数统计
func ISOWeekKey(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DateRange 日期范围（含两端）
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Days 返回范围内的天数（含两端），非法范围返回 0
func (dr DateRange) Days() int {
	start, err := ParseDate(dr.Start)
	if err != nil {
		return 0
	}
	end, err := ParseDate(dr.End)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Each 按升序遍历范围内的每一天
func (dr DateRange) Each(fn func(date time.Time)) error {
	start, err := ParseDate(dr.Start)
	if err != nil {
		return err
	}
	end, err := ParseDate(dr.End)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("结束日期 %s 早于开始日期 %s", dr.End, dr.Start)
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
	return nil
}
