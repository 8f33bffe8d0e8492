// Package constraint 定义约束接口和管理器
package constraint

import (
	"time"

	"github.com/skiftplan/skiftplan/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeRoleMatch          Type = "role_match"
	TypeAvailability       Type = "availability"
	TypeNoOverlap          Type = "no_overlap"
	TypeMaxConsecutiveDays Type = "max_consecutive_days"

	// 软约束类型
	TypeTargetHours Type = "target_hours"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个排班方案
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 评估把某个 Slot 分配给某员工
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, staff *model.StaffMember, slot model.Slot) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type   `json:"constraint_type"`
	ConstraintName string `json:"constraint_name"`
	StaffID        string `json:"staff_id,omitempty"`
	Date           string `json:"date,omitempty"`
	Message        string `json:"message"`
	Severity       string `json:"severity"` // error/warning
	Penalty        int    `json:"penalty"`
}

// Context 排班上下文：求解过程中持有全部输入与当前已分配的班次，
// 并维护求解器依赖的运行计数（累计工时、周班次数、日期索引）
type Context struct {
	// 输入数据
	StartDate string               `json:"start_date"`
	EndDate   string               `json:"end_date"`
	Staff     []*model.StaffMember `json:"staff"`
	Slots     []model.Slot         `json:"slots"`

	// 当前排班结果（含未填充班次）
	Shifts []*model.Shift `json:"shifts"`

	// 索引缓存
	staffMap      map[string]*model.StaffMember
	shiftsByStaff map[string][]*model.Shift
	shiftsByDate  map[string][]*model.Shift
	hoursByStaff  map[string]float64
	weekShifts    map[string]map[string]int // staffID -> ISO周 -> 班次数

	// 额外配置
	Config map[string]interface{} `json:"config,omitempty"`
}

// NewContext 创建新的排班上下文
func NewContext(startDate, endDate string) *Context {
	return &Context{
		StartDate:     startDate,
		EndDate:       endDate,
		Staff:         make([]*model.StaffMember, 0),
		Slots:         make([]model.Slot, 0),
		Shifts:        make([]*model.Shift, 0),
		staffMap:      make(map[string]*model.StaffMember),
		shiftsByStaff: make(map[string][]*model.Shift),
		shiftsByDate:  make(map[string][]*model.Shift),
		hoursByStaff:  make(map[string]float64),
		weekShifts:    make(map[string]map[string]int),
		Config:        make(map[string]interface{}),
	}
}

// SetStaff 设置员工列表
func (c *Context) SetStaff(staff []*model.StaffMember) {
	c.Staff = staff
	c.staffMap = make(map[string]*model.StaffMember)
	for _, s := range staff {
		c.staffMap[s.ID] = s
	}
}

// SetSlots 设置待分配的 Slot 序列
func (c *Context) SetSlots(slots []model.Slot) {
	c.Slots = slots
}

// AddShift 记录一个生成的班次并更新运行计数
func (c *Context) AddShift(s *model.Shift) {
	c.Shifts = append(c.Shifts, s)
	c.shiftsByDate[s.Date] = append(c.shiftsByDate[s.Date], s)
	if s.AssignedEmployeeID == nil {
		return
	}
	id := *s.AssignedEmployeeID
	c.shiftsByStaff[id] = append(c.shiftsByStaff[id], s)
	c.hoursByStaff[id] += s.WorkedHours()
	if d, err := s.DateTime(); err == nil {
		week := model.ISOWeekKey(d)
		if c.weekShifts[id] == nil {
			c.weekShifts[id] = make(map[string]int)
		}
		c.weekShifts[id][week]++
	}
}

// ReassignShift 把已有班次改派给另一名员工（nil 表示改为未填充），
// 修复遍使用；改派后重建运行计数
func (c *Context) ReassignShift(shift *model.Shift, staffID *string) {
	shift.AssignedEmployeeID = staffID
	shift.IsUnfilled = staffID == nil
	c.rebuildIndexes()
}

// rebuildIndexes 重建索引与运行计数
func (c *Context) rebuildIndexes() {
	c.shiftsByStaff = make(map[string][]*model.Shift)
	c.shiftsByDate = make(map[string][]*model.Shift)
	c.hoursByStaff = make(map[string]float64)
	c.weekShifts = make(map[string]map[string]int)
	for _, s := range c.Shifts {
		c.shiftsByDate[s.Date] = append(c.shiftsByDate[s.Date], s)
		if s.AssignedEmployeeID == nil {
			continue
		}
		id := *s.AssignedEmployeeID
		c.shiftsByStaff[id] = append(c.shiftsByStaff[id], s)
		c.hoursByStaff[id] += s.WorkedHours()
		if d, err := s.DateTime(); err == nil {
			week := model.ISOWeekKey(d)
			if c.weekShifts[id] == nil {
				c.weekShifts[id] = make(map[string]int)
			}
			c.weekShifts[id][week]++
		}
	}
}

// GetStaff 获取员工
func (c *Context) GetStaff(id string) *model.StaffMember {
	return c.staffMap[id]
}

// GetStaffShifts 获取员工已分配的班次
func (c *Context) GetStaffShifts(staffID string) []*model.Shift {
	return c.shiftsByStaff[staffID]
}

// GetDateShifts 获取某日期的所有班次
func (c *Context) GetDateShifts(date string) []*model.Shift {
	return c.shiftsByDate[date]
}

// GetStaffHours 获取员工累计工时（扣午休）
func (c *Context) GetStaffHours(staffID string) float64 {
	return c.hoursByStaff[staffID]
}

// GetStaffWeekShifts 获取员工在某 ISO 周内已分配的班次数
func (c *Context) GetStaffWeekShifts(staffID, weekKey string) int {
	return c.weekShifts[staffID][weekKey]
}

// GetStaffConsecutiveDays 获取员工在目标日期前后相邻的连续工作天数
// （不含目标日期本身，调用方判断时再 +1）
func (c *Context) GetStaffConsecutiveDays(staffID, targetDate string) int {
	dates := make(map[string]bool)
	for _, s := range c.shiftsByStaff[staffID] {
		dates[s.Date] = true
	}

	// 往前数连续工作天数
	countBefore := 0
	currentDate := previousDate(targetDate)
	for dates[currentDate] {
		countBefore++
		currentDate = previousDate(currentDate)
		if countBefore > 30 { // 防止无限循环
			break
		}
	}

	// 往后数连续工作天数
	countAfter := 0
	currentDate = nextDate(targetDate)
	for dates[currentDate] {
		countAfter++
		currentDate = nextDate(currentDate)
		if countAfter > 30 { // 防止无限循环
			break
		}
	}

	return countBefore + countAfter
}

// previousDate 获取前一天日期
func previousDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(model.DateLayout)
}

// nextDate 获取后一天日期
func nextDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(model.DateLayout)
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
