// Package scheduler 将需求展开、约束求解、修复与统计串成完整的排班流水线
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/skiftplan/skiftplan/pkg/errors"
	"github.com/skiftplan/skiftplan/pkg/logger"
	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint/builtin"
	"github.com/skiftplan/skiftplan/pkg/scheduler/expander"
	"github.com/skiftplan/skiftplan/pkg/scheduler/optimizer"
	"github.com/skiftplan/skiftplan/pkg/scheduler/solver"
	"github.com/skiftplan/skiftplan/pkg/stats"
	"github.com/skiftplan/skiftplan/pkg/validator"
)

// Options 引擎参数
type Options struct {
	DefaultLunchMinutes     int
	LunchThresholdHours     float64
	FairnessToleranceHours  float64
	RepairPassEnabled       bool
	RepairPassMaxIterations int
}

// DefaultOptions 返回默认引擎参数
func DefaultOptions() Options {
	return Options{
		DefaultLunchMinutes:     30,
		LunchThresholdHours:     6.0,
		FairnessToleranceHours:  builtin.DefaultFairnessToleranceHours,
		RepairPassEnabled:       true,
		RepairPassMaxIterations: 100,
	}
}

// Engine 排班引擎。无内部状态，可并发使用。
type Engine struct {
	opts Options
	log  *logger.SchedulerLogger
}

// NewEngine 创建排班引擎
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts: opts,
		log:  logger.NewSchedulerLogger(),
	}
}

// Generate 执行完整排班流水线。
// 仅在输入非法时返回错误；人手不足等情况产生空缺班次与告警，不视为失败。
func (e *Engine) Generate(ctx context.Context, req *model.GenerateRequest) (*model.GenerationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	started := time.Now()

	// 需求展开
	slots, expandWarnings, err := expander.New().Expand(req)
	if err != nil {
		return nil, err
	}

	// 生成前的人力评估（建议性，不阻止生成）
	roster := validator.NewRosterValidator().Validate(req.Requirements, req.Rules.MinStaffing, req.Employees)

	units := expander.FanOut(slots)
	days := req.Period().Days()
	e.log.StartGeneration(requestID, len(req.Employees), len(units), days)

	schedCtx := constraint.NewContext(req.StartDate, req.EndDate)
	staff := make([]*model.StaffMember, len(req.Employees))
	for i := range req.Employees {
		staff[i] = &req.Employees[i]
	}
	schedCtx.SetStaff(staff)
	schedCtx.SetSlots(units)

	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, e.opts.FairnessToleranceHours)

	greedy := solver.NewGreedySolver(manager)
	greedy.SetLunchPolicy(e.lunchPolicy(req.Rules))

	result, err := greedy.Solve(ctx, schedCtx)
	if err != nil {
		return nil, err
	}

	// 对空缺班次执行确定性的修复遍
	if e.opts.RepairPassEnabled && result.Statistics.UnfilledShifts > 0 {
		repair := optimizer.NewRepairPass(manager, &optimizer.Config{
			MaxIterations: e.opts.RepairPassMaxIterations,
		})
		repaired := repair.Repair(ctx, schedCtx)
		result.Statistics.FilledShifts += repaired
		result.Statistics.UnfilledShifts -= repaired
		if result.Statistics.TotalShifts > 0 {
			result.Statistics.FillRate = float64(result.Statistics.FilledShifts) /
				float64(result.Statistics.TotalShifts) * 100
		}
	}

	schedule := make([]model.Shift, len(result.Shifts))
	for i, s := range result.Shifts {
		schedule[i] = *s
	}

	genStats, coverageWarnings, fairnessWarnings := stats.NewReporter(e.opts.FairnessToleranceHours).
		Report(schedule, req.Employees, days)

	warnings := make([]string, 0, len(expandWarnings)+len(roster.Warnings)+len(coverageWarnings))
	warnings = append(warnings, expandWarnings...)
	warnings = append(warnings, roster.Warnings...)
	warnings = append(warnings, coverageWarnings...)

	e.log.GenerationComplete(requestID, time.Since(started), genStats.TotalShifts, genStats.UnfilledShifts)

	return &model.GenerationResult{
		Schedule:         schedule,
		Warnings:         warnings,
		FairnessWarnings: fairnessWarnings,
		Stats:            genStats,
	}, nil
}

// lunchPolicy 请求规则优先，未指定时用引擎默认值
func (e *Engine) lunchPolicy(rules model.SchedulingRules) solver.LunchPolicy {
	policy := solver.LunchPolicy{
		Minutes:        rules.DefaultLunchMinutes,
		ThresholdHours: e.opts.LunchThresholdHours,
	}
	if policy.Minutes <= 0 {
		policy.Minutes = e.opts.DefaultLunchMinutes
	}
	if policy.ThresholdHours <= 0 {
		policy.ThresholdHours = solver.DefaultLunchPolicy().ThresholdHours
	}
	return policy
}

// validateRequest 检查请求是否构成合法输入
func validateRequest(req *model.GenerateRequest) *apperrors.AppError {
	ve := &apperrors.ValidationErrors{}

	if req.StartDate == "" {
		ve.Add("startDate", "开始日期不能为空")
	} else if _, err := model.ParseDate(req.StartDate); err != nil {
		ve.Add("startDate", "日期格式无效，应为YYYY-MM-DD")
	}
	if req.EndDate == "" {
		ve.Add("endDate", "结束日期不能为空")
	} else if _, err := model.ParseDate(req.EndDate); err != nil {
		ve.Add("endDate", "日期格式无效，应为YYYY-MM-DD")
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}

	start, _ := model.ParseDate(req.StartDate)
	end, _ := model.ParseDate(req.EndDate)
	if end.Before(start) {
		return apperrors.InvalidTimeRange(req.StartDate, req.EndDate)
	}

	if len(req.Employees) == 0 {
		return apperrors.ErrNoStaff
	}

	for _, r := range req.Requirements {
		if r.RequiredRole != "" && !r.RequiredRole.Valid() {
			return apperrors.InvalidInput("requirements", "未知角色: "+string(r.RequiredRole))
		}
	}
	for _, rule := range req.Rules.MinStaffing {
		if rule.Role != "" && !rule.Role.Valid() {
			return apperrors.InvalidInput("rules.minStaffing", "未知角色: "+string(rule.Role))
		}
	}

	if len(req.ActiveRequirements()) == 0 && len(req.Rules.ActiveMinStaffing()) == 0 {
		return apperrors.ErrNoRequirements
	}

	for _, emp := range req.Employees {
		if emp.ID == "" {
			return apperrors.InvalidInput("employees", "员工 ID 不能为空")
		}
		if !emp.Role.Valid() {
			return apperrors.InvalidInput("employees", "未知角色: "+string(emp.Role))
		}
	}

	return nil
}
