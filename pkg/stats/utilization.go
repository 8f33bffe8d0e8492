package stats

import (
	"math"
	"sort"

	"github.com/skiftplan/skiftplan/pkg/model"
)

// UtilizationMetrics 工时利用与覆盖指标
type UtilizationMetrics struct {
	// 工时分布
	AvgHours   float64 `json:"avg_hours"`
	MaxHours   float64 `json:"max_hours"`
	MinHours   float64 `json:"min_hours"`
	HoursRange float64 `json:"hours_range"`
	StdDev     float64 `json:"std_dev"`
	Gini       float64 `json:"gini"` // 0=完全公平, 1=完全不公平

	// 覆盖
	CoverageRate    float64            `json:"coverage_rate"` // 已填充班次占比 (0-100)
	PerDateCoverage map[string]float64 `json:"per_date_coverage"`

	// 员工级别统计
	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// 综合评分 (0-100)
	OverallScore float64 `json:"overall_score"`
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	TotalHours   float64 `json:"total_hours"`
	TargetHours  float64 `json:"target_hours"`
	ShiftCount   int     `json:"shift_count"`
	Utilization  float64 `json:"utilization"` // 实际/目标工时比
	Deviation    float64 `json:"deviation"`   // 与平均工时的偏差百分比
}

// UtilizationAnalyzer 工时利用分析器
type UtilizationAnalyzer struct{}

// NewUtilizationAnalyzer 创建工时利用分析器
func NewUtilizationAnalyzer() *UtilizationAnalyzer {
	return &UtilizationAnalyzer{}
}

// Analyze 分析最终排班的工时分布与覆盖情况
func (u *UtilizationAnalyzer) Analyze(shifts []model.Shift, staff []model.StaffMember, periodDays int) *UtilizationMetrics {
	metrics := &UtilizationMetrics{
		PerDateCoverage: make(map[string]float64),
		OverallScore:    100,
	}
	if len(staff) == 0 {
		return metrics
	}

	hoursByID := make(map[string]float64)
	countsByID := make(map[string]int)
	totalByDate := make(map[string]int)
	filledByDate := make(map[string]int)
	filled := 0

	for _, s := range shifts {
		totalByDate[s.Date]++
		if s.IsUnfilled || s.AssignedEmployeeID == nil {
			continue
		}
		filled++
		filledByDate[s.Date]++
		hoursByID[*s.AssignedEmployeeID] += s.WorkedHours()
		countsByID[*s.AssignedEmployeeID]++
	}

	if len(shifts) > 0 {
		metrics.CoverageRate = float64(filled) / float64(len(shifts)) * 100
	}
	for date, total := range totalByDate {
		metrics.PerDateCoverage[date] = float64(filledByDate[date]) / float64(total) * 100
	}

	// 员工统计
	hours := make([]float64, 0, len(staff))
	for _, member := range staff {
		h := hoursByID[member.ID]
		hours = append(hours, h)

		target := member.PeriodTargetHours(periodDays)
		utilization := 0.0
		if target > 0 {
			utilization = h / target
		}
		metrics.EmployeeStats = append(metrics.EmployeeStats, EmployeeStat{
			EmployeeID:   member.ID,
			EmployeeName: member.Name,
			TotalHours:   h,
			TargetHours:  target,
			ShiftCount:   countsByID[member.ID],
			Utilization:  utilization,
		})
	}

	metrics.AvgHours = mean(hours)
	metrics.StdDev = math.Sqrt(variance(hours, metrics.AvgHours))
	metrics.MaxHours, metrics.MinHours = bounds(hours)
	metrics.HoursRange = metrics.MaxHours - metrics.MinHours
	metrics.Gini = gini(hours)

	for i := range metrics.EmployeeStats {
		if metrics.AvgHours > 0 {
			metrics.EmployeeStats[i].Deviation =
				(metrics.EmployeeStats[i].TotalHours - metrics.AvgHours) / metrics.AvgHours * 100
		}
	}

	// 综合评分：覆盖率与公平性各半
	metrics.OverallScore = 0.5*metrics.CoverageRate + 0.5*(1-metrics.Gini)*100

	return metrics
}

// mean 均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 方差
func variance(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return sum / float64(len(values))
}

// bounds 最大最小值
func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min := values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

// gini 基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	weighted := 0.0
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted)/(float64(n)*sum) - float64(n+1)/float64(n)
}
