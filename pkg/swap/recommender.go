package swap

import (
	"sort"

	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// Recommender 替班推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建替班推荐器
func NewRecommender(cm *constraint.Manager) *Recommender {
	return &Recommender{evaluator: NewEvaluator(cm)}
}

// Recommendation 替班推荐
type Recommendation struct {
	Staff       *model.StaffMember `json:"staff"`
	Score       float64            `json:"score"`
	Rank        int                `json:"rank"`
	Reason      string             `json:"reason"`
	HoursChange float64            `json:"hours_change"`
	Evaluation  *CoverEvaluation   `json:"evaluation,omitempty"`
}

// RecommendOptions 推荐选项
type RecommendOptions struct {
	MaxRecommendations int      // 最大推荐数量
	ExcludeStaff       []string // 排除的员工（通常为请假人本人）
	MinScore           float64  // 最低得分
}

// DefaultRecommendOptions 返回默认选项
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{
		MaxRecommendations: 5,
		MinScore:           50,
	}
}

// RecommendCovers 为指定班次推荐接替人选。
// 结果按得分降序排列，同分按员工ID升序保证稳定
func (r *Recommender) RecommendCovers(
	ctx *constraint.Context,
	target *model.Shift,
	options *RecommendOptions,
) []Recommendation {
	if options == nil {
		options = DefaultRecommendOptions()
	}

	excludeSet := make(map[string]bool)
	if target.AssignedEmployeeID != nil {
		excludeSet[*target.AssignedEmployeeID] = true
	}
	for _, id := range options.ExcludeStaff {
		excludeSet[id] = true
	}

	var candidates []Recommendation
	for _, member := range ctx.Staff {
		if excludeSet[member.ID] {
			continue
		}

		eval := r.evaluator.EvaluateCover(ctx, target, member)
		if !eval.Feasible || eval.Score < options.MinScore {
			continue
		}

		candidates = append(candidates, Recommendation{
			Staff:       member,
			Score:       eval.Score,
			Reason:      r.reason(eval),
			HoursChange: eval.HoursAfter - eval.HoursBefore,
			Evaluation:  eval,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Staff.ID < candidates[j].Staff.ID
	})

	if len(candidates) > options.MaxRecommendations {
		candidates = candidates[:options.MaxRecommendations]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}

// FindBestCover 为某员工某天的班次找最佳顶替人选，
// 该员工当天无班或无人可顶时返回 nil
func (r *Recommender) FindBestCover(
	ctx *constraint.Context,
	staffID string,
	date string,
) *Recommendation {
	var target *model.Shift
	for _, s := range ctx.GetStaffShifts(staffID) {
		if s.Date == date {
			target = s
			break
		}
	}
	if target == nil {
		return nil
	}

	recs := r.RecommendCovers(ctx, target, &RecommendOptions{
		MaxRecommendations: 1,
		ExcludeStaff:       []string{staffID},
		MinScore:           50,
	})
	if len(recs) == 0 {
		return nil
	}
	return &recs[0]
}

// reason 生成推荐原因
func (r *Recommender) reason(eval *CoverEvaluation) string {
	if len(eval.Issues) == 0 {
		if eval.TargetHours > 0 && eval.HoursAfter <= eval.TargetHours {
			return "无约束冲突，且未超出目标工时"
		}
		return "无约束冲突"
	}
	warnings := 0
	for _, issue := range eval.Issues {
		if issue.Severity == "warning" {
			warnings++
		}
	}
	if warnings > 0 {
		return "仅有软约束扣分，可以接替"
	}
	return "可以接替此班次"
}
