package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/skiftplan/skiftplan/pkg/errors"
	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint/builtin"
	"github.com/skiftplan/skiftplan/pkg/swap"
)

// RecommendCoverRequest 替班推荐请求。
// 通过 staffId+date 定位要被顶替的班次（请假场景），
// 或直接给出 shift 定位任意班次
type RecommendCoverRequest struct {
	StartDate string              `json:"startDate"`
	EndDate   string              `json:"endDate"`
	Schedule  []model.Shift       `json:"schedule"`
	Employees []model.StaffMember `json:"employees"`
	StaffID   string              `json:"staffId,omitempty"`
	Date      string              `json:"date,omitempty"`
	Shift     *model.Shift        `json:"shift,omitempty"`
	MaxCount  int                 `json:"maxCount,omitempty"`
}

// RecommendCoverResponse 替班推荐响应
type RecommendCoverResponse struct {
	Recommendations []swap.Recommendation `json:"recommendations"`
}

// RecommendCover 为某个班次推荐接替人选
func (h *ScheduleHandler) RecommendCover(w http.ResponseWriter, r *http.Request) {
	var req RecommendCoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.Schedule) == 0 {
		respondError(w, apperrors.InvalidInput("schedule", "不能为空"))
		return
	}
	if len(req.Employees) == 0 {
		respondError(w, apperrors.InvalidInput("employees", "不能为空"))
		return
	}

	staff := make([]*model.StaffMember, len(req.Employees))
	for i := range req.Employees {
		staff[i] = &req.Employees[i]
	}

	ctx := constraint.NewContext(req.StartDate, req.EndDate)
	ctx.SetStaff(staff)
	for i := range req.Schedule {
		ctx.AddShift(&req.Schedule[i])
	}

	target, appErr := locateTargetShift(ctx, &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	cm := constraint.NewManager()
	builtin.RegisterDefaultConstraints(cm, builtin.DefaultFairnessToleranceHours)

	opts := swap.DefaultRecommendOptions()
	if req.MaxCount > 0 {
		opts.MaxRecommendations = req.MaxCount
	}
	if req.StaffID != "" {
		opts.ExcludeStaff = append(opts.ExcludeStaff, req.StaffID)
	}

	recs := swap.NewRecommender(cm).RecommendCovers(ctx, target, opts)
	if recs == nil {
		recs = []swap.Recommendation{}
	}

	respondJSON(w, http.StatusOK, RecommendCoverResponse{Recommendations: recs})
}

// locateTargetShift 在上下文中定位要被顶替的班次
func locateTargetShift(ctx *constraint.Context, req *RecommendCoverRequest) (*model.Shift, *apperrors.AppError) {
	if req.Shift != nil {
		for _, s := range ctx.Shifts {
			if s.Date == req.Shift.Date && s.StartTime == req.Shift.StartTime &&
				s.EndTime == req.Shift.EndTime && s.RequiredRole == req.Shift.RequiredRole {
				return s, nil
			}
		}
		return nil, apperrors.NotFound("shift", req.Shift.Date+" "+req.Shift.StartTime)
	}

	if req.StaffID == "" || req.Date == "" {
		return nil, apperrors.InvalidInput("shift", "需要提供 shift 或 staffId+date")
	}
	for _, s := range ctx.GetStaffShifts(req.StaffID) {
		if s.Date == req.Date {
			return s, nil
		}
	}
	return nil, apperrors.NotFound("shift", req.StaffID+"@"+req.Date)
}
