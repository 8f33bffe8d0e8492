// Package optimizer 提供排班优化算法
package optimizer

import (
	"context"
	"sort"

	"github.com/skiftplan/skiftplan/internal/metrics"
	"github.com/skiftplan/skiftplan/pkg/logger"
	"github.com/skiftplan/skiftplan/pkg/model"
	"github.com/skiftplan/skiftplan/pkg/scheduler/constraint"
)

// Config 修复遍配置
type Config struct {
	MaxIterations int `json:"max_iterations"` // 换班尝试次数上限
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{MaxIterations: 100}
}

// RepairPass 空缺修复遍：贪心求解后对未填充班次做确定性的单步换班搜索。
// 把某个已分配班次让渡给其他可行员工，腾出的员工接手空缺班次。
// 所有改动都经过硬约束检查，遍历顺序固定，结果可复现。
type RepairPass struct {
	constraintManager *constraint.Manager
	config            *Config
	log               *logger.SchedulerLogger
}

// NewRepairPass 创建修复遍
func NewRepairPass(cm *constraint.Manager, cfg *Config) *RepairPass {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &RepairPass{
		constraintManager: cm,
		config:            cfg,
		log:               logger.NewSchedulerLogger(),
	}
}

// Repair 尝试填充空缺班次，返回修复数量
func (r *RepairPass) Repair(ctx context.Context, schedCtx *constraint.Context) int {
	repaired := 0
	iterations := 0

	for _, shift := range schedCtx.Shifts {
		if ctx.Err() != nil {
			break
		}
		if !shift.IsUnfilled {
			continue
		}
		if iterations >= r.config.MaxIterations {
			break
		}
		iterations++

		if r.fillDirect(schedCtx, shift) || r.fillBySwap(schedCtx, shift) {
			repaired++
		}
	}

	metrics.RecordRepairIterations(iterations)
	if repaired > 0 {
		logger.Info().Int("repaired", repaired).Msg("修复遍填充了空缺班次")
	}
	return repaired
}

// fillDirect 直接分配：之前的修复可能已释放出可行候选人
func (r *RepairPass) fillDirect(schedCtx *constraint.Context, shift *model.Shift) bool {
	slot := slotOf(shift)
	for _, staff := range r.eligibleStaff(schedCtx, shift.RequiredRole) {
		if ok, _ := r.constraintManager.CanAssign(schedCtx, staff, slot); ok {
			id := staff.ID
			schedCtx.ReassignShift(shift, &id)
			return true
		}
	}
	return false
}

// fillBySwap 单步换班：让渡者把自己的某个班次交给替补，自己接手空缺
func (r *RepairPass) fillBySwap(schedCtx *constraint.Context, shift *model.Shift) bool {
	slot := slotOf(shift)

	for _, donor := range r.eligibleStaff(schedCtx, shift.RequiredRole) {
		donorShifts := append([]*model.Shift(nil), schedCtx.GetStaffShifts(donor.ID)...)
		sort.Slice(donorShifts, func(i, j int) bool {
			if donorShifts[i].Date != donorShifts[j].Date {
				return donorShifts[i].Date < donorShifts[j].Date
			}
			return donorShifts[i].ID < donorShifts[j].ID
		})

		for _, donated := range donorShifts {
			// 先临时释放让渡者的班次
			donorID := donor.ID
			schedCtx.ReassignShift(donated, nil)

			if ok, _ := r.constraintManager.CanAssign(schedCtx, donor, slot); !ok {
				schedCtx.ReassignShift(donated, &donorID)
				continue
			}
			schedCtx.ReassignShift(shift, &donorID)

			// 为被让渡的班次找替补
			donatedSlot := slotOf(donated)
			for _, sub := range r.eligibleStaff(schedCtx, donated.RequiredRole) {
				if sub.ID == donor.ID {
					continue
				}
				if ok, _ := r.constraintManager.CanAssign(schedCtx, sub, donatedSlot); ok {
					subID := sub.ID
					schedCtx.ReassignShift(donated, &subID)
					return true
				}
			}

			// 无替补，全部回滚
			schedCtx.ReassignShift(shift, nil)
			schedCtx.ReassignShift(donated, &donorID)
		}
	}

	return false
}

// eligibleStaff 返回角色匹配的员工，按 ID 排序保证确定性
func (r *RepairPass) eligibleStaff(schedCtx *constraint.Context, role model.Role) []*model.StaffMember {
	var eligible []*model.StaffMember
	for _, staff := range schedCtx.Staff {
		if staff.Role == role {
			eligible = append(eligible, staff)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].ID < eligible[j].ID
	})
	return eligible
}

// slotOf 由班次还原约束检查用的 Slot
func slotOf(s *model.Shift) model.Slot {
	return model.Slot{
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Role:      s.RequiredRole,
		Headcount: 1,
	}
}
