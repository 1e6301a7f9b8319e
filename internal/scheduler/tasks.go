// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"time"

	"github.com/jojomine/mining-platform-backend/internal/common/logger"
	"github.com/jojomine/mining-platform-backend/internal/common/metrics"
	"github.com/jojomine/mining-platform-backend/internal/common/utils"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/service/commission"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	accrualService    *commission.AccrualService
	leadershipService *commission.LeadershipService
	userPackageRepo   *repository.UserPackageRepository
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	accrualSvc *commission.AccrualService,
	leadershipSvc *commission.LeadershipService,
	userPackageRepo *repository.UserPackageRepository,
) *TaskHandler {
	return &TaskHandler{
		accrualService:    accrualSvc,
		leadershipService: leadershipSvc,
		userPackageRepo:   userPackageRepo,
	}
}

// SettleDailyAccruals 结算到期的日结包周期收益
func (h *TaskHandler) SettleDailyAccruals(ctx context.Context) error {
	settled, err := h.accrualService.SettleDue(ctx, models.PackageModeDaily)
	if err != nil {
		return err
	}
	if settled > 0 {
		logger.Infof("[Task] 日结收益结算 %d 笔", settled)
	}
	return nil
}

// SettleMonthlyAccruals 结算到期的月结包周期收益
func (h *TaskHandler) SettleMonthlyAccruals(ctx context.Context) error {
	settled, err := h.accrualService.SettleDue(ctx, models.PackageModeMonthly)
	if err != nil {
		return err
	}
	if settled > 0 {
		logger.Infof("[Task] 月结收益结算 %d 笔", settled)
	}
	return nil
}

// SettleLeadership 结算上个自然月的领导奖
// 领导奖记录有（受益人, 层级, 月份）唯一约束，重复触发是幂等的
func (h *TaskHandler) SettleLeadership(ctx context.Context) error {
	lastMonth := utils.MonthCycle(time.Now().AddDate(0, -1, 0))
	settled, err := h.leadershipService.SettleMonth(ctx, lastMonth)
	if err != nil {
		return err
	}
	if settled > 0 {
		logger.Infof("[Task] %s 领导奖结算 %d 笔", lastMonth, settled)
	}
	return nil
}

// RefreshActivePackagesMetric 更新活跃矿机包指标
func (h *TaskHandler) RefreshActivePackagesMetric(ctx context.Context) error {
	count, err := h.userPackageRepo.CountActive(ctx)
	if err != nil {
		return err
	}
	metrics.Get().SetActivePackages(float64(count))
	return nil
}
