package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"subleet-admin/internal/core/lifecycle"
	"subleet-admin/internal/pkg/config"
)

const defaultReconcileCron = "0 */5 * * * *"

// Reconciler 部署补偿, 由 lifecycle.Manager 实现
type Reconciler interface {
	Reconcile(ctx context.Context) (*lifecycle.ReconcileReport, error)
}

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	reconciler    Reconciler
	timeout       time.Duration
	running       atomic.Bool
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理
}

// NewScheduler 创建调度器
func NewScheduler(reconciler Reconciler, logger *zap.Logger) *Scheduler {
	// 创建 cron 实例（带秒级支持）
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:          c,
		logger:        logger,
		reconciler:    reconciler,
		timeout:       4 * time.Minute,
		cronSchedules: make(map[string]cron.EntryID),
	}
}

// Start 启动调度器
func (s *Scheduler) Start(cfg *config.ReconcileConfig) error {
	log := s.logger.Sugar()

	if !cfg.Enabled {
		log.Info("部署补偿任务未启用")
		return nil
	}

	log.Info("启动定时任务调度器...")

	// cron 表达式格式: 秒 分 时 日 月 周
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultReconcileCron
		log.Warn("未配置reconcile.cron，使用默认值", zap.String("cron", cronExpr))
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.runReconcile)
	if err != nil {
		log.Errorf("注册部署补偿任务: %v 失败: %v", cronExpr, err)
		return err
	}

	s.cronSchedules["reconcile"] = entryID
	log.Infof("部署补偿任务已注册: %s entry_id=%d", cronExpr, entryID)

	s.cron.Start()
	log.Info("定时任务调度器启动成功")

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	// 停止 cron（等待正在执行的任务完成）
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

// TriggerReconcile 手动触发一次补偿
func (s *Scheduler) TriggerReconcile() {
	s.logger.Info("手动触发部署补偿")
	s.runReconcile()
}

// runReconcile 上一轮未结束时跳过本轮
func (s *Scheduler) runReconcile() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("上一轮部署补偿尚未结束, 跳过")
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Error("部署补偿任务执行失败", zap.Error(err))
		return
	}
	if report.Scanned > 0 {
		s.logger.Info("部署补偿完成",
			zap.Int("scanned", report.Scanned),
			zap.Int("recovered", report.Recovered),
			zap.Int("abandoned", report.Abandoned),
			zap.Int("failed", report.Failed),
		)
	}
}
