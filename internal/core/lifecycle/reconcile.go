package lifecycle

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"subleet-admin/internal/adapter/notification"
	"subleet-admin/internal/model"
	"subleet-admin/pkg/constants"
)

// ReconcileReport 一轮巡检的统计
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Recovered int `json:"recovered"`
	Abandoned int `json:"abandoned"`
	Failed    int `json:"failed"`
}

// Reconcile 补偿 deploy_failed 的运行记录
//
// 数据库中的加密密钥是唯一可信来源, 补偿时解密后按项目当前状态重新部署,
// 部署以 slug 为粒度幂等, 重复执行是安全的
func (m *Manager) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	runs, err := m.runs.ListByState(ctx, constants.RunStateDeployFailed, m.opts.ReconcileAttempts, m.opts.ReconcileBatchSize)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Scanned: len(runs)}
	for _, run := range runs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		switch m.reconcileRun(ctx, run) {
		case constants.RunStateArtifactDeployed:
			report.Recovered++
		case constants.RunStateAbandoned:
			report.Abandoned++
		default:
			report.Failed++
		}
	}

	if report.Scanned > 0 {
		m.logger.Info("巡检完成",
			zap.Int("scanned", report.Scanned),
			zap.Int("recovered", report.Recovered),
			zap.Int("abandoned", report.Abandoned),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

// reconcileRun 返回处理后的状态
func (m *Manager) reconcileRun(ctx context.Context, run *model.ProvisionRun) string {
	log := m.logger.With(zap.String("run_id", run.RunID), zap.Int64("project_id", run.ProjectID), zap.String("kind", run.Kind))
	tracker := &runTracker{repo: m.runs, logger: log, runID: run.RunID, kind: run.Kind, state: run.State}

	if err := m.runs.IncrementAttempts(ctx, run.RunID); err != nil {
		log.Warn("更新重试次数失败", zap.Error(err))
		return run.State
	}
	attempts := run.Attempts + 1
	detail := &RunDetail{ProjectID: run.ProjectID}

	abandon := func(cause error, reason string) string {
		tracker.advance(ctx, constants.RunStateAbandoned, detail, cause)
		m.metrics.RecordWorkflow(constants.RunKindReconcile, constants.RunStateAbandoned)
		m.notify(ctx, &notification.ProjectEvent{
			Type:      notification.NotifyReconcileAbandon,
			ProjectID: run.ProjectID,
			Slug:      detail.Slug,
			RunID:     run.RunID,
			Message:   reason,
		})
		return tracker.state
	}

	if run.ProjectID <= 0 {
		return abandon(nil, "运行记录没有关联项目")
	}

	unlock := m.locks.Lock(run.ProjectID)
	defer unlock()

	bundle, err := m.loadBundle(ctx, run.ProjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return abandon(nil, "项目已删除")
		}
		log.Warn("读取项目失败", zap.Error(err))
		return run.State
	}
	detail.Slug = bundle.Project.EdgeFunctionSlug
	detail.Persisted = true
	if bundle.Key != nil {
		detail.KeyVersion = bundle.Key.Version
	}

	src, err := m.renderCurrent(bundle)
	if err != nil {
		// 密文损坏或资源缺失, 重试没有意义
		return abandon(err, "无法生成部署源码: "+err.Error())
	}

	outcome, err := m.deployArtifact(ctx, bundle.Project.EdgeFunctionSlug, src)
	detail.Deploy = outcome
	if err != nil {
		if attempts >= m.opts.ReconcileAttempts {
			return abandon(stepErr(ErrUpstream, StepDeploy, err), "超过最大重试次数: "+err.Error())
		}
		m.metrics.RecordWorkflow(constants.RunKindReconcile, constants.RunStateDeployFailed)
		log.Warn("补偿部署失败, 等待下一轮", zap.Int("attempts", attempts), zap.Error(err))
		return run.State
	}

	tracker.advance(ctx, constants.RunStateArtifactDeployed, detail, nil)
	if tracker.state != constants.RunStateArtifactDeployed {
		// 记录已被其他实例推进
		return run.State
	}
	m.metrics.RecordWorkflow(constants.RunKindReconcile, constants.RunStateArtifactDeployed)
	m.notify(ctx, &notification.ProjectEvent{
		Type:        notification.NotifyReconcileRecover,
		ProjectID:   run.ProjectID,
		ProjectName: bundle.Project.Name,
		Slug:        detail.Slug,
		RunID:       run.RunID,
		Message:     "巡检重新部署成功",
	})
	log.Info("补偿部署成功", zap.String("variant", outcome.Variant), zap.Int("attempts", attempts))
	return tracker.state
}
