package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"subleet-admin/internal/adapter/notification"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/aiplatform"
	"subleet-admin/pkg/constants"
	pkgErrors "subleet-admin/pkg/responses"
	"subleet-admin/pkg/utils"
)

// SetActive 启用或停用项目, 重新部署对应版本, 密钥不变
func (m *Manager) SetActive(ctx context.Context, projectID int64, active bool) (*DeployOutcome, error) {
	unlock := m.locks.Lock(projectID)
	defer unlock()

	bundle, err := m.loadBundle(ctx, projectID)
	if err != nil {
		return nil, err
	}

	prev := bundle.Project.Working
	return m.applyAndDeploy(ctx, constants.RunKindActivate, bundle,
		map[string]interface{}{"working": active},
		map[string]interface{}{"working": prev},
		func(p *model.Project) { p.Working = active },
		&RunDetail{Active: &active},
	)
}

// UpdateOrigin 修改允许的来源, 部署失败时回滚
func (m *Manager) UpdateOrigin(ctx context.Context, projectID int64, originURL string) (*DeployOutcome, error) {
	origin := utils.NormalizeOrigin(originURL)
	if !utils.IsValidOrigin(origin) {
		return nil, fmt.Errorf("%w: invalid origin url %q", ErrValidation, originURL)
	}

	unlock := m.locks.Lock(projectID)
	defer unlock()

	bundle, err := m.loadBundle(ctx, projectID)
	if err != nil {
		return nil, err
	}

	prev := bundle.Project.OriginURL
	return m.applyAndDeploy(ctx, constants.RunKindUpdateOrigin, bundle,
		map[string]interface{}{"origin_url": origin},
		map[string]interface{}{"origin_url": prev},
		func(p *model.Project) { p.OriginURL = origin },
		&RunDetail{Origin: origin},
	)
}

// applyAndDeploy 先更新项目字段再部署当前版本, 部署失败时恢复原字段
// 调用方需持有项目锁
func (m *Manager) applyAndDeploy(
	ctx context.Context,
	kind string,
	bundle *model.ProjectBundle,
	fields, rollback map[string]interface{},
	apply func(*model.Project),
	detail *RunDetail,
) (*DeployOutcome, error) {
	project := bundle.Project
	detail.ProjectID = project.ID
	detail.Slug = project.EdgeFunctionSlug

	run, err := m.startRun(ctx, kind, project.ID)
	if err != nil {
		return nil, err
	}
	log := m.logger.With(zap.String("run_id", run.runID), zap.Int64("project_id", project.ID), zap.String("kind", kind))

	finish := func(state string, outcome *DeployOutcome, cause error) (*DeployOutcome, error) {
		detail.Deploy = outcome
		run.advance(ctx, state, detail, cause)
		m.metrics.RecordWorkflow(kind, state)
		return outcome, cause
	}

	if err := m.projects.UpdateFields(ctx, project.ID, fields); err != nil {
		return finish(constants.RunStatePersistFailed, &DeployOutcome{}, stepErr(ErrPersistence, StepPersist, err))
	}
	detail.Persisted = true
	apply(project)

	outcome := &DeployOutcome{}
	src, err := m.renderCurrent(bundle)
	var cause error
	if err != nil {
		cause = err
		if FailedStep(err) == "" {
			cause = stepErr(ErrValidation, StepRender, err)
		}
	} else {
		outcome, err = m.deployArtifact(ctx, project.EdgeFunctionSlug, src)
		if err == nil {
			log.Info("项目已重新部署", zap.String("variant", outcome.Variant))
			return finish(constants.RunStateArtifactDeployed, outcome, nil)
		}
		cause = stepErr(ErrUpstream, StepDeploy, err)
	}

	// 回滚数据库, 线上仍是旧版本
	if rbErr := m.projects.UpdateFields(context.WithoutCancel(ctx), project.ID, rollback); rbErr != nil {
		log.Error("回滚项目字段失败", zap.Error(rbErr))
		m.notify(ctx, &notification.ProjectEvent{
			Type:        notification.NotifyDeployFailed,
			ProjectID:   project.ID,
			ProjectName: project.Name,
			Slug:        project.EdgeFunctionSlug,
			RunID:       run.runID,
			Message:     "部署失败且回滚失败, 等待巡检补偿: " + cause.Error(),
		})
		return finish(constants.RunStateDeployFailed, outcome,
			stepErr(ErrConsistency, StepRollback, errors.Join(cause, rbErr)))
	}
	detail.RolledBack = true
	log.Warn("部署失败, 已回滚项目字段", zap.Error(cause))
	return finish(constants.RunStateRolledBack, outcome, cause)
}

// AssistantUpdate 助手修改项, nil 表示不修改
type AssistantUpdate struct {
	Instructions *string
	Model        *string
}

// UpdateAssistant 修改助手指令或模型, 助手 ID 不变所以不需要重新部署
func (m *Manager) UpdateAssistant(ctx context.Context, projectID int64, upd AssistantUpdate) (*model.AIResource, error) {
	if upd.Instructions == nil && upd.Model == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if upd.Model != nil {
		name := strings.TrimSpace(*upd.Model)
		if len(m.opts.SupportedModels) > 0 && !lo.Contains(m.opts.SupportedModels, name) {
			return nil, fmt.Errorf("%w: unsupported model %q", ErrValidation, name)
		}
		upd.Model = &name
	}

	res, err := m.resources.FindByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ai resources for project %d", ErrNotFound, projectID)
		}
		return nil, stepErr(ErrPersistence, StepPersist, err)
	}

	stepCtx, cancel := m.stepContext(ctx)
	_, err = m.ai.UpdateAssistant(stepCtx, res.AssistantID, aiplatform.AssistantPatch{
		Instructions: upd.Instructions,
		Model:        upd.Model,
	})
	cancel()
	if err != nil {
		return nil, stepErr(ErrUpstream, StepUpdateAssistant, err)
	}

	if upd.Model != nil && *upd.Model != res.Model {
		if err := m.resources.UpdateModel(ctx, projectID, *upd.Model); err != nil {
			return nil, stepErr(ErrConsistency, StepPersist, err)
		}
		res.Model = *upd.Model
	}
	m.logger.Info("助手已更新", zap.Int64("project_id", projectID), zap.String("assistant_id", res.AssistantID))
	return res, nil
}
