package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"subleet-admin/internal/adapter/notification"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/crypto"
	"subleet-admin/internal/repository"
	"subleet-admin/pkg/constants"
	pkgErrors "subleet-admin/pkg/responses"
)

// RotationResult 轮换结果
//
// PlaintextKey 为新密钥, 轮换响应即为其唯一的一次展示
type RotationResult struct {
	RunID        string
	State        string
	ProjectID    int64
	PlaintextKey string
	Version      int64
	Persisted    bool
	Deploy       DeployOutcome
}

func (m *Manager) loadBundle(ctx context.Context, projectID int64) (*model.ProjectBundle, error) {
	bundle, err := m.projects.FindBundle(ctx, projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
		}
		return nil, stepErr(ErrPersistence, StepPersist, err)
	}
	return bundle, nil
}

// Rotate 轮换密钥: 生成 -> 加密 -> 读取部署参数 -> 重新部署 -> 落库
//
// 部署失败时新密钥仍然落库并返回, 结果带 ErrConsistency, 巡检任务会用库中的密钥重新部署
// 落库失败时线上可能已是新密钥, 同样返回明文, 由调用方决定是否重试
func (m *Manager) Rotate(ctx context.Context, projectID int64) (*RotationResult, error) {
	unlock := m.locks.Lock(projectID)
	defer unlock()

	bundle, err := m.loadBundle(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if bundle.Key == nil {
		return nil, fmt.Errorf("%w: api key for project %d", ErrNotFound, projectID)
	}
	project := bundle.Project

	plaintext, err := crypto.GenerateAPIKey(m.opts.KeyPrefix, m.opts.KeyBytes)
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}
	envelope, err := crypto.EncryptAPIKey(plaintext, m.opts.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypt api key: %v", ErrConfiguration, err)
	}
	hash, err := crypto.HashAPIKey(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash api key: %w", err)
	}

	src, err := m.renderFor(project, bundle.Resource, plaintext)
	if err != nil {
		return nil, stepErr(ErrValidation, StepRender, err)
	}

	run, err := m.startRun(ctx, constants.RunKindRotate, projectID)
	if err != nil {
		return nil, err
	}
	log := m.logger.With(zap.String("run_id", run.runID), zap.Int64("project_id", projectID))

	result := &RotationResult{RunID: run.runID, ProjectID: projectID}
	detail := &RunDetail{ProjectID: projectID, Slug: project.EdgeFunctionSlug}

	// 1. 重新部署
	outcome, deployErr := m.deployArtifact(ctx, project.EdgeFunctionSlug, src)
	result.Deploy = *outcome
	detail.Deploy = outcome

	// 2. 落库, 以读取时的版本做乐观锁
	newKey := &model.APIKey{
		ProjectID:    projectID,
		EncryptedKey: envelope,
		KeyHash:      hash,
		IsDisplayed:  true,
	}
	persistErr := m.keys.Replace(ctx, newKey, bundle.Key.Version)
	if errors.Is(persistErr, repository.ErrVersionConflict) {
		persistErr = fmt.Errorf("%w: %v", ErrConcurrentRotation, persistErr)
	}

	var state string
	var cause error
	switch {
	case persistErr == nil && deployErr == nil:
		state = constants.RunStateArtifactDeployed
	case persistErr == nil:
		state = constants.RunStateDeployFailed
		cause = stepErr(ErrConsistency, StepDeploy, deployErr)
	case deployErr == nil:
		// 线上已是新密钥而库中仍是旧密钥
		state = constants.RunStatePersistFailed
		cause = stepErr(ErrConsistency, StepPersist, persistErr)
	default:
		// 两步都失败, 线上与库中都还是旧密钥
		state = constants.RunStatePersistFailed
		cause = stepErr(ErrPersistence, StepPersist, persistErr)
	}

	if persistErr == nil {
		result.Persisted = true
		result.Version = newKey.Version
		detail.Persisted = true
		detail.KeyVersion = newKey.Version
	}
	if persistErr == nil || deployErr == nil {
		result.PlaintextKey = plaintext
		m.metrics.RecordDisclosure(constants.RunKindRotate, "ok")
	}

	run.advance(ctx, state, detail, cause)
	result.State = run.state
	m.metrics.RecordWorkflow(constants.RunKindRotate, state)

	if cause != nil {
		log.Warn("密钥轮换未完全成功", zap.String("state", state), zap.Error(cause))
		m.notify(ctx, &notification.ProjectEvent{
			Type:        notification.NotifyDeployFailed,
			ProjectID:   projectID,
			ProjectName: project.Name,
			Slug:        project.EdgeFunctionSlug,
			RunID:       run.runID,
			Message:     "密钥轮换后线上函数与数据库可能不一致: " + cause.Error(),
		})
		return result, cause
	}

	log.Info("密钥轮换完成", zap.Int64("version", result.Version), zap.String("variant", outcome.Variant))
	m.notify(ctx, &notification.ProjectEvent{
		Type:        notification.NotifyKeyRotated,
		ProjectID:   projectID,
		ProjectName: project.Name,
		Slug:        project.EdgeFunctionSlug,
		RunID:       run.runID,
		Message:     fmt.Sprintf("密钥已轮换至版本 %d", result.Version),
	})
	return result, nil
}
