package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/crypto"
	pkgErrors "subleet-admin/pkg/responses"
)

const channelReveal = "reveal"

// KeyStatus 密钥状态, 不解密
type KeyStatus struct {
	Exists      bool       `json:"exists"`
	IsDisplayed bool       `json:"is_displayed"`
	CanBeViewed bool       `json:"can_be_viewed"`
	Version     int64      `json:"version,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	RotatedAt   *time.Time `json:"rotated_at,omitempty"`
}

func (m *Manager) findKey(ctx context.Context, projectID int64) (*model.APIKey, error) {
	key, err := m.keys.FindByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: api key for project %d", ErrNotFound, projectID)
		}
		return nil, stepErr(ErrPersistence, StepPersist, err)
	}
	return key, nil
}

// Reveal 返回明文密钥
//
// 已展示过的密钥拒绝再次展示; 本方法不修改展示标记, 调用方确认后需调用 Acknowledge
func (m *Manager) Reveal(ctx context.Context, projectID int64) (string, error) {
	key, err := m.findKey(ctx, projectID)
	if err != nil {
		m.metrics.RecordDisclosure(channelReveal, "not_found")
		return "", err
	}
	if key.IsDisplayed {
		m.metrics.RecordDisclosure(channelReveal, "already_displayed")
		return "", ErrAlreadyDisplayed
	}

	plaintext, err := m.decryptKey(key)
	if err != nil {
		m.metrics.RecordDisclosure(channelReveal, "integrity_error")
		m.logger.Error("密钥解密失败", zap.Int64("project_id", projectID), zap.Error(err))
		return "", stepErr(ErrIntegrity, StepDecrypt, err)
	}

	m.metrics.RecordDisclosure(channelReveal, "ok")
	m.logger.Info("密钥已展示", zap.Int64("project_id", projectID), zap.Int64("version", key.Version))
	return plaintext, nil
}

// Acknowledge 标记密钥已展示, 幂等
func (m *Manager) Acknowledge(ctx context.Context, projectID int64) error {
	changed, err := m.keys.MarkDisplayed(ctx, projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return fmt.Errorf("%w: api key for project %d", ErrNotFound, projectID)
		}
		return stepErr(ErrPersistence, StepPersist, err)
	}
	if changed {
		m.logger.Info("密钥标记为已展示", zap.Int64("project_id", projectID))
	}
	return nil
}

// KeyStatus 查询密钥状态, 密钥不存在时 Exists 为 false
func (m *Manager) KeyStatus(ctx context.Context, projectID int64) (*KeyStatus, error) {
	key, err := m.findKey(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &KeyStatus{}, nil
		}
		return nil, err
	}
	createdAt := key.CreatedAt
	return &KeyStatus{
		Exists:      true,
		IsDisplayed: key.IsDisplayed,
		CanBeViewed: !key.IsDisplayed,
		Version:     key.Version,
		CreatedAt:   &createdAt,
		RotatedAt:   key.RotatedAt,
	}, nil
}

// VerifyKey 网关校验, 只比对摘要
func (m *Manager) VerifyKey(ctx context.Context, projectID int64, plaintext string) (*model.Project, error) {
	if plaintext == "" {
		return nil, ErrInvalidKey
	}
	project, err := m.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, stepErr(ErrPersistence, StepPersist, err)
	}
	key, err := m.findKey(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	if !crypto.CheckAPIKey(plaintext, key.KeyHash) {
		return nil, ErrInvalidKey
	}
	if !project.Working {
		return nil, ErrProjectDisabled
	}
	return project, nil
}
