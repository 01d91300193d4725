package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"subleet-admin/internal/model"
	pkgErrors "subleet-admin/pkg/responses"
)

// ErrVersionConflict 乐观锁冲突, 记录已被其他请求替换
var ErrVersionConflict = pkgErrors.New(pkgErrors.CodeConflict, "密钥已被其他请求修改")

type APIKeyRepository interface {
	FindByProject(ctx context.Context, projectID int64) (*model.APIKey, error)
	// Replace 仅当当前版本等于 expectVersion 时整体替换, 成功后 key.Version 为新版本
	Replace(ctx context.Context, key *model.APIKey, expectVersion int64) error
	// MarkDisplayed 返回本次是否发生了 false -> true 的变化
	MarkDisplayed(ctx context.Context, projectID int64) (bool, error)
}

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) FindByProject(ctx context.Context, projectID int64) (*model.APIKey, error) {
	var key model.APIKey
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目密钥失败", err)
	}
	return &key, nil
}

func (r *apiKeyRepository) Replace(ctx context.Context, key *model.APIKey, expectVersion int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("project_id = ? AND version = ?", key.ProjectID, expectVersion).
		Updates(map[string]interface{}{
			"encrypted_key": key.EncryptedKey,
			"key_hash":      key.KeyHash,
			"is_displayed":  key.IsDisplayed,
			"version":       expectVersion + 1,
			"rotated_at":    now,
			"created_at":    now,
		})
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新项目密钥失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	key.Version = expectVersion + 1
	key.RotatedAt = &now
	key.CreatedAt = now
	return nil
}

func (r *apiKeyRepository) MarkDisplayed(ctx context.Context, projectID int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("project_id = ? AND is_displayed = ?", projectID, false).
		Update("is_displayed", true)
	if result.Error != nil {
		return false, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新密钥展示状态失败", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// 未更新: 已展示过或记录不存在
	if _, err := r.FindByProject(ctx, projectID); err != nil {
		return false, err
	}
	return false, nil
}
