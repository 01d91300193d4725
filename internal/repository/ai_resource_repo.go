package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"subleet-admin/internal/model"
	pkgErrors "subleet-admin/pkg/responses"
)

type AIResourceRepository interface {
	FindByProject(ctx context.Context, projectID int64) (*model.AIResource, error)
	UpdateModel(ctx context.Context, projectID int64, modelName string) error
}

type aiResourceRepository struct {
	db *gorm.DB
}

func NewAIResourceRepository(db *gorm.DB) AIResourceRepository {
	return &aiResourceRepository{db: db}
}

func (r *aiResourceRepository) FindByProject(ctx context.Context, projectID int64) (*model.AIResource, error) {
	var res model.AIResource
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询AI资源失败", err)
	}
	return &res, nil
}

func (r *aiResourceRepository) UpdateModel(ctx context.Context, projectID int64, modelName string) error {
	result := r.db.WithContext(ctx).Model(&model.AIResource{}).
		Where("project_id = ?", projectID).
		Update("model", modelName)
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新助手模型失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}
