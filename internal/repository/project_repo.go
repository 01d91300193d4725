package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"subleet-admin/internal/model"
	pkgErrors "subleet-admin/pkg/responses"
)

type ProjectRepository interface {
	// CreateBundle 同一事务写入项目、密钥和 AI 资源
	CreateBundle(ctx context.Context, bundle *model.ProjectBundle) error
	FindByID(ctx context.Context, id int64) (*model.Project, error)
	FindBundle(ctx context.Context, id int64) (*model.ProjectBundle, error)
	ListByOwner(ctx context.Context, ownerID int64, page, pageSize int) ([]*model.Project, int64, error)
	CountByOwner(ctx context.Context, ownerID int64) (int64, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	// DeleteCascade 同一事务删除项目及其密钥、AI 资源
	DeleteCascade(ctx context.Context, id int64) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) CreateBundle(ctx context.Context, bundle *model.ProjectBundle) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bundle.Project).Error; err != nil {
			return err
		}
		if bundle.Key != nil {
			bundle.Key.ProjectID = bundle.Project.ID
			if err := tx.Create(bundle.Key).Error; err != nil {
				return err
			}
		}
		if bundle.Resource != nil {
			bundle.Resource.ProjectID = bundle.Project.ID
			if err := tx.Create(bundle.Resource).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建项目失败", err)
	}
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目失败", err)
	}
	return &project, nil
}

// FindBundle 密钥或 AI 资源缺失时对应字段为 nil
func (r *projectRepository) FindBundle(ctx context.Context, id int64) (*model.ProjectBundle, error) {
	project, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bundle := &model.ProjectBundle{Project: project}

	var key model.APIKey
	err = r.db.WithContext(ctx).Where("project_id = ?", id).First(&key).Error
	switch {
	case err == nil:
		bundle.Key = &key
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目密钥失败", err)
	}

	var res model.AIResource
	err = r.db.WithContext(ctx).Where("project_id = ?", id).First(&res).Error
	switch {
	case err == nil:
		bundle.Resource = &res
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询AI资源失败", err)
	}

	return bundle, nil
}

// ListByOwner ownerID 为 0 时查询全部项目
func (r *projectRepository) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int) ([]*model.Project, int64, error) {
	var projects []*model.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Project{})
	if ownerID > 0 {
		query = query.Where("owner_id = ?", ownerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目数量失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}

	return projects, total, nil
}

func (r *projectRepository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目数量失败", err)
	}
	return count, nil
}

func (r *projectRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新项目失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) DeleteCascade(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.APIKey{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.AIResource{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, id).Error
	})
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除项目失败", err)
	}
	return nil
}
