package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"subleet-admin/internal/model"
	pkgErrors "subleet-admin/pkg/responses"
)

// ErrStateConflict 运行记录已被其他流程推进
var ErrStateConflict = pkgErrors.New(pkgErrors.CodeConflict, "运行记录状态已变更")

// RunUpdate 状态推进时一并写入的字段, 零值表示不修改
type RunUpdate struct {
	ProjectID    int64
	Detail       datatypes.JSON
	ErrorMessage *string
}

type ProvisionRunRepository interface {
	Create(ctx context.Context, run *model.ProvisionRun) error
	FindByRunID(ctx context.Context, runID string) (*model.ProvisionRun, error)
	// Transition 以 from 作为乐观锁条件推进状态
	Transition(ctx context.Context, runID, from, to string, upd RunUpdate) error
	IncrementAttempts(ctx context.Context, runID string) error
	ListByState(ctx context.Context, state string, maxAttempts, limit int) ([]*model.ProvisionRun, error)
	ListByProject(ctx context.Context, projectID int64, limit int) ([]*model.ProvisionRun, error)
}

type provisionRunRepository struct {
	db *gorm.DB
}

func NewProvisionRunRepository(db *gorm.DB) ProvisionRunRepository {
	return &provisionRunRepository{db: db}
}

func (r *provisionRunRepository) Create(ctx context.Context, run *model.ProvisionRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建运行记录失败", err)
	}
	return nil
}

func (r *provisionRunRepository) FindByRunID(ctx context.Context, runID string) (*model.ProvisionRun, error) {
	var run model.ProvisionRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询运行记录失败", err)
	}
	return &run, nil
}

func (r *provisionRunRepository) Transition(ctx context.Context, runID, from, to string, upd RunUpdate) error {
	fields := map[string]interface{}{"state": to}
	if upd.ProjectID > 0 {
		fields["project_id"] = upd.ProjectID
	}
	if upd.Detail != nil {
		fields["detail"] = upd.Detail
	}
	if upd.ErrorMessage != nil {
		fields["error_message"] = *upd.ErrorMessage
	}

	result := r.db.WithContext(ctx).Model(&model.ProvisionRun{}).
		Where("run_id = ? AND state = ?", runID, from).
		Updates(fields)
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, fmt.Sprintf("更新运行记录状态失败: %s -> %s", from, to), result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *provisionRunRepository) IncrementAttempts(ctx context.Context, runID string) error {
	if err := r.db.WithContext(ctx).Model(&model.ProvisionRun{}).
		Where("run_id = ?", runID).
		Update("attempts", gorm.Expr("attempts + ?", 1)).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新重试次数失败", err)
	}
	return nil
}

func (r *provisionRunRepository) ListByState(ctx context.Context, state string, maxAttempts, limit int) ([]*model.ProvisionRun, error) {
	var runs []*model.ProvisionRun
	if err := r.db.WithContext(ctx).
		Where("state = ? AND attempts < ?", state, maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询运行记录失败", err)
	}
	return runs, nil
}

func (r *provisionRunRepository) ListByProject(ctx context.Context, projectID int64, limit int) ([]*model.ProvisionRun, error) {
	var runs []*model.ProvisionRun
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询运行记录失败", err)
	}
	return runs, nil
}
