package lifecycle

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"subleet-admin/internal/model"
	"subleet-admin/internal/repository"
	"subleet-admin/pkg/constants"
)

// DeployOutcome 一次部署尝试的结果
type DeployOutcome struct {
	Attempted bool   `json:"attempted"`
	Live      bool   `json:"live"`
	Variant   string `json:"variant,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Version   int    `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RunDetail 写入 provision_runs.detail, 不包含任何明文密钥
type RunDetail struct {
	ProjectID     int64          `json:"project_id,omitempty"`
	Slug          string         `json:"slug,omitempty"`
	VectorStoreID string         `json:"vector_store_id,omitempty"`
	AssistantID   string         `json:"assistant_id,omitempty"`
	Persisted     bool           `json:"persisted"`
	KeyVersion    int64          `json:"key_version,omitempty"`
	Origin        string         `json:"origin,omitempty"`
	Active        *bool          `json:"active,omitempty"`
	RolledBack    bool           `json:"rolled_back,omitempty"`
	Deploy        *DeployOutcome `json:"deploy,omitempty"`
	FailedStep    string         `json:"failed_step,omitempty"`
}

// runTracker 跟踪一次运行的状态, 记录写入失败不影响流程本身
type runTracker struct {
	repo   repository.ProvisionRunRepository
	logger *zap.Logger

	runID string
	kind  string
	state string
}

func (m *Manager) startRun(ctx context.Context, kind string, projectID int64) (*runTracker, error) {
	run := &model.ProvisionRun{
		RunID:     uuid.NewString(),
		ProjectID: projectID,
		Kind:      kind,
		State:     constants.RunStateRequested,
	}
	if err := m.runs.Create(ctx, run); err != nil {
		return nil, stepErr(ErrPersistence, StepPersist, err)
	}
	return &runTracker{
		repo:   m.runs,
		logger: m.logger.With(zap.String("run_id", run.RunID), zap.String("kind", kind)),
		runID:  run.RunID,
		kind:   kind,
		state:  constants.RunStateRequested,
	}, nil
}

// advance 推进状态, cause 非空时写入错误信息
func (t *runTracker) advance(ctx context.Context, to string, detail *RunDetail, cause error) {
	upd := repository.RunUpdate{}
	if detail != nil {
		upd.ProjectID = detail.ProjectID
		if cause != nil {
			detail.FailedStep = FailedStep(cause)
		}
		if b, err := json.Marshal(detail); err == nil {
			upd.Detail = datatypes.JSON(b)
		}
	}
	if cause != nil {
		msg := cause.Error()
		upd.ErrorMessage = &msg
	}

	// 记录写入使用独立 ctx, 调用方取消后仍要落下最终状态
	if err := t.repo.Transition(context.WithoutCancel(ctx), t.runID, t.state, to, upd); err != nil {
		t.logger.Warn("更新运行记录失败", zap.String("from", t.state), zap.String("to", to), zap.Error(err))
		return
	}
	t.logger.Info("运行状态变更", zap.String("from", t.state), zap.String("to", to))
	t.state = to
}
