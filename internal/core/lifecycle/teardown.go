package lifecycle

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"subleet-admin/internal/adapter/notification"
	"subleet-admin/pkg/constants"
)

// TeardownReport 删除结果, 远程资源删除失败不阻止数据库删除
type TeardownReport struct {
	RunID              string   `json:"run_id"`
	ProjectID          int64    `json:"project_id"`
	ArtifactDeleted    bool     `json:"artifact_deleted"`
	AssistantDeleted   bool     `json:"assistant_deleted"`
	VectorStoreDeleted bool     `json:"vector_store_deleted"`
	Errors             []string `json:"errors,omitempty"`
}

// Complete 远程资源是否全部删除
func (r *TeardownReport) Complete() bool {
	return len(r.Errors) == 0
}

// Delete 删除项目: 尽力删除线上函数与 AI 资源, 然后删除数据库记录
func (m *Manager) Delete(ctx context.Context, projectID int64) (*TeardownReport, error) {
	unlock := m.locks.Lock(projectID)
	defer unlock()

	bundle, err := m.loadBundle(ctx, projectID)
	if err != nil {
		return nil, err
	}
	project := bundle.Project

	run, err := m.startRun(ctx, constants.RunKindTeardown, projectID)
	if err != nil {
		return nil, err
	}
	log := m.logger.With(zap.String("run_id", run.runID), zap.Int64("project_id", projectID))
	report := &TeardownReport{RunID: run.runID, ProjectID: projectID}

	best := func(what string, fn func(context.Context) error) bool {
		stepCtx, cancel := m.stepContext(ctx)
		defer cancel()
		if err := fn(stepCtx); err != nil {
			log.Warn("删除远程资源失败", zap.String("resource", what), zap.Error(err))
			report.Errors = append(report.Errors, what+": "+err.Error())
			return false
		}
		return true
	}

	report.ArtifactDeleted = best("edge_function", func(c context.Context) error {
		return m.deployer.Delete(c, project.EdgeFunctionSlug)
	})
	if res := bundle.Resource; res != nil {
		report.AssistantDeleted = best("assistant", func(c context.Context) error {
			return m.ai.DeleteAssistant(c, res.AssistantID)
		})
		report.VectorStoreDeleted = best("vector_store", func(c context.Context) error {
			return m.ai.DeleteVectorStore(c, res.VectorStoreID)
		})
	} else {
		report.AssistantDeleted = true
		report.VectorStoreDeleted = true
	}

	detail := &RunDetail{ProjectID: projectID, Slug: project.EdgeFunctionSlug}
	if err := m.projects.DeleteCascade(ctx, projectID); err != nil {
		cause := stepErr(ErrPersistence, StepPersist, err)
		run.advance(ctx, constants.RunStatePersistFailed, detail, cause)
		m.metrics.RecordWorkflow(constants.RunKindTeardown, constants.RunStatePersistFailed)
		return report, cause
	}
	detail.Persisted = true
	run.advance(ctx, constants.RunStateTornDown, detail, nil)
	m.metrics.RecordWorkflow(constants.RunKindTeardown, constants.RunStateTornDown)

	if !report.Complete() {
		m.notify(ctx, &notification.ProjectEvent{
			Type:        notification.NotifyTeardownIncomplete,
			ProjectID:   projectID,
			ProjectName: project.Name,
			Slug:        project.EdgeFunctionSlug,
			RunID:       run.runID,
			Message:     "项目已删除, 以下远程资源需要人工清理: " + strings.Join(report.Errors, "; "),
		})
	}
	log.Info("项目已删除", zap.Bool("complete", report.Complete()))
	return report, nil
}

