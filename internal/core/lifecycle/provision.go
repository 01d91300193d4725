package lifecycle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"subleet-admin/internal/adapter/notification"
	"subleet-admin/internal/core/artifact"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/aiplatform"
	"subleet-admin/internal/pkg/crypto"
	"subleet-admin/pkg/constants"
	"subleet-admin/pkg/utils"
)

const maxProjectNameLen = 100

// ProvisionRequest 开通参数
type ProvisionRequest struct {
	OwnerID   int64
	Name      string
	OriginURL string
}

// ResourceIDs AI 平台资源
type ResourceIDs struct {
	VectorStoreID string `json:"vector_store_id,omitempty"`
	AssistantID   string `json:"assistant_id,omitempty"`
}

// ProvisionResult 开通结果, 失败时也会返回已完成的部分
//
// PlaintextKey 只在密钥已落库时返回, 这是该密钥唯一的一次展示
type ProvisionResult struct {
	RunID        string
	State        string
	ProjectID    int64
	Slug         string
	PlaintextKey string
	Resources    ResourceIDs
	Persisted    bool
	Deploy       DeployOutcome
}

// Provision 开通项目
//
//	requested -> ai_resources_created -> credential_persisted -> artifact_deployed
//
// 任一步失败都不撤销前面已完成的步骤
func (m *Manager) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	name, origin, err := m.validateProvision(ctx, req)
	if err != nil {
		return nil, err
	}

	// 先生成密钥, 加密失败属于配置问题, 不应产生任何远程资源
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

	run, err := m.startRun(ctx, constants.RunKindProvision, 0)
	if err != nil {
		return nil, err
	}
	log := m.logger.With(zap.String("run_id", run.runID), zap.Int64("owner_id", req.OwnerID))

	result := &ProvisionResult{RunID: run.runID, Slug: GenerateSlug(m.opts.SlugPrefix, name)}
	detail := &RunDetail{Slug: result.Slug, Origin: origin}
	finish := func(state string, cause error) (*ProvisionResult, error) {
		run.advance(ctx, state, detail, cause)
		result.State = run.state
		m.metrics.RecordWorkflow(constants.RunKindProvision, state)
		return result, cause
	}

	// 1. AI 资源
	stepCtx, cancel := m.stepContext(ctx)
	vsID, err := m.ai.CreateVectorStore(stepCtx, name)
	cancel()
	if err != nil {
		log.Error("创建向量库失败", zap.Error(err))
		return finish(constants.RunStateAIResourceFailed, stepErr(ErrUpstream, StepCreateVectorStore, err))
	}
	result.Resources.VectorStoreID = vsID
	detail.VectorStoreID = vsID

	modelName := m.opts.DefaultModel
	stepCtx, cancel = m.stepContext(ctx)
	assistant, err := m.ai.CreateAssistant(stepCtx, aiplatform.AssistantSpec{
		Name:          name,
		Instructions:  m.opts.Instructions,
		Model:         modelName,
		VectorStoreID: vsID,
	})
	cancel()
	if err != nil {
		log.Error("创建助手失败", zap.String("vector_store_id", vsID), zap.Error(err))
		return finish(constants.RunStateAIResourceFailed, stepErr(ErrUpstream, StepCreateAssistant, err))
	}
	result.Resources.AssistantID = assistant.ID
	detail.AssistantID = assistant.ID
	run.advance(ctx, constants.RunStateAIResourcesCreated, detail, nil)

	// 2. 落库, 返回值即为展示, 所以直接记为已展示
	bundle := &model.ProjectBundle{
		Project: &model.Project{
			Name:             name,
			OwnerID:          req.OwnerID,
			OriginURL:        origin,
			Working:          true,
			EdgeFunctionSlug: result.Slug,
		},
		Key: &model.APIKey{
			EncryptedKey: envelope,
			KeyHash:      hash,
			IsDisplayed:  true,
			Version:      1,
			CreatedAt:    time.Now(),
		},
		Resource: &model.AIResource{
			VectorStoreID: vsID,
			AssistantID:   assistant.ID,
			Model:         modelName,
		},
	}
	if err := m.projects.CreateBundle(ctx, bundle); err != nil {
		log.Error("保存项目失败", zap.Error(err))
		return finish(constants.RunStatePersistFailed, stepErr(ErrPersistence, StepPersist, err))
	}
	result.ProjectID = bundle.Project.ID
	result.Persisted = true
	result.PlaintextKey = plaintext
	detail.ProjectID = bundle.Project.ID
	detail.Persisted = true
	detail.KeyVersion = bundle.Key.Version
	run.advance(ctx, constants.RunStateCredentialPersist, detail, nil)
	m.metrics.RecordDisclosure(constants.RunKindProvision, "ok")

	// 3. 部署
	src, err := artifact.RenderEnabled(origin, vsID, assistant.ID, plaintext)
	if err != nil {
		return finish(constants.RunStateDeployFailed, stepErr(ErrValidation, StepRender, err))
	}
	outcome, err := m.deployArtifact(ctx, result.Slug, src)
	result.Deploy = *outcome
	detail.Deploy = outcome
	if err != nil {
		m.notify(ctx, &notification.ProjectEvent{
			Type:        notification.NotifyProvisionFailed,
			ProjectID:   result.ProjectID,
			ProjectName: name,
			Slug:        result.Slug,
			RunID:       run.runID,
			Message:     "项目已保存, 函数部署失败, 等待巡检补偿: " + err.Error(),
		})
		return finish(constants.RunStateDeployFailed, stepErr(ErrUpstream, StepDeploy, err))
	}

	log.Info("项目开通完成", zap.Int64("project_id", result.ProjectID), zap.String("slug", result.Slug))
	return finish(constants.RunStateArtifactDeployed, nil)
}

func (m *Manager) validateProvision(ctx context.Context, req ProvisionRequest) (string, string, error) {
	name := strings.TrimSpace(req.Name)
	origin := utils.NormalizeOrigin(req.OriginURL)

	switch {
	case req.OwnerID <= 0:
		return "", "", fmt.Errorf("%w: owner is required", ErrValidation)
	case name == "":
		return "", "", fmt.Errorf("%w: project name is required", ErrValidation)
	case utf8.RuneCountInString(name) > maxProjectNameLen:
		return "", "", fmt.Errorf("%w: project name exceeds %d characters", ErrValidation, maxProjectNameLen)
	case !utils.IsValidOrigin(origin):
		return "", "", fmt.Errorf("%w: invalid origin url %q", ErrValidation, req.OriginURL)
	}

	if m.opts.MaxProjectsPerOwner > 0 {
		count, err := m.projects.CountByOwner(ctx, req.OwnerID)
		if err != nil {
			return "", "", stepErr(ErrPersistence, StepPersist, err)
		}
		if count >= int64(m.opts.MaxProjectsPerOwner) {
			return "", "", fmt.Errorf("%w: owner %d already has %d project(s)", ErrQuotaExceeded, req.OwnerID, count)
		}
	}
	return name, origin, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

const (
	slugNameMaxLen = 32
	slugRandLen    = 6
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateSlug <prefix>-<name>-<base36 毫秒时间戳>-<6 位随机>
// 只在开通时生成一次, 之后不再变化
func GenerateSlug(prefix, name string) string {
	clean := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(clean) > slugNameMaxLen {
		clean = strings.TrimRight(clean[:slugNameMaxLen], "-")
	}
	if clean == "" {
		clean = "project"
	}

	suffix := make([]byte, slugRandLen)
	for i := range suffix {
		suffix[i] = base36Alphabet[rand.IntN(len(base36Alphabet))]
	}
	return fmt.Sprintf("%s-%s-%s-%s", prefix, clean, strconv.FormatInt(time.Now().UnixMilli(), 36), suffix)
}
