// Package lifecycle 项目密钥生命周期: 开通、展示、轮换、启停、删除与巡检补偿
//
// 三个协作方 (数据库、AI 平台、函数部署平台) 各自可能失败, 流程不做跨系统回滚,
// 每次运行写一条 provision_runs 记录, 失败时把已完成的步骤返回给调用方
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"subleet-admin/internal/adapter/deploy"
	"subleet-admin/internal/adapter/notification"
	"subleet-admin/internal/pkg/aiplatform"
	"subleet-admin/internal/pkg/config"
	"subleet-admin/internal/pkg/metrics"
	"subleet-admin/internal/repository"
	"subleet-admin/pkg/constants"
)

// AIPlatform 向量库与助手资源
type AIPlatform interface {
	CreateVectorStore(ctx context.Context, name string) (string, error)
	DeleteVectorStore(ctx context.Context, id string) error
	CreateAssistant(ctx context.Context, spec aiplatform.AssistantSpec) (*aiplatform.Assistant, error)
	UpdateAssistant(ctx context.Context, id string, patch aiplatform.AssistantPatch) (*aiplatform.Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error
}

// Deps Manager 的协作方
type Deps struct {
	Projects  repository.ProjectRepository
	Keys      repository.APIKeyRepository
	Resources repository.AIResourceRepository
	Runs      repository.ProvisionRunRepository
	AI        AIPlatform
	Deployer  deploy.Deployer
	Notifier  notification.Notifier
	Metrics   *metrics.Metrics
}

// Options 流程参数
type Options struct {
	EncryptionSecret    string
	KeyPrefix           string
	KeyBytes            int
	SlugPrefix          string
	DefaultModel        string
	SupportedModels     []string
	Instructions        string
	MaxProjectsPerOwner int           // <= 0 表示不限制
	StepTimeout         time.Duration // 单个远程步骤的超时, 0 表示只受调用方 ctx 控制
	ReconcileAttempts   int
	ReconcileBatchSize  int
}

// OptionsFromConfig 从全局配置生成参数
func OptionsFromConfig(cfg *config.Config) Options {
	stepTimeout, _ := time.ParseDuration(cfg.Provision.StepTimeout)
	return Options{
		EncryptionSecret:    cfg.Crypto.EncryptionSecret,
		KeyPrefix:           cfg.Crypto.KeyPrefix,
		KeyBytes:            cfg.Crypto.KeyBytes,
		SlugPrefix:          cfg.EdgeHost.SlugPrefix,
		DefaultModel:        cfg.AIPlatform.DefaultModel,
		SupportedModels:     cfg.AIPlatform.SupportedModels,
		Instructions:        cfg.AIPlatform.Instructions,
		MaxProjectsPerOwner: cfg.Provision.MaxProjectsPerOwner,
		StepTimeout:         stepTimeout,
		ReconcileAttempts:   cfg.Reconcile.MaxAttempts,
		ReconcileBatchSize:  cfg.Reconcile.BatchSize,
	}
}

// Manager 生命周期编排
type Manager struct {
	projects  repository.ProjectRepository
	keys      repository.APIKeyRepository
	resources repository.AIResourceRepository
	runs      repository.ProvisionRunRepository
	ai        AIPlatform
	deployer  deploy.Deployer
	notifier  notification.Notifier
	metrics   *metrics.Metrics

	opts   Options
	logger *zap.Logger
	locks  *projectLocks
}

// NewManager 密钥参数不合法时返回 ErrConfiguration
func NewManager(deps Deps, opts Options, logger *zap.Logger) (*Manager, error) {
	if len(opts.EncryptionSecret) < constants.MinEncryptionSecretLen {
		return nil, fmt.Errorf("%w: encryption secret must be at least %d characters", ErrConfiguration, constants.MinEncryptionSecretLen)
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = constants.DefaultKeyPrefix
	}
	if opts.KeyBytes <= 0 {
		opts.KeyBytes = constants.DefaultKeyBytes
	}
	if opts.SlugPrefix == "" {
		opts.SlugPrefix = "subleet"
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = constants.DefaultAssistantModel
	}
	if opts.ReconcileAttempts <= 0 {
		opts.ReconcileAttempts = 5
	}
	if opts.ReconcileBatchSize <= 0 {
		opts.ReconcileBatchSize = 20
	}
	if deps.Notifier == nil {
		deps.Notifier = notification.NewLogNotifier(logger)
	}

	return &Manager{
		projects:  deps.Projects,
		keys:      deps.Keys,
		resources: deps.Resources,
		runs:      deps.Runs,
		ai:        deps.AI,
		deployer:  deps.Deployer,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		opts:      opts,
		logger:    logger,
		locks:     newProjectLocks(),
	}, nil
}

// stepContext 为单个远程步骤附加超时
func (m *Manager) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opts.StepTimeout > 0 {
		return context.WithTimeout(ctx, m.opts.StepTimeout)
	}
	return context.WithCancel(ctx)
}

// notify 通知失败只记录日志
func (m *Manager) notify(ctx context.Context, ev *notification.ProjectEvent) {
	if err := m.notifier.SendProjectEvent(ctx, ev); err != nil {
		m.logger.Warn("发送项目通知失败", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
