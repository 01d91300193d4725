package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"subleet-admin/internal/core/artifact"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/crypto"
)

// decryptKey 服务端解密已保存的密钥, 仅用于重新部署, 不计入展示
// 解密后用摘要复核, 错误的密钥配置不会被当成有效明文
func (m *Manager) decryptKey(key *model.APIKey) (string, error) {
	plaintext, err := crypto.DecryptAPIKey(key.EncryptedKey, m.opts.EncryptionSecret)
	if err != nil {
		return "", err
	}
	if key.KeyHash != "" && !crypto.CheckAPIKey(plaintext, key.KeyHash) {
		return "", fmt.Errorf("%w: decrypted key does not match stored hash", ErrIntegrity)
	}
	return plaintext, nil
}

// renderFor 按项目当前状态生成源码, 启用版本需要明文密钥
func (m *Manager) renderFor(project *model.Project, res *model.AIResource, plaintextKey string) (*artifact.Source, error) {
	if !project.Working {
		return artifact.RenderDisabled(project.Name)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: project %d has no ai resources", ErrNotFound, project.ID)
	}
	return artifact.RenderEnabled(project.OriginURL, res.VectorStoreID, res.AssistantID, plaintextKey)
}

// renderCurrent 从持久化数据重建当前应上线的版本
func (m *Manager) renderCurrent(bundle *model.ProjectBundle) (*artifact.Source, error) {
	if !bundle.Project.Working {
		return m.renderFor(bundle.Project, bundle.Resource, "")
	}
	if bundle.Key == nil {
		return nil, fmt.Errorf("%w: project %d has no api key", ErrNotFound, bundle.Project.ID)
	}
	plaintext, err := m.decryptKey(bundle.Key)
	if err != nil {
		return nil, stepErr(ErrIntegrity, StepDecrypt, err)
	}
	return m.renderFor(bundle.Project, bundle.Resource, plaintext)
}

// deployArtifact 部署并返回结果, 失败时 outcome.Live 为 false
func (m *Manager) deployArtifact(ctx context.Context, slug string, src *artifact.Source) (*DeployOutcome, error) {
	outcome := &DeployOutcome{Attempted: true, Variant: src.Variant, Digest: src.Digest}

	stepCtx, cancel := m.stepContext(ctx)
	defer cancel()

	meta, err := m.deployer.Deploy(stepCtx, slug, src)
	if err != nil {
		outcome.Error = err.Error()
		m.logger.Warn("函数部署失败", zap.String("slug", slug), zap.String("variant", src.Variant), zap.Error(err))
		return outcome, err
	}
	outcome.Live = true
	outcome.Version = meta.Version
	return outcome, nil
}
