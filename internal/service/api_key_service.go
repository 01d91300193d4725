package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"subleet-admin/internal/core/lifecycle"
	"subleet-admin/internal/dto"
	"subleet-admin/internal/model"
	"subleet-admin/internal/pkg/auth"
	"subleet-admin/internal/pkg/cache"
	"subleet-admin/internal/repository"
	"subleet-admin/pkg/constants"
	pkgErrors "subleet-admin/pkg/responses"
)

const keyWarning = "请立即保存该密钥, 关闭后将无法再次查看"

type APIKeyService interface {
	Reveal(ctx context.Context, caller Caller, projectID int64) (*dto.APIKeyResponse, error)
	Status(ctx context.Context, caller Caller, projectID int64) (*dto.APIKeyStatusResponse, error)
	MarkDisplayed(ctx context.Context, caller Caller, projectID int64) error
	Rotate(ctx context.Context, caller Caller, projectID int64) (*dto.RotateResponse, error)
	Verify(ctx context.Context, projectID int64, plaintext string) (*model.Project, error)
}

type apiKeyService struct {
	lc       Lifecycle
	projects repository.ProjectRepository
	cache    cache.Cache
	logger   *zap.Logger
}

func NewAPIKeyService(lc Lifecycle, projects repository.ProjectRepository, c cache.Cache, logger *zap.Logger) APIKeyService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &apiKeyService{lc: lc, projects: projects, cache: c, logger: logger}
}

func (s *apiKeyService) Reveal(ctx context.Context, caller Caller, projectID int64) (*dto.APIKeyResponse, error) {
	if _, err := authorizeProject(ctx, s.projects, caller, projectID, auth.PermKeyReveal); err != nil {
		return nil, err
	}
	plaintext, err := s.lc.Reveal(ctx, projectID)
	if err != nil {
		return nil, toAppError(err)
	}
	return &dto.APIKeyResponse{
		ProjectID: projectID,
		APIKey:    plaintext,
		Warning:   keyWarning,
	}, nil
}

func (s *apiKeyService) Status(ctx context.Context, caller Caller, projectID int64) (*dto.APIKeyStatusResponse, error) {
	if _, err := authorizeProject(ctx, s.projects, caller, projectID, auth.PermKeyView); err != nil {
		return nil, err
	}
	status, err := s.lc.KeyStatus(ctx, projectID)
	if err != nil {
		return nil, toAppError(err)
	}
	return toKeyStatusResponse(status), nil
}

// MarkDisplayed 幂等, 已标记时同样返回成功
func (s *apiKeyService) MarkDisplayed(ctx context.Context, caller Caller, projectID int64) error {
	project, err := authorizeProject(ctx, s.projects, caller, projectID, auth.PermKeyReveal)
	if err != nil {
		return err
	}
	if err := s.lc.Acknowledge(ctx, projectID); err != nil {
		return toAppError(err)
	}
	invalidateProject(ctx, s.cache, s.logger, projectID, project.OwnerID)
	return nil
}

func (s *apiKeyService) Rotate(ctx context.Context, caller Caller, projectID int64) (*dto.RotateResponse, error) {
	project, err := authorizeProject(ctx, s.projects, caller, projectID, auth.PermKeyRotate)
	if err != nil {
		return nil, err
	}

	res, err := s.lc.Rotate(ctx, projectID)
	if res != nil && res.Persisted {
		invalidateProject(ctx, s.cache, s.logger, projectID, project.OwnerID)
	}
	if err != nil {
		// 生成了新密钥就必须交给调用方, 即使线上与库中暂不一致
		if res != nil && res.PlaintextKey != "" && errors.Is(err, lifecycle.ErrConsistency) {
			resp := toRotateResponse(res)
			resp.Warning = "密钥已更新, 但线上函数尚未同步, 稍后会自动重试"
			return resp, toAppError(err)
		}
		return nil, toAppError(err)
	}

	resp := toRotateResponse(res)
	resp.Warning = keyWarning
	return resp, nil
}

// Verify 网关校验, 失败统一返回无效密钥, 不区分项目是否存在
func (s *apiKeyService) Verify(ctx context.Context, projectID int64, plaintext string) (*model.Project, error) {
	if projectID <= 0 || plaintext == "" {
		return nil, pkgErrors.ErrInvalidAPIKey
	}
	project, err := s.lc.VerifyKey(ctx, projectID, plaintext)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return nil, pkgErrors.ErrInvalidAPIKey
		}
		return nil, toAppError(err)
	}
	return project, nil
}

func toKeyStatusResponse(st *lifecycle.KeyStatus) *dto.APIKeyStatusResponse {
	resp := &dto.APIKeyStatusResponse{
		Exists:      st.Exists,
		IsDisplayed: st.IsDisplayed,
		CanBeViewed: st.CanBeViewed,
		Version:     st.Version,
	}
	if st.CreatedAt != nil {
		s := st.CreatedAt.Format(constants.TimeLayout)
		resp.CreatedAt = &s
	}
	if st.RotatedAt != nil {
		s := st.RotatedAt.Format(constants.TimeLayout)
		resp.RotatedAt = &s
	}
	return resp
}

func toRotateResponse(res *lifecycle.RotationResult) *dto.RotateResponse {
	return &dto.RotateResponse{
		RunID:     res.RunID,
		State:     res.State,
		ProjectID: res.ProjectID,
		APIKey:    res.PlaintextKey,
		Version:   res.Version,
		Persisted: res.Persisted,
		Deploy:    *toDeployResponse(&res.Deploy),
	}
}
