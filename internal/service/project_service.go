package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
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

const (
	cacheResourceProjects = "projects"
	maxOwnerProjects      = 1000
	runHistoryLimit       = 50
)

// Caller 当前请求的身份, 由 JWT 中间件注入
type Caller struct {
	UserID int64
	Role   string
}

func (c Caller) IsAdmin() bool {
	return auth.Role(c.Role) == auth.RoleAdmin
}

// Lifecycle 项目生命周期编排, 由 lifecycle.Manager 实现
type Lifecycle interface {
	Provision(ctx context.Context, req lifecycle.ProvisionRequest) (*lifecycle.ProvisionResult, error)
	Reveal(ctx context.Context, projectID int64) (string, error)
	Acknowledge(ctx context.Context, projectID int64) error
	KeyStatus(ctx context.Context, projectID int64) (*lifecycle.KeyStatus, error)
	VerifyKey(ctx context.Context, projectID int64, plaintext string) (*model.Project, error)
	Rotate(ctx context.Context, projectID int64) (*lifecycle.RotationResult, error)
	SetActive(ctx context.Context, projectID int64, active bool) (*lifecycle.DeployOutcome, error)
	UpdateOrigin(ctx context.Context, projectID int64, originURL string) (*lifecycle.DeployOutcome, error)
	UpdateAssistant(ctx context.Context, projectID int64, upd lifecycle.AssistantUpdate) (*model.AIResource, error)
	Delete(ctx context.Context, projectID int64) (*lifecycle.TeardownReport, error)
	Reconcile(ctx context.Context) (*lifecycle.ReconcileReport, error)
}

type ProjectService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateProjectRequest) (*dto.ProvisionResponse, error)
	GetByID(ctx context.Context, caller Caller, id int64) (*dto.ProjectDetailResponse, error)
	List(ctx context.Context, caller Caller, query *dto.ProjectListQuery) ([]*dto.ProjectResponse, int64, error)
	UpdateOrigin(ctx context.Context, caller Caller, id int64, req *dto.UpdateOriginRequest) (*dto.DeployOutcomeResponse, error)
	SetActive(ctx context.Context, caller Caller, id int64, req *dto.SetActiveRequest) (*dto.DeployOutcomeResponse, error)
	UpdateAssistant(ctx context.Context, caller Caller, id int64, req *dto.UpdateAssistantRequest) (*dto.AssistantResponse, error)
	Delete(ctx context.Context, caller Caller, id int64) (*dto.TeardownResponse, error)
	ListRuns(ctx context.Context, caller Caller, id int64) ([]*dto.RunResponse, error)
	Reconcile(ctx context.Context, caller Caller) (*lifecycle.ReconcileReport, error)
}

type projectService struct {
	lc        Lifecycle
	projects  repository.ProjectRepository
	resources repository.AIResourceRepository
	runs      repository.ProvisionRunRepository
	cache     cache.Cache
	logger    *zap.Logger
}

func NewProjectService(
	lc Lifecycle,
	projects repository.ProjectRepository,
	resources repository.AIResourceRepository,
	runs repository.ProvisionRunRepository,
	c cache.Cache,
	logger *zap.Logger,
) ProjectService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &projectService{
		lc:        lc,
		projects:  projects,
		resources: resources,
		runs:      runs,
		cache:     c,
		logger:    logger,
	}
}

func (s *projectService) Create(ctx context.Context, caller Caller, req *dto.CreateProjectRequest) (*dto.ProvisionResponse, error) {
	if !auth.Allow([]string{caller.Role}, auth.PermProjectCreate) {
		return nil, pkgErrors.ErrForbidden
	}
	ownerID := caller.UserID
	if req.OwnerID > 0 && req.OwnerID != caller.UserID {
		if !caller.IsAdmin() {
			return nil, pkgErrors.New(pkgErrors.CodeForbidden, "只有管理员可以为其他用户创建项目")
		}
		ownerID = req.OwnerID
	}

	res, err := s.lc.Provision(ctx, lifecycle.ProvisionRequest{
		OwnerID:   ownerID,
		Name:      req.Name,
		OriginURL: req.OriginURL,
	})
	if res != nil && res.Persisted {
		s.invalidate(ctx, res.ProjectID, ownerID)
	}
	if err != nil {
		if res == nil {
			return nil, toAppError(err)
		}
		resp := toProvisionResponse(res)
		if res.Persisted {
			// 已落库时明文必须返回给调用方, 否则密钥只能轮换
			resp.Warning = "项目已创建, 但函数部署失败, 稍后会自动重试"
		} else {
			// 未落库的密钥作废, 只回传已创建的 AI 资源以便人工清理
			resp.APIKey = ""
			resp.Warning = provisionLeftoverWarning(res)
		}
		return resp, toAppError(err)
	}
	return toProvisionResponse(res), nil
}

func (s *projectService) GetByID(ctx context.Context, caller Caller, id int64) (*dto.ProjectDetailResponse, error) {
	load := func() (*dto.ProjectDetailResponse, error) {
		project, err := s.authorize(ctx, caller, id, auth.PermProjectView)
		if err != nil {
			return nil, err
		}
		detail := &dto.ProjectDetailResponse{ProjectResponse: *toProjectResponse(project)}

		res, err := s.resources.FindByProject(ctx, id)
		if err != nil && !errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, err
		}
		if res != nil {
			detail.VectorStoreID = res.VectorStoreID
			detail.AssistantID = res.AssistantID
			detail.Model = res.Model
		}

		status, err := s.lc.KeyStatus(ctx, id)
		if err != nil {
			return nil, toAppError(err)
		}
		detail.APIKey = toKeyStatusResponse(status)
		return detail, nil
	}

	if caller.IsAdmin() {
		return load()
	}
	return cache.Remember(ctx, s.cache, s.logger, projectCacheResource(id), ownerKey(caller.UserID), load)
}

func (s *projectService) List(ctx context.Context, caller Caller, query *dto.ProjectListQuery) ([]*dto.ProjectResponse, int64, error) {
	if !auth.Allow([]string{caller.Role}, auth.PermProjectView) {
		return nil, 0, pkgErrors.ErrForbidden
	}
	page, size := query.GetPage(), query.GetPageSize()

	// 管理员查看全部, 不走缓存
	if caller.IsAdmin() {
		projects, total, err := s.projects.ListByOwner(ctx, 0, page, size)
		if err != nil {
			return nil, 0, err
		}
		return lo.Map(projects, func(p *model.Project, _ int) *dto.ProjectResponse {
			return toProjectResponse(p)
		}), total, nil
	}

	// 普通用户项目数受配额限制, 整体缓存后在内存中分页
	all, err := cache.Remember(ctx, s.cache, s.logger, cacheResourceProjects, ownerKey(caller.UserID), func() ([]*dto.ProjectResponse, error) {
		projects, _, err := s.projects.ListByOwner(ctx, caller.UserID, 1, maxOwnerProjects)
		if err != nil {
			return nil, err
		}
		return lo.Map(projects, func(p *model.Project, _ int) *dto.ProjectResponse {
			return toProjectResponse(p)
		}), nil
	})
	if err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * size
	return lo.Slice(all, offset, offset+size), int64(len(all)), nil
}

func (s *projectService) UpdateOrigin(ctx context.Context, caller Caller, id int64, req *dto.UpdateOriginRequest) (*dto.DeployOutcomeResponse, error) {
	project, err := s.authorize(ctx, caller, id, auth.PermProjectUpdate)
	if err != nil {
		return nil, err
	}
	outcome, err := s.lc.UpdateOrigin(ctx, id, req.OriginURL)
	s.invalidate(ctx, id, project.OwnerID)
	return deployResult(outcome, err)
}

func (s *projectService) SetActive(ctx context.Context, caller Caller, id int64, req *dto.SetActiveRequest) (*dto.DeployOutcomeResponse, error) {
	project, err := s.authorize(ctx, caller, id, auth.PermProjectActivate)
	if err != nil {
		return nil, err
	}
	outcome, err := s.lc.SetActive(ctx, id, *req.Active)
	s.invalidate(ctx, id, project.OwnerID)
	return deployResult(outcome, err)
}

func (s *projectService) UpdateAssistant(ctx context.Context, caller Caller, id int64, req *dto.UpdateAssistantRequest) (*dto.AssistantResponse, error) {
	if req.Instructions == nil && req.Model == nil {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "instructions 和 model 至少填写一项")
	}
	project, err := s.authorize(ctx, caller, id, auth.PermAssistantUpdate)
	if err != nil {
		return nil, err
	}
	if req.Model != nil && !auth.Allow([]string{caller.Role}, auth.PermAssistantModel) {
		return nil, pkgErrors.New(pkgErrors.CodeForbidden, "只有管理员可以修改模型")
	}

	res, err := s.lc.UpdateAssistant(ctx, id, lifecycle.AssistantUpdate{
		Instructions: req.Instructions,
		Model:        req.Model,
	})
	if err != nil {
		return nil, toAppError(err)
	}
	s.invalidate(ctx, id, project.OwnerID)
	return &dto.AssistantResponse{
		ProjectID:     id,
		AssistantID:   res.AssistantID,
		VectorStoreID: res.VectorStoreID,
		Model:         res.Model,
	}, nil
}

func (s *projectService) Delete(ctx context.Context, caller Caller, id int64) (*dto.TeardownResponse, error) {
	project, err := s.authorize(ctx, caller, id, auth.PermProjectDelete)
	if err != nil {
		return nil, err
	}
	report, err := s.lc.Delete(ctx, id)
	s.invalidate(ctx, id, project.OwnerID)
	if err != nil {
		return nil, toAppError(err)
	}
	return &dto.TeardownResponse{
		RunID:              report.RunID,
		ProjectID:          report.ProjectID,
		ArtifactDeleted:    report.ArtifactDeleted,
		AssistantDeleted:   report.AssistantDeleted,
		VectorStoreDeleted: report.VectorStoreDeleted,
		Errors:             report.Errors,
	}, nil
}

func (s *projectService) ListRuns(ctx context.Context, caller Caller, id int64) ([]*dto.RunResponse, error) {
	if _, err := s.authorize(ctx, caller, id, auth.PermRunView); err != nil {
		return nil, err
	}
	runs, err := s.runs.ListByProject(ctx, id, runHistoryLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(runs, func(r *model.ProvisionRun, _ int) *dto.RunResponse {
		return toRunResponse(r)
	}), nil
}

func (s *projectService) Reconcile(ctx context.Context, caller Caller) (*lifecycle.ReconcileReport, error) {
	if !caller.IsAdmin() {
		return nil, pkgErrors.ErrForbidden
	}
	report, err := s.lc.Reconcile(ctx)
	if err != nil {
		return nil, toAppError(err)
	}
	return report, nil
}

// authorize 加载项目并校验归属; 无权访问时与不存在返回不同错误码
func (s *projectService) authorize(ctx context.Context, caller Caller, id int64, need auth.Permission) (*model.Project, error) {
	return authorizeProject(ctx, s.projects, caller, id, need)
}

func (s *projectService) invalidate(ctx context.Context, projectID, ownerID int64) {
	invalidateProject(ctx, s.cache, s.logger, projectID, ownerID)
}

func authorizeProject(ctx context.Context, projects repository.ProjectRepository, caller Caller, id int64, need auth.Permission) (*model.Project, error) {
	project, err := projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessProject(caller.Role, caller.UserID, project.OwnerID, need) {
		return nil, pkgErrors.New(pkgErrors.CodeForbidden, "无权操作该项目")
	}
	return project, nil
}

func invalidateProject(ctx context.Context, c cache.Cache, logger *zap.Logger, projectID, ownerID int64) {
	owner := ownerKey(ownerID)
	for _, resource := range []string{projectCacheResource(projectID), cacheResourceProjects} {
		if err := c.Invalidate(ctx, resource, owner); err != nil {
			logger.Warn("清理缓存失败", zap.String("resource", resource), zap.Int64("owner_id", ownerID), zap.Error(err))
		}
	}
}

func projectCacheResource(id int64) string {
	return fmt.Sprintf("project:%d", id)
}

func ownerKey(ownerID int64) string {
	return strconv.FormatInt(ownerID, 10)
}

// deployResult 部署失败但库已回滚时直接报错, 不一致时带上结果
func deployResult(outcome *lifecycle.DeployOutcome, err error) (*dto.DeployOutcomeResponse, error) {
	if err != nil {
		if outcome != nil && errors.Is(err, lifecycle.ErrConsistency) {
			return toDeployResponse(outcome), toAppError(err)
		}
		return nil, toAppError(err)
	}
	return toDeployResponse(outcome), nil
}

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:               p.ID,
		Name:             p.Name,
		OwnerID:          p.OwnerID,
		OriginURL:        p.OriginURL,
		Working:          p.Working,
		EdgeFunctionSlug: p.EdgeFunctionSlug,
		CreatedAt:        p.CreatedAt.Format(constants.TimeLayout),
		UpdatedAt:        p.UpdatedAt.Format(constants.TimeLayout),
	}
}

func toDeployResponse(o *lifecycle.DeployOutcome) *dto.DeployOutcomeResponse {
	if o == nil {
		return &dto.DeployOutcomeResponse{}
	}
	return &dto.DeployOutcomeResponse{
		Attempted: o.Attempted,
		Live:      o.Live,
		Variant:   o.Variant,
		Version:   o.Version,
		Error:     o.Error,
	}
}

func provisionLeftoverWarning(res *lifecycle.ProvisionResult) string {
	var created []string
	if res.Resources.VectorStoreID != "" {
		created = append(created, "向量库 "+res.Resources.VectorStoreID)
	}
	if res.Resources.AssistantID != "" {
		created = append(created, "助手 "+res.Resources.AssistantID)
	}
	if len(created) == 0 {
		return "项目未创建, 未产生任何远程资源"
	}
	return "项目未创建, 以下资源已存在需要清理: " + strings.Join(created, ", ")
}

func toProvisionResponse(res *lifecycle.ProvisionResult) *dto.ProvisionResponse {
	return &dto.ProvisionResponse{
		RunID:         res.RunID,
		State:         res.State,
		ProjectID:     res.ProjectID,
		Slug:          res.Slug,
		APIKey:        res.PlaintextKey,
		VectorStoreID: res.Resources.VectorStoreID,
		AssistantID:   res.Resources.AssistantID,
		Persisted:     res.Persisted,
		Deploy:        *toDeployResponse(&res.Deploy),
	}
}

func toRunResponse(r *model.ProvisionRun) *dto.RunResponse {
	return &dto.RunResponse{
		RunID:        r.RunID,
		Kind:         r.Kind,
		State:        r.State,
		StateLabel:   constants.RunStateLabel(r.State),
		Attempts:     r.Attempts,
		Detail:       []byte(r.Detail),
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt.Format(constants.TimeLayout),
		UpdatedAt:    r.UpdatedAt.Format(constants.TimeLayout),
	}
}
