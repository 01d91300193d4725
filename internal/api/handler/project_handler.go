package handler

import (
	"github.com/gin-gonic/gin"

	"subleet-admin/internal/dto"
	"subleet-admin/internal/service"
	"subleet-admin/pkg/responses"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create 开通项目
// @Summary 开通项目（创建AI资源、生成密钥、部署函数）
// @Description 返回的 api_key 只展示这一次; 部署失败时 code 为部分成功, data 中仍带密钥
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProjectRequest true "开通项目请求"
// @Success 200 {object} responses.Response{data=dto.ProvisionResponse}
// @Router /api/v1/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.projectService.Create(c.Request.Context(), caller(c), &req)
	if err != nil {
		if resp != nil {
			responses.Partial(c, err, resp)
			return
		}
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// GetByID 获取项目详情
// @Summary 获取项目详情
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response{data=dto.ProjectDetailResponse}
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), caller(c), id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, project)
}

// List 获取项目列表
// @Summary 获取项目列表（管理员返回全部, 其他用户只返回自己的项目）
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} responses.PageResponse{data=[]dto.ProjectResponse}
// @Router /api/v1/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var query dto.ProjectListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	projects, total, err := h.projectService.List(c.Request.Context(), caller(c), &query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.PageSuccess(c, projects, total, query.GetPage(), query.GetPageSize())
}

// UpdateOrigin 修改允许的来源
// @Summary 修改允许的来源并重新部署, 部署失败时回滚
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Param request body dto.UpdateOriginRequest true "来源"
// @Success 200 {object} responses.Response{data=dto.DeployOutcomeResponse}
// @Router /api/v1/projects/{id}/origin [put]
func (h *ProjectHandler) UpdateOrigin(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateOriginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	outcome, err := h.projectService.UpdateOrigin(c.Request.Context(), caller(c), id, &req)
	writeDeployOutcome(c, outcome, err)
}

// SetActive 启用或停用项目
// @Summary 启用或停用项目, 停用后线上函数对所有请求返回 403
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Param request body dto.SetActiveRequest true "是否启用"
// @Success 200 {object} responses.Response{data=dto.DeployOutcomeResponse}
// @Router /api/v1/projects/{id}/active [put]
func (h *ProjectHandler) SetActive(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	outcome, err := h.projectService.SetActive(c.Request.Context(), caller(c), id, &req)
	writeDeployOutcome(c, outcome, err)
}

// UpdateAssistant 修改助手
// @Summary 修改助手指令或模型（模型仅管理员可改）
// @Tags Project
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Param request body dto.UpdateAssistantRequest true "助手配置"
// @Success 200 {object} responses.Response{data=dto.AssistantResponse}
// @Router /api/v1/projects/{id}/assistant [put]
func (h *ProjectHandler) UpdateAssistant(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.projectService.UpdateAssistant(c.Request.Context(), caller(c), id, &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Delete 删除项目
// @Summary 删除项目, 远程资源尽力清理, 结果中列出未清理成功的部分
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response{data=dto.TeardownResponse}
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	report, err := h.projectService.Delete(c.Request.Context(), caller(c), id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.SuccessWithMessage(c, "删除成功", report)
}

// ListRuns 工作流运行记录
// @Summary 获取项目最近的工作流运行记录
// @Tags Project
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response{data=[]dto.RunResponse}
// @Router /api/v1/projects/{id}/runs [get]
func (h *ProjectHandler) ListRuns(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	runs, err := h.projectService.ListRuns(c.Request.Context(), caller(c), id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, runs)
}

// Reconcile 手动触发补偿巡检
// @Summary 手动触发部署补偿（仅管理员）
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} responses.Response{data=lifecycle.ReconcileReport}
// @Router /api/v1/admin/reconcile [post]
func (h *ProjectHandler) Reconcile(c *gin.Context) {
	report, err := h.projectService.Reconcile(c.Request.Context(), caller(c))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, report)
}

func writeDeployOutcome(c *gin.Context, outcome *dto.DeployOutcomeResponse, err error) {
	if err != nil {
		if outcome != nil {
			responses.Partial(c, err, outcome)
			return
		}
		responses.Error(c, err)
		return
	}
	responses.Success(c, outcome)
}
