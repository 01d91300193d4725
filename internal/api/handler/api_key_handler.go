package handler

import (
	"github.com/gin-gonic/gin"

	"subleet-admin/internal/service"
	"subleet-admin/pkg/responses"
)

type APIKeyHandler struct {
	apiKeyService service.APIKeyService
}

func NewAPIKeyHandler(apiKeyService service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
	}
}

// Reveal 查看密钥
// @Summary 查看明文密钥（仅限未展示过的密钥, 查看后需调用 mark-displayed 确认）
// @Tags APIKey
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response{data=dto.APIKeyResponse}
// @Router /api/v1/projects/{id}/api-key [get]
func (h *APIKeyHandler) Reveal(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	resp, err := h.apiKeyService.Reveal(c.Request.Context(), caller(c), id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	// 明文密钥禁止被中间层缓存
	c.Header("Cache-Control", "no-store")
	responses.Success(c, resp)
}

// Status 密钥状态
// @Summary 查询密钥状态（不返回明文）
// @Tags APIKey
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response{data=dto.APIKeyStatusResponse}
// @Router /api/v1/projects/{id}/api-key/status [get]
func (h *APIKeyHandler) Status(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	status, err := h.apiKeyService.Status(c.Request.Context(), caller(c), id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, status)
}

// MarkDisplayed 确认密钥已保存
// @Summary 标记密钥已展示, 之后无法再次查看
// @Tags APIKey
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/projects/{id}/api-key/mark-displayed [post]
func (h *APIKeyHandler) MarkDisplayed(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.apiKeyService.MarkDisplayed(c.Request.Context(), caller(c), id); err != nil {
		responses.Error(c, err)
		return
	}

	responses.SuccessWithMessage(c, "已确认", nil)
}

// Rotate 轮换密钥
// @Summary 轮换密钥, 旧密钥立即失效; 新密钥只展示这一次
// @Tags APIKey
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} responses.Response{data=dto.RotateResponse}
// @Router /api/v1/projects/{id}/api-key/rotate [post]
func (h *APIKeyHandler) Rotate(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	resp, err := h.apiKeyService.Rotate(c.Request.Context(), caller(c), id)
	c.Header("Cache-Control", "no-store")
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
