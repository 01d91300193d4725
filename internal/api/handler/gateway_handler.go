package handler

import (
	"github.com/gin-gonic/gin"

	"subleet-admin/internal/dto"
	"subleet-admin/internal/model"
	"subleet-admin/pkg/constants"
	"subleet-admin/pkg/responses"
)

type GatewayHandler struct{}

func NewGatewayHandler() *GatewayHandler {
	return &GatewayHandler{}
}

// Ping 网关探活
// @Summary 使用项目密钥探活, 用于确认密钥有效且项目已启用
// @Tags Gateway
// @Produce json
// @Param X-Project-ID header int true "项目ID"
// @Param X-API-Key header string true "项目密钥"
// @Success 200 {object} responses.Response{data=dto.GatewayPingResponse}
// @Router /api/v1/gateway/ping [get]
func (h *GatewayHandler) Ping(c *gin.Context) {
	project := c.MustGet(constants.ContextProject).(*model.Project)
	responses.Success(c, &dto.GatewayPingResponse{
		ProjectID: project.ID,
		Name:      project.Name,
		Status:    "ok",
	})
}
