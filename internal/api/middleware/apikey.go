package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"subleet-admin/internal/service"
	"subleet-admin/pkg/constants"
	"subleet-admin/pkg/responses"
)

// APIKeyMiddleware 网关认证: X-Project-ID + X-API-Key
func APIKeyMiddleware(keys service.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseInt(c.GetHeader(constants.HeaderProjectID), 10, 64)
		if err != nil || projectID <= 0 {
			responses.ErrorWithCode(c, responses.CodeUnauthorized, "缺少或错误的 "+constants.HeaderProjectID)
			c.Abort()
			return
		}

		project, err := keys.Verify(c.Request.Context(), projectID, c.GetHeader(constants.HeaderAPIKey))
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextProject, project)
		c.Next()
	}
}
