package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"subleet-admin/internal/pkg/jwt"
	"subleet-admin/pkg/constants"
	"subleet-admin/pkg/responses"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取Authorization header
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			responses.ErrorWithCode(c, responses.CodeUnauthorized, "缺少Authorization Header")
			c.Abort()
			return
		}

		// 检查Bearer前缀
		if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			responses.ErrorWithCode(c, responses.CodeUnauthorized, "Authorization格式错误")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		// 必须是AccessToken
		if claims.Type != constants.JWTTypeAccess {
			responses.ErrorWithCode(c, responses.CodeUnauthorized, "无效的Token类型")
			c.Abort()
			return
		}

		c.Set(constants.JWTContextKey, claims)
		c.Set(constants.ContextUserID, claims.UserID)
		c.Set(constants.ContextRole, claims.Role)

		c.Next()
	}
}
