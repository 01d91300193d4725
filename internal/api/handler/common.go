package handler

import (
	"github.com/gin-gonic/gin"

	"subleet-admin/internal/dto"
	"subleet-admin/internal/service"
	"subleet-admin/pkg/constants"
	"subleet-admin/pkg/responses"
	"subleet-admin/pkg/utils"
)

// caller 取出 JWT 中间件写入的身份
func caller(c *gin.Context) service.Caller {
	return service.Caller{
		UserID: c.GetInt64(constants.ContextUserID),
		Role:   c.GetString(constants.ContextRole),
	}
}

func bindID(c *gin.Context) (int64, bool) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		badRequest(c, err)
		return 0, false
	}
	return param.ID, true
}

func badRequest(c *gin.Context, err error) {
	responses.ErrorWithDetail(c, responses.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
}
