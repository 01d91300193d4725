package responses

import "fmt"

// 错误码
const (
	CodeSuccess          = 2000000
	CodePartialSuccess   = 2060000 // 部分成功
	CodeBadRequest       = 4000000
	CodeUnauthorized     = 4010000
	CodeForbidden        = 4030000
	CodeAlreadyDisplayed = 4030100 // 密钥已展示过
	CodeNotFound         = 4040000
	CodeConflict         = 4009000
	CodeQuotaExceeded    = 4029000
	CodeInternalError    = 5000000
	CodeDatabaseError    = 5001000
	CodeAuthError        = 5002000
	CodeValidationError  = 5003000
	CodeConfigError      = 5004000
	CodeIntegrityError   = 5005000
	CodeUpstreamError    = 5020000
	CodeConsistencyError = 5021000
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode 判断错误链上是否存在指定业务码的 AppError
func IsCode(err error, code int) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrConflict        = New(CodeConflict, "资源冲突")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrAuthError       = New(CodeAuthError, "认证失败")
	ErrValidationError = New(CodeValidationError, "数据验证失败")

	ErrInvalidParams  = New(CodeBadRequest, "请求参数错误")
	ErrInvalidToken   = New(CodeUnauthorized, "无效的Token")
	ErrTokenExpired   = New(CodeUnauthorized, "Token已过期")
	ErrInvalidAPIKey  = New(CodeUnauthorized, "无效的API Key")
	ErrRecordNotFound = New(CodeNotFound, "记录不存在")
	ErrRecordExists   = New(CodeConflict, "记录已存在")
)
