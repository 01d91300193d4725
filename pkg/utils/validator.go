package utils

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"subleet-admin/pkg/constants"
)

// FormatValidationError 格式化验证错误信息
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	// 处理validator的验证错误
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return strings.Join(messages, "; ")
	}

	// 处理JSON解析错误
	if jsonErr, ok := err.(*json.UnmarshalTypeError); ok {
		return fmt.Sprintf("field '%s' should be %s", jsonErr.Field, jsonErr.Type.String())
	}

	if _, ok := err.(*json.SyntaxError); ok {
		return "invalid JSON format"
	}

	return err.Error()
}

// formatFieldError 格式化单个字段的验证错误
func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters", field, e.Param())
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "origin":
		return fmt.Sprintf("field '%s' must be an absolute http(s) URL or '*'", field)
	case "gt":
		return fmt.Sprintf("field '%s' must be greater than %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' validation failed on '%s' tag", field, e.Tag())
	}
}

// IsValidOrigin 来源必须是带 host 的 http(s) 绝对地址, 或通配符 "*"
func IsValidOrigin(origin string) bool {
	if origin == constants.OriginWildcard {
		return true
	}
	if origin == "" || strings.ContainsAny(origin, " \t\r\n'\"`") {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Path != "" && u.Path != "/" || u.RawQuery != "" || u.Fragment != "" {
		return false
	}
	return u.Host != "" && u.User == nil
}

// NormalizeOrigin 去掉末尾的 "/", CORS 比较的是不带路径的来源
func NormalizeOrigin(origin string) string {
	if origin == constants.OriginWildcard {
		return origin
	}
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

// RegisterValidations 注册自定义校验规则
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("origin", func(fl validator.FieldLevel) bool {
		return IsValidOrigin(NormalizeOrigin(fl.Field().String()))
	})
}
