package aiplatform

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError AI 平台返回的错误
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ai platform error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ai platform error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound 资源不存在, 删除时视为成功
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRetryable 429 与 5xx 可重试
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}
