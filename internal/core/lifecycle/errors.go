package lifecycle

import (
	"errors"
	"fmt"

	"subleet-admin/internal/pkg/config"
	"subleet-admin/internal/pkg/crypto"
)

// 错误分类, 调用方通过 errors.Is 判断
var (
	ErrConfiguration = config.ErrConfiguration
	ErrValidation    = errors.New("validation error")
	ErrQuotaExceeded = fmt.Errorf("%w: project quota exceeded", ErrValidation)
	ErrNotFound      = errors.New("not found")

	ErrUpstream    = errors.New("upstream error")
	ErrPersistence = errors.New("persistence error")
	ErrConsistency = errors.New("consistency warning") // 线上函数与数据库不一致, 非致命

	ErrConcurrentRotation = errors.New("concurrent modification of project credential")
	ErrAlreadyDisplayed   = errors.New("api key already displayed")
	ErrIntegrity          = crypto.ErrIntegrity

	ErrInvalidKey      = errors.New("invalid api key")
	ErrProjectDisabled = errors.New("project disabled")
)

// 工作流步骤
const (
	StepCreateVectorStore = "create_vector_store"
	StepCreateAssistant   = "create_assistant"
	StepUpdateAssistant   = "update_assistant"
	StepPersist           = "persist"
	StepDecrypt           = "decrypt"
	StepRender            = "render"
	StepDeploy            = "deploy"
	StepRollback          = "rollback"
)

// StepError 记录失败的步骤, Kind 为上面的分类之一
type StepError struct {
	Kind error
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v at step %s: %v", e.Kind, e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stepErr(kind error, step string, err error) *StepError {
	return &StepError{Kind: kind, Step: step, Err: err}
}

// FailedStep 返回错误链上第一个失败步骤, 没有时返回空串
func FailedStep(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
