package constants

import "fmt"

// RunState 工作流运行状态
const (
	RunStateRequested          = "requested"
	RunStateAIResourcesCreated = "ai_resources_created"
	RunStateCredentialPersist  = "credential_persisted"
	RunStateArtifactDeployed   = "artifact_deployed" // 终态: 成功

	RunStateAIResourceFailed = "ai_resource_failed" // 终态
	RunStatePersistFailed    = "persist_failed"     // 终态
	RunStateDeployFailed     = "deploy_failed"      // 可由巡检任务补偿
	RunStateAbandoned        = "abandoned"          // 项目已删除或超过重试次数, 不再补偿
	RunStateRolledBack       = "rolled_back"        // 部署失败, 数据库变更已回滚
	RunStateTornDown         = "torn_down"          // 项目已删除
)

// RunKind 工作流类型
const (
	RunKindProvision    = "provision"
	RunKindRotate       = "rotate"
	RunKindActivate     = "activate"
	RunKindUpdateOrigin = "update_origin"
	RunKindTeardown     = "teardown"
	RunKindReconcile    = "reconcile"
)

var terminalStates = map[string]bool{
	RunStateArtifactDeployed: true,
	RunStateAIResourceFailed: true,
	RunStatePersistFailed:    true,
	RunStateAbandoned:        true,
	RunStateRolledBack:       true,
	RunStateTornDown:         true,
}

// IsTerminalRunState 终态不会再被巡检任务处理
func IsTerminalRunState(state string) bool {
	return terminalStates[state]
}

// RunStateLabel 状态展示名
func RunStateLabel(state string) string {
	switch state {
	case RunStateRequested:
		return "已受理"
	case RunStateAIResourcesCreated:
		return "AI资源已创建"
	case RunStateCredentialPersist:
		return "密钥已保存"
	case RunStateArtifactDeployed:
		return "已部署"
	case RunStateAIResourceFailed:
		return "AI资源创建失败"
	case RunStatePersistFailed:
		return "保存失败"
	case RunStateDeployFailed:
		return "部署失败"
	case RunStateAbandoned:
		return "已放弃"
	case RunStateRolledBack:
		return "已回滚"
	case RunStateTornDown:
		return "已删除"
	}
	return fmt.Sprintf("Unknown(%s)", state)
}

// OriginWildcard 允许任意来源
const OriginWildcard = "*"

// 默认值
const (
	DefaultKeyPrefix        = "sleet_"
	DefaultKeyBytes         = 24
	MinEncryptionSecretLen  = 32
	DefaultAssistantModel   = "gpt-4.1-nano"
	DefaultMaxProjectsOwner = 1
)

// JWT 相关
const (
	JWTContextKey  = "jwt_user"
	JWTTypeAccess  = "access"
	JWTTypeRefresh = "refresh"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
	HeaderAPIKey        = "X-API-Key"
	HeaderProjectID     = "X-Project-ID"
	HeaderRequestID     = "X-Request-ID"
)

// 请求上下文
const (
	ContextUserID    = "uid"
	ContextRole      = "role"
	ContextProject   = "gateway_project"
	ContextRequestID = "request_id"
)

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02 15:04:05"
