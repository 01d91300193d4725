package dto

import "encoding/json"

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	OriginURL string `json:"origin_url" binding:"required,origin"` // "*" 表示任意来源
	OwnerID   int64  `json:"owner_id" binding:"omitempty,min=1"`   // 仅管理员可代他人创建
}

// UpdateOriginRequest 修改来源
type UpdateOriginRequest struct {
	OriginURL string `json:"origin_url" binding:"required,origin"`
}

// SetActiveRequest 启用或停用
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UpdateAssistantRequest 修改助手, 至少一项
type UpdateAssistantRequest struct {
	Instructions *string `json:"instructions" binding:"omitempty,max=32768"`
	Model        *string `json:"model" binding:"omitempty,max=64"`
}

// ProjectListQuery 项目列表查询参数
type ProjectListQuery struct {
	PageQuery
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	OwnerID          int64  `json:"owner_id"`
	OriginURL        string `json:"origin_url"`
	Working          bool   `json:"working"`
	EdgeFunctionSlug string `json:"edge_function_slug"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ProjectDetailResponse 项目详情
type ProjectDetailResponse struct {
	ProjectResponse
	VectorStoreID string                `json:"vector_store_id,omitempty"`
	AssistantID   string                `json:"assistant_id,omitempty"`
	Model         string                `json:"model,omitempty"`
	APIKey        *APIKeyStatusResponse `json:"api_key"`
}

// DeployOutcomeResponse 部署结果
type DeployOutcomeResponse struct {
	Attempted bool   `json:"attempted"`
	Live      bool   `json:"live"`
	Variant   string `json:"variant,omitempty"`
	Version   int    `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ProvisionResponse 开通结果, 失败时同样返回已完成的部分
type ProvisionResponse struct {
	RunID         string                `json:"run_id"`
	State         string                `json:"state"`
	ProjectID     int64                 `json:"project_id,omitempty"`
	Slug          string                `json:"edge_function_slug"`
	APIKey        string                `json:"api_key,omitempty"` // 仅展示这一次
	VectorStoreID string                `json:"vector_store_id,omitempty"`
	AssistantID   string                `json:"assistant_id,omitempty"`
	Persisted     bool                  `json:"persisted"`
	Deploy        DeployOutcomeResponse `json:"deploy"`
	Warning       string                `json:"warning,omitempty"`
}

// TeardownResponse 删除结果
type TeardownResponse struct {
	RunID              string   `json:"run_id"`
	ProjectID          int64    `json:"project_id"`
	ArtifactDeleted    bool     `json:"artifact_deleted"`
	AssistantDeleted   bool     `json:"assistant_deleted"`
	VectorStoreDeleted bool     `json:"vector_store_deleted"`
	Errors             []string `json:"errors,omitempty"`
}

// AssistantResponse 助手信息
type AssistantResponse struct {
	ProjectID     int64  `json:"project_id"`
	AssistantID   string `json:"assistant_id"`
	VectorStoreID string `json:"vector_store_id"`
	Model         string `json:"model"`
}

// RunResponse 工作流运行记录
type RunResponse struct {
	RunID        string          `json:"run_id"`
	Kind         string          `json:"kind"`
	State        string          `json:"state"`
	StateLabel   string          `json:"state_label"`
	Attempts     int             `json:"attempts"`
	Detail       json.RawMessage `json:"detail,omitempty" swaggertype:"object"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}
