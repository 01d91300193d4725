package model

const AIResourceTableName = "ai_resources"

// AIResource 项目在 AI 平台上的资源 (向量库 + 助手)
type AIResource struct {
	BaseModel
	ProjectID     int64  `gorm:"column:project_id;not null;uniqueIndex" json:"project_id"`
	VectorStoreID string `gorm:"column:vector_store_id;size:128;not null" json:"vector_store_id"`
	AssistantID   string `gorm:"column:assistant_id;size:128;not null" json:"assistant_id"`
	Model         string `gorm:"column:model;size:64;not null" json:"model"`
}

func (AIResource) TableName() string {
	return AIResourceTableName
}
