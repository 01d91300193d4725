package model

const ProjectTableName = "projects"

// Project 项目
//
// EdgeFunctionSlug 创建时生成且不再变化, 是项目与线上函数之间唯一的关联
type Project struct {
	BaseModel
	Name             string `gorm:"size:100;not null" json:"name"`
	OwnerID          int64  `gorm:"column:owner_id;not null;index" json:"owner_id"`
	OriginURL        string `gorm:"column:origin_url;size:512;not null" json:"origin_url"` // "*" 表示任意来源
	Working          bool   `gorm:"column:working;not null;default:true" json:"working"`
	EdgeFunctionSlug string `gorm:"column:edge_function_slug;size:191;not null;uniqueIndex" json:"edge_function_slug"`
}

func (Project) TableName() string {
	return ProjectTableName
}

// ProjectBundle 部署一个项目所需的全部输入
type ProjectBundle struct {
	Project  *Project
	Key      *APIKey
	Resource *AIResource
}
