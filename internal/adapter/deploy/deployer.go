package deploy

import (
	"context"

	"subleet-admin/internal/core/artifact"
)

// Deployer 函数部署平台适配器, 线上代码的唯一写入方
type Deployer interface {

	// Deploy 以 slug 推送源码, 同一 slug 重复部署会整体替换线上版本
	Deploy(ctx context.Context, slug string, src *artifact.Source) (*DeploymentMeta, error)

	// Delete 删除 slug 对应的函数, 不存在时返回 nil
	Delete(ctx context.Context, slug string) error
}

// DeploymentMeta 部署平台返回的元数据
type DeploymentMeta struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}
