package auth

import "strings"

// Role 内置角色
type Role string

const (
	RoleAdmin  Role = "admin"  // 平台管理员, 可管理所有项目
	RoleOwner  Role = "owner"  // 项目所有者, 只能管理自己的项目
	RoleViewer Role = "viewer" // 只读
)

// Permission 内置权限
type Permission string

const (
	PermProjectCreate   Permission = "project:create"
	PermProjectView     Permission = "project:view"
	PermProjectUpdate   Permission = "project:update"
	PermProjectActivate Permission = "project:activate"
	PermProjectDelete   Permission = "project:delete"

	PermKeyReveal Permission = "apikey:reveal"
	PermKeyRotate Permission = "apikey:rotate"
	PermKeyView   Permission = "apikey:view"

	PermAssistantUpdate Permission = "assistant:update"
	PermAssistantModel  Permission = "assistant:model" // 修改模型仅管理员
	PermRunView         Permission = "run:view"
)

// RolePermissions 每个角色拥有的权限集合
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		"*",
	},
	RoleOwner: {
		"project:*",
		"apikey:*",
		"assistant:update",
		"run:view",
	},
	RoleViewer: {
		"*:view",
	},
}

// Allow 判断一组角色是否包含所需权限，支持通配符
func Allow(roles []string, need Permission) bool {
	for _, r := range roles {
		for _, p := range RolePermissions[Role(r)] {
			if match(p, need) {
				return true
			}
		}
	}
	return false
}

// CanAccessProject 管理员不受归属限制, 其他角色只能操作自己的项目
func CanAccessProject(role string, userID, ownerID int64, need Permission) bool {
	if !Allow([]string{role}, need) {
		return false
	}
	return Role(role) == RoleAdmin || userID == ownerID
}

// match 逐段比较, "*" 可匹配单段, 作为最后一段时匹配剩余所有段
func match(have, need Permission) bool {
	if have == "*" || have == need {
		return true
	}

	hp := strings.Split(string(have), ":")
	np := strings.Split(string(need), ":")

	for i, seg := range hp {
		if i >= len(np) {
			return false
		}
		if seg == "*" {
			if i == len(hp)-1 {
				return true
			}
			continue
		}
		if seg != np[i] {
			return false
		}
	}
	return len(hp) == len(np)
}
