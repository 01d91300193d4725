package model

import "time"

const APIKeyTableName = "api_keys"

// APIKey 项目密钥, 每个项目仅一条
//
// - encrypted_key: hex(iv):hex(ciphertext), AES-256-CBC
// - key_hash: bcrypt, 网关校验使用, 不可逆
// - is_displayed: 只会从 false 变为 true, 轮换时整体替换
// - version: 乐观锁, 每次替换 +1
// - created_at: 当前这把密钥的生成时间, 轮换时刷新
type APIKey struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID    int64      `gorm:"column:project_id;not null;uniqueIndex" json:"project_id"`
	EncryptedKey string     `gorm:"column:encrypted_key;type:text;not null" json:"-"`
	KeyHash      string     `gorm:"column:key_hash;size:100;not null" json:"-"`
	IsDisplayed  bool       `gorm:"column:is_displayed;not null;default:false" json:"is_displayed"`
	Version      int64      `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	RotatedAt    *time.Time `gorm:"column:rotated_at" json:"rotated_at,omitempty"`
}

func (APIKey) TableName() string {
	return APIKeyTableName
}
