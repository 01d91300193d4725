package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashCost bcrypt 强度, 测试中可调低
var HashCost = bcrypt.DefaultCost

// HashAPIKey 网关校验用的不可逆摘要
// 先做 SHA-256 再 bcrypt, 避开 bcrypt 72 字节的输入上限
func HashAPIKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(prehash(key), HashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckAPIKey 校验密钥与摘要是否匹配
func CheckAPIKey(key, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(key)) == nil
}

func prehash(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(hex.EncodeToString(sum[:]))
}
