package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// GenerateAPIKey 生成项目密钥: 前缀 + hex(n 字节随机数)
// 默认 sleet_ + 24 字节, 共 48 个十六进制字符
func GenerateAPIKey(prefix string, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("key bytes must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}

// ValidAPIKeyFormat 检查密钥格式, 解密结果不符合时视为完整性错误
func ValidAPIKeyFormat(key, prefix string, n int) bool {
	re := regexp.MustCompile(fmt.Sprintf(`^%s[0-9a-f]{%d}$`, regexp.QuoteMeta(prefix), n*2))
	return re.MatchString(key)
}
