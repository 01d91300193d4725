package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrIntegrity 密文格式错误或密钥不匹配, 调用方不得吞掉该错误
var ErrIntegrity = errors.New("envelope integrity check failed")

const envelopeSep = ":"

// deriveKey SHA-256(secret) 得到 32 字节 AES 密钥
func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// EncryptAPIKey AES-256-CBC + PKCS#7 加密, 每次调用使用新的 16 字节 IV
// 返回 hex(iv):hex(ciphertext)
func EncryptAPIKey(plaintext, secret string) (string, error) {
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	data := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)

	return hex.EncodeToString(iv) + envelopeSep + hex.EncodeToString(out), nil
}

// DecryptAPIKey 解密 EncryptAPIKey 的输出
// 分隔符缺失、hex 非法、长度不对、padding 非法都返回 ErrIntegrity
// 密文不带 MAC, 错误密钥有极小概率解出乱码, 直接调用方须再用 CheckAPIKey 对照 KeyHash
func DecryptAPIKey(envelope, secret string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(envelope, envelopeSep)
	if !ok {
		return "", fmt.Errorf("%w: missing separator", ErrIntegrity)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: iv is not hex", ErrIntegrity)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: iv length %d", ErrIntegrity, len(iv))
	}

	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not hex", ErrIntegrity)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrIntegrity, len(ct))
	}

	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", err
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	// 错误密钥偶尔能通过 padding 校验, 再用 UTF-8 兜一层
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid utf-8", ErrIntegrity)
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: bad block length", ErrIntegrity)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrIntegrity)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrIntegrity)
		}
	}
	return data[:len(data)-n], nil
}
