package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"subleet-admin/internal/pkg/config"
	"subleet-admin/pkg/constants"
	pkgErrors "subleet-admin/pkg/responses"
)

// UserClaims 用户Claims, 由外部身份服务签发, 本服务只做校验
type UserClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"` // admin or owner
	Type     string `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

func generate(userID int64, username, email, role, tokenType string, expire int) (string, error) {
	cfg := config.GlobalConfig.Auth.JWT

	claims := UserClaims{
		UserID:   userID,
		Username: username,
		Email:    email,
		Role:     role,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expire) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// GenerateAccessToken 生成访问Token
func GenerateAccessToken(userID int64, username, email, role string) (string, error) {
	return generate(userID, username, email, role, constants.JWTTypeAccess, config.GlobalConfig.Auth.JWT.AccessTokenExpire)
}

// GenerateRefreshToken 生成刷新Token
func GenerateRefreshToken(userID int64, username, email, role string) (string, error) {
	return generate(userID, username, email, role, constants.JWTTypeRefresh, config.GlobalConfig.Auth.JWT.RefreshTokenExpire)
}

// ParseToken 解析Token
func ParseToken(tokenString string) (*UserClaims, error) {
	cfg := config.GlobalConfig.Auth.JWT

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})

	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeUnauthorized, "解析Token失败", err)
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, pkgErrors.ErrInvalidToken
}

// ValidateToken 验证Token有效性
func ValidateToken(tokenString string) (*UserClaims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, pkgErrors.ErrTokenExpired
	}
	if claims.UserID <= 0 {
		return nil, pkgErrors.ErrInvalidToken
	}

	return claims, nil
}
