package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Platform 平台类型
type Platform string

const (
	PlatformUnknown Platform = "unknown" // 未知
	PlatformAndroid Platform = "android" // Android
	PlatformIOS     Platform = "ios"     // iOS
	PlatformWeb     Platform = "web"     // Web 网页
	PlatformDesktop Platform = "desktop" // 桌面应用
)

// Claims JWT 声明
// UserID 为账号系统签发的不透明字符串标识
type Claims struct {
	UserID   string   `json:"user_id"`
	DeviceID string   `json:"device_id"`
	Platform Platform `json:"platform"`
	jwt.RegisteredClaims
}

// Service JWT 服务
// 只负责校验外部账号系统签发的 token，签发逻辑不在本服务
type Service struct {
	secretKey []byte
	expire    time.Duration
}

// NewService 创建 JWT 服务
func NewService(secretKey string, expire time.Duration) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		expire:    expire,
	}
}

// ValidateToken 验证 Token 并返回声明
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// GenerateToken 签发 Token（测试与开发工具使用）
func (s *Service) GenerateToken(userID, deviceID string, platform Platform) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		DeviceID: deviceID,
		Platform: platform,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "im-hub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}
