package redis

import "fmt"

const (
	// 用户在线状态 Key 前缀
	presenceKeyPrefix = "hub:user:presence:"

	// 用户当前 Token Key 前缀（账号系统登录时写入）
	userTokenKeyPrefix = "hub:user:token:"
)

// BuildPresenceKey 构建用户在线状态 Key
// Key: hub:user:presence:{userId}:{deviceId}
func BuildPresenceKey(userID, deviceID string) string {
	return fmt.Sprintf("%s%s:%s", presenceKeyPrefix, userID, deviceID)
}

// BuildUserTokenKey 构建用户当前 Token Key
func BuildUserTokenKey(userID, platform string) string {
	return fmt.Sprintf("%s%s:%s", userTokenKeyPrefix, userID, platform)
}
