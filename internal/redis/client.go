package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.im.hub/internal/config"
)

const (
	// 在线状态 TTL: 2 分钟，心跳续期
	presenceTTL = 2 * time.Minute
)

// PresenceEntry 在线状态条目
type PresenceEntry struct {
	UserID    string    `json:"userId"`
	NodeID    string    `json:"nodeId"`
	DeviceID  string    `json:"deviceId"`
	Platform  string    `json:"platform"`
	LoginTime time.Time `json:"loginTime"`
}

// Client Redis 客户端
type Client struct {
	client *redis.Client
	nodeID string
	logger *slog.Logger
}

// NewClient 创建 Redis 客户端
func NewClient(cfg config.RedisConfig, nodeID string) *Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	return &Client{
		client: client,
		nodeID: nodeID,
		logger: slog.Default(),
	}
}

// RegisterPresence 注册用户在线状态
// 同一 deviceId 的新连接覆盖旧条目
func (c *Client) RegisterPresence(ctx context.Context, userID, deviceID, platform string) error {
	key := BuildPresenceKey(userID, deviceID)

	entry := PresenceEntry{
		UserID:    userID,
		NodeID:    c.nodeID,
		DeviceID:  deviceID,
		Platform:  platform,
		LoginTime: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal presence entry: %w", err)
	}

	err = c.client.Set(ctx, key, data, presenceTTL).Err()
	if err == nil {
		c.logger.Debug("Registered presence",
			"userId", userID,
			"deviceId", deviceID,
			"nodeId", c.nodeID)
	}

	return err
}

// RemovePresence 移除用户在线状态
func (c *Client) RemovePresence(ctx context.Context, userID, deviceID string) error {
	return c.client.Del(ctx, BuildPresenceKey(userID, deviceID)).Err()
}

// RefreshPresence 刷新在线状态 TTL（心跳时调用）
func (c *Client) RefreshPresence(ctx context.Context, userID, deviceID string) error {
	return c.client.Expire(ctx, BuildPresenceKey(userID, deviceID), presenceTTL).Err()
}

// GetCurrentToken 获取用户在该 platform 的当前有效 token
func (c *Client) GetCurrentToken(ctx context.Context, userID, platform string) (string, error) {
	token, err := c.client.Get(ctx, BuildUserTokenKey(userID, platform)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

// IsTokenCurrent 检查传入的 token 是否是该用户该 platform 当前有效的 token
func (c *Client) IsTokenCurrent(ctx context.Context, userID, platform, token string) (bool, error) {
	currentToken, err := c.GetCurrentToken(ctx, userID, platform)
	if err != nil {
		return false, err
	}
	return currentToken == token, nil
}

// Ping 检查 Redis 连接
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.client.Close()
}
