package presence

import (
	"context"
	"log/slog"
	"time"

	"sudooom.im.hub/internal/proto"
	"sudooom.im.hub/internal/workerpool"
)

// PresenceStore 在线状态持久化，由 repository.UserRepository 实现
type PresenceStore interface {
	SetPresence(ctx context.Context, userID string, isOnline bool, lastSeen time.Time) error
}

// CoMemberLister 共群用户查询，由 repository.GroupRepository 实现
type CoMemberLister interface {
	ListCoMemberIDs(ctx context.Context, userID string) ([]string, error)
}

// Mirror 在线状态 Redis 镜像，由 redis.Client 实现
type Mirror interface {
	RegisterPresence(ctx context.Context, userID, deviceID, platform string) error
	RefreshPresence(ctx context.Context, userID, deviceID string) error
	RemovePresence(ctx context.Context, userID, deviceID string) error
}

// Registry 连接注册表只读视图
type Registry interface {
	IsOnline(userID string) bool
}

// EventPusher 事件推送，由 connection.Pusher 实现
type EventPusher interface {
	Push(userID string, event string, payload interface{}) int
}

// Broadcaster 异步任务提交，由 workerpool.Pool 实现
type Broadcaster interface {
	TrySubmit(task workerpool.Task) bool
}

// Tracker 在线状态跟踪
// 负责翻转持久化标记、维护 Redis 镜像、向相关用户广播状态变化
type Tracker struct {
	store    PresenceStore
	groups   CoMemberLister
	mirror   Mirror
	registry Registry
	pusher   EventPusher
	pool     Broadcaster
	logger   *slog.Logger
}

// NewTracker 创建在线状态跟踪器
func NewTracker(store PresenceStore, groups CoMemberLister, mirror Mirror, registry Registry, pusher EventPusher, pool Broadcaster, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:    store,
		groups:   groups,
		mirror:   mirror,
		registry: registry,
		pusher:   pusher,
		pool:     pool,
		logger:   logger,
	}
}

// MarkOnline 设备上线
// 持久化失败会返回错误，广播是尽力而为
func (t *Tracker) MarkOnline(ctx context.Context, userID, deviceID, platform string) error {
	if err := t.store.SetPresence(ctx, userID, true, time.Now()); err != nil {
		return err
	}

	if err := t.mirror.RegisterPresence(ctx, userID, deviceID, platform); err != nil {
		t.logger.Warn("Failed to mirror presence to redis",
			"user_id", userID,
			"device_id", deviceID,
			"error", err)
	}

	t.broadcast(userID, true)
	return nil
}

// MarkOffline 设备下线
// 用户还有其他在线连接时只清理该设备的镜像，不翻转状态
func (t *Tracker) MarkOffline(ctx context.Context, userID, deviceID string) error {
	if err := t.mirror.RemovePresence(ctx, userID, deviceID); err != nil {
		t.logger.Warn("Failed to remove presence mirror",
			"user_id", userID,
			"device_id", deviceID,
			"error", err)
	}

	if t.registry.IsOnline(userID) {
		return nil
	}

	if err := t.store.SetPresence(ctx, userID, false, time.Now()); err != nil {
		return err
	}

	t.broadcast(userID, false)
	return nil
}

// Touch 心跳续期 Redis 镜像 TTL
func (t *Tracker) Touch(ctx context.Context, userID, deviceID string) {
	if err := t.mirror.RefreshPresence(ctx, userID, deviceID); err != nil {
		t.logger.Warn("Failed to refresh presence TTL",
			"user_id", userID,
			"device_id", deviceID,
			"error", err)
	}
}

// broadcast 向共群用户的在线连接推送 UserStatusChanged
// 只通知相关方，不做全量广播
func (t *Tracker) broadcast(userID string, isOnline bool) {
	submitted := t.pool.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		interested, err := t.groups.ListCoMemberIDs(ctx, userID)
		if err != nil {
			t.logger.Error("Failed to resolve interested users for status broadcast",
				"user_id", userID,
				"error", err)
			return
		}

		payload := proto.UserStatusChanged{UserID: userID, IsOnline: isOnline}
		for _, target := range interested {
			t.pusher.Push(target, proto.EventUserStatusChanged, payload)
		}
	})

	if !submitted {
		t.logger.Warn("Status broadcast dropped, worker pool saturated",
			"user_id", userID,
			"is_online", isOnline)
	}
}
