package typing

import (
	"log/slog"

	"sudooom.im.hub/internal/proto"
	"sudooom.im.hub/internal/workerpool"
)

// ChannelView 群频道订阅只读视图，由 channel.Manager 实现
type ChannelView interface {
	Subscribers(groupID int64) []string
}

// EventPusher 事件推送，由 connection.Pusher 实现
type EventPusher interface {
	Push(userID string, event string, payload interface{}) int
}

// Broadcaster 异步任务提交，由 workerpool.Pool 实现
type Broadcaster interface {
	TrySubmit(task workerpool.Task) bool
}

// Relay 输入状态转发
// 纯瞬时信号：不落库、不保序、不去抖，接收方离线直接丢弃
type Relay struct {
	channels ChannelView
	pusher   EventPusher
	pool     Broadcaster
	logger   *slog.Logger
}

// NewRelay 创建输入状态转发器
func NewRelay(channels ChannelView, pusher EventPusher, pool Broadcaster, logger *slog.Logger) *Relay {
	return &Relay{channels: channels, pusher: pusher, pool: pool, logger: logger}
}

// RelayPrivate 向私聊对端转发输入状态
func (r *Relay) RelayPrivate(userID, userName, receiverID string, isTyping bool) {
	payload := proto.UserTyping{
		UserID:   userID,
		UserName: userName,
		IsTyping: isTyping,
	}

	submitted := r.pool.TrySubmit(func() {
		r.pusher.Push(receiverID, proto.EventUserTyping, payload)
	})
	if !submitted {
		r.logger.Debug("Typing relay dropped, worker pool saturated",
			"user_id", userID,
			"receiver_id", receiverID)
	}
}

// RelayGroup 向群频道订阅者（除发送者）转发输入状态
func (r *Relay) RelayGroup(userID, userName string, groupID int64, isTyping bool) {
	payload := proto.UserTypingInGroup{
		GroupID:  groupID,
		UserID:   userID,
		UserName: userName,
		IsTyping: isTyping,
	}

	submitted := r.pool.TrySubmit(func() {
		for _, subscriber := range r.channels.Subscribers(groupID) {
			if subscriber == userID {
				continue
			}
			r.pusher.Push(subscriber, proto.EventUserTypingInGroup, payload)
		}
	})
	if !submitted {
		r.logger.Debug("Typing relay dropped, worker pool saturated",
			"user_id", userID,
			"group_id", groupID)
	}
}
