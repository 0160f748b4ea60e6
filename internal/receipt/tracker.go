package receipt

import (
	"context"
	"log/slog"
	"time"

	"sudooom.im.hub/internal/model"
	"sudooom.im.hub/internal/proto"
)

// MessageFinder 消息查询，由 repository.MessageRepository 实现
type MessageFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Message, error)
}

// ReceiptStore 已读回执存储，由 repository.ReadReceiptRepository 实现
// Insert 幂等，返回本次调用是否真正插入了行
type ReceiptStore interface {
	Insert(ctx context.Context, messageID int64, userID string, readAt time.Time) (bool, error)
	ListForMessage(ctx context.Context, messageID int64) ([]model.ReadReceipt, error)
}

// EventPusher 事件推送，由 connection.Pusher 实现
type EventPusher interface {
	Push(userID string, event string, payload interface{}) int
}

// Tracker 已读回执跟踪
type Tracker struct {
	messages MessageFinder
	receipts ReceiptStore
	pusher   EventPusher
	logger   *slog.Logger
}

// NewTracker 创建已读回执跟踪器
func NewTracker(messages MessageFinder, receipts ReceiptStore, pusher EventPusher, logger *slog.Logger) *Tracker {
	return &Tracker{
		messages: messages,
		receipts: receipts,
		pusher:   pusher,
		logger:   logger,
	}
}

// MarkRead 记录用户已读
// 幂等：重复调用只保留首条回执，且只有首次插入会向发送者推送 MessageRead
func (t *Tracker) MarkRead(ctx context.Context, messageID int64, userID string) error {
	message, err := t.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	inserted, err := t.receipts.Insert(ctx, messageID, userID, time.Now())
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	delivered := t.pusher.Push(message.SenderID, proto.EventMessageRead, proto.MessageRead{
		MessageID: messageID,
		UserID:    userID,
	})
	if delivered == 0 {
		t.logger.Debug("Sender offline, read receipt not pushed",
			"message_id", messageID,
			"sender_id", message.SenderID)
	}
	return nil
}

// Receipts 获取消息的全部已读回执
func (t *Tracker) Receipts(ctx context.Context, messageID int64) ([]model.ReadReceipt, error) {
	if _, err := t.messages.FindByID(ctx, messageID); err != nil {
		return nil, err
	}
	return t.receipts.ListForMessage(ctx, messageID)
}
