package notify

import (
	"context"
	"log/slog"
	"time"

	"sudooom.im.hub/internal/model"
)

// NotificationStore 通知存储，由 repository.NotificationRepository 实现
type NotificationStore interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int64, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// Service 通知派发
// Create 同步落库，失败直接把错误返回给调用方
type Service struct {
	store  NotificationStore
	logger *slog.Logger
}

// NewService 创建通知服务
func NewService(store NotificationStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create 创建一条通知
func (s *Service) Create(ctx context.Context, userID, title, content string, notificationType model.NotificationType, relatedEntityID string) (*model.Notification, error) {
	notification := &model.Notification{
		Title:           title,
		Content:         content,
		UserID:          userID,
		Type:            notificationType,
		RelatedEntityID: relatedEntityID,
		CreatedAt:       time.Now(),
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// List 获取用户通知，unreadOnly 为 true 时只返回未读
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	return s.store.ListForUser(ctx, userID, unreadOnly)
}

// MarkRead 标记单条通知已读，仅限本人的通知
func (s *Service) MarkRead(ctx context.Context, id int64, userID string) error {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead 标记用户全部通知已读
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.MarkAllRead(ctx, userID)
}
