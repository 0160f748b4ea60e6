package model

import "time"

// NotificationType 通知类型
type NotificationType int

const (
	NotificationTypeMessage         NotificationType = 0 // 新消息
	NotificationTypeGroupInvitation NotificationType = 1 // 群组邀请
	NotificationTypeFriendRequest   NotificationType = 2 // 好友请求
	NotificationTypeSystem          NotificationType = 3 // 系统通知
)

// Notification 通知实体
// IsRead 只能由所属用户修改
type Notification struct {
	ID              int64            `json:"id" db:"id"`
	Title           string           `json:"title" db:"title"`
	Content         string           `json:"content" db:"content"`
	UserID          string           `json:"userId" db:"user_id"`
	Type            NotificationType `json:"type" db:"type"`
	RelatedEntityID string           `json:"relatedEntityId,omitempty" db:"related_entity_id"`
	IsRead          bool             `json:"isRead" db:"is_read"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
}
