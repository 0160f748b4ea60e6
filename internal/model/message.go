package model

import "time"

// MessageType 消息类型
type MessageType int

const (
	MessageTypeText  MessageType = 0 // 文本
	MessageTypeImage MessageType = 1 // 图片
	MessageTypeFile  MessageType = 2 // 文件
	MessageTypeAudio MessageType = 3 // 语音
	MessageTypeVideo MessageType = 4 // 视频
)

// Message 消息实体
// ReceiverID 与 GroupID 二选一：私聊消息设置 ReceiverID，群聊消息设置 GroupID。
// SenderName 为发送时刻的快照，发送者改名后不变。
type Message struct {
	ID            int64       `json:"id" db:"id"`
	Content       string      `json:"content" db:"content"`
	SenderID      string      `json:"senderId" db:"sender_id"`
	SenderName    string      `json:"senderName" db:"sender_name"`
	ReceiverID    *string     `json:"receiverId,omitempty" db:"receiver_id"`
	GroupID       *int64      `json:"groupId,omitempty" db:"group_id"`
	SentAt        time.Time   `json:"sentAt" db:"sent_at"`
	IsEdited      bool        `json:"isEdited" db:"is_edited"`
	EditedAt      *time.Time  `json:"editedAt,omitempty" db:"edited_at"`
	Type          MessageType `json:"type" db:"type"`
	AttachmentURL string      `json:"attachmentUrl,omitempty" db:"attachment_url"`
}

// IsGroupMessage 是否为群聊消息
func (m *Message) IsGroupMessage() bool {
	return m.GroupID != nil
}

// ReadReceipt 已读回执
// (MessageID, UserID) 唯一，重复标记为幂等空操作
type ReadReceipt struct {
	MessageID int64     `json:"messageId" db:"message_id"`
	UserID    string    `json:"userId" db:"user_id"`
	ReadAt    time.Time `json:"readAt" db:"read_at"`
}
