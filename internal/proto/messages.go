package proto

import (
	"encoding/json"
	"time"

	"sudooom.im.hub/internal/model"
)

// ============== 客户端操作 (Client -> Server) ==============

// 操作名称
const (
	OpSendPrivateMessage = "sendPrivateMessage"
	OpSendGroupMessage   = "sendGroupMessage"
	OpJoinGroupChannel   = "joinGroupChannel"
	OpLeaveGroupChannel  = "leaveGroupChannel"
	OpMarkMessageRead    = "markMessageRead"
	OpStartTyping        = "startTyping"
	OpStopTyping         = "stopTyping"
)

// Operation 客户端操作封装
type Operation struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SendPrivateMessage 私聊消息请求
type SendPrivateMessage struct {
	ReceiverID    string            `json:"receiverId"`
	Content       string            `json:"content"`
	Type          model.MessageType `json:"type"`
	AttachmentURL string            `json:"attachmentUrl,omitempty"`
}

// SendGroupMessage 群聊消息请求
type SendGroupMessage struct {
	GroupID       int64             `json:"groupId"`
	Content       string            `json:"content"`
	Type          model.MessageType `json:"type"`
	AttachmentURL string            `json:"attachmentUrl,omitempty"`
}

// JoinGroupChannel 加入群组频道请求
type JoinGroupChannel struct {
	GroupID int64 `json:"groupId"`
}

// LeaveGroupChannel 离开群组频道请求
type LeaveGroupChannel struct {
	GroupID int64 `json:"groupId"`
}

// MarkMessageRead 标记已读请求
type MarkMessageRead struct {
	MessageID int64 `json:"messageId"`
}

// Typing 输入状态请求（私聊填 ReceiverID，群聊填 GroupID）
type Typing struct {
	ReceiverID string `json:"receiverId,omitempty"`
	GroupID    int64  `json:"groupId,omitempty"`
}

// ============== 服务端事件 (Server -> Client) ==============

// 事件名称
const (
	EventReceivePrivateMessage = "ReceivePrivateMessage"
	EventReceiveGroupMessage   = "ReceiveGroupMessage"
	EventMessageSent           = "MessageSent"
	EventMessageRead           = "MessageRead"
	EventMessageEdited         = "MessageEdited"
	EventMessageDeleted        = "MessageDeleted"
	EventUserStatusChanged     = "UserStatusChanged"
	EventUserTyping            = "UserTyping"
	EventUserTypingInGroup     = "UserTypingInGroup"
	EventJoinedGroupChannel    = "JoinedGroupChannel"
	EventLeftGroupChannel      = "LeftGroupChannel"
	EventError                 = "Error"
)

// Event 服务端事件封装
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// MessageRead 已读事件
type MessageRead struct {
	MessageID int64  `json:"messageId"`
	UserID    string `json:"userId"`
}

// MessageEdited 消息编辑事件
type MessageEdited struct {
	MessageID int64     `json:"messageId"`
	Content   string    `json:"content"`
	EditedAt  time.Time `json:"editedAt"`
}

// MessageDeleted 消息删除事件
type MessageDeleted struct {
	MessageID int64 `json:"messageId"`
}

// UserStatusChanged 用户状态变化事件
type UserStatusChanged struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// UserTyping 私聊输入状态事件
type UserTyping struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// UserTypingInGroup 群聊输入状态事件
type UserTypingInGroup struct {
	GroupID  int64  `json:"groupId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// GroupChannel 频道加入/离开确认事件
type GroupChannel struct {
	GroupID int64 `json:"groupId"`
}

// Error 错误事件
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
