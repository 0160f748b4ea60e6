package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
	"sudooom.im.hub/internal/proto"
)

// MessageStore 消息存储，由 repository.MessageRepository 实现
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id int64) (*model.Message, error)
	ListConversation(ctx context.Context, userA, userB string, page, pageSize int) ([]model.Message, error)
	ListGroupMessages(ctx context.Context, groupID int64, page, pageSize int) ([]model.Message, error)
	Update(ctx context.Context, id int64, content string, editedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// UserStore 用户查询，由 repository.UserRepository 实现
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// GroupStore 群组查询，由 repository.GroupRepository 实现
type GroupStore interface {
	FindByID(ctx context.Context, id int64) (*model.Group, error)
	ListMemberIDs(ctx context.Context, groupID int64) ([]string, error)
}

// MemberGate 成员资格校验，由 channel.Gate 实现
type MemberGate interface {
	RequireMember(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error)
}

// ChannelView 群频道订阅只读视图，由 channel.Manager 实现
type ChannelView interface {
	Subscribers(groupID int64) []string
}

// EventPusher 事件推送，由 connection.Pusher 实现
type EventPusher interface {
	Push(userID string, event string, payload interface{}) int
}

// Notifier 通知创建，由 notify.Service 实现
type Notifier interface {
	Create(ctx context.Context, userID, title, content string, notificationType model.NotificationType, relatedEntityID string) (*model.Notification, error)
}

// Service 消息路由
// 发送流程：校验 -> 落库 -> 实时投递 -> 创建通知。
// 非原子：落库成功后通知创建失败时，调用方会拿到错误，但消息已持久化。
type Service struct {
	messages MessageStore
	users    UserStore
	groups   GroupStore
	gate     MemberGate
	channels ChannelView
	pusher   EventPusher
	notifier Notifier
	logger   *slog.Logger
}

// NewService 创建消息路由服务
func NewService(
	messages MessageStore,
	users UserStore,
	groups GroupStore,
	gate MemberGate,
	channels ChannelView,
	pusher EventPusher,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		messages: messages,
		users:    users,
		groups:   groups,
		gate:     gate,
		channels: channels,
		pusher:   pusher,
		notifier: notifier,
		logger:   logger,
	}
}

// SendPrivate 发送私聊消息
// 不校验好友关系：任何已认证用户之间都可以私聊
func (s *Service) SendPrivate(ctx context.Context, senderID, receiverID, content string, msgType model.MessageType, attachmentURL string) (*model.Message, error) {
	if content == "" {
		return nil, errors.ErrEmptyContent
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		return nil, err
	}

	message := &model.Message{
		Content:       content,
		SenderID:      senderID,
		SenderName:    sender.DisplayName(),
		ReceiverID:    &receiverID,
		SentAt:        time.Now(),
		Type:          msgType,
		AttachmentURL: attachmentURL,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	// 实时投递尽力而为，接收方离线只依赖通知
	s.pusher.Push(receiverID, proto.EventReceivePrivateMessage, message)
	s.pusher.Push(senderID, proto.EventMessageSent, message)

	_, err = s.notifier.Create(ctx, receiverID,
		"New Message",
		fmt.Sprintf("%s sent you a message", message.SenderName),
		model.NotificationTypeMessage,
		strconv.FormatInt(message.ID, 10),
	)
	if err != nil {
		return message, err
	}

	s.logger.Debug("Private message routed",
		"message_id", message.ID,
		"sender_id", senderID,
		"receiver_id", receiverID)
	return message, nil
}

// SendGroup 发送群聊消息
// 非成员发送返回 ErrNotGroupMember，不落库
func (s *Service) SendGroup(ctx context.Context, senderID string, groupID int64, content string, msgType model.MessageType, attachmentURL string) (*model.Message, error) {
	if content == "" {
		return nil, errors.ErrEmptyContent
	}

	if _, err := s.gate.RequireMember(ctx, groupID, senderID); err != nil {
		return nil, err
	}

	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	message := &model.Message{
		Content:       content,
		SenderID:      senderID,
		SenderName:    sender.DisplayName(),
		GroupID:       &groupID,
		SentAt:        time.Now(),
		Type:          msgType,
		AttachmentURL: attachmentURL,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	// 投递只看频道订阅状态，含发送者自己的其他设备
	for _, subscriber := range s.channels.Subscribers(groupID) {
		s.pusher.Push(subscriber, proto.EventReceiveGroupMessage, message)
	}

	memberIDs, err := s.groups.ListMemberIDs(ctx, groupID)
	if err != nil {
		return message, err
	}
	for _, memberID := range memberIDs {
		if memberID == senderID {
			continue
		}
		_, err := s.notifier.Create(ctx, memberID,
			"New Group Message",
			fmt.Sprintf("%s sent a message in %s", message.SenderName, group.Name),
			model.NotificationTypeMessage,
			strconv.FormatInt(message.ID, 10),
		)
		if err != nil {
			return message, err
		}
	}

	s.logger.Debug("Group message routed",
		"message_id", message.ID,
		"sender_id", senderID,
		"group_id", groupID)
	return message, nil
}

// UpdateMessage 编辑消息内容
// 仅发送者可编辑；编辑后向原接收方推送 MessageEdited
func (s *Service) UpdateMessage(ctx context.Context, messageID int64, editorID, content string) (*model.Message, error) {
	if content == "" {
		return nil, errors.ErrEmptyContent
	}

	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != editorID {
		return nil, errors.ErrNotMessageSender
	}

	now := time.Now()
	if err := s.messages.Update(ctx, messageID, content, now); err != nil {
		return nil, err
	}
	message.Content = content
	message.IsEdited = true
	message.EditedAt = &now

	payload := proto.MessageEdited{
		MessageID: messageID,
		Content:   content,
		EditedAt:  now,
	}
	for _, target := range s.recipientsOf(message) {
		s.pusher.Push(target, proto.EventMessageEdited, payload)
	}

	return message, nil
}

// DeleteMessage 删除消息
// 仅发送者可删除；硬删除后向原接收方推送 MessageDeleted
func (s *Service) DeleteMessage(ctx context.Context, messageID int64, requesterID string) error {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != requesterID {
		return errors.ErrNotMessageSender
	}

	// 删除前先解析接收方，删除后消息行已不存在
	targets := s.recipientsOf(message)

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}

	payload := proto.MessageDeleted{MessageID: messageID}
	for _, target := range targets {
		s.pusher.Push(target, proto.EventMessageDeleted, payload)
	}

	return nil
}

// GetPrivateMessages 获取两个用户间的私聊历史（升序分页）
func (s *Service) GetPrivateMessages(ctx context.Context, userID, otherUserID string, page, pageSize int) ([]model.Message, error) {
	return s.messages.ListConversation(ctx, userID, otherUserID, page, pageSize)
}

// GetGroupMessages 获取群聊历史，仅限群成员
func (s *Service) GetGroupMessages(ctx context.Context, userID string, groupID int64, page, pageSize int) ([]model.Message, error) {
	if _, err := s.gate.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.messages.ListGroupMessages(ctx, groupID, page, pageSize)
}

// recipientsOf 解析消息的推送目标
// 群聊取当前频道订阅者，私聊取收发双方
func (s *Service) recipientsOf(message *model.Message) []string {
	if message.IsGroupMessage() {
		return s.channels.Subscribers(*message.GroupID)
	}
	targets := []string{message.SenderID}
	if message.ReceiverID != nil {
		targets = append(targets, *message.ReceiverID)
	}
	return targets
}
