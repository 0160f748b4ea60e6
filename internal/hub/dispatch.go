package hub

import (
	"context"
	"encoding/json"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/proto"
)

// dispatchOperation 解析操作封装并分发到对应服务
// 操作失败推送 Error 事件，从不因业务错误断开连接
func (h *Handler) dispatchOperation(ctx context.Context, sess *session, body []byte) {
	var op proto.Operation
	if err := json.Unmarshal(body, &op); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	switch op.Op {
	case proto.OpSendPrivateMessage:
		h.handleSendPrivate(ctx, sess, op.Payload)
	case proto.OpSendGroupMessage:
		h.handleSendGroup(ctx, sess, op.Payload)
	case proto.OpJoinGroupChannel:
		h.handleJoinChannel(ctx, sess, op.Payload)
	case proto.OpLeaveGroupChannel:
		h.handleLeaveChannel(sess, op.Payload)
	case proto.OpMarkMessageRead:
		h.handleMarkRead(ctx, sess, op.Payload)
	case proto.OpStartTyping:
		h.handleTyping(sess, op.Payload, true)
	case proto.OpStopTyping:
		h.handleTyping(sess, op.Payload, false)
	default:
		h.logger.Warn("Unknown operation", "conn_id", sess.conn.ID(), "op", op.Op)
		h.sendError(sess, errors.ErrInvalidParams)
	}
}

func (h *Handler) handleSendPrivate(ctx context.Context, sess *session, payload json.RawMessage) {
	var req proto.SendPrivateMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	if _, err := h.chat.SendPrivate(ctx, sess.userID, req.ReceiverID, req.Content, req.Type, req.AttachmentURL); err != nil {
		h.sendError(sess, err)
	}
}

func (h *Handler) handleSendGroup(ctx context.Context, sess *session, payload json.RawMessage) {
	var req proto.SendGroupMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	if _, err := h.chat.SendGroup(ctx, sess.userID, req.GroupID, req.Content, req.Type, req.AttachmentURL); err != nil {
		h.sendError(sess, err)
	}
}

// handleJoinChannel 显式加入群频道，重新校验成员资格
func (h *Handler) handleJoinChannel(ctx context.Context, sess *session, payload json.RawMessage) {
	var req proto.JoinGroupChannel
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	if _, err := h.gate.RequireMember(ctx, req.GroupID, sess.userID); err != nil {
		h.sendError(sess, err)
		return
	}

	h.channels.Subscribe(req.GroupID, sess.userID)
	h.reply(sess, proto.EventJoinedGroupChannel, proto.GroupChannel{GroupID: req.GroupID})
}

// handleLeaveChannel 离开群频道，无条件退订
func (h *Handler) handleLeaveChannel(sess *session, payload json.RawMessage) {
	var req proto.LeaveGroupChannel
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	h.channels.Unsubscribe(req.GroupID, sess.userID)
	h.reply(sess, proto.EventLeftGroupChannel, proto.GroupChannel{GroupID: req.GroupID})
}

func (h *Handler) handleMarkRead(ctx context.Context, sess *session, payload json.RawMessage) {
	var req proto.MarkMessageRead
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	if err := h.receipts.MarkRead(ctx, req.MessageID, sess.userID); err != nil {
		h.sendError(sess, err)
	}
}

// handleTyping 输入状态转发，目标必须是接收者或群组二选一
func (h *Handler) handleTyping(sess *session, payload json.RawMessage, isTyping bool) {
	var req proto.Typing
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(sess, errors.ErrInvalidParams)
		return
	}

	hasReceiver := req.ReceiverID != ""
	hasGroup := req.GroupID != 0
	if hasReceiver == hasGroup {
		h.sendError(sess, errors.ErrAmbiguousTarget)
		return
	}

	if hasReceiver {
		h.typing.RelayPrivate(sess.userID, sess.displayName, req.ReceiverID, isTyping)
		return
	}
	h.typing.RelayGroup(sess.userID, sess.displayName, req.GroupID, isTyping)
}

// reply 向当前会话的连接推送事件
func (h *Handler) reply(sess *session, event string, payload interface{}) {
	if err := h.pusher.PushToConn(sess.conn, event, payload); err != nil {
		h.logger.Debug("Failed to reply",
			"conn_id", sess.conn.ID(),
			"event", event,
			"error", err)
	}
}

// sendError 把业务错误作为 Error 事件推送给客户端
func (h *Handler) sendError(sess *session, err error) {
	h.reply(sess, proto.EventError, proto.Error{
		Code:    errors.GetCode(err),
		Message: errors.GetMessage(err),
	})
}
