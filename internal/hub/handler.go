package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"sudooom.im.hub/internal/auth"
	"sudooom.im.hub/internal/channel"
	"sudooom.im.hub/internal/connection"
	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
	"sudooom.im.hub/internal/proto"
	"sudooom.im.hub/internal/workerpool"
)

// cleanupTimeout 断连清理的落库超时
const cleanupTimeout = 5 * time.Second

// TokenValidator JWT 校验，由 auth.Service 实现
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// TokenChecker 当前有效 token 校验，由 redis.Client 实现
// 被挤下线的旧 token 不允许建立连接
type TokenChecker interface {
	IsTokenCurrent(ctx context.Context, userID, platform, token string) (bool, error)
}

// UserFinder 用户查询，由 repository.UserRepository 实现
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// GroupLister 用户群组查询，由 repository.GroupRepository 实现
type GroupLister interface {
	ListGroupIDsForUser(ctx context.Context, userID string) ([]int64, error)
}

// MemberGate 成员资格校验，由 channel.Gate 实现
type MemberGate interface {
	RequireMember(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error)
}

// PresenceTracker 在线状态跟踪，由 presence.Tracker 实现
type PresenceTracker interface {
	MarkOnline(ctx context.Context, userID, deviceID, platform string) error
	MarkOffline(ctx context.Context, userID, deviceID string) error
	Touch(ctx context.Context, userID, deviceID string)
}

// ChatService 消息路由，由 chat.Service 实现
type ChatService interface {
	SendPrivate(ctx context.Context, senderID, receiverID, content string, msgType model.MessageType, attachmentURL string) (*model.Message, error)
	SendGroup(ctx context.Context, senderID string, groupID int64, content string, msgType model.MessageType, attachmentURL string) (*model.Message, error)
}

// ReceiptTracker 已读回执，由 receipt.Tracker 实现
type ReceiptTracker interface {
	MarkRead(ctx context.Context, messageID int64, userID string) error
}

// TypingRelay 输入状态转发，由 typing.Relay 实现
type TypingRelay interface {
	RelayPrivate(userID, userName, receiverID string, isTyping bool)
	RelayGroup(userID, userName string, groupID int64, isTyping bool)
}

// EventPusher 事件推送，由 connection.Pusher 实现
type EventPusher interface {
	PushToConn(conn connection.Conn, event string, payload interface{}) error
}

// session 已认证会话
type session struct {
	conn        connection.Conn
	userID      string
	deviceID    string
	platform    string
	displayName string
}

// Handler 会话生命周期与操作分发
// 每个 WebTransport 会话跑一个 HandleSession：首帧认证，
// 之后读帧循环把具名操作分发到各服务
type Handler struct {
	registry *connection.Manager
	channels *channel.Manager
	tokens   TokenValidator
	sessions TokenChecker
	users    UserFinder
	groups   GroupLister
	gate     MemberGate
	presence PresenceTracker
	chat     ChatService
	receipts ReceiptTracker
	typing   TypingRelay
	pusher   EventPusher
	pool     *workerpool.Pool
	logger   *slog.Logger
}

// NewHandler 创建会话处理器
func NewHandler(
	registry *connection.Manager,
	channels *channel.Manager,
	tokens TokenValidator,
	sessions TokenChecker,
	users UserFinder,
	groups GroupLister,
	gate MemberGate,
	presence PresenceTracker,
	chat ChatService,
	receipts ReceiptTracker,
	typing TypingRelay,
	pusher EventPusher,
	pool *workerpool.Pool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		registry: registry,
		channels: channels,
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		groups:   groups,
		gate:     gate,
		presence: presence,
		chat:     chat,
		receipts: receipts,
		typing:   typing,
		pusher:   pusher,
		pool:     pool,
		logger:   logger,
	}
}

// HandleSession 处理一个客户端会话，阻塞直到连接断开
// 首帧必须是认证帧，认证失败直接返回，调用方负责关闭连接
func (h *Handler) HandleSession(ctx context.Context, conn *connection.Connection, stream io.Reader) {
	frameType, body, err := proto.ReadFrame(stream)
	if err != nil {
		h.logger.Warn("Failed to read first frame", "conn_id", conn.ID(), "error", err)
		return
	}
	if frameType != proto.FrameAuth {
		h.logger.Warn("First frame must be auth", "conn_id", conn.ID(), "frame_type", frameType)
		h.sendAuthAck(conn, errors.CodeUnauthenticated, "", "auth required")
		return
	}

	info, err := h.authenticate(ctx, conn, body)
	if err != nil {
		return
	}

	conn.BindSession(info)
	h.registry.Add(conn)
	h.registry.BindUser(conn.ID(), info.UserID)

	sess := &session{
		conn:        conn,
		userID:      info.UserID,
		deviceID:    info.DeviceID,
		platform:    info.Platform,
		displayName: info.DisplayName,
	}
	defer h.cleanup(sess)

	if err := h.presence.MarkOnline(ctx, sess.userID, sess.deviceID, sess.platform); err != nil {
		h.logger.Error("Failed to mark user online",
			"user_id", sess.userID,
			"error", err)
	}
	h.subscribePersistedGroups(ctx, sess)

	h.sendAuthAck(conn, errors.CodeSuccess, sess.userID, "success")
	h.logger.Info("User authenticated",
		"conn_id", conn.ID(),
		"user_id", sess.userID,
		"platform", sess.platform)

	h.readLoop(ctx, sess, stream)
}

// authenticate 校验首帧认证请求，失败时已向客户端发送拒绝响应
func (h *Handler) authenticate(ctx context.Context, conn connection.Conn, body []byte) (*connection.SessionInfo, error) {
	var req proto.AuthRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.sendAuthAck(conn, errors.CodeInvalidParams, "", "malformed auth request")
		return nil, err
	}

	claims, err := h.tokens.ValidateToken(req.Token)
	if err != nil {
		code := errors.CodeTokenInvalid
		if err == auth.ErrTokenExpired {
			code = errors.CodeTokenExpired
		}
		h.logger.Warn("Token validation failed", "conn_id", conn.ID(), "error", err)
		h.sendAuthAck(conn, code, "", "invalid token")
		return nil, err
	}

	if req.DeviceID != "" && req.DeviceID != claims.DeviceID {
		h.logger.Warn("DeviceID mismatch",
			"conn_id", conn.ID(),
			"expected", claims.DeviceID,
			"got", req.DeviceID)
		h.sendAuthAck(conn, errors.CodeTokenInvalid, "", "device mismatch")
		return nil, errors.ErrTokenInvalid
	}

	current, err := h.sessions.IsTokenCurrent(ctx, claims.UserID, string(claims.Platform), req.Token)
	if err != nil {
		h.logger.Error("Failed to check token currency", "conn_id", conn.ID(), "error", err)
		h.sendAuthAck(conn, errors.CodeServerError, "", "internal error")
		return nil, err
	}
	if !current {
		h.logger.Warn("Token is not current", "conn_id", conn.ID(), "user_id", claims.UserID)
		h.sendAuthAck(conn, errors.CodeUnauthenticated, "", "token expired or replaced")
		return nil, errors.ErrUnauthenticated
	}

	user, err := h.users.FindByID(ctx, claims.UserID)
	if err != nil {
		h.logger.Error("Failed to load user for session", "user_id", claims.UserID, "error", err)
		h.sendAuthAck(conn, errors.CodeUserNotFound, "", "unknown user")
		return nil, err
	}

	return &connection.SessionInfo{
		UserID:      claims.UserID,
		DeviceID:    claims.DeviceID,
		Platform:    string(claims.Platform),
		DisplayName: user.DisplayName(),
	}, nil
}

// subscribePersistedGroups 连接建立后订阅用户所属的全部群频道
func (h *Handler) subscribePersistedGroups(ctx context.Context, sess *session) {
	groupIDs, err := h.groups.ListGroupIDsForUser(ctx, sess.userID)
	if err != nil {
		h.logger.Error("Failed to load persisted groups",
			"user_id", sess.userID,
			"error", err)
		return
	}
	for _, groupID := range groupIDs {
		h.channels.Subscribe(groupID, sess.userID)
	}
}

// readLoop 读帧循环，操作帧异步提交到 Worker Pool
func (h *Handler) readLoop(ctx context.Context, sess *session, stream io.Reader) {
	for {
		frameType, body, err := proto.ReadFrame(stream)
		if err != nil {
			if err != io.EOF {
				h.logger.Debug("Session read ended", "conn_id", sess.conn.ID(), "error", err)
			}
			return
		}

		switch frameType {
		case proto.FrameHeartbeat:
			h.presence.Touch(ctx, sess.userID, sess.deviceID)
			if err := sess.conn.Send(proto.EncodeFrame(proto.FrameHeartbeat, nil)); err != nil {
				return
			}
		case proto.FrameOperation:
			frame := body
			submitted := h.pool.Submit(func() {
				h.dispatchOperation(ctx, sess, frame)
			})
			if !submitted {
				h.logger.Warn("Worker pool is shutting down, operation dropped",
					"conn_id", sess.conn.ID())
				return
			}
		case proto.FrameAuth:
			h.logger.Warn("Unexpected auth frame after authentication", "conn_id", sess.conn.ID())
		default:
			h.logger.Warn("Unknown frame type", "conn_id", sess.conn.ID(), "frame_type", frameType)
		}
	}
}

// cleanup 断连清理：注销连接，最后一个设备下线时退订频道并翻转在线状态
func (h *Handler) cleanup(sess *session) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	remaining := h.registry.Remove(sess.conn.ID())
	if remaining == 0 {
		h.channels.UnsubscribeAll(sess.userID)
	}

	if err := h.presence.MarkOffline(ctx, sess.userID, sess.deviceID); err != nil {
		h.logger.Error("Failed to mark user offline",
			"user_id", sess.userID,
			"error", err)
	}

	h.logger.Info("Session closed",
		"conn_id", sess.conn.ID(),
		"user_id", sess.userID,
		"remaining_handles", remaining)
}

// sendAuthAck 发送认证响应帧
func (h *Handler) sendAuthAck(conn connection.Conn, code int, userID, message string) {
	ack := proto.AuthAck{Code: code, UserID: userID, Message: message}
	body, err := json.Marshal(ack)
	if err != nil {
		return
	}
	if err := conn.Send(proto.EncodeFrame(proto.FrameAuthAck, body)); err != nil {
		h.logger.Debug("Failed to send auth ack", "conn_id", conn.ID(), "error", err)
	}
}
