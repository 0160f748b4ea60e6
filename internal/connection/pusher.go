package connection

import (
	"log/slog"

	"sudooom.im.hub/internal/proto"
)

// Pusher 基于连接注册表的事件推送
// 把事件编码成事件帧后发往目标用户的全部在线连接
type Pusher struct {
	manager *Manager
	logger  *slog.Logger
}

// NewPusher 创建推送器
func NewPusher(manager *Manager, logger *slog.Logger) *Pusher {
	return &Pusher{manager: manager, logger: logger}
}

// Push 向用户的所有在线连接推送事件，返回成功写入的连接数
// 用户离线时返回 0，不视为错误
func (p *Pusher) Push(userID string, event string, payload interface{}) int {
	conns := p.manager.GetByUserID(userID)
	if len(conns) == 0 {
		return 0
	}

	frame, err := proto.EncodeEvent(event, payload)
	if err != nil {
		p.logger.Error("Failed to encode event",
			"event", event,
			"user_id", userID,
			"error", err)
		return 0
	}

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(frame); err != nil {
			p.logger.Warn("Failed to push event",
				"event", event,
				"user_id", userID,
				"conn_id", conn.ID(),
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// PushToConn 向单个连接推送事件
func (p *Pusher) PushToConn(conn Conn, event string, payload interface{}) error {
	frame, err := proto.EncodeEvent(event, payload)
	if err != nil {
		return err
	}
	return conn.Send(frame)
}
