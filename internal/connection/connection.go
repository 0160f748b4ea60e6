package connection

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/quic-go/webtransport-go"
)

var ErrConnectionClosed = errors.New("connection closed")

var connIDCounter int64

// Conn 表示一个可推送事件的客户端连接句柄
// 服务层只依赖该接口，便于测试替换传输实现
type Conn interface {
	ID() int64
	UserID() string
	Send(frame []byte) error
	Close()
}

// Connection 基于 WebTransport 的连接实现
type Connection struct {
	id        int64
	userID    string
	session   *webtransport.Session
	logger    *slog.Logger
	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

// SessionInfo 认证通过后的会话状态
type SessionInfo struct {
	UserID      string
	DeviceID    string
	Platform    string
	DisplayName string
}

func NewFromWebTransport(session *webtransport.Session, logger *slog.Logger) *Connection {
	id := atomic.AddInt64(&connIDCounter, 1)
	c := &Connection{
		id:        id,
		session:   session,
		logger:    logger,
		writeChan: make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Connection) ID() int64 {
	return c.id
}

func (c *Connection) UserID() string {
	return c.userID
}

// BindSession 绑定认证后的会话信息
func (c *Connection) BindSession(info *SessionInfo) {
	c.userID = info.UserID
}

func (c *Connection) Send(frame []byte) error {
	select {
	case c.writeChan <- frame:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case frame := <-c.writeChan:
			stream, err := c.session.OpenStream()
			if err != nil {
				c.logger.Error("Failed to open stream", "error", err)
				continue
			}
			if _, err := stream.Write(frame); err != nil {
				c.logger.Error("Failed to write to stream", "error", err)
			}
			stream.Close()
		case <-c.closeChan:
			return
		}
	}
}

func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.session.CloseWithError(0, "connection closed")
	})
}
