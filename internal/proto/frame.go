package proto

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

const (
	// HeaderSize 帧头长度：4 字节 body 长度 + 2 字节帧类型
	HeaderSize = 6

	// MaxFrameSize 单帧 body 上限
	MaxFrameSize = 1 << 20

	// 帧类型
	FrameHeartbeat uint16 = 0  // 心跳
	FrameAuth      uint16 = 1  // 认证请求
	FrameAuthAck   uint16 = 2  // 认证响应
	FrameOperation uint16 = 10 // 客户端操作
	FrameEvent     uint16 = 11 // 服务端事件
)

// AuthRequest 首帧认证请求
type AuthRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"deviceId"`
	Platform string `json:"platform"`
}

// AuthAck 认证响应
type AuthAck struct {
	Code    int    `json:"code"`
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message"`
}

// EncodeFrame 构建消息帧
func EncodeFrame(frameType uint16, body []byte) []byte {
	frame := make([]byte, HeaderSize+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	binary.BigEndian.PutUint16(frame[4:6], frameType)
	copy(frame[HeaderSize:], body)
	return frame
}

// EncodeEvent 将事件序列化为事件帧
func EncodeEvent(name string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(Event{Event: name, Payload: payload})
	if err != nil {
		return nil, err
	}
	return EncodeFrame(FrameEvent, body), nil
}

// ReadFrame 从流中读取一个完整帧
func ReadFrame(r io.Reader) (frameType uint16, body []byte, err error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}

	length := binary.BigEndian.Uint32(header[:4])
	frameType = binary.BigEndian.Uint16(header[4:6])

	if length > MaxFrameSize {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	body = make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	return frameType, body, nil
}
