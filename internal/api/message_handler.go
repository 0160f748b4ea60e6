package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.im.hub/internal/chat"
	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
	"sudooom.im.hub/internal/receipt"
)

const defaultPageSize = 50

// MessageHandler 消息接口
type MessageHandler struct {
	chatService *chat.Service
	receipts    *receipt.Tracker
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(chatService *chat.Service, receipts *receipt.Tracker) *MessageHandler {
	return &MessageHandler{chatService: chatService, receipts: receipts}
}

type sendMessageRequest struct {
	ReceiverID    string            `json:"receiverId"`
	GroupID       int64             `json:"groupId"`
	Content       string            `json:"content"`
	Type          model.MessageType `json:"type"`
	AttachmentURL string            `json:"attachmentUrl"`
}

type updateMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send 发送消息，接收者和群组必须二选一
// POST /api/v1/messages
func (h *MessageHandler) Send(c *gin.Context) {
	userID := GetUserID(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithMsg(c, errors.CodeInvalidParams, err.Error())
		return
	}

	hasReceiver := req.ReceiverID != ""
	hasGroup := req.GroupID != 0
	if hasReceiver == hasGroup {
		Error(c, errors.ErrAmbiguousTarget)
		return
	}

	var (
		message *model.Message
		err     error
	)
	if hasReceiver {
		message, err = h.chatService.SendPrivate(c.Request.Context(), userID, req.ReceiverID, req.Content, req.Type, req.AttachmentURL)
	} else {
		message, err = h.chatService.SendGroup(c.Request.Context(), userID, req.GroupID, req.Content, req.Type, req.AttachmentURL)
	}
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, message)
}

// PrivateHistory 私聊历史
// GET /api/v1/messages/private/:userId
func (h *MessageHandler) PrivateHistory(c *gin.Context) {
	page, pageSize := parsePaging(c)

	messages, err := h.chatService.GetPrivateMessages(c.Request.Context(), GetUserID(c), c.Param("userId"), page, pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": messages})
}

// GroupHistory 群聊历史
// GET /api/v1/messages/group/:groupId
func (h *MessageHandler) GroupHistory(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("groupId"), 10, 64)
	if err != nil {
		Error(c, errors.ErrInvalidParams)
		return
	}
	page, pageSize := parsePaging(c)

	messages, err := h.chatService.GetGroupMessages(c.Request.Context(), GetUserID(c), groupID, page, pageSize)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": messages})
}

// Update 编辑消息
// PUT /api/v1/messages/:id
func (h *MessageHandler) Update(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithMsg(c, errors.CodeInvalidParams, err.Error())
		return
	}

	updated, err := h.chatService.UpdateMessage(c.Request.Context(), messageID, GetUserID(c), req.Content)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, updated)
}

// Delete 删除消息
// DELETE /api/v1/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	if err := h.chatService.DeleteMessage(c.Request.Context(), messageID, GetUserID(c)); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// MarkRead 标记消息已读
// POST /api/v1/messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	if err := h.receipts.MarkRead(c.Request.Context(), messageID, GetUserID(c)); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// Receipts 查询消息的已读回执
// GET /api/v1/messages/:id/receipts
func (h *MessageHandler) Receipts(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	receipts, err := h.receipts.Receipts(c.Request.Context(), messageID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": receipts})
}

func parseMessageID(c *gin.Context) (int64, bool) {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, errors.ErrInvalidParams)
		return 0, false
	}
	return messageID, true
}

func parsePaging(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > 200 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
