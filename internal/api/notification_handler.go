package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/notify"
)

// NotificationHandler 通知接口
type NotificationHandler struct {
	notifications *notify.Service
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notifications *notify.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List 获取通知列表
// GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread_only") == "true"

	list, err := h.notifications.List(c.Request.Context(), GetUserID(c), unreadOnly)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": list})
}

// MarkRead 标记单条通知已读
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, errors.ErrInvalidParams)
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), notificationID, GetUserID(c)); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// MarkAllRead 标记全部通知已读
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), GetUserID(c)); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}
