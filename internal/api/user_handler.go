package api

import (
	"github.com/gin-gonic/gin"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/repository"
)

const searchLimit = 20

// UserHandler 用户接口
type UserHandler struct {
	users *repository.UserRepository
}

// NewUserHandler 创建用户处理器
func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Online 获取在线用户列表
// GET /api/v1/users/online
func (h *UserHandler) Online(c *gin.Context) {
	users, err := h.users.ListOnline(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": users})
}

// Search 按关键字搜索用户
// GET /api/v1/users/search?q=keyword
func (h *UserHandler) Search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		Error(c, errors.ErrInvalidParams)
		return
	}

	users, err := h.users.Search(c.Request.Context(), keyword, searchLimit)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": users})
}

// Get 获取用户资料
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, user)
}
