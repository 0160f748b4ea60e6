package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/group"
)

// GroupHandler 群组接口
type GroupHandler struct {
	groupService *group.Service
}

// NewGroupHandler 创建群组处理器
func NewGroupHandler(groupService *group.Service) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

type updateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

type addMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Create 创建群组
// POST /api/v1/groups
func (h *GroupHandler) Create(c *gin.Context) {
	userID := GetUserID(c)

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithMsg(c, errors.CodeInvalidParams, err.Error())
		return
	}

	created, err := h.groupService.Create(c.Request.Context(), userID, req.Name, req.Description, req.IsPrivate)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, created)
}

// ListMine 获取自己所属的群组
// GET /api/v1/groups
func (h *GroupHandler) ListMine(c *gin.Context) {
	groups, err := h.groupService.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": groups})
}

// Get 获取群组详情
// GET /api/v1/groups/:id
func (h *GroupHandler) Get(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	found, err := h.groupService.Get(c.Request.Context(), GetUserID(c), groupID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, found)
}

// Update 更新群组资料
// PUT /api/v1/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithMsg(c, errors.CodeInvalidParams, err.Error())
		return
	}

	if err := h.groupService.Update(c.Request.Context(), GetUserID(c), groupID, req.Name, req.Description, req.IsPrivate); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// Delete 解散群组
// DELETE /api/v1/groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), GetUserID(c), groupID); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// Members 获取成员列表
// GET /api/v1/groups/:id/members
func (h *GroupHandler) Members(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	members, err := h.groupService.Members(c.Request.Context(), GetUserID(c), groupID)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"list": members})
}

// AddMember 添加成员
// POST /api/v1/groups/:id/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorWithMsg(c, errors.CodeInvalidParams, err.Error())
		return
	}

	if err := h.groupService.AddMember(c.Request.Context(), GetUserID(c), groupID, req.UserID); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// RemoveMember 移除成员（或自行退出）
// DELETE /api/v1/groups/:id/members/:userId
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), GetUserID(c), groupID, c.Param("userId")); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// parseGroupID 解析路径中的群组 ID，失败时已写入错误响应
func parseGroupID(c *gin.Context) (int64, bool) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, errors.ErrInvalidParams)
		return 0, false
	}
	return groupID, true
}
