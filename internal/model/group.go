package model

import "time"

// GroupRole 群组成员角色
type GroupRole int

const (
	RoleMember GroupRole = 0 // 普通成员
	RoleAdmin  GroupRole = 1 // 管理员
	RoleOwner  GroupRole = 2 // 群主
)

// AtLeast 判断角色是否不低于指定角色
func (r GroupRole) AtLeast(min GroupRole) bool {
	return r >= min
}

// String 角色名称
func (r GroupRole) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	default:
		return "member"
	}
}

// Group 群组实体
type Group struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	GroupPicture string    `json:"groupPicture,omitempty" db:"group_picture"`
	CreatedBy    string    `json:"createdBy" db:"created_by"`
	IsPrivate    bool      `json:"isPrivate" db:"is_private"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// GroupMember 群组成员关系
// (GroupID, UserID) 唯一
type GroupMember struct {
	GroupID  int64     `json:"groupId" db:"group_id"`
	UserID   string    `json:"userId" db:"user_id"`
	Role     GroupRole `json:"role" db:"role"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}
