package model

import "time"

// User 用户实体
// ID 为外部账号系统签发的不透明字符串，跨会话稳定
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	FirstName      string    `json:"firstName" db:"first_name"`
	LastName       string    `json:"lastName" db:"last_name"`
	ProfilePicture string    `json:"profilePicture,omitempty" db:"profile_picture"`
	IsOnline       bool      `json:"isOnline" db:"is_online"`
	LastSeen       time.Time `json:"lastSeen" db:"last_seen"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// DisplayName 返回展示名称
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
