package group

import (
	"context"
	"log/slog"
	"time"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

// Store 群组存储，由 repository.GroupRepository 实现
type Store interface {
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id int64) (*model.Group, error)
	Update(ctx context.Context, id int64, name, description string, isPrivate bool) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID string) ([]model.Group, error)
	AddMember(ctx context.Context, groupID int64, userID string, role model.GroupRole, joinedAt time.Time) error
	RemoveMember(ctx context.Context, groupID int64, userID string) error
	ListMembers(ctx context.Context, groupID int64) ([]model.GroupMember, error)
}

// UserFinder 用户查询，由 repository.UserRepository 实现
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// MemberGate 成员资格与角色校验，由 channel.Gate 实现
type MemberGate interface {
	RequireMember(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error)
	RequireRole(ctx context.Context, groupID int64, userID string, minRole model.GroupRole) (*model.GroupMember, error)
}

// ChannelManager 群频道订阅管理，由 channel.Manager 实现
// 成员变更要同步作用到在线连接的订阅状态
type ChannelManager interface {
	Subscribe(groupID int64, userID string)
	Unsubscribe(groupID int64, userID string)
	RevokeGroup(groupID int64) []string
}

// Registry 连接注册表只读视图
type Registry interface {
	IsOnline(userID string) bool
}

// Service 群组生命周期管理
// 角色规则：Admin 及以上可以改资料和增删成员，只有 Owner 可以解散群组，
// 成员可以自行退出
type Service struct {
	store    Store
	users    UserFinder
	gate     MemberGate
	channels ChannelManager
	registry Registry
	logger   *slog.Logger
}

// NewService 创建群组服务
func NewService(store Store, users UserFinder, gate MemberGate, channels ChannelManager, registry Registry, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		gate:     gate,
		channels: channels,
		registry: registry,
		logger:   logger,
	}
}

// Create 创建群组，创建者自动成为 Owner
func (s *Service) Create(ctx context.Context, creatorID, name, description string, isPrivate bool) (*model.Group, error) {
	if name == "" {
		return nil, errors.ErrInvalidParams
	}

	group := &model.Group{
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
		IsPrivate:   isPrivate,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Create(ctx, group); err != nil {
		return nil, err
	}

	if err := s.store.AddMember(ctx, group.ID, creatorID, model.RoleOwner, time.Now()); err != nil {
		return nil, err
	}
	s.subscribeIfOnline(group.ID, creatorID)

	s.logger.Info("Group created",
		"group_id", group.ID,
		"creator_id", creatorID)
	return group, nil
}

// Get 获取群组详情，仅限群成员
func (s *Service) Get(ctx context.Context, userID string, groupID int64) (*model.Group, error) {
	if _, err := s.gate.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, groupID)
}

// ListMine 获取用户所属的群组
func (s *Service) ListMine(ctx context.Context, userID string) ([]model.Group, error) {
	return s.store.ListForUser(ctx, userID)
}

// Update 更新群组资料，需要 Admin 及以上角色
func (s *Service) Update(ctx context.Context, userID string, groupID int64, name, description string, isPrivate bool) error {
	if name == "" {
		return errors.ErrInvalidParams
	}
	if _, err := s.gate.RequireRole(ctx, groupID, userID, model.RoleAdmin); err != nil {
		return err
	}
	return s.store.Update(ctx, groupID, name, description, isPrivate)
}

// Delete 解散群组，仅限 Owner
// 同步撤销全部在线连接的频道订阅
func (s *Service) Delete(ctx context.Context, userID string, groupID int64) error {
	if _, err := s.gate.RequireRole(ctx, groupID, userID, model.RoleOwner); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, groupID); err != nil {
		return err
	}

	revoked := s.channels.RevokeGroup(groupID)
	s.logger.Info("Group deleted",
		"group_id", groupID,
		"owner_id", userID,
		"revoked_subscribers", len(revoked))
	return nil
}

// AddMember 添加成员，需要 Admin 及以上角色
// 重复添加返回 ErrAlreadyMember；新成员在线时立即订阅频道
func (s *Service) AddMember(ctx context.Context, actorID string, groupID int64, newUserID string) error {
	if _, err := s.gate.RequireRole(ctx, groupID, actorID, model.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, newUserID); err != nil {
		return err
	}

	if err := s.store.AddMember(ctx, groupID, newUserID, model.RoleMember, time.Now()); err != nil {
		return err
	}
	s.subscribeIfOnline(groupID, newUserID)
	return nil
}

// RemoveMember 移除成员：本人可自行退出，移除他人需要 Admin 及以上角色
// 同步撤销被移除成员的在线频道订阅
func (s *Service) RemoveMember(ctx context.Context, actorID string, groupID int64, targetID string) error {
	if actorID != targetID {
		if _, err := s.gate.RequireRole(ctx, groupID, actorID, model.RoleAdmin); err != nil {
			return err
		}
	}

	if err := s.store.RemoveMember(ctx, groupID, targetID); err != nil {
		return err
	}
	s.channels.Unsubscribe(groupID, targetID)
	return nil
}

// Members 获取成员列表，仅限群成员
func (s *Service) Members(ctx context.Context, userID string, groupID int64) ([]model.GroupMember, error) {
	if _, err := s.gate.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, groupID)
}

// subscribeIfOnline 成员在线时把频道订阅同步到内存状态
func (s *Service) subscribeIfOnline(groupID int64, userID string) {
	if s.registry.IsOnline(userID) {
		s.channels.Subscribe(groupID, userID)
	}
}
