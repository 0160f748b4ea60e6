package channel

import (
	"context"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

// MembershipFinder 成员资格查询，由 repository.GroupRepository 实现
type MembershipFinder interface {
	FindMembership(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error)
}

// Gate 群成员资格与角色校验
type Gate struct {
	members MembershipFinder
}

// NewGate 创建校验器
func NewGate(members MembershipFinder) *Gate {
	return &Gate{members: members}
}

// RequireMember 校验用户是群成员，返回成员记录
func (g *Gate) RequireMember(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error) {
	member, err := g.members.FindMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errors.ErrNotGroupMember
	}
	return member, nil
}

// RequireRole 校验用户是群成员且角色不低于 minRole
func (g *Gate) RequireRole(ctx context.Context, groupID int64, userID string, minRole model.GroupRole) (*model.GroupMember, error) {
	member, err := g.RequireMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.AtLeast(minRole) {
		return nil, errors.ErrInsufficientRole
	}
	return member, nil
}
