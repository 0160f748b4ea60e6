package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// GroupRepository 群组仓库
// 覆盖群组实体和 (group_id, user_id) 唯一的成员关系
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository 创建群组仓库
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create 创建群组
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	query := `
		INSERT INTO groups (name, description, group_picture, created_by, is_private, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		group.Name,
		group.Description,
		group.GroupPicture,
		group.CreatedBy,
		group.IsPrivate,
		group.CreatedAt,
	).Scan(&group.ID)

	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}

// FindByID 根据 ID 查找群组
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*model.Group, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), COALESCE(group_picture, ''), created_by, is_private, created_at
		FROM groups WHERE id = $1
	`

	var group model.Group
	err := r.db.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.GroupPicture,
		&group.CreatedBy,
		&group.IsPrivate,
		&group.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrGroupNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}

	return &group, nil
}

// Update 更新群组资料
func (r *GroupRepository) Update(ctx context.Context, id int64, name, description string, isPrivate bool) error {
	query := `UPDATE groups SET name = $2, description = $3, is_private = $4 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, name, description, isPrivate)
	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrGroupNotFound
	}
	return nil
}

// Delete 删除群组（成员关系级联删除）
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrGroupNotFound
	}
	return nil
}

// ListForUser 获取用户所属的群组
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]model.Group, error) {
	query := `
		SELECT g.id, g.name, COALESCE(g.description, ''), COALESCE(g.group_picture, ''), g.created_by, g.is_private, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var group model.Group
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.GroupPicture,
			&group.CreatedBy,
			&group.IsPrivate,
			&group.CreatedAt,
		); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// AddMember 添加群组成员
// 重复添加返回 ErrAlreadyMember
func (r *GroupRepository) AddMember(ctx context.Context, groupID int64, userID string, role model.GroupRole, joinedAt time.Time) error {
	query := `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, groupID, userID, int(role), joinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperrors.ErrAlreadyMember
		}
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}

// RemoveMember 移除群组成员
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID int64, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMembershipMissing
	}
	return nil
}

// FindMembership 查找成员关系
// 不存在时返回 (nil, nil)，供授权检查区分"无成员关系"和存储故障
func (r *GroupRepository) FindMembership(ctx context.Context, groupID int64, userID string) (*model.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = $1 AND user_id = $2
	`

	var member model.GroupMember
	var role int
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&role,
		&member.JoinedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}

	member.Role = model.GroupRole(role)
	return &member, nil
}

// ListMembers 获取群组成员关系列表
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]model.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = $1
		ORDER BY joined_at
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var members []model.GroupMember
	for rows.Next() {
		var member model.GroupMember
		var role int
		if err := rows.Scan(&member.GroupID, &member.UserID, &role, &member.JoinedAt); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		member.Role = model.GroupRole(role)
		members = append(members, member)
	}

	return members, rows.Err()
}

// ListMemberIDs 获取群组成员 ID 列表
func (r *GroupRepository) ListMemberIDs(ctx context.Context, groupID int64) ([]string, error) {
	query := `SELECT user_id FROM group_members WHERE group_id = $1`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		members = append(members, userID)
	}

	return members, rows.Err()
}

// ListCoMemberIDs 获取与用户至少共享一个群组的用户 ID 列表，不含用户本人
// 在线状态变化只推送给这些用户
func (r *GroupRepository) ListCoMemberIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT gm.user_id
		FROM group_members gm
		WHERE gm.group_id IN (SELECT group_id FROM group_members WHERE user_id = $1)
		  AND gm.user_id <> $1
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}

// ListGroupIDsForUser 获取用户所属群组 ID 列表（连接时订阅频道用）
func (r *GroupRepository) ListGroupIDsForUser(ctx context.Context, userID string) ([]int64, error) {
	query := `SELECT group_id FROM group_members WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var groupIDs []int64
	for rows.Next() {
		var groupID int64
		if err := rows.Scan(&groupID); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		groupIDs = append(groupIDs, groupID)
	}

	return groupIDs, rows.Err()
}
