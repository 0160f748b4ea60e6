package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, first_name, last_name, COALESCE(profile_picture, ''), is_online, last_seen, created_at
		FROM users WHERE id = $1
	`

	var user model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.ProfilePicture,
		&user.IsOnline,
		&user.LastSeen,
		&user.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}

	return &user, nil
}

// SetPresence 更新用户在线状态和最后在线时间
func (r *UserRepository) SetPresence(ctx context.Context, id string, isOnline bool, lastSeen time.Time) error {
	query := `UPDATE users SET is_online = $2, last_seen = $3 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, isOnline, lastSeen); err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}

// ListOnline 获取在线用户列表
func (r *UserRepository) ListOnline(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, email, first_name, last_name, COALESCE(profile_picture, ''), is_online, last_seen, created_at
		FROM users WHERE is_online = TRUE
		ORDER BY last_seen DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Search 按名称或邮箱搜索用户
func (r *UserRepository) Search(ctx context.Context, keyword string, limit int) ([]model.User, error) {
	query := `
		SELECT id, email, first_name, last_name, COALESCE(profile_picture, ''), is_online, last_seen, created_at
		FROM users
		WHERE first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR email ILIKE '%' || $1 || '%'
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, keyword, limit)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.ProfilePicture,
			&user.IsOnline,
			&user.LastSeen,
			&user.CreatedAt,
		); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
