package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

// NotificationRepository 通知仓库
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 创建通知并回填 ID
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (title, content, user_id, type, related_entity_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		n.Title,
		n.Content,
		n.UserID,
		int(n.Type),
		n.RelatedEntityID,
		n.CreatedAt,
	).Scan(&n.ID)

	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}

// ListForUser 获取用户通知，按创建时间倒序
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	query := `
		SELECT id, title, content, user_id, type, COALESCE(related_entity_id, ''), is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var nType int
		if err := rows.Scan(
			&n.ID,
			&n.Title,
			&n.Content,
			&n.UserID,
			&nType,
			&n.RelatedEntityID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		n.Type = model.NotificationType(nType)
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead 标记通知已读
// 只有所属用户可以修改，非本人或不存在时为空操作
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID int64, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	if _, err := r.db.Exec(ctx, query, notificationID, userID); err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}

// MarkAllRead 标记用户所有通知已读
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}
