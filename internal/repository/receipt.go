package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
)

// ReadReceiptRepository 已读回执仓库
type ReadReceiptRepository struct {
	db *pgxpool.Pool
}

// NewReadReceiptRepository 创建已读回执仓库
func NewReadReceiptRepository(db *pgxpool.Pool) *ReadReceiptRepository {
	return &ReadReceiptRepository{db: db}
}

// Insert 幂等插入已读回执
// 返回本次调用是否真正插入了新行，(message_id, user_id) 已存在时返回 false
func (r *ReadReceiptRepository) Insert(ctx context.Context, messageID int64, userID string, readAt time.Time) (bool, error) {
	query := `
		INSERT INTO message_reads (message_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, messageID, userID, readAt)
	if err != nil {
		return false, apperrors.ErrDBError.Wrap(err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListForMessage 获取消息的所有已读回执
func (r *ReadReceiptRepository) ListForMessage(ctx context.Context, messageID int64) ([]model.ReadReceipt, error) {
	query := `
		SELECT message_id, user_id, read_at
		FROM message_reads WHERE message_id = $1
		ORDER BY read_at
	`

	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var receipts []model.ReadReceipt
	for rows.Next() {
		var receipt model.ReadReceipt
		if err := rows.Scan(&receipt.MessageID, &receipt.UserID, &receipt.ReadAt); err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		receipts = append(receipts, receipt)
	}

	return receipts, rows.Err()
}
