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

// MessageRepository 消息仓库
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 保存消息并回填 ID
// sender_name 为发送时刻的快照
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (content, sender_id, sender_name, receiver_id, group_id, type, attachment_url, sent_at, is_edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		msg.Content,
		msg.SenderID,
		msg.SenderName,
		msg.ReceiverID,
		msg.GroupID,
		int(msg.Type),
		msg.AttachmentURL,
		msg.SentAt,
	).Scan(&msg.ID)

	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	return nil
}

// FindByID 根据 ID 查找消息
func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	query := `
		SELECT id, content, sender_id, sender_name, receiver_id, group_id, sent_at, is_edited, edited_at, type, COALESCE(attachment_url, '')
		FROM messages WHERE id = $1
	`

	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrMessageNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}

	return msg, nil
}

// ListConversation 分页获取两个用户之间的私聊消息
// 按发送时间倒序取页，返回前按时间正序排列
func (r *MessageRepository) ListConversation(ctx context.Context, userA, userB string, page, pageSize int) ([]model.Message, error) {
	query := `
		SELECT id, content, sender_id, sender_name, receiver_id, group_id, sent_at, is_edited, edited_at, type, COALESCE(attachment_url, '')
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY sent_at DESC
		OFFSET $3 LIMIT $4
	`

	return r.listPage(ctx, query, userA, userB, (page-1)*pageSize, pageSize)
}

// ListGroupMessages 分页获取群聊消息
func (r *MessageRepository) ListGroupMessages(ctx context.Context, groupID int64, page, pageSize int) ([]model.Message, error) {
	query := `
		SELECT id, content, sender_id, sender_name, receiver_id, group_id, sent_at, is_edited, edited_at, type, COALESCE(attachment_url, '')
		FROM messages
		WHERE group_id = $1
		ORDER BY sent_at DESC
		OFFSET $2 LIMIT $3
	`

	return r.listPage(ctx, query, groupID, (page-1)*pageSize, pageSize)
}

// Update 更新消息内容并标记已编辑
func (r *MessageRepository) Update(ctx context.Context, id int64, content string, editedAt time.Time) error {
	query := `UPDATE messages SET content = $2, is_edited = TRUE, edited_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, content, editedAt)
	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// Delete 硬删除消息（无墓碑）
func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return apperrors.ErrDBError.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) listPage(ctx context.Context, query string, args ...interface{}) ([]model.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, apperrors.ErrDBError.Wrap(err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ErrDBError.Wrap(err)
	}

	// 页内按时间正序返回
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var msg model.Message
	var msgType int
	err := row.Scan(
		&msg.ID,
		&msg.Content,
		&msg.SenderID,
		&msg.SenderName,
		&msg.ReceiverID,
		&msg.GroupID,
		&msg.SentAt,
		&msg.IsEdited,
		&msg.EditedAt,
		&msgType,
		&msg.AttachmentURL,
	)
	if err != nil {
		return nil, err
	}

	msg.Type = model.MessageType(msgType)
	return &msg, nil
}
