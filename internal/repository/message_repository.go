package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// MessageRepository отвечает за таблицу messages.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет сообщение.
func (r *MessageRepository) Create(ctx context.Context, q sqlx.ExtContext, m *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`
	if err := q.QueryRowxContext(ctx, query, m.ConversationID, m.SenderID, m.Content).
		Scan(&m.ID, &m.IsRead, &m.CreatedAt); err != nil {
		return fmt.Errorf("message repository: create %w", err)
	}
	return nil
}

// ListByConversation возвращает сообщения в порядке создания.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	query := `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit, offset); err != nil {
		return nil, fmt.Errorf("message repository: list %w", err)
	}
	return messages, nil
}

// DeleteByConversations удаляет все сообщения указанных диалогов.
func (r *MessageRepository) DeleteByConversations(ctx context.Context, q sqlx.ExtContext, conversationIDs []uuid.UUID) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	result, err := q.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ANY($1)`, pq.Array(uuidStrings(conversationIDs)))
	if err != nil {
		return 0, fmt.Errorf("message repository: delete %w", err)
	}
	return result.RowsAffected()
}

// MarkRead отмечает прочитанными сообщения собеседника в диалоге.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("message repository: mark read %w", err)
	}
	return result.RowsAffected()
}

// CountUnread считает непрочитанные входящие сообщения во всех диалогах пользователя.
func (r *MessageRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.initiator_id = $1 OR c.recipient_id = $1)
		  AND m.sender_id <> $1
		  AND m.is_read = FALSE
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("message repository: count unread %w", err)
	}
	return count, nil
}
