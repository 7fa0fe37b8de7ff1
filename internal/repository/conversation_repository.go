package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

// ConversationRepository отвечает за таблицу conversations.
type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create сохраняет диалог.
func (r *ConversationRepository) Create(ctx context.Context, q sqlx.ExtContext, c *models.Conversation) error {
	query := `
		INSERT INTO conversations (
			type, project_id, bid_id, initiator_id, recipient_id,
			initiator_paid, recipient_paid, is_unlocked, initiator_unlocked_at, recipient_unlocked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	if err := q.QueryRowxContext(ctx, query,
		c.Type, c.ProjectID, c.BidID, c.InitiatorID, c.RecipientID,
		c.InitiatorPaid, c.RecipientPaid, c.IsUnlocked, c.InitiatorUnlockedAt, c.RecipientUnlockedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("conversation repository: create %w", err)
	}
	return nil
}

// GetByID возвращает диалог по идентификатору.
func (r *ConversationRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, q, "conversations", id, ErrConversationNotFound)
}

// GetForUpdate читает диалог с блокировкой строки.
func (r *ConversationRepository) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Conversation, error) {
	return common.GetForUpdate[models.Conversation](ctx, q, "conversations", id, ErrConversationNotFound)
}

// MarkRecipientUnlocked фиксирует оплату разблокировки получателем.
func (r *ConversationRepository) MarkRecipientUnlocked(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE conversations
		SET recipient_paid = TRUE, recipient_unlocked_at = $2, is_unlocked = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("conversation repository: mark unlocked %w", err)
	}
	return requireAffected(result, ErrConversationNotFound)
}

// Touch обновляет updated_at, чтобы диалог поднялся в списке.
func (r *ConversationRepository) Touch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("conversation repository: touch %w", err)
	}
	return nil
}

// IDsByBid возвращает идентификаторы диалогов, созданных для ставки.
func (r *ConversationRepository) IDsByBid(ctx context.Context, q sqlx.QueryerContext, bidID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, q, &ids, `SELECT id FROM conversations WHERE bid_id = $1`, bidID); err != nil {
		return nil, fmt.Errorf("conversation repository: ids by bid %w", err)
	}
	return ids, nil
}

// DeleteByIDs удаляет диалоги.
func (r *ConversationRepository) DeleteByIDs(ctx context.Context, q sqlx.ExtContext, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := q.ExecContext(ctx, `DELETE FROM conversations WHERE id = ANY($1)`, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("conversation repository: delete %w", err)
	}
	return result.RowsAffected()
}

// ListForUser возвращает диалоги пользователя, недавно активные первыми.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	query := `
		SELECT * FROM conversations
		WHERE initiator_id = $1 OR recipient_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	var conversations []models.Conversation
	if err := r.db.SelectContext(ctx, &conversations, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("conversation repository: list for user %w", err)
	}
	return conversations, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
