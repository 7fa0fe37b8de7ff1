package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// ConnectionRepository отвечает за таблицу user_connections.
type ConnectionRepository struct {
	db *sqlx.DB
}

func NewConnectionRepository(db *sqlx.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Insert создаёт связь пары пользователей.
//
// Если строка с тем же (initiator, recipient, type) уже есть, она перезаписывается
// только когда прежняя связь разобрана: её диалог удалён, либо она не connected
// и истекла или ставка, породившая предложение, уже не в ожидании.
// Оплаченная связь не трогается: возвращается ErrConnectionEstablished.
// Иначе возвращается ErrConnectionActive.
func (r *ConnectionRepository) Insert(ctx context.Context, q sqlx.ExtContext, c *models.Connection, now time.Time) error {
	insert := `
		INSERT INTO user_connections (
			initiator_id, recipient_id, connection_type, status, conversation_id,
			initiator_unlocked_at, recipient_unlocked_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (initiator_id, recipient_id, connection_type) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	args := []interface{}{
		c.InitiatorID, c.RecipientID, c.ConnectionType, c.Status, c.ConversationID,
		c.InitiatorUnlockedAt, c.RecipientUnlockedAt, c.ExpiresAt,
	}

	err := q.QueryRowxContext(ctx, insert, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("connection repository: insert %w", err)
	}

	replace := `
		UPDATE user_connections uc
		SET status = $4, conversation_id = $5, initiator_unlocked_at = $6,
		    recipient_unlocked_at = $7, expires_at = $8, created_at = $9, updated_at = $9
		WHERE uc.initiator_id = $1 AND uc.recipient_id = $2 AND uc.connection_type = $3
		  AND (
		        uc.conversation_id IS NULL
		     OR NOT EXISTS (SELECT 1 FROM conversations cv WHERE cv.id = uc.conversation_id)
		     OR (uc.status <> 'connected' AND (
		            uc.status = 'expired'
		         OR (uc.status = 'pending' AND uc.expires_at IS NOT NULL AND uc.expires_at < $9)
		         OR (uc.connection_type = 'project_proposal' AND NOT EXISTS (
		                SELECT 1 FROM conversations cv
		                JOIN bids b ON b.id = cv.bid_id
		                WHERE cv.id = uc.conversation_id AND b.status = 'pending'
		            ))
		        ))
		  )
		RETURNING id, created_at, updated_at
	`
	err = q.QueryRowxContext(ctx, replace, append(args, now)...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("connection repository: replace %w", err)
	}

	var status string
	if err := sqlx.GetContext(ctx, q, &status, `
		SELECT status FROM user_connections
		WHERE initiator_id = $1 AND recipient_id = $2 AND connection_type = $3
	`, c.InitiatorID, c.RecipientID, c.ConnectionType); err != nil {
		return fmt.Errorf("connection repository: existing status %w", err)
	}
	if status == models.ConnectionStatusConnected {
		return ErrConnectionEstablished
	}
	return ErrConnectionActive
}

// GetByConversation возвращает связь, привязанную к диалогу.
func (r *ConnectionRepository) GetByConversation(ctx context.Context, q sqlx.QueryerContext, conversationID uuid.UUID) (*models.Connection, error) {
	var conn models.Connection
	if err := sqlx.GetContext(ctx, q, &conn, `SELECT * FROM user_connections WHERE conversation_id = $1`, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("connection repository: get by conversation %w", err)
	}
	return &conn, nil
}

// MarkRecipientUnlocked переводит связь диалога в connected и снимает срок действия.
func (r *ConnectionRepository) MarkRecipientUnlocked(ctx context.Context, q sqlx.ExtContext, conversationID uuid.UUID, at time.Time) error {
	query := `
		UPDATE user_connections
		SET recipient_unlocked_at = $2, status = $3, expires_at = NULL, updated_at = NOW()
		WHERE conversation_id = $1
	`
	result, err := q.ExecContext(ctx, query, conversationID, at, models.ConnectionStatusConnected)
	if err != nil {
		return fmt.Errorf("connection repository: mark unlocked %w", err)
	}
	return requireAffected(result, ErrConnectionNotFound)
}

// ExistsDirectBetween проверяет наличие прямой связи между пользователями в любом направлении.
func (r *ConnectionRepository) ExistsDirectBetween(ctx context.Context, q sqlx.QueryerContext, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_connections
			WHERE connection_type = $3
			  AND ((initiator_id = $1 AND recipient_id = $2) OR (initiator_id = $2 AND recipient_id = $1))
		)
	`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, a, b, models.ConversationTypeDirect); err != nil {
		return false, fmt.Errorf("connection repository: exists direct %w", err)
	}
	return exists, nil
}

// ListBetween возвращает все связи пары пользователей в любом направлении.
func (r *ConnectionRepository) ListBetween(ctx context.Context, a, b uuid.UUID) ([]models.Connection, error) {
	query := `
		SELECT * FROM user_connections
		WHERE (initiator_id = $1 AND recipient_id = $2) OR (initiator_id = $2 AND recipient_id = $1)
		ORDER BY updated_at DESC
	`
	var conns []models.Connection
	if err := r.db.SelectContext(ctx, &conns, query, a, b); err != nil {
		return nil, fmt.Errorf("connection repository: list between %w", err)
	}
	return conns, nil
}

// ListForUser возвращает связи пользователя.
func (r *ConnectionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	var conns []models.Connection
	if err := r.db.SelectContext(ctx, &conns, `
		SELECT * FROM user_connections
		WHERE initiator_id = $1 OR recipient_id = $1
		ORDER BY updated_at DESC
	`, userID); err != nil {
		return nil, fmt.Errorf("connection repository: list for user %w", err)
	}
	return conns, nil
}

// DeleteByConversations удаляет связи, ссылающиеся на диалоги.
func (r *ConnectionRepository) DeleteByConversations(ctx context.Context, q sqlx.ExtContext, conversationIDs []uuid.UUID) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	result, err := q.ExecContext(ctx, `DELETE FROM user_connections WHERE conversation_id = ANY($1)`, pq.Array(uuidStrings(conversationIDs)))
	if err != nil {
		return 0, fmt.Errorf("connection repository: delete %w", err)
	}
	return result.RowsAffected()
}
