package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

// BidRepository отвечает за таблицу bids.
type BidRepository struct {
	db *sqlx.DB
}

func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

// Create сохраняет ставку в статусе pending.
func (r *BidRepository) Create(ctx context.Context, q sqlx.ExtContext, bid *models.Bid) error {
	query := `
		INSERT INTO bids (project_id, freelancer_id, proposal, bid_amount, estimated_days, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	bid.Status = models.BidStatusPending
	if err := q.QueryRowxContext(ctx, query,
		bid.ProjectID, bid.FreelancerID, bid.Proposal, bid.BidAmount, bid.EstimatedDays, bid.Status,
	).Scan(&bid.ID, &bid.CreatedAt, &bid.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("bid repository: create %w", err)
	}
	return nil
}

// GetByID возвращает ставку по идентификатору.
func (r *BidRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Bid, error) {
	return common.GetByID[models.Bid](ctx, q, "bids", id, ErrBidNotFound)
}

// GetForUpdate читает ставку с блокировкой строки.
func (r *BidRepository) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Bid, error) {
	return common.GetForUpdate[models.Bid](ctx, q, "bids", id, ErrBidNotFound)
}

// ExistsForFreelancer проверяет, есть ли у исполнителя ставка на проект в любом статусе.
func (r *BidRepository) ExistsForFreelancer(ctx context.Context, q sqlx.QueryerContext, projectID, freelancerID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS(SELECT 1 FROM bids WHERE project_id = $1 AND freelancer_id = $2)`, projectID, freelancerID)
	if err != nil {
		return false, fmt.Errorf("bid repository: exists %w", err)
	}
	return exists, nil
}

// UpdateStatus меняет статус ставки.
func (r *BidRepository) UpdateStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status string) error {
	result, err := q.ExecContext(ctx, `UPDATE bids SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("bid repository: update status %w", err)
	}
	return requireAffected(result, ErrBidNotFound)
}

// RejectPendingExcept отклоняет все ожидающие ставки проекта, кроме keepID,
// и возвращает отклонённые.
func (r *BidRepository) RejectPendingExcept(ctx context.Context, q sqlx.ExtContext, projectID, keepID uuid.UUID) ([]models.Bid, error) {
	query := `
		UPDATE bids
		SET status = $3, updated_at = NOW()
		WHERE project_id = $1 AND id <> $2 AND status = $4
		RETURNING *
	`
	var rejected []models.Bid
	if err := sqlx.SelectContext(ctx, q, &rejected, query,
		projectID, keepID, models.BidStatusRejected, models.BidStatusPending,
	); err != nil {
		return nil, fmt.Errorf("bid repository: reject pending %w", err)
	}
	return rejected, nil
}

// Delete удаляет ставку.
func (r *BidRepository) Delete(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	result, err := q.ExecContext(ctx, `DELETE FROM bids WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bid repository: delete %w", err)
	}
	return requireAffected(result, ErrBidNotFound)
}

// ListUnlockedForProject возвращает ставки проекта, чьи диалоги-предложения
// разблокированы получателем.
func (r *BidRepository) ListUnlockedForProject(ctx context.Context, q sqlx.QueryerContext, projectID uuid.UUID) ([]models.Bid, error) {
	query := `
		SELECT b.* FROM bids b
		JOIN conversations c ON c.bid_id = b.id
		WHERE b.project_id = $1 AND c.type = $2 AND c.is_unlocked = TRUE
		ORDER BY c.recipient_unlocked_at ASC
	`
	var bids []models.Bid
	if err := sqlx.SelectContext(ctx, q, &bids, query, projectID, models.ConversationTypeProjectProposal); err != nil {
		return nil, fmt.Errorf("bid repository: list unlocked %w", err)
	}
	return bids, nil
}

// ListByProject возвращает ставки проекта в порядке поступления.
func (r *BidRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	if err := r.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE project_id = $1 ORDER BY created_at ASC`, projectID); err != nil {
		return nil, fmt.Errorf("bid repository: list by project %w", err)
	}
	return bids, nil
}

// ListByFreelancer возвращает ставки исполнителя, новые первыми.
func (r *BidRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	var bids []models.Bid
	if err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset); err != nil {
		return nil, fmt.Errorf("bid repository: list by freelancer %w", err)
	}
	return bids, nil
}
