package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Exists проверяет, оставлял ли reviewer отзыв о reviewee по проекту.
func (r *ReviewRepository) Exists(ctx context.Context, q sqlx.QueryerContext, reviewerID, revieweeID, projectID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, `
		SELECT EXISTS(SELECT 1 FROM reviews WHERE reviewer_id = $1 AND reviewee_id = $2 AND project_id = $3)
	`, reviewerID, revieweeID, projectID)
	if err != nil {
		return false, fmt.Errorf("review repository: exists %w", err)
	}
	return exists, nil
}

// Create создаёт отзыв. Повтор тройки (reviewer, reviewee, project) даёт ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, q sqlx.ExtContext, review *models.Review) error {
	query := `
		INSERT INTO reviews (reviewer_id, reviewee_id, project_id, rating, comment, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if review.Tags == nil {
		review.Tags = []string{}
	}
	if err := q.QueryRowxContext(ctx, query,
		review.ReviewerID, review.RevieweeID, review.ProjectID, review.Rating, review.Comment, review.Tags,
	).Scan(&review.ID, &review.CreatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// ListByReviewee возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE reviewee_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, revieweeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by reviewee %w", err)
	}
	return reviews, nil
}
