package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

// ProjectRepository отвечает за таблицу projects.
type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create сохраняет новый проект.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (client_id, title, description, ai_summary, budget_min, budget_max, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		project.ClientID, project.Title, project.Description, project.AISummary,
		project.BudgetMin, project.BudgetMax, project.Status,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return fmt.Errorf("project repository: create %w", err)
	}
	return nil
}

// GetByID возвращает проект по идентификатору.
func (r *ProjectRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error) {
	return common.GetByID[models.Project](ctx, q, "projects", id, ErrProjectNotFound)
}

// GetForShare читает проект, запрещая его изменение до конца транзакции.
func (r *ProjectRepository) GetForShare(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error) {
	return common.GetForShare[models.Project](ctx, q, "projects", id, ErrProjectNotFound)
}

// GetForUpdate читает проект с блокировкой строки.
func (r *ProjectRepository) GetForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Project, error) {
	return common.GetForUpdate[models.Project](ctx, q, "projects", id, ErrProjectNotFound)
}

// UpdateStatus меняет статус проекта.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status string) error {
	result, err := q.ExecContext(ctx, `UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("project repository: update status %w", err)
	}
	return requireAffected(result, ErrProjectNotFound)
}

// SetAcceptedBid переводит проект в работу с принятой ставкой.
func (r *ProjectRepository) SetAcceptedBid(ctx context.Context, q sqlx.ExtContext, id, bidID uuid.UUID) error {
	query := `
		UPDATE projects
		SET status = $3, accepted_bid_id = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, query, id, bidID, models.ProjectStatusInProgress)
	if err != nil {
		return fmt.Errorf("project repository: set accepted bid %w", err)
	}
	return requireAffected(result, ErrProjectNotFound)
}

// ListByClient возвращает проекты заказчика, новые первыми.
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, `
		SELECT * FROM projects WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("project repository: list by client %w", err)
	}
	return projects, nil
}
