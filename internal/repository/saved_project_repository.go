package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

// SavedProjectRepository хранит закладки пользователей на проекты.
type SavedProjectRepository struct {
	db *sqlx.DB
}

func NewSavedProjectRepository(db *sqlx.DB) *SavedProjectRepository {
	return &SavedProjectRepository{db: db}
}

// Save добавляет проект в закладки. Повторное сохранение даёт ErrDuplicate.
func (r *SavedProjectRepository) Save(ctx context.Context, userID, projectID uuid.UUID) (*models.SavedProject, error) {
	var saved models.SavedProject
	err := r.db.GetContext(ctx, &saved, `
		INSERT INTO saved_projects (user_id, project_id)
		VALUES ($1, $2)
		RETURNING user_id, project_id, created_at
	`, userID, projectID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("saved project repository: save %w", err)
	}
	return &saved, nil
}

func (r *SavedProjectRepository) Remove(ctx context.Context, userID, projectID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_projects WHERE user_id = $1 AND project_id = $2`, userID, projectID)
	if err != nil {
		return fmt.Errorf("saved project repository: remove %w", err)
	}
	return requireAffected(result, ErrSavedProjectNotFound)
}

// ListProjects возвращает сохранённые проекты, последние сохранённые первыми.
func (r *SavedProjectRepository) ListProjects(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, `
		SELECT p.* FROM saved_projects s
		JOIN projects p ON p.id = s.project_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("saved project repository: list %w", err)
	}
	return projects, nil
}
