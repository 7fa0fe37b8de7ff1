package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

// UserRepository отвечает за работу с таблицами users и sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя. Занятый email даёт ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, roles, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, rating, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Roles,
	).Scan(&user.ID, &user.Rating, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, q, "users", id, ErrUserNotFound)
}

// LockForUpdate блокирует строку пользователя до конца транзакции.
// Используется, чтобы сериализовать пересчёт рейтинга.
func (r *UserRepository) LockForUpdate(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	var locked uuid.UUID
	if err := sqlx.GetContext(ctx, q, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: lock %w", err)
	}
	return nil
}

// RecomputeRating записывает в users.rating точное среднее всех полученных оценок.
func (r *UserRepository) RecomputeRating(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (float64, error) {
	query := `
		UPDATE users
		SET rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE reviewee_id = $1), 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING rating
	`
	var rating float64
	if err := q.QueryRowxContext(ctx, query, id).Scan(&rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("user repository: recompute rating %w", err)
	}
	return rating, nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// DeleteSession удаляет сессию по refresh токену.
// Отсутствие сессии (токен уже использован или отозван) даёт ErrSessionNotFound.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	return requireAffected(result, ErrSessionNotFound)
}

// UpdateProfile меняет имя и роли пользователя и возвращает обновлённую строку.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, roles []string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $2, roles = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id, name, pq.StringArray(roles)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update profile %w", err)
	}
	return &user, nil
}

// UpdatePassword сохраняет новый хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}
	return requireAffected(result, ErrUserNotFound)
}

// DeleteAllSessionsExcept удаляет все сессии пользователя кроме указанной.
// Пустой exceptRefreshToken удаляет все сессии.
func (r *UserRepository) DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, exceptRefreshToken string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND refresh_token <> $2`, userID, exceptRefreshToken)
	if err != nil {
		return 0, fmt.Errorf("user repository: delete all sessions except %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
