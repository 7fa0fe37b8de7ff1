package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// WalletRepository работает с таблицами user_tokens и token_transactions.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Ensure создаёт кошелёк с начальным балансом, если его ещё нет.
// Возвращает true, если кошелёк был создан этим вызовом.
func (r *WalletRepository) Ensure(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, initial int64) (bool, error) {
	query := `
		INSERT INTO user_tokens (user_id, balance, total_earned)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id
	`
	var id uuid.UUID
	err := q.QueryRowxContext(ctx, query, userID, initial).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("wallet repository: ensure %w", err)
	}
	return true, nil
}

// Get возвращает кошелёк пользователя.
func (r *WalletRepository) Get(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := sqlx.GetContext(ctx, q, &wallet, `SELECT * FROM user_tokens WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet repository: get %w", err)
	}
	return &wallet, nil
}

// ApplyDelta атомарно меняет баланс на delta и возвращает новый баланс.
// Проверка неотрицательности выполняется в том же UPDATE, поэтому
// параллельные списания не могут увести баланс в минус.
func (r *WalletRepository) ApplyDelta(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE user_tokens
		SET balance = balance + $2,
		    total_earned = total_earned + GREATEST($2::bigint, 0),
		    total_spent = total_spent + GREATEST(-$2::bigint, 0),
		    updated_at = NOW()
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING balance
	`
	var balance int64
	err := q.QueryRowxContext(ctx, query, userID, delta).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// строки нет или не хватает средств; кошелёк к этому моменту уже создан
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("wallet repository: apply delta %w", err)
	}
	return balance, nil
}

// InsertTransaction добавляет запись в журнал токенов.
func (r *WalletRepository) InsertTransaction(ctx context.Context, q sqlx.ExtContext, t *models.TokenTransaction) error {
	query := `
		INSERT INTO token_transactions (user_id, amount, balance_after, transaction_type, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := q.QueryRowxContext(ctx, query,
		t.UserID, t.Amount, t.BalanceAfter, t.Type, t.ReferenceID, t.Description,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("wallet repository: insert transaction %w", err)
	}
	return nil
}

// ListTransactions возвращает журнал пользователя, новые записи первыми.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TokenTransaction, error) {
	query := `
		SELECT * FROM token_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	var txs []models.TokenTransaction
	if err := r.db.SelectContext(ctx, &txs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("wallet repository: list transactions %w", err)
	}
	return txs, nil
}
