package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/valueobject"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
)

// LedgerService ведёт токен-балансы. Debit и Credit работают только внутри
// транзакции вызывающего и всегда пишут запись в журнал.
type LedgerService struct {
	tx      TxRunner
	wallets WalletRepository
	metrics Metrics
}

func NewLedgerService(tx TxRunner, wallets WalletRepository, metrics Metrics) *LedgerService {
	return &LedgerService{tx: tx, wallets: wallets, metrics: metricsOrNoop(metrics)}
}

// EnsureWallet создаёт кошелёк со стартовым грантом, если его нет.
// Грант записывается в журнал в той же транзакции, поэтому баланс всегда
// равен сумме транзакций пользователя.
func (s *LedgerService) EnsureWallet(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) error {
	created, err := s.wallets.Ensure(ctx, q, userID, valueobject.SignupGrant)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	desc := "signup grant"
	return s.wallets.InsertTransaction(ctx, q, &models.TokenTransaction{
		UserID:       userID,
		Amount:       valueobject.SignupGrant,
		BalanceAfter: valueobject.SignupGrant,
		Type:         models.TransactionTypePlatformFee,
		Description:  &desc,
	})
}

// Debit списывает amount токенов. Нехватка средств даёт InsufficientBalance.
func (s *LedgerService) Debit(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, amount int64, txType string, ref *uuid.UUID, desc string) (*models.TokenTransaction, error) {
	if _, err := valueobject.NewTokenAmount(amount); err != nil {
		return nil, err
	}
	return s.apply(ctx, q, userID, -amount, txType, ref, desc)
}

// Credit начисляет amount токенов.
func (s *LedgerService) Credit(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, amount int64, txType string, ref *uuid.UUID, desc string) (*models.TokenTransaction, error) {
	if _, err := valueobject.NewTokenAmount(amount); err != nil {
		return nil, err
	}
	return s.apply(ctx, q, userID, amount, txType, ref, desc)
}

func (s *LedgerService) apply(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID, delta int64, txType string, ref *uuid.UUID, desc string) (*models.TokenTransaction, error) {
	if err := s.EnsureWallet(ctx, q, userID); err != nil {
		return nil, err
	}

	balance, err := s.wallets.ApplyDelta(ctx, q, userID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, apperror.Wrap(err, apperror.ErrCodeInsufficientBalance,
				fmt.Sprintf("недостаточно токенов: требуется %d", -delta))
		}
		return nil, err
	}

	entry := &models.TokenTransaction{
		UserID:       userID,
		Amount:       delta,
		BalanceAfter: balance,
		Type:         txType,
		ReferenceID:  ref,
	}
	if desc != "" {
		entry.Description = &desc
	}
	if err := s.wallets.InsertTransaction(ctx, q, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetBalance возвращает кошелёк пользователя, создавая его при первом обращении.
func (s *LedgerService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if err := s.EnsureWallet(ctx, q, userID); err != nil {
			return err
		}
		var err error
		wallet, err = s.wallets.Get(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return wallet, nil
}

// ListTransactions возвращает журнал пользователя, новые записи первыми.
func (s *LedgerService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TokenTransaction, error) {
	limit, offset = normalizePage(limit, offset)
	return s.wallets.ListTransactions(ctx, userID, limit, offset)
}

// PurchaseResult итог покупки токенов.
type PurchaseResult struct {
	Amount  int64 `json:"amount"`
	Bonus   int64 `json:"bonus"`
	Balance int64 `json:"balance"`
}

// PurchaseTokens начисляет купленный пакет и бонус к нему одной транзакцией.
// Оплата через платёжный шлюз выполняется вне сервиса.
func (s *LedgerService) PurchaseTokens(ctx context.Context, userID uuid.UUID, amount int64) (*PurchaseResult, error) {
	if _, err := valueobject.NewTokenAmount(amount); err != nil {
		return nil, err
	}
	bonus := valueobject.PurchaseBonus(amount)

	result := &PurchaseResult{Amount: amount, Bonus: bonus}
	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		entry, err := s.Credit(ctx, q, userID, amount, models.TransactionTypePurchase, nil, "purchase")
		if err != nil {
			return err
		}
		result.Balance = entry.BalanceAfter

		if bonus > 0 {
			entry, err = s.Credit(ctx, q, userID, bonus, models.TransactionTypePurchase, nil, "purchase bonus")
			if err != nil {
				return err
			}
			result.Balance = entry.BalanceAfter
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.TokensMoved(models.TransactionTypePurchase, amount+bonus)
	return result, nil
}
