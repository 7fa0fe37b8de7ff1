package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

// TxManager открывает транзакции для многошаговых операций сервисов.
// Внутри fn все обращения к репозиториям должны идти через переданный q.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTx выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
func (m *TxManager) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	return common.WithTransaction(ctx, m.db, func(tx *sqlx.Tx) error {
		return fn(tx)
	})
}

// DB возвращает пул соединений для чтений вне транзакции.
func (m *TxManager) DB() sqlx.ExtContext {
	return m.db
}
