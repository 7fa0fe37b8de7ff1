package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet хранит токен-баланс пользователя.
// Баланс не является самостоятельным источником истины: каждое изменение
// сопровождается записью TokenTransaction.
type Wallet struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Balance     int64     `db:"balance" json:"balance"`
	TotalEarned int64     `db:"total_earned" json:"total_earned"`
	TotalSpent  int64     `db:"total_spent" json:"total_spent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TokenTransaction неизменяемая запись журнала токенов.
type TokenTransaction struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Amount       int64      `db:"amount" json:"amount"`
	BalanceAfter int64      `db:"balance_after" json:"balance_after"`
	Type         string     `db:"transaction_type" json:"transaction_type"`
	ReferenceID  *uuid.UUID `db:"reference_id" json:"reference_id,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
