package repository

import (
	"errors"

	"github.com/ignatzorin/tokenbid-backend/internal/repository/common"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrBidNotFound          = errors.New("bid not found")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSavedProjectNotFound = errors.New("saved project not found")

	// ErrInsufficientBalance условное списание не прошло: баланс ушёл бы в минус.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConnectionActive между парой уже есть живая связь того же типа.
	ErrConnectionActive = errors.New("active connection already exists")
	// ErrConnectionEstablished пара уже соединена оплаченной связью, строка не перезаписывается.
	ErrConnectionEstablished = errors.New("connection already established")
	// ErrDuplicate нарушено уникальное ограничение.
	ErrDuplicate = common.ErrAlreadyExists
)
