package service

import (
	"errors"

	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
)

// translate переводит ошибки хранилища в таксономию apperror.
// Ошибки, уже являющиеся AppError, и прочие ошибки возвращаются как есть.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrProjectNotFound):
		return apperror.ErrProjectNotFound
	case errors.Is(err, repository.ErrBidNotFound):
		return apperror.ErrBidNotFound
	case errors.Is(err, repository.ErrConversationNotFound):
		return apperror.ErrConversationNotFound
	case errors.Is(err, repository.ErrConnectionNotFound):
		return apperror.ErrConnectionNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrSavedProjectNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "проект не сохранён")
	case errors.Is(err, repository.ErrNotificationNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
	case errors.Is(err, repository.ErrWalletNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "кошелёк не найден")
	case errors.Is(err, repository.ErrInsufficientBalance):
		return apperror.Wrap(err, apperror.ErrCodeInsufficientBalance, "недостаточно токенов")
	case errors.Is(err, repository.ErrConnectionEstablished):
		return apperror.Wrap(err, apperror.ErrCodeConflict, "с этим пользователем уже есть оплаченная связь")
	case errors.Is(err, repository.ErrConnectionActive):
		return apperror.Wrap(err, apperror.ErrCodeConflict, "с этим пользователем уже есть активная связь")
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(err, apperror.ErrCodeConflict, "запись уже существует")
	}

	return err
}
