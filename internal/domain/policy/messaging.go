// Package policy содержит чистые правила доступа: без хранилища и без времени
// выполнения запроса, всё состояние передаётся аргументами.
package policy

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// ConversationAccess минимальное состояние диалога для проверки прав.
type ConversationAccess struct {
	Type        string
	InitiatorID uuid.UUID
	RecipientID uuid.UUID
	IsUnlocked  bool
}

// AccessOf извлекает состояние доступа из диалога.
func AccessOf(c *models.Conversation) ConversationAccess {
	return ConversationAccess{
		Type:        c.Type,
		InitiatorID: c.InitiatorID,
		RecipientID: c.RecipientID,
		IsUnlocked:  c.IsUnlocked,
	}
}

// Unlocked прямой диалог открыт с момента создания.
func (a ConversationAccess) Unlocked() bool {
	return a.Type == models.ConversationTypeDirect || a.IsUnlocked
}

func (a ConversationAccess) isParticipant(userID uuid.UUID) bool {
	return userID == a.InitiatorID || userID == a.RecipientID
}

// CanRead читать диалог могут оба участника, в том числе до разблокировки.
func CanRead(a ConversationAccess, userID uuid.UUID) error {
	if !a.isParticipant(userID) {
		return apperror.New(apperror.ErrCodeForbidden, "вы не участник этого диалога")
	}
	return nil
}

// CanSend проверяет право отправить сообщение.
// До разблокировки инициатор уже отправил предложение и ждёт ответа,
// а получатель должен сначала оплатить разблокировку.
func CanSend(a ConversationAccess, senderID uuid.UUID) error {
	if err := CanRead(a, senderID); err != nil {
		return err
	}
	if a.Unlocked() {
		return nil
	}
	if senderID == a.InitiatorID {
		return apperror.New(apperror.ErrCodeLocked, "предложение отправлено, дождитесь, пока получатель его откроет")
	}
	return apperror.New(apperror.ErrCodeLocked, "сначала разблокируйте предложение, чтобы ответить")
}
