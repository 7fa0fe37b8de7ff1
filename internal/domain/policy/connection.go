package policy

import (
	"time"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// EffectiveStatus вычисляет статус связи на момент now.
// Истечение не записывается фоновой задачей: ожидающая связь с прошедшим
// expires_at считается expired при чтении.
func EffectiveStatus(status string, expiresAt *time.Time, now time.Time) string {
	if status == models.ConnectionStatusPending && expiresAt != nil && expiresAt.Before(now) {
		return models.ConnectionStatusExpired
	}
	return status
}

// IsTornDown true, если существующую связь можно перезаписать новой:
// её диалог удалён, либо она ещё не оплачена получателем и истекла или
// ставка, породившая её, уже не в ожидании.
// bidPending относится к ставке диалога связи и для direct всегда false.
func IsTornDown(c *models.Connection, conversationExists, bidPending bool, now time.Time) bool {
	if c.ConversationID == nil || !conversationExists {
		return true
	}
	if c.Status == models.ConnectionStatusConnected {
		return false
	}
	if EffectiveStatus(c.Status, c.ExpiresAt, now) == models.ConnectionStatusExpired {
		return true
	}
	return c.ConnectionType == models.ConversationTypeProjectProposal && !bidPending
}
