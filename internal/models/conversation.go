package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation описывает диалог между двумя пользователями.
// Для project_proposal диалог создаётся вместе со ставкой и заблокирован,
// пока получатель не оплатит разблокировку.
type Conversation struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	Type                string     `db:"type" json:"type"`
	ProjectID           *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	BidID               *uuid.UUID `db:"bid_id" json:"bid_id,omitempty"`
	InitiatorID         uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	RecipientID         uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	InitiatorPaid       bool       `db:"initiator_paid" json:"initiator_paid"`
	RecipientPaid       bool       `db:"recipient_paid" json:"recipient_paid"`
	IsUnlocked          bool       `db:"is_unlocked" json:"is_unlocked"`
	InitiatorUnlockedAt *time.Time `db:"initiator_unlocked_at" json:"initiator_unlocked_at,omitempty"`
	RecipientUnlockedAt *time.Time `db:"recipient_unlocked_at" json:"recipient_unlocked_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// IsParticipant проверяет, участвует ли пользователь в диалоге.
func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return c.InitiatorID == userID || c.RecipientID == userID
}

// Counterpart возвращает второго участника диалога.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.InitiatorID == userID {
		return c.RecipientID
	}
	return c.InitiatorID
}

// Message описывает сообщение в диалоге.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Connection отслеживает взаимную разблокировку контакта двух пользователей.
type Connection struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	InitiatorID         uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	RecipientID         uuid.UUID  `db:"recipient_id" json:"recipient_id"`
	ConnectionType      string     `db:"connection_type" json:"connection_type"`
	Status              string     `db:"status" json:"status"`
	ConversationID      *uuid.UUID `db:"conversation_id" json:"conversation_id,omitempty"`
	InitiatorUnlockedAt *time.Time `db:"initiator_unlocked_at" json:"initiator_unlocked_at,omitempty"`
	RecipientUnlockedAt *time.Time `db:"recipient_unlocked_at" json:"recipient_unlocked_at,omitempty"`
	ExpiresAt           *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// FullyConnected true, когда обе стороны разблокировали связь.
func (c *Connection) FullyConnected() bool {
	return c.InitiatorUnlockedAt != nil && c.RecipientUnlockedAt != nil
}

// Notification описывает событие, отправленное пользователю.
type Notification struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	Type             string     `db:"type" json:"type"`
	Title            string     `db:"title" json:"title"`
	Content          string     `db:"content" json:"content"`
	RelatedProjectID *uuid.UUID `db:"related_project_id" json:"related_project_id,omitempty"`
	RelatedBidID     *uuid.UUID `db:"related_bid_id" json:"related_bid_id,omitempty"`
	IsRead           bool       `db:"is_read" json:"is_read"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
