package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/policy"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/validation"
)

// ConversationService отвечает за переписку в диалогах.
type ConversationService struct {
	tx            TxRunner
	conversations ConversationRepository
	messages      MessageRepository
	notifications *NotificationService
}

func NewConversationService(tx TxRunner, repos Repositories, notifications *NotificationService) *ConversationService {
	return &ConversationService{
		tx:            tx,
		conversations: repos.Conversations,
		messages:      repos.Messages,
		notifications: notifications,
	}
}

// SendMessage отправляет сообщение, если диалог разблокирован для отправителя.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*models.Message, error) {
	content = validation.SanitizeText(content)
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var (
		message      *models.Message
		recipientID  uuid.UUID
		notification *models.Notification
	)

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		conversation, err := s.conversations.GetByID(ctx, q, conversationID)
		if err != nil {
			return err
		}
		if err := policy.CanSend(policy.AccessOf(conversation), senderID); err != nil {
			return err
		}

		message = &models.Message{ConversationID: conversation.ID, SenderID: senderID, Content: content}
		if err := s.messages.Create(ctx, q, message); err != nil {
			return err
		}
		if err := s.conversations.Touch(ctx, q, conversation.ID); err != nil {
			return err
		}

		recipientID = conversation.Counterpart(senderID)
		notification = &models.Notification{
			UserID:           recipientID,
			Type:             models.NotificationTypeMessage,
			Title:            "Новое сообщение",
			Content:          preview(content, 120),
			RelatedProjectID: conversation.ProjectID,
			RelatedBidID:     conversation.BidID,
		}
		return s.notifications.Save(ctx, q, notification)
	})
	if err != nil {
		return nil, translate(err)
	}

	s.notifications.Publish(recipientID, EventMessage, message)
	s.notifications.Push(notification)
	return message, nil
}

// ListMessages возвращает сообщения диалога в порядке создания.
// Оба участника могут читать диалог и до разблокировки.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if _, err := s.readable(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.ListByConversation(ctx, conversationID, limit, offset)
}

// ConversationView диалог с вычисленным для пользователя состоянием доступа.
type ConversationView struct {
	*models.Conversation
	Unlocked   bool   `json:"unlocked"`
	CanSend    bool   `json:"can_send"`
	LockReason string `json:"lock_reason,omitempty"`
}

// GetConversation возвращает диалог участнику.
func (s *ConversationService) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*ConversationView, error) {
	conversation, err := s.readable(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	access := policy.AccessOf(conversation)
	view := &ConversationView{Conversation: conversation, Unlocked: access.Unlocked(), CanSend: true}
	if err := policy.CanSend(access, userID); err != nil {
		view.CanSend = false
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			view.LockReason = appErr.Message
		}
	}
	return view, nil
}

// TypingPeer возвращает собеседника, которому можно показать набор текста.
// Условия те же, что у отправки сообщения.
func (s *ConversationService) TypingPeer(ctx context.Context, conversationID, userID uuid.UUID) (uuid.UUID, error) {
	conversation, err := s.readable(ctx, conversationID, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := policy.CanSend(policy.AccessOf(conversation), userID); err != nil {
		return uuid.Nil, err
	}
	return conversation.Counterpart(userID), nil
}

// ListMyConversations возвращает диалоги пользователя, недавно активные первыми.
func (s *ConversationService) ListMyConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	limit, offset = normalizePage(limit, offset)
	return s.conversations.ListForUser(ctx, userID, limit, offset)
}

// MarkRead отмечает прочитанными сообщения собеседника.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	if _, err := s.readable(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return s.messages.MarkRead(ctx, conversationID, userID)
}

// UnreadCount считает непрочитанные входящие сообщения во всех диалогах.
func (s *ConversationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.messages.CountUnread(ctx, userID)
}

func (s *ConversationService) readable(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, s.tx.DB(), conversationID)
	if err != nil {
		return nil, translate(err)
	}
	if err := policy.CanRead(policy.AccessOf(conversation), userID); err != nil {
		return nil, err
	}
	return conversation, nil
}

// preview обрезает текст до n символов для уведомления.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
