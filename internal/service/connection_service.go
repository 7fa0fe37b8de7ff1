package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/policy"
	"github.com/ignatzorin/tokenbid-backend/internal/domain/valueobject"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
)

// ConnectionService отвечает за платную разблокировку предложений и прямые контакты.
type ConnectionService struct {
	tx            TxRunner
	users         UserRepository
	conversations ConversationRepository
	connections   ConnectionRepository
	ledger        *LedgerService
	metrics       Metrics
	now           func() time.Time
}

func NewConnectionService(tx TxRunner, repos Repositories, ledger *LedgerService, metrics Metrics) *ConnectionService {
	return &ConnectionService{
		tx:            tx,
		users:         repos.Users,
		conversations: repos.Conversations,
		connections:   repos.Connections,
		ledger:        ledger,
		metrics:       metricsOrNoop(metrics),
		now:           time.Now,
	}
}

// UnlockResult итог разблокировки.
type UnlockResult struct {
	Conversation *models.Conversation `json:"conversation"`
	Balance      int64                `json:"balance"`
}

// UnlockProposal получатель предложения оплачивает доступ к диалогу.
// Повторная разблокировка отклоняется без списания.
func (s *ConnectionService) UnlockProposal(ctx context.Context, conversationID, userID uuid.UUID) (*UnlockResult, error) {
	now := s.now().UTC()
	result := &UnlockResult{}

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		conversation, err := s.conversations.GetForUpdate(ctx, q, conversationID)
		if err != nil {
			return err
		}

		if conversation.RecipientID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "разблокировать предложение может только получатель")
		}
		if conversation.Type != models.ConversationTypeProjectProposal {
			return apperror.New(apperror.ErrCodeConflict, "разблокировка нужна только для диалогов-предложений")
		}
		if conversation.RecipientPaid {
			return apperror.New(apperror.ErrCodeConflict, "предложение уже разблокировано")
		}

		entry, err := s.ledger.Debit(ctx, q, userID, valueobject.UnlockFee,
			models.TransactionTypeViewProposal, &conversation.ID, "view proposal")
		if err != nil {
			return err
		}

		if err := s.conversations.MarkRecipientUnlocked(ctx, q, conversation.ID, now); err != nil {
			return err
		}
		// Строки связи может не быть: её занял более поздний диалог той же пары.
		if err := s.connections.MarkRecipientUnlocked(ctx, q, conversation.ID, now); err != nil && !errors.Is(err, repository.ErrConnectionNotFound) {
			return err
		}

		conversation.RecipientPaid = true
		conversation.IsUnlocked = true
		conversation.RecipientUnlockedAt = &now
		result.Conversation = conversation
		result.Balance = entry.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.ProposalUnlocked()
	s.metrics.TokensMoved(models.TransactionTypeViewProposal, -valueobject.UnlockFee)
	return result, nil
}

// DirectConnectionResult итог открытия прямого контакта.
type DirectConnectionResult struct {
	Conversation *models.Conversation `json:"conversation"`
	Connection   *models.Connection   `json:"connection"`
	Balance      int64                `json:"balance"`
}

// CreateDirectConnection открывает прямой диалог с пользователем за плату.
// Прямой диалог сразу разблокирован для обеих сторон и не истекает.
func (s *ConnectionService) CreateDirectConnection(ctx context.Context, initiatorID, recipientID uuid.UUID) (*DirectConnectionResult, error) {
	if recipientID == uuid.Nil || recipientID == initiatorID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя открыть контакт с самим собой")
	}

	now := s.now().UTC()
	result := &DirectConnectionResult{}

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		if _, err := s.users.GetByID(ctx, q, recipientID); err != nil {
			if apperror.IsNotFound(translate(err)) {
				return apperror.New(apperror.ErrCodeValidation, "получатель не найден")
			}
			return err
		}

		exists, err := s.connections.ExistsDirectBetween(ctx, q, initiatorID, recipientID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.New(apperror.ErrCodeConflict, "прямой контакт с этим пользователем уже открыт")
		}

		conversation := &models.Conversation{
			Type:                models.ConversationTypeDirect,
			InitiatorID:         initiatorID,
			RecipientID:         recipientID,
			InitiatorPaid:       true,
			RecipientPaid:       true,
			IsUnlocked:          true,
			InitiatorUnlockedAt: &now,
			RecipientUnlockedAt: &now,
		}
		if err := s.conversations.Create(ctx, q, conversation); err != nil {
			return err
		}

		entry, err := s.ledger.Debit(ctx, q, initiatorID, valueobject.DirectContactFee,
			models.TransactionTypeUnlockDirectContact, &conversation.ID, "unlock direct contact")
		if err != nil {
			return err
		}

		connection := &models.Connection{
			InitiatorID:         initiatorID,
			RecipientID:         recipientID,
			ConnectionType:      models.ConversationTypeDirect,
			Status:              models.ConnectionStatusConnected,
			ConversationID:      &conversation.ID,
			InitiatorUnlockedAt: &now,
			RecipientUnlockedAt: &now,
		}
		if err := s.connections.Insert(ctx, q, connection, now); err != nil {
			return err
		}

		result.Conversation = conversation
		result.Connection = connection
		result.Balance = entry.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.DirectConnectionCreated()
	s.metrics.TokensMoved(models.TransactionTypeUnlockDirectContact, -valueobject.DirectContactFee)
	return result, nil
}

// ConnectionCheck состояние связи текущего пользователя с другим.
type ConnectionCheck struct {
	HasConnection       bool       `json:"has_connection"`
	ConnectionType      string     `json:"connection_type,omitempty"`
	Status              string     `json:"status,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	IsInitiator         bool       `json:"is_initiator"`
	CurrentUserUnlocked bool       `json:"current_user_unlocked"`
	OtherUserUnlocked   bool       `json:"other_user_unlocked"`
	EitherUnlocked      bool       `json:"either_unlocked"`
	ConversationID      *uuid.UUID `json:"conversation_id,omitempty"`
}

// CheckConnection возвращает связь с другим пользователем.
// Прямая связь важнее связи через предложение.
func (s *ConnectionService) CheckConnection(ctx context.Context, userID, otherID uuid.UUID) (*ConnectionCheck, error) {
	conns, err := s.connections.ListBetween(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return &ConnectionCheck{}, nil
	}

	chosen := &conns[0]
	for i := range conns {
		if conns[i].ConnectionType == models.ConversationTypeDirect {
			chosen = &conns[i]
			break
		}
	}

	isInitiator := chosen.InitiatorID == userID
	initiatorUnlocked := chosen.InitiatorUnlockedAt != nil
	recipientUnlocked := chosen.RecipientUnlockedAt != nil

	check := &ConnectionCheck{
		HasConnection:  true,
		ConnectionType: chosen.ConnectionType,
		Status:         policy.EffectiveStatus(chosen.Status, chosen.ExpiresAt, s.now()),
		ExpiresAt:      chosen.ExpiresAt,
		IsInitiator:    isInitiator,
		EitherUnlocked: initiatorUnlocked || recipientUnlocked,
		ConversationID: chosen.ConversationID,
	}
	if isInitiator {
		check.CurrentUserUnlocked, check.OtherUserUnlocked = initiatorUnlocked, recipientUnlocked
	} else {
		check.CurrentUserUnlocked, check.OtherUserUnlocked = recipientUnlocked, initiatorUnlocked
	}
	return check, nil
}

// ListMyConnections возвращает связи пользователя с вычисленным статусом.
func (s *ConnectionService) ListMyConnections(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	conns, err := s.connections.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range conns {
		conns[i].Status = policy.EffectiveStatus(conns[i].Status, conns[i].ExpiresAt, now)
	}
	return conns, nil
}
