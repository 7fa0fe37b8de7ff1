package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/policy"
	"github.com/ignatzorin/tokenbid-backend/internal/domain/valueobject"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
	"github.com/ignatzorin/tokenbid-backend/internal/validation"
)

// BidService управляет жизненным циклом ставок: подача, принятие,
// отклонение и отзыв с возвратом токенов.
type BidService struct {
	tx            TxRunner
	projects      ProjectRepository
	bids          BidRepository
	conversations ConversationRepository
	messages      MessageRepository
	connections   ConnectionRepository
	ledger        *LedgerService
	notifications *NotificationService
	metrics       Metrics
	now           func() time.Time
}

func NewBidService(tx TxRunner, repos Repositories, ledger *LedgerService, notifications *NotificationService, metrics Metrics) *BidService {
	return &BidService{
		tx:            tx,
		projects:      repos.Projects,
		bids:          repos.Bids,
		conversations: repos.Conversations,
		messages:      repos.Messages,
		connections:   repos.Connections,
		ledger:        ledger,
		notifications: notifications,
		metrics:       metricsOrNoop(metrics),
		now:           time.Now,
	}
}

// CreateBidInput данные новой ставки.
type CreateBidInput struct {
	Proposal      string
	BidAmount     float64
	EstimatedDays *int
}

// CreateBidResult ставка и созданный вместе с ней диалог-предложение.
type CreateBidResult struct {
	Bid            *models.Bid `json:"bid"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Balance        int64       `json:"balance"`
}

// CreateBid подаёт ставку: списывает плату за предложение, создаёт
// заблокированный диалог, связь с ограниченным сроком и первое сообщение.
// Всё выполняется одной транзакцией.
func (s *BidService) CreateBid(ctx context.Context, projectID, freelancerID uuid.UUID, in CreateBidInput) (*CreateBidResult, error) {
	proposal := validation.SanitizeText(in.Proposal)
	if err := validation.ValidateProposal(proposal); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.BidAmount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма ставки должна быть больше 0")
	}
	if in.EstimatedDays != nil && *in.EstimatedDays < 1 {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок выполнения должен быть не менее 1 дня")
	}

	now := s.now().UTC()
	result := &CreateBidResult{}
	var notification *models.Notification

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		project, err := s.projects.GetForShare(ctx, q, projectID)
		if err != nil {
			return err
		}

		alreadyBid, err := s.bids.ExistsForFreelancer(ctx, q, projectID, freelancerID)
		if err != nil {
			return err
		}
		if err := policy.CanBid(project, freelancerID, alreadyBid); err != nil {
			return err
		}

		bid := &models.Bid{
			ProjectID:     projectID,
			FreelancerID:  freelancerID,
			Proposal:      proposal,
			BidAmount:     in.BidAmount,
			EstimatedDays: in.EstimatedDays,
		}
		if err := s.bids.Create(ctx, q, bid); err != nil {
			return err
		}

		conversation := &models.Conversation{
			Type:                models.ConversationTypeProjectProposal,
			ProjectID:           &project.ID,
			BidID:               &bid.ID,
			InitiatorID:         freelancerID,
			RecipientID:         project.ClientID,
			InitiatorPaid:       true,
			InitiatorUnlockedAt: &now,
		}
		if err := s.conversations.Create(ctx, q, conversation); err != nil {
			return err
		}

		entry, err := s.ledger.Debit(ctx, q, freelancerID, valueobject.ProposalFee,
			models.TransactionTypeSubmitProposal, &conversation.ID, "submit proposal")
		if err != nil {
			return err
		}

		expiresAt := now.Add(valueobject.ConnectionTTL)
		connection := &models.Connection{
			InitiatorID:         freelancerID,
			RecipientID:         project.ClientID,
			ConnectionType:      models.ConversationTypeProjectProposal,
			Status:              models.ConnectionStatusPending,
			ConversationID:      &conversation.ID,
			InitiatorUnlockedAt: &now,
			ExpiresAt:           &expiresAt,
		}
		// Уже оплаченная связь пары сохраняется, диалог ставки живёт без своей строки.
		if err := s.connections.Insert(ctx, q, connection, now); err != nil && !errors.Is(err, repository.ErrConnectionEstablished) {
			return err
		}

		if err := s.messages.Create(ctx, q, &models.Message{
			ConversationID: conversation.ID,
			SenderID:       freelancerID,
			Content:        proposal,
		}); err != nil {
			return err
		}

		notification = &models.Notification{
			UserID:           project.ClientID,
			Type:             models.NotificationTypeBidReceived,
			Title:            "Новая ставка",
			Content:          fmt.Sprintf("На проект «%s» поступила новая ставка", project.Title),
			RelatedProjectID: &project.ID,
			RelatedBidID:     &bid.ID,
		}
		if err := s.notifications.Save(ctx, q, notification); err != nil {
			return err
		}

		result.Bid = bid
		result.ConversationID = conversation.ID
		result.Balance = entry.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.notifications.Push(notification)
	s.metrics.BidCreated()
	s.metrics.TokensMoved(models.TransactionTypeSubmitProposal, -valueobject.ProposalFee)
	return result, nil
}

// AcceptBid принимает ставку. Строка проекта блокируется, поэтому два
// одновременных принятия на один проект выполняются последовательно, и второе
// видит проект уже в работе. Остальные ожидающие ставки отклоняются.
func (s *BidService) AcceptBid(ctx context.Context, bidID, ownerID uuid.UUID) (*models.Bid, error) {
	var (
		accepted      *models.Bid
		notifications []*models.Notification
	)

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		found, err := s.bids.GetByID(ctx, q, bidID)
		if err != nil {
			return err
		}

		project, err := s.projects.GetForUpdate(ctx, q, found.ProjectID)
		if err != nil {
			return err
		}

		// перечитываем под блокировкой проекта
		bid, err := s.bids.GetForUpdate(ctx, q, bidID)
		if err != nil {
			return err
		}
		if err := policy.CanDecide(project, bid, ownerID, true); err != nil {
			return err
		}

		if err := s.bids.UpdateStatus(ctx, q, bid.ID, models.BidStatusAccepted); err != nil {
			return err
		}
		if err := s.projects.SetAcceptedBid(ctx, q, project.ID, bid.ID); err != nil {
			return err
		}

		rejected, err := s.bids.RejectPendingExcept(ctx, q, project.ID, bid.ID)
		if err != nil {
			return err
		}

		for i := range rejected {
			notifications = append(notifications, &models.Notification{
				UserID:           rejected[i].FreelancerID,
				Type:             models.NotificationTypeBidRejected,
				Title:            "Ставка отклонена",
				Content:          fmt.Sprintf("Заказчик выбрал другого исполнителя для проекта «%s»", project.Title),
				RelatedProjectID: &project.ID,
				RelatedBidID:     &rejected[i].ID,
			})
		}
		notifications = append(notifications, &models.Notification{
			UserID:           bid.FreelancerID,
			Type:             models.NotificationTypeBidAccepted,
			Title:            "Ставка принята",
			Content:          fmt.Sprintf("Ваша ставка на проект «%s» принята", project.Title),
			RelatedProjectID: &project.ID,
			RelatedBidID:     &bid.ID,
		})
		if err := s.notifications.Save(ctx, q, notifications...); err != nil {
			return err
		}

		bid.Status = models.BidStatusAccepted
		accepted = bid
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.notifications.Push(notifications...)
	return accepted, nil
}

// RejectBid отклоняет ожидающую ставку по решению владельца проекта.
func (s *BidService) RejectBid(ctx context.Context, bidID, ownerID uuid.UUID) (*models.Bid, error) {
	var (
		rejected     *models.Bid
		notification *models.Notification
	)

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		bid, err := s.bids.GetForUpdate(ctx, q, bidID)
		if err != nil {
			return err
		}
		project, err := s.projects.GetByID(ctx, q, bid.ProjectID)
		if err != nil {
			return err
		}
		if err := policy.CanDecide(project, bid, ownerID, false); err != nil {
			return err
		}

		if err := s.bids.UpdateStatus(ctx, q, bid.ID, models.BidStatusRejected); err != nil {
			return err
		}

		notification = &models.Notification{
			UserID:           bid.FreelancerID,
			Type:             models.NotificationTypeBidRejected,
			Title:            "Ставка отклонена",
			Content:          fmt.Sprintf("Заказчик отклонил вашу ставку на проект «%s»", project.Title),
			RelatedProjectID: &project.ID,
			RelatedBidID:     &bid.ID,
		}
		if err := s.notifications.Save(ctx, q, notification); err != nil {
			return err
		}

		bid.Status = models.BidStatusRejected
		rejected = bid
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.notifications.Push(notification)
	return rejected, nil
}

// WithdrawResult итог отзыва ставки.
type WithdrawResult struct {
	BidID   uuid.UUID `json:"bid_id"`
	Refund  int64     `json:"refund"`
	Balance int64     `json:"balance"`
}

// WithdrawBid отзывает ожидающую ставку после окончания срока ожидания.
// Шаги выполняются строго по порядку в одной транзакции: сообщения, связи,
// диалоги, ставка, затем возврат платы за предложение.
func (s *BidService) WithdrawBid(ctx context.Context, bidID, freelancerID uuid.UUID) (*WithdrawResult, error) {
	result := &WithdrawResult{BidID: bidID, Refund: valueobject.ProposalFee}

	err := s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		bid, err := s.bids.GetForUpdate(ctx, q, bidID)
		if err != nil {
			return err
		}
		if err := policy.CanWithdraw(bid, freelancerID, s.now()); err != nil {
			return err
		}

		conversationIDs, err := s.conversations.IDsByBid(ctx, q, bid.ID)
		if err != nil {
			return err
		}
		if _, err := s.messages.DeleteByConversations(ctx, q, conversationIDs); err != nil {
			return err
		}
		if _, err := s.connections.DeleteByConversations(ctx, q, conversationIDs); err != nil {
			return err
		}
		if _, err := s.conversations.DeleteByIDs(ctx, q, conversationIDs); err != nil {
			return err
		}
		if err := s.bids.Delete(ctx, q, bid.ID); err != nil {
			return err
		}

		entry, err := s.ledger.Credit(ctx, q, freelancerID, valueobject.ProposalFee,
			models.TransactionTypeRefund, &bid.ID, "bid withdrawal refund")
		if err != nil {
			return err
		}
		result.Balance = entry.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.TokensMoved(models.TransactionTypeRefund, valueobject.ProposalFee)
	return result, nil
}

// GetBid возвращает ставку исполнителю или владельцу проекта.
func (s *BidService) GetBid(ctx context.Context, bidID, userID uuid.UUID) (*models.Bid, error) {
	bid, err := s.bids.GetByID(ctx, s.tx.DB(), bidID)
	if err != nil {
		return nil, translate(err)
	}
	if bid.FreelancerID == userID {
		return bid, nil
	}

	project, err := s.projects.GetByID(ctx, s.tx.DB(), bid.ProjectID)
	if err != nil {
		return nil, translate(err)
	}
	if project.ClientID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нет доступа к ставке")
	}
	return bid, nil
}

// ListProjectBids возвращает ставки проекта его владельцу.
func (s *BidService) ListProjectBids(ctx context.Context, projectID, ownerID uuid.UUID) ([]models.Bid, error) {
	project, err := s.projects.GetByID(ctx, s.tx.DB(), projectID)
	if err != nil {
		return nil, translate(err)
	}
	if project.ClientID != ownerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "ставки видит только владелец проекта")
	}
	return s.bids.ListByProject(ctx, projectID)
}

// ListMyBids возвращает ставки исполнителя.
func (s *BidService) ListMyBids(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	limit, offset = normalizePage(limit, offset)
	return s.bids.ListByFreelancer(ctx, freelancerID, limit, offset)
}
