package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/policy"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/validation"
)

type ReviewService struct {
	tx            TxRunner
	reviews       ReviewRepository
	projects      ProjectRepository
	bids          BidRepository
	users         UserRepository
	notifications *NotificationService
}

func NewReviewService(tx TxRunner, repos Repositories, notifications *NotificationService) *ReviewService {
	return &ReviewService{
		tx:            tx,
		reviews:       repos.Reviews,
		projects:      repos.Projects,
		bids:          repos.Bids,
		users:         repos.Users,
		notifications: notifications,
	}
}

// CreateReviewInput данные отзыва.
type CreateReviewInput struct {
	Rating  int
	Comment string
	Tags    []string
}

// CreateReview оставляет отзыв участнику завершённого проекта и пересчитывает
// его рейтинг. Строка оцениваемого блокируется, поэтому параллельные отзывы
// об одном пользователе пересчитывают рейтинг по очереди.
// Оцениваемый получает уведомление после коммита.
func (s *ReviewService) CreateReview(ctx context.Context, projectID, reviewerID uuid.UUID, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "рейтинг должен быть от 1 до 5")
	}
	comment := validation.SanitizeText(in.Comment)
	if err := validation.ValidateReviewComment(comment); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	review := &models.Review{
		ReviewerID: reviewerID,
		ProjectID:  projectID,
		Rating:     in.Rating,
		Tags:       tags,
	}
	if comment != "" {
		review.Comment = &comment
	}

	var notification *models.Notification
	err = s.tx.WithTx(ctx, func(q sqlx.ExtContext) error {
		project, err := s.projects.GetByID(ctx, q, projectID)
		if err != nil {
			return err
		}
		facts, err := s.collectFacts(ctx, q, project, reviewerID)
		if err != nil {
			return err
		}
		revieweeID, err := policy.ResolveReviewee(facts)
		if err != nil {
			return err
		}

		if err := s.users.LockForUpdate(ctx, q, revieweeID); err != nil {
			return err
		}

		exists, err := s.reviews.Exists(ctx, q, reviewerID, revieweeID, projectID)
		if err != nil {
			return err
		}
		if exists {
			return errDuplicateReview
		}

		review.RevieweeID = revieweeID
		if err := s.reviews.Create(ctx, q, review); err != nil {
			return err
		}

		if _, err := s.users.RecomputeRating(ctx, q, revieweeID); err != nil {
			return err
		}

		notification = &models.Notification{
			UserID:           revieweeID,
			Type:             models.NotificationTypeReviewReceived,
			Title:            "Новый отзыв",
			Content:          fmt.Sprintf("Вам поставили оценку %d по проекту «%s»", in.Rating, project.Title),
			RelatedProjectID: &project.ID,
		}
		return s.notifications.Save(ctx, q, notification)
	})
	if err != nil {
		return nil, translate(err)
	}

	s.notifications.Push(notification)
	return review, nil
}

var errDuplicateReview = apperror.New(apperror.ErrCodeConflict, "вы уже оставили отзыв по этому проекту")

// ReviewEligibility ответ на вопрос, может ли пользователь оставить отзыв.
type ReviewEligibility struct {
	CanReview  bool       `json:"can_review"`
	Reason     string     `json:"reason,omitempty"`
	RevieweeID *uuid.UUID `json:"reviewee_id,omitempty"`
}

// CanReview проверяет право оставить отзыв без побочных эффектов.
func (s *ReviewService) CanReview(ctx context.Context, projectID, userID uuid.UUID) (*ReviewEligibility, error) {
	q := s.tx.DB()
	project, err := s.projects.GetByID(ctx, q, projectID)
	if err != nil {
		return nil, translate(err)
	}
	facts, err := s.collectFacts(ctx, q, project, userID)
	if err != nil {
		return nil, translate(err)
	}

	revieweeID, err := policy.ResolveReviewee(facts)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return &ReviewEligibility{Reason: appErr.Message}, nil
		}
		return nil, err
	}

	exists, err := s.reviews.Exists(ctx, q, userID, revieweeID, projectID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &ReviewEligibility{Reason: errDuplicateReview.Message, RevieweeID: &revieweeID}, nil
	}
	return &ReviewEligibility{CanReview: true, RevieweeID: &revieweeID}, nil
}

// ListUserReviews возвращает отзывы о пользователе.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = normalizePage(limit, offset)
	return s.reviews.ListByReviewee(ctx, userID, limit, offset)
}

func (s *ReviewService) collectFacts(ctx context.Context, q sqlx.QueryerContext, project *models.Project, reviewerID uuid.UUID) (policy.ReviewFacts, error) {
	facts := policy.ReviewFacts{
		ReviewerID:    reviewerID,
		ClientID:      project.ClientID,
		ProjectStatus: project.Status,
	}

	if project.AcceptedBidID != nil {
		bid, err := s.bids.GetByID(ctx, q, *project.AcceptedBidID)
		if err != nil {
			return facts, err
		}
		facts.AcceptedBid = &policy.BidRef{BidID: bid.ID, FreelancerID: bid.FreelancerID}
	}

	unlocked, err := s.bids.ListUnlockedForProject(ctx, q, project.ID)
	if err != nil {
		return facts, err
	}
	for _, b := range unlocked {
		facts.UnlockedBids = append(facts.UnlockedBids, policy.BidRef{BidID: b.ID, FreelancerID: b.FreelancerID})
	}
	return facts, nil
}
