package policy

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// BidRef ставка на проект в объёме, нужном для проверки отзывов.
type BidRef struct {
	BidID        uuid.UUID
	FreelancerID uuid.UUID
}

// ReviewFacts история сотрудничества по проекту.
type ReviewFacts struct {
	ReviewerID    uuid.UUID
	ClientID      uuid.UUID
	ProjectStatus string
	AcceptedBid   *BidRef
	// UnlockedBids ставки проекта, чей диалог-предложение разблокирован.
	UnlockedBids []BidRef
}

// ResolveReviewee определяет, кого reviewer может оценить по проекту.
// Основание: принятая ставка, а при её отсутствии разблокированный диалог
// по ставке на этот проект.
func ResolveReviewee(f ReviewFacts) (uuid.UUID, error) {
	if f.ProjectStatus != models.ProjectStatusCompleted {
		return uuid.Nil, apperror.New(apperror.ErrCodeConflict, "отзыв можно оставить только по завершённому проекту")
	}

	if f.ReviewerID == f.ClientID {
		if f.AcceptedBid != nil {
			return f.AcceptedBid.FreelancerID, nil
		}
		if len(f.UnlockedBids) > 0 {
			return f.UnlockedBids[0].FreelancerID, nil
		}
		return uuid.Nil, apperror.New(apperror.ErrCodeForbidden, "по проекту нет подтверждённого исполнителя")
	}

	if f.AcceptedBid != nil && f.AcceptedBid.FreelancerID == f.ReviewerID {
		return f.ClientID, nil
	}
	for _, b := range f.UnlockedBids {
		if b.FreelancerID == f.ReviewerID {
			return f.ClientID, nil
		}
	}
	return uuid.Nil, apperror.New(apperror.ErrCodeForbidden, "вы не участвовали в этом проекте")
}
