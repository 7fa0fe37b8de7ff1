package policy

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/tokenbid-backend/internal/domain/valueobject"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// CanBid проверяет, может ли пользователь сделать ставку на проект.
func CanBid(project *models.Project, bidderID uuid.UUID, alreadyBid bool) error {
	if !valueobject.ProjectStatus(project.Status).AcceptsBids() {
		return apperror.New(apperror.ErrCodeConflict, "проект не принимает ставки")
	}
	if project.ClientID == bidderID {
		return apperror.New(apperror.ErrCodeForbidden, "нельзя делать ставку на собственный проект")
	}
	if alreadyBid {
		return apperror.New(apperror.ErrCodeConflict, "вы уже сделали ставку на этот проект")
	}
	return nil
}

// CanDecide проверяет право владельца принять или отклонить ставку.
// requireOpen учитывается только при принятии.
func CanDecide(project *models.Project, bid *models.Bid, ownerID uuid.UUID, requireOpen bool) error {
	if bid.ProjectID != project.ID {
		return apperror.ErrBidNotFound
	}
	if project.ClientID != ownerID {
		return apperror.New(apperror.ErrCodeForbidden, "только владелец проекта может управлять ставками")
	}
	if requireOpen && !valueobject.ProjectStatus(project.Status).AcceptsBids() {
		return apperror.New(apperror.ErrCodeConflict, "проект уже не открыт")
	}
	if bid.Status != models.BidStatusPending {
		return apperror.Newf(apperror.ErrCodeConflict, "ставка уже в статусе %s", bid.Status)
	}
	return nil
}

// WithdrawRemainingDays возвращает, сколько дней осталось до возможности
// отозвать ставку. 0 означает, что отзыв разрешён.
func WithdrawRemainingDays(createdAt, now time.Time) int {
	elapsedDays := int(now.Sub(createdAt) / (24 * time.Hour))
	cooldownDays := int(valueobject.WithdrawalCooldown / (24 * time.Hour))
	if remaining := cooldownDays - elapsedDays; remaining > 0 {
		return remaining
	}
	return 0
}

// CanWithdraw проверяет право исполнителя отозвать ставку.
func CanWithdraw(bid *models.Bid, userID uuid.UUID, now time.Time) error {
	if bid.FreelancerID != userID {
		return apperror.New(apperror.ErrCodeForbidden, "отозвать можно только свою ставку")
	}
	if bid.Status != models.BidStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "отозвать можно только ставку в ожидании")
	}
	if days := WithdrawRemainingDays(bid.CreatedAt, now); days > 0 {
		return apperror.Newf(apperror.ErrCodeConflict, "отозвать ставку можно через %d дн.", days)
	}
	return nil
}
