package valueobject

import "github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"

type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
	ProjectStatusClosed     ProjectStatus = "closed"
)

// Переходы, доступные владельцу проекта вручную. Перевод в in_progress
// выполняется только принятием ставки.
var ownerTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:      {ProjectStatusOpen, ProjectStatusCancelled},
	ProjectStatusOpen:       {ProjectStatusClosed, ProjectStatusCancelled},
	ProjectStatusInProgress: {ProjectStatusCompleted, ProjectStatusCancelled},
	ProjectStatusCompleted:  {},
	ProjectStatusCancelled:  {},
	ProjectStatusClosed:     {},
}

func (s ProjectStatus) IsValid() bool {
	_, ok := ownerTransitions[s]
	return ok
}

// CanTransitionTo сообщает, может ли владелец перевести проект в newStatus.
func (s ProjectStatus) CanTransitionTo(newStatus ProjectStatus) bool {
	for _, status := range ownerTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// AcceptsBids true только для открытого проекта.
func (s ProjectStatus) AcceptsBids() bool {
	return s == ProjectStatusOpen
}

func NewProjectStatus(status string) (ProjectStatus, error) {
	s := ProjectStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус проекта")
	}
	return s, nil
}

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	}
	return false
}

// IsFinal true для принятой или отклонённой ставки: из них переходов нет.
func (s BidStatus) IsFinal() bool {
	return s == BidStatusAccepted || s == BidStatusRejected
}
