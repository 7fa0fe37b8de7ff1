package models

import (
	"time"

	"github.com/google/uuid"
)

// Project описывает проект заказчика, на который исполнители делают ставки.
type Project struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ClientID      uuid.UUID  `db:"client_id" json:"client_id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	AISummary     *string    `db:"ai_summary" json:"ai_summary,omitempty"`
	BudgetMin     float64    `db:"budget_min" json:"budget_min"`
	BudgetMax     float64    `db:"budget_max" json:"budget_max"`
	Status        string     `db:"status" json:"status"`
	AcceptedBidID *uuid.UUID `db:"accepted_bid_id" json:"accepted_bid_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// SavedProject закладка пользователя на проект.
type SavedProject struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Bid описывает ставку исполнителя на проект.
type Bid struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ProjectID     uuid.UUID `db:"project_id" json:"project_id"`
	FreelancerID  uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Proposal      string    `db:"proposal" json:"proposal"`
	BidAmount     float64   `db:"bid_amount" json:"bid_amount"`
	EstimatedDays *int      `db:"estimated_days" json:"estimated_days,omitempty"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
