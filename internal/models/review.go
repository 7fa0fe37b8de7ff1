package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Review описывает отзыв одного участника проекта о другом.
type Review struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	ReviewerID uuid.UUID      `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID uuid.UUID      `db:"reviewee_id" json:"reviewee_id"`
	ProjectID  uuid.UUID      `db:"project_id" json:"project_id"`
	Rating     int            `db:"rating" json:"rating"`
	Comment    *string        `db:"comment" json:"comment,omitempty"`
	Tags       pq.StringArray `db:"tags" json:"tags"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
