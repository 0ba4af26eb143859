package models

import (
	"time"

	"github.com/google/uuid"
)

// Review of a bootcamp by a user. The composite unique index enforces at
// most one review per (bootcamp, user) pair.
type Review struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title      string    `json:"title" gorm:"not null" validate:"required,max=100"`
	Text       string    `json:"text" gorm:"not null" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=10"`
	CreatedAt  time.Time `json:"createdAt"`
	BootcampID uuid.UUID `json:"bootcamp" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_bootcamp_user"`
	UserID     uuid.UUID `json:"user" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_bootcamp_user"`

	Bootcamp *Bootcamp `json:"bootcampInfo,omitempty" gorm:"foreignKey:BootcampID;references:ID"`
}
