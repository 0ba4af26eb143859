package models

import (
	"time"

	"github.com/google/uuid"
)

// Course belongs to one bootcamp and was created by one user.
type Course struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title                string    `json:"title" gorm:"not null" validate:"required"`
	Description          string    `json:"description" gorm:"not null" validate:"required"`
	Weeks                string    `json:"weeks" gorm:"not null" validate:"required"`
	Tuition              float64   `json:"tuition" validate:"required,gt=0"`
	MinimumSkill         string    `json:"minimumSkill" gorm:"not null" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool      `json:"scholarshipAvailable"`
	CreatedAt            time.Time `json:"createdAt"`
	BootcampID           uuid.UUID `json:"bootcamp" gorm:"type:uuid;index;not null"`
	UserID               uuid.UUID `json:"user" gorm:"type:uuid;not null"`

	// Bootcamp carries a field-limited reference (name, description) when the
	// course is fetched with its bootcamp resolved inline.
	Bootcamp *Bootcamp `json:"bootcampInfo,omitempty" gorm:"foreignKey:BootcampID;references:ID"`
}
