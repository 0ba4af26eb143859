package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Careers a bootcamp may offer training for.
var ValidCareers = []string{
	"Web Development",
	"Mobile Development",
	"UI/UX",
	"Data Science",
	"Business",
	"Other",
}

// Location is a geocoded address. The free-text address a client submits is
// resolved into this structure before the bootcamp is persisted; the raw
// address itself is never stored.
type Location struct {
	Type             string  `json:"type,omitempty"`
	Lng              float64 `json:"lng"`
	Lat              float64 `json:"lat"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	Street           string  `json:"street,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	Zipcode          string  `json:"zipcode,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Bootcamp represents a single listed bootcamp and its derived aggregates.
// AverageCost and AverageRating are maintained by recomputation from the
// bootcamp's courses and reviews; they are never set from client input.
type Bootcamp struct {
	ID            uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string                      `json:"name" gorm:"uniqueIndex;not null" validate:"required,max=50"`
	Slug          string                      `json:"slug" gorm:"index"`
	Description   string                      `json:"description" gorm:"not null" validate:"required,max=500"`
	Website       string                      `json:"website,omitempty" validate:"omitempty,url"`
	Phone         string                      `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         string                      `json:"email,omitempty" validate:"omitempty,email"`
	Location      Location                    `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Careers       datatypes.JSONSlice[string] `json:"careers" validate:"required,min=1,dive,oneof='Web Development' 'Mobile Development' 'UI/UX' 'Data Science' 'Business' 'Other'"`
	AverageRating *float64                    `json:"averageRating,omitempty"`
	AverageCost   *float64                    `json:"averageCost,omitempty"`
	Photo         string                      `json:"photo"`
	Housing       bool                        `json:"housing"`
	JobAssistance bool                        `json:"jobAssistance"`
	JobGuarantee  bool                        `json:"jobGuarantee"`
	AcceptGi      bool                        `json:"acceptGi"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UserID        uuid.UUID                   `json:"user" gorm:"type:uuid;index;not null"`

	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:BootcampID;references:ID;constraint:OnDelete:CASCADE"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:BootcampID;references:ID;constraint:OnDelete:CASCADE"`
}

// DefaultPhoto is used when no photo has been uploaded for a bootcamp.
const DefaultPhoto = "no-photo.jpg"
