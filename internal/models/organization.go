package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant root. The owner is implicitly the highest
// authority and never holds a membership row of their own.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event belongs to exactly one organization. Its creator is always
// authorized for the event regardless of memberships.
type Event struct {
	ID              uuid.UUID  `json:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id"`
	Name            string     `json:"name"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	CreatedByUserID uuid.UUID  `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
