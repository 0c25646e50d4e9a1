package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records one invitation email the worker processed.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	ScopeType      ScopeType  `json:"scope_type"`
	ScopeID        uuid.UUID  `json:"scope_id"`
	MembershipID   *uuid.UUID `json:"membership_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
