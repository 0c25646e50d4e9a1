package models

import (
	"time"

	"github.com/google/uuid"
)

// ScopeType distinguishes organization-level from event-level memberships.
type ScopeType string

const (
	ScopeOrganization ScopeType = "organization"
	ScopeEvent        ScopeType = "event"
)

// Membership lifecycle statuses.
const (
	StatusInvited = "invited"
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusExpired = "expired"
)

// Membership binds an email (and, once resolved, a user) to a role at an
// organization or event scope.
type Membership struct {
	ID              uuid.UUID  `json:"id"`
	ScopeType       ScopeType  `json:"scope_type"`
	ScopeID         uuid.UUID  `json:"scope_id"`
	Email           string     `json:"email"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	FullName        string     `json:"full_name"`
	Role            RoleRef    `json:"role"`
	Status          string     `json:"status"`
	TemporaryAccess bool       `json:"temporary_access"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	InviteToken     string     `json:"-"`
	InvitedBy       *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// EffectiveStatus computes the live status at the given instant. A
// temporary membership past its expiry reads as expired even before a
// sweep has rewritten the stored column; revoked is terminal.
func (m *Membership) EffectiveStatus(now time.Time) string {
	if m.Status == StatusRevoked {
		return StatusRevoked
	}
	if m.TemporaryAccess && m.ExpiresAt != nil && m.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return m.Status
}

// IsLiveActive reports whether the membership counts for permission
// checks at the given instant.
func (m *Membership) IsLiveActive(now time.Time) bool {
	return m.EffectiveStatus(now) == StatusActive
}
