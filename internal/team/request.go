package team

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/backend/internal/models"
)

// ActionResend is the update action that rotates the invite token.
const ActionResend = "resend"

// NoteFutureNotImplemented marks responses where apply_to.future was
// accepted but not persisted as a standing rule.
const NoteFutureNotImplemented = "future_not_implemented"

// ApplyTo controls event-invite propagation. Existing fans the invite out
// to sibling events; Future is accepted but intentionally inert.
type ApplyTo struct {
	Existing bool `json:"existing"`
	Future   bool `json:"future"`
}

// InviteRequest is the body for POST .../team. Exactly one of Role
// (system key) or RoleID (custom role) must be set.
type InviteRequest struct {
	Email           string     `json:"email" binding:"required,email"`
	FullName        string     `json:"full_name"`
	Role            string     `json:"role"`
	RoleID          *uuid.UUID `json:"role_id"`
	TemporaryAccess bool       `json:"temporary_access"`
	ExpiresAt       *time.Time `json:"expires_at"`
	ApplyTo         *ApplyTo   `json:"apply_to"`
}

// UpdateMemberRequest is the body for PATCH .../team/:memberId. When
// Action is "resend" every other field is ignored.
type UpdateMemberRequest struct {
	Action          string     `json:"action"`
	Role            *string    `json:"role"`
	RoleID          *uuid.UUID `json:"role_id"`
	Status          *string    `json:"status"`
	TemporaryAccess *bool      `json:"temporary_access"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

var systemRoleKeys = map[string]struct{}{
	models.RoleKeyAdmin:        {},
	models.RoleKeyPromoter:     {},
	models.RoleKeyScanner:      {},
	models.RoleKeyCollaborator: {},
	models.RoleKeyMember:       {},
}

// IsSystemRoleKey reports whether key names one of the five built-in roles.
func IsSystemRoleKey(key string) bool {
	_, ok := systemRoleKeys[key]
	return ok
}

// NormalizeEmail lowercases and trims an address; upsert keys use this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveRoleRef validates the role/role_id pair of a request and builds
// the tagged reference. Field errors are appended to fields.
func ResolveRoleRef(role string, roleID *uuid.UUID, fields map[string][]string) models.RoleRef {
	switch {
	case role != "" && roleID != nil:
		fields["role"] = append(fields["role"], "role and role_id are mutually exclusive")
	case roleID != nil:
		return models.CustomRoleRef(*roleID)
	case role != "":
		if !IsSystemRoleKey(role) {
			fields["role"] = append(fields["role"], "unknown system role key")
			return models.RoleRef{}
		}
		return models.SystemRoleRef(role)
	default:
		fields["role"] = append(fields["role"], "role or role_id required")
	}
	return models.RoleRef{}
}

// ValidateTemporaryAccess enforces that temporary access always carries a
// future expiry.
func ValidateTemporaryAccess(temporary bool, expiresAt *time.Time, now time.Time, fields map[string][]string) {
	if !temporary {
		return
	}
	if expiresAt == nil {
		fields["expires_at"] = append(fields["expires_at"], "required when temporary_access is true")
		return
	}
	if !expiresAt.After(now) {
		fields["expires_at"] = append(fields["expires_at"], "must be in the future")
	}
}

var updatableStatuses = map[string]struct{}{
	models.StatusInvited: {},
	models.StatusActive:  {},
	models.StatusRevoked: {},
}

// ValidateStatus checks a status value supplied in a patch. The expired
// status is computed, never written by callers.
func ValidateStatus(status string, fields map[string][]string) {
	if _, ok := updatableStatuses[status]; !ok {
		fields["status"] = append(fields["status"], "must be one of invited, active, revoked")
	}
}
