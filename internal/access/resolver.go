// Package access decides whether an actor may view or manage an
// organization or event scope. The decision itself is a pure function
// over a Snapshot; loading the snapshot is the only part that touches
// the store.
package access

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/backend/internal/models"
)

// Snapshot carries everything the decision needs about one actor and one
// target scope: ownership, event authorship, and the actor's memberships
// with the custom-role permission map already joined in.
type Snapshot struct {
	ScopeType      models.ScopeType
	OrgOwnerID     uuid.UUID
	EventCreatedBy uuid.UUID // zero unless ScopeType is event

	// OrgMembership is the actor's organization-scope membership, if any.
	OrgMembership *models.Membership
	// OrgCustomPerms is the permission map of OrgMembership's custom role,
	// nil when the membership references a system role.
	OrgCustomPerms models.PermissionMap

	// EventMembership is the actor's event-scope membership, if any.
	EventMembership *models.Membership
}

// CanManage reports whether the actor may perform a management action
// requiring perm at the snapshot's scope. Authority is evaluated in a
// fixed order, first match wins:
//
//  1. event scope: the event's creator
//  2. the owning organization's owner
//  3. an active org-scope membership with the admin role, or a custom
//     role granting perm
//  4. event scope: an active event-scope admin membership
//
// Liveness is computed against expires_at at decision time, so a stored
// "active" past its expiry never grants access.
func CanManage(actorID uuid.UUID, snap Snapshot, perm models.Permission, now time.Time) bool {
	if snap.ScopeType == models.ScopeEvent && snap.EventCreatedBy == actorID {
		return true
	}
	if snap.OrgOwnerID == actorID {
		return true
	}
	if m := snap.OrgMembership; m != nil && m.IsLiveActive(now) {
		if key, ok := m.Role.SystemKey(); ok && key == models.RoleKeyAdmin {
			return true
		}
		if m.Role.IsCustom() && snap.OrgCustomPerms != nil {
			if snap.OrgCustomPerms.Granted(perm) || snap.OrgCustomPerms.Granted(models.PermManageOrganization) {
				return true
			}
		}
	}
	if snap.ScopeType == models.ScopeEvent {
		if m := snap.EventMembership; m != nil && m.IsLiveActive(now) {
			if key, ok := m.Role.SystemKey(); ok && key == models.RoleKeyAdmin {
				return true
			}
		}
	}
	return false
}

// CanView reports whether the actor may read the scope: any live active
// membership qualifies regardless of role, plus everything the owner and
// creator shortcuts of CanManage allow.
func CanView(actorID uuid.UUID, snap Snapshot, now time.Time) bool {
	if snap.ScopeType == models.ScopeEvent && snap.EventCreatedBy == actorID {
		return true
	}
	if snap.OrgOwnerID == actorID {
		return true
	}
	if m := snap.OrgMembership; m != nil && m.IsLiveActive(now) {
		return true
	}
	if m := snap.EventMembership; m != nil && m.IsLiveActive(now) {
		return true
	}
	return false
}
