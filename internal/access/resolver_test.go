package access

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventlane/backend/internal/models"
)

func orgAdminMembership() *models.Membership {
	return &models.Membership{
		Status: models.StatusActive,
		Role:   models.SystemRoleRef(models.RoleKeyAdmin),
	}
}

func TestOwnerManagesEventWithoutMemberships(t *testing.T) {
	owner := uuid.New()
	snap := Snapshot{
		ScopeType:      models.ScopeEvent,
		OrgOwnerID:     owner,
		EventCreatedBy: uuid.New(),
	}
	now := time.Now()
	assert.True(t, CanManage(owner, snap, models.PermManageTeam, now))
	assert.True(t, CanView(owner, snap, now))
}

func TestEventCreatorManagesOwnEvent(t *testing.T) {
	creator := uuid.New()
	snap := Snapshot{
		ScopeType:      models.ScopeEvent,
		OrgOwnerID:     uuid.New(),
		EventCreatedBy: creator,
	}
	assert.True(t, CanManage(creator, snap, models.PermManageTeam, time.Now()))
}

func TestOrgAdminManagesBothScopes(t *testing.T) {
	actor := uuid.New()
	now := time.Now()

	orgSnap := Snapshot{
		ScopeType:     models.ScopeOrganization,
		OrgOwnerID:    uuid.New(),
		OrgMembership: orgAdminMembership(),
	}
	assert.True(t, CanManage(actor, orgSnap, models.PermManageRoles, now))

	eventSnap := Snapshot{
		ScopeType:      models.ScopeEvent,
		OrgOwnerID:     uuid.New(),
		EventCreatedBy: uuid.New(),
		OrgMembership:  orgAdminMembership(),
	}
	assert.True(t, CanManage(actor, eventSnap, models.PermManageTeam, now))
}

func TestEventAdminCannotManageOrganization(t *testing.T) {
	actor := uuid.New()
	now := time.Now()

	eventSnap := Snapshot{
		ScopeType:       models.ScopeEvent,
		OrgOwnerID:      uuid.New(),
		EventCreatedBy:  uuid.New(),
		EventMembership: orgAdminMembership(),
	}
	assert.True(t, CanManage(actor, eventSnap, models.PermManageTeam, now))

	// The same membership grants nothing at the organization scope.
	orgSnap := Snapshot{
		ScopeType:  models.ScopeOrganization,
		OrgOwnerID: uuid.New(),
	}
	assert.False(t, CanManage(actor, orgSnap, models.PermManageRoles, now))
	assert.False(t, CanView(actor, orgSnap, now))
}

func TestCustomRoleGrantsByPermission(t *testing.T) {
	actor := uuid.New()
	now := time.Now()
	roleID := uuid.New()

	perms := models.DefaultPermissions()
	perms[models.PermManageTeam] = true

	snap := Snapshot{
		ScopeType:  models.ScopeOrganization,
		OrgOwnerID: uuid.New(),
		OrgMembership: &models.Membership{
			Status: models.StatusActive,
			Role:   models.CustomRoleRef(roleID),
		},
		OrgCustomPerms: perms,
	}
	assert.True(t, CanManage(actor, snap, models.PermManageTeam, now))
	assert.False(t, CanManage(actor, snap, models.PermManageRoles, now))
	assert.True(t, CanView(actor, snap, now))
}

func TestOrganizationManagePermissionImpliesAll(t *testing.T) {
	actor := uuid.New()
	perms := models.DefaultPermissions()
	perms[models.PermManageOrganization] = true

	snap := Snapshot{
		ScopeType:  models.ScopeOrganization,
		OrgOwnerID: uuid.New(),
		OrgMembership: &models.Membership{
			Status: models.StatusActive,
			Role:   models.CustomRoleRef(uuid.New()),
		},
		OrgCustomPerms: perms,
	}
	assert.True(t, CanManage(actor, snap, models.PermManageRoles, time.Now()))
}

func TestExpiredTemporaryMembershipDeniedBeforeSweep(t *testing.T) {
	actor := uuid.New()
	now := time.Now()
	past := now.Add(-time.Minute)

	// Stored status is still active; liveness is evaluated against
	// expires_at, not trusted from the column.
	m := orgAdminMembership()
	m.TemporaryAccess = true
	m.ExpiresAt = &past

	snap := Snapshot{
		ScopeType:     models.ScopeOrganization,
		OrgOwnerID:    uuid.New(),
		OrgMembership: m,
	}
	assert.False(t, CanManage(actor, snap, models.PermManageTeam, now))
	assert.False(t, CanView(actor, snap, now))
}

func TestInvitedMembershipDoesNotGrantAccess(t *testing.T) {
	actor := uuid.New()
	snap := Snapshot{
		ScopeType:  models.ScopeOrganization,
		OrgOwnerID: uuid.New(),
		OrgMembership: &models.Membership{
			Status: models.StatusInvited,
			Role:   models.SystemRoleRef(models.RoleKeyAdmin),
		},
	}
	now := time.Now()
	assert.False(t, CanManage(actor, snap, models.PermManageTeam, now))
	assert.False(t, CanView(actor, snap, now))
}

func TestNonAdminSystemRoleViewsButNotManages(t *testing.T) {
	actor := uuid.New()
	snap := Snapshot{
		ScopeType:  models.ScopeOrganization,
		OrgOwnerID: uuid.New(),
		OrgMembership: &models.Membership{
			Status: models.StatusActive,
			Role:   models.SystemRoleRef(models.RoleKeyScanner),
		},
	}
	now := time.Now()
	assert.True(t, CanView(actor, snap, now))
	assert.False(t, CanManage(actor, snap, models.PermManageTeam, now))
}
