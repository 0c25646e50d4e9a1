package access

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/backend/internal/models"
)

// Checker loads snapshots and answers authorization questions against
// the shared store.
type Checker struct {
	pool *pgxpool.Pool
}

// NewChecker creates an access checker.
func NewChecker(pool *pgxpool.Pool) *Checker {
	return &Checker{pool: pool}
}

// Actor identifies the caller for a permission check.
type Actor struct {
	ID    uuid.UUID
	Email string
}

// OrgSnapshot loads the snapshot for an organization scope. Returns nil
// when the organization does not exist.
func (c *Checker) OrgSnapshot(ctx context.Context, orgID uuid.UUID, actor Actor) (*Snapshot, error) {
	var ownerID uuid.UUID
	err := c.pool.QueryRow(ctx, `SELECT owner_user_id FROM organizations WHERE id = $1`, orgID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	snap := &Snapshot{ScopeType: models.ScopeOrganization, OrgOwnerID: ownerID}
	if err := c.loadMembership(ctx, models.ScopeOrganization, orgID, actor, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// EventSnapshot loads the snapshot for an event scope together with the
// event itself. Returns (nil, nil) when the event does not exist.
func (c *Checker) EventSnapshot(ctx context.Context, eventID uuid.UUID, actor Actor) (*Snapshot, *models.Event, error) {
	const q = `SELECT e.id, e.organization_id, e.name, e.starts_at, e.created_by_user_id, e.created_at, e.updated_at,
		o.owner_user_id
		FROM events e INNER JOIN organizations o ON o.id = e.organization_id
		WHERE e.id = $1`
	var ev models.Event
	var ownerID uuid.UUID
	err := c.pool.QueryRow(ctx, q, eventID).Scan(
		&ev.ID, &ev.OrganizationID, &ev.Name, &ev.StartsAt, &ev.CreatedByUserID, &ev.CreatedAt, &ev.UpdatedAt,
		&ownerID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load event: %w", err)
	}
	snap := &Snapshot{
		ScopeType:      models.ScopeEvent,
		OrgOwnerID:     ownerID,
		EventCreatedBy: ev.CreatedByUserID,
	}
	if err := c.loadMembership(ctx, models.ScopeOrganization, ev.OrganizationID, actor, snap); err != nil {
		return nil, nil, err
	}
	if err := c.loadMembership(ctx, models.ScopeEvent, eventID, actor, snap); err != nil {
		return nil, nil, err
	}
	return snap, &ev, nil
}

// loadMembership fetches the actor's membership at one scope, matching by
// resolved user id or by invited email, with the custom-role permission
// map joined in.
func (c *Checker) loadMembership(ctx context.Context, scopeType models.ScopeType, scopeID uuid.UUID, actor Actor, snap *Snapshot) error {
	const q = `SELECT m.id, m.email, m.user_id, m.role_key, m.role_id, m.status,
		m.temporary_access, m.expires_at, r.permissions
		FROM memberships m
		LEFT JOIN roles r ON r.id = m.role_id
		WHERE m.scope_type = $1 AND m.scope_id = $2
		  AND (m.user_id = $3 OR m.email = $4)
		LIMIT 1`
	var (
		m        models.Membership
		roleKey  *string
		roleID   *uuid.UUID
		permsRaw []byte
	)
	err := c.pool.QueryRow(ctx, q, string(scopeType), scopeID, actor.ID, strings.ToLower(actor.Email)).Scan(
		&m.ID, &m.Email, &m.UserID, &roleKey, &roleID, &m.Status,
		&m.TemporaryAccess, &m.ExpiresAt, &permsRaw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load membership: %w", err)
	}
	m.ScopeType = scopeType
	m.ScopeID = scopeID
	m.Role = models.RoleRefFromColumns(roleKey, roleID)

	var perms models.PermissionMap
	if len(permsRaw) > 0 {
		if err := json.Unmarshal(permsRaw, &perms); err != nil {
			return fmt.Errorf("decode role permissions: %w", err)
		}
	}
	if scopeType == models.ScopeOrganization {
		snap.OrgMembership = &m
		if m.Role.IsCustom() {
			snap.OrgCustomPerms = perms
		}
	} else {
		snap.EventMembership = &m
	}
	return nil
}
