package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/backend/internal/models"
)

// maxSlugAttempts bounds the collision retry loop on role creation.
const maxSlugAttempts = 50

var (
	// ErrSlugExhausted means 50 suffixed keys were all taken.
	ErrSlugExhausted = errors.New("role key collision retries exhausted")
	// ErrSystemRole means a system role was targeted by delete.
	ErrSystemRole = errors.New("system roles cannot be deleted")
	// ErrUnknownRole means a reorder listed a role id the organization does not own.
	ErrUnknownRole = errors.New("role does not belong to the organization")
)

// Repository handles role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a roles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSystemRoles seeds the five system roles for an organization.
// Insert-if-missing per role; duplicate-key failures from concurrent
// seeders are swallowed, so the call is idempotent and race-safe.
func (r *Repository) EnsureSystemRoles(ctx context.Context, orgID uuid.UUID) error {
	const q = `INSERT INTO roles (id, organization_id, key, name, color, is_system, sort_order, permissions)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, TRUE, $5, $6)
		ON CONFLICT (organization_id, key) DO NOTHING`
	for _, def := range models.SystemRoleDefinitions() {
		perms, err := json.Marshal(def.Permissions)
		if err != nil {
			return fmt.Errorf("marshal permissions: %w", err)
		}
		if _, err := r.pool.Exec(ctx, q, orgID, def.Key, def.Name, def.Color, def.SortOrder, perms); err != nil {
			return fmt.Errorf("seed role %s: %w", def.Key, err)
		}
	}
	return nil
}

// RoleWithCount is a role annotated with its live active-member count.
type RoleWithCount struct {
	models.Role
	MembersCount int `json:"members_count"`
}

// ListWithCounts returns all roles of an organization sorted by
// (sort_order, created_at), each with the number of live active
// memberships referencing it: by key for system roles, by id for custom
// roles. Expiry is evaluated against expires_at at read time, so a
// lapsed temporary membership never inflates a count even before a
// sweep rewrites its stored status.
func (r *Repository) ListWithCounts(ctx context.Context, orgID uuid.UUID) ([]RoleWithCount, error) {
	const q = `SELECT r.id, r.organization_id, r.key, r.name, r.color, r.icon_key, r.icon_url,
		r.is_system, r.sort_order, r.permissions, r.created_at, r.updated_at,
		CASE WHEN r.is_system THEN
			(SELECT COUNT(*) FROM memberships m
				WHERE m.scope_type = 'organization' AND m.scope_id = r.organization_id
				  AND m.role_key = r.key AND m.status = 'active'
				  AND NOT (m.temporary_access AND m.expires_at < NOW()))
		ELSE
			(SELECT COUNT(*) FROM memberships m
				WHERE m.role_id = r.id AND m.status = 'active'
				  AND NOT (m.temporary_access AND m.expires_at < NOW()))
		END AS members_count
		FROM roles r
		WHERE r.organization_id = $1
		ORDER BY r.sort_order ASC, r.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []RoleWithCount
	for rows.Next() {
		var rc RoleWithCount
		var permsRaw []byte
		if err := rows.Scan(
			&rc.ID, &rc.OrganizationID, &rc.Key, &rc.Name, &rc.Color, &rc.IconKey, &rc.IconURL,
			&rc.IsSystem, &rc.SortOrder, &permsRaw, &rc.CreatedAt, &rc.UpdatedAt,
			&rc.MembersCount,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(permsRaw, &rc.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
		list = append(list, rc)
	}
	return list, rows.Err()
}

// GetByID returns a role scoped to the organization, or nil when absent
// or owned by another organization.
func (r *Repository) GetByID(ctx context.Context, orgID, roleID uuid.UUID) (*models.Role, error) {
	const q = `SELECT id, organization_id, key, name, color, icon_key, icon_url,
		is_system, sort_order, permissions, created_at, updated_at
		FROM roles WHERE id = $1 AND organization_id = $2`
	var role models.Role
	var permsRaw []byte
	err := r.pool.QueryRow(ctx, q, roleID, orgID).Scan(
		&role.ID, &role.OrganizationID, &role.Key, &role.Name, &role.Color, &role.IconKey, &role.IconURL,
		&role.IsSystem, &role.SortOrder, &permsRaw, &role.CreatedAt, &role.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(permsRaw, &role.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return &role, nil
}

// Create inserts a custom role, retrying the derived key with -2, -3, ...
// suffixes when the (organization_id, key) constraint fires. The
// constraint violation is the only collision signal; no existence
// pre-check is made, so concurrent creators cannot race past each other.
func (r *Repository) Create(ctx context.Context, role *models.Role, baseSlug string) error {
	const q = `INSERT INTO roles (id, organization_id, key, name, color, icon_key, icon_url, is_system, sort_order, permissions)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, FALSE, $7, $8)
		RETURNING id, created_at, updated_at`
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		key := baseSlug
		if attempt > 1 {
			key = SlugWithSuffix(baseSlug, attempt)
		}
		err := r.pool.QueryRow(ctx, q,
			role.OrganizationID, key, role.Name, role.Color, role.IconKey, role.IconURL,
			role.SortOrder, perms,
		).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
		if err == nil {
			role.Key = key
			return nil
		}
		if isUniqueViolation(err) {
			continue
		}
		return err
	}
	return ErrSlugExhausted
}

// MaxSortOrder returns the highest sort_order among the organization's roles.
func (r *Repository) MaxSortOrder(ctx context.Context, orgID uuid.UUID) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) FROM roles WHERE organization_id = $1`, orgID).Scan(&max)
	return max, err
}

// Update writes the mutable fields of a role.
func (r *Repository) Update(ctx context.Context, role *models.Role) error {
	const q = `UPDATE roles
		SET name = $1, color = $2, icon_key = $3, icon_url = $4, sort_order = $5, permissions = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	return r.pool.QueryRow(ctx, q,
		role.Name, role.Color, role.IconKey, role.IconURL, role.SortOrder, perms, role.ID,
	).Scan(&role.UpdatedAt)
}

// Reorder assigns sort_order = index+1 for each id, in one transaction.
// Any id not owned by the organization fails the whole call with no
// partial write.
func (r *Repository) Reorder(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	owned := make(map[uuid.UUID]struct{})
	rows, err := tx.Query(ctx, `SELECT id FROM roles WHERE organization_id = $1`, orgID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		owned[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := owned[id]; !ok {
			return ErrUnknownRole
		}
	}
	for i, id := range ids {
		if _, err := tx.Exec(ctx,
			`UPDATE roles SET sort_order = $1, updated_at = NOW() WHERE id = $2`, i+1, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a custom role, reassigning every membership that
// references it to the fallback member key first so no membership is
// ever left pointing at a deleted role.
func (r *Repository) Delete(ctx context.Context, orgID, roleID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var isSystem bool
	err = tx.QueryRow(ctx,
		`SELECT is_system FROM roles WHERE id = $1 AND organization_id = $2`, roleID, orgID).Scan(&isSystem)
	if errors.Is(err, pgx.ErrNoRows) {
		return pgx.ErrNoRows
	}
	if err != nil {
		return err
	}
	if isSystem {
		return ErrSystemRole
	}
	if _, err := tx.Exec(ctx,
		`UPDATE memberships SET role_id = NULL, role_key = $1, updated_at = NOW() WHERE role_id = $2`,
		string(models.RoleKeyMember), roleID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
