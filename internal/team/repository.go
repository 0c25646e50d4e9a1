package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventlane/backend/internal/models"
)

const membershipColumns = `id, scope_type, scope_id, email, user_id, full_name, role_key, role_id,
	status, temporary_access, expires_at, invite_token, invited_by, created_at, updated_at`

// Repository handles membership persistence for both scopes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a team repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ExpireStale is the lazy expiration sweep: every membership of the scope
// with temporary access past its expiry that is not revoked is marked
// expired. Runs at the start of every list so no reader observes a stale
// active membership past expires_at. Returns the number of rows swept.
func (r *Repository) ExpireStale(ctx context.Context, scopeType models.ScopeType, scopeID uuid.UUID) (int64, error) {
	const q = `UPDATE memberships SET status = 'expired', updated_at = NOW()
		WHERE scope_type = $1 AND scope_id = $2
		  AND temporary_access AND expires_at < NOW()
		  AND status NOT IN ('revoked', 'expired')`
	tag, err := r.pool.Exec(ctx, q, string(scopeType), scopeID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByScope returns all memberships of one scope, invitation order.
func (r *Repository) ListByScope(ctx context.Context, scopeType models.ScopeType, scopeID uuid.UUID) ([]models.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE scope_type = $1 AND scope_id = $2
		 ORDER BY created_at ASC`, string(scopeType), scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// GetByID returns a membership scoped to the given scope, or nil.
func (r *Repository) GetByID(ctx context.Context, scopeType models.ScopeType, scopeID, id uuid.UUID) (*models.Membership, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE id = $1 AND scope_type = $2 AND scope_id = $3`, id, string(scopeType), scopeID)
	m, err := scanMembership(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetByToken returns the membership carrying an invite token, or nil.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.Membership, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE invite_token = $1`, token)
	m, err := scanMembership(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Upsert creates or overwrites the membership keyed by
// (scope_type, scope_id, email) in one atomic statement. Role, token and
// lifecycle fields are always rewritten and status resets to invited;
// concurrent invites to the same address converge on one row,
// last-writer-wins.
func (r *Repository) Upsert(ctx context.Context, m *models.Membership) error {
	roleKey, roleID := m.Role.Columns()
	const q = `INSERT INTO memberships
		(id, scope_type, scope_id, email, user_id, full_name, role_key, role_id,
		 status, temporary_access, expires_at, invite_token, invited_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, 'invited', $8, $9, $10, $11)
		ON CONFLICT (scope_type, scope_id, email) DO UPDATE SET
			user_id = COALESCE(EXCLUDED.user_id, memberships.user_id),
			full_name = EXCLUDED.full_name,
			role_key = EXCLUDED.role_key,
			role_id = EXCLUDED.role_id,
			status = 'invited',
			temporary_access = EXCLUDED.temporary_access,
			expires_at = EXCLUDED.expires_at,
			invite_token = EXCLUDED.invite_token,
			invited_by = EXCLUDED.invited_by,
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		string(m.ScopeType), m.ScopeID, m.Email, m.UserID, m.FullName, roleKey, roleID,
		m.TemporaryAccess, m.ExpiresAt, m.InviteToken, m.InvitedBy,
	).Scan(&m.ID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

// UpdateFields writes a membership's role and lifecycle fields.
func (r *Repository) UpdateFields(ctx context.Context, m *models.Membership) error {
	roleKey, roleID := m.Role.Columns()
	const q = `UPDATE memberships
		SET role_key = $1, role_id = $2, status = $3, temporary_access = $4, expires_at = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q,
		roleKey, roleID, m.Status, m.TemporaryAccess, m.ExpiresAt, m.ID,
	).Scan(&m.UpdatedAt)
}

// RotateToken swaps in a fresh invite token and forces status back to
// invited, regardless of prior expiration. Used by the resend action.
func (r *Repository) RotateToken(ctx context.Context, id uuid.UUID, token string) error {
	const q = `UPDATE memberships
		SET invite_token = $1, status = 'invited', updated_at = NOW()
		WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, token, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Activate binds the accepting user and marks the membership active.
func (r *Repository) Activate(ctx context.Context, id, userID uuid.UUID) error {
	const q = `UPDATE memberships
		SET status = 'active', user_id = $1, updated_at = NOW()
		WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, userID, id)
	return err
}

// Delete removes a membership. Returns false when nothing matched.
func (r *Repository) Delete(ctx context.Context, scopeType models.ScopeType, scopeID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM memberships WHERE id = $1 AND scope_type = $2 AND scope_id = $3`,
		id, string(scopeType), scopeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var (
		m       models.Membership
		scope   string
		roleKey *string
		roleID  *uuid.UUID
	)
	err := row.Scan(
		&m.ID, &scope, &m.ScopeID, &m.Email, &m.UserID, &m.FullName, &roleKey, &roleID,
		&m.Status, &m.TemporaryAccess, &m.ExpiresAt, &m.InviteToken, &m.InvitedBy,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ScopeType = models.ScopeType(scope)
	m.Role = models.RoleRefFromColumns(roleKey, roleID)
	return &m, nil
}
