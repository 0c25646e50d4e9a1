package roles

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/database"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))
	return pool
}

func seedOrg(t *testing.T, pool *pgxpool.Pool) (orgID, ownerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	email := fmt.Sprintf("owner-%s@test.local", uuid.NewString())
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, '') RETURNING id`, email).Scan(&ownerID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO organizations (owner_user_id, name) VALUES ($1, 'Count Basie Hall') RETURNING id`, ownerID).Scan(&orgID))
	return orgID, ownerID
}

func insertOrgMembership(t *testing.T, pool *pgxpool.Pool, orgID uuid.UUID, roleKey *string, roleID *uuid.UUID, status string, temporary bool, expiresAt *time.Time) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	email := fmt.Sprintf("member-%s@test.local", uuid.NewString())
	require.NoError(t, pool.QueryRow(context.Background(),
		`INSERT INTO memberships (scope_type, scope_id, email, role_key, role_id, status, temporary_access, expires_at, invite_token)
		 VALUES ('organization', $1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		orgID, email, roleKey, roleID, status, temporary, expiresAt, uuid.NewString()).Scan(&id))
	return id
}

func customRole(t *testing.T, repo *Repository, orgID uuid.UUID, name string) *models.Role {
	t.Helper()
	role := &models.Role{
		OrganizationID: orgID,
		Name:           name,
		Color:          "#3b82f6",
		SortOrder:      10,
		Permissions:    models.DefaultPermissions(),
	}
	require.NoError(t, repo.Create(context.Background(), role, Slugify(name)))
	return role
}

func TestEnsureSystemRolesIdempotent(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _ := seedOrg(t, pool)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSystemRoles(ctx, orgID))
	require.NoError(t, repo.EnsureSystemRoles(ctx, orgID))

	list, err := repo.ListWithCounts(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, list, 5)
	keys := make([]string, 0, len(list))
	for _, r := range list {
		assert.True(t, r.IsSystem)
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"admin", "promoter", "scanner", "collaborator", "member"}, keys)
}

func TestCreateRetriesSlugOnCollision(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _ := seedOrg(t, pool)

	first := customRole(t, repo, orgID, "Door Staff")
	second := customRole(t, repo, orgID, "Door Staff")
	third := customRole(t, repo, orgID, "Door Staff")

	assert.Equal(t, "door-staff", first.Key)
	assert.Equal(t, "door-staff-2", second.Key)
	assert.Equal(t, "door-staff-3", third.Key)
}

func TestDeleteReassignsMembershipsToMember(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _ := seedOrg(t, pool)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSystemRoles(ctx, orgID))

	role := customRole(t, repo, orgID, "Backstage")
	memberID := insertOrgMembership(t, pool, orgID, nil, &role.ID, "active", false, nil)

	require.NoError(t, repo.Delete(ctx, orgID, role.ID))

	var roleKey *string
	var roleID *uuid.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT role_key, role_id FROM memberships WHERE id = $1`, memberID).Scan(&roleKey, &roleID))
	assert.Nil(t, roleID)
	require.NotNil(t, roleKey)
	assert.Equal(t, "member", *roleKey)

	got, err := repo.GetByID(ctx, orgID, role.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteRejectsSystemRole(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _ := seedOrg(t, pool)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSystemRoles(ctx, orgID))

	var adminID uuid.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT id FROM roles WHERE organization_id = $1 AND key = 'admin'`, orgID).Scan(&adminID))

	assert.ErrorIs(t, repo.Delete(ctx, orgID, adminID), ErrSystemRole)
}

func TestReorderRejectsForeignRoleWithoutPartialWrite(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _ := seedOrg(t, pool)
	ctx := context.Background()

	a := customRole(t, repo, orgID, "Front Gate")
	b := customRole(t, repo, orgID, "Bar")

	err := repo.Reorder(ctx, orgID, []uuid.UUID{b.ID, a.ID, uuid.New()})
	assert.ErrorIs(t, err, ErrUnknownRole)

	// Nothing changed: the rejected batch must not leave a partial write.
	for _, r := range []*models.Role{a, b} {
		var order int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT sort_order FROM roles WHERE id = $1`, r.ID).Scan(&order))
		assert.Equal(t, 10, order)
	}

	require.NoError(t, repo.Reorder(ctx, orgID, []uuid.UUID{b.ID, a.ID}))
	var order int
	require.NoError(t, pool.QueryRow(ctx, `SELECT sort_order FROM roles WHERE id = $1`, b.ID).Scan(&order))
	assert.Equal(t, 1, order)
	require.NoError(t, pool.QueryRow(ctx, `SELECT sort_order FROM roles WHERE id = $1`, a.ID).Scan(&order))
	assert.Equal(t, 2, order)
}

func TestListWithCountsExcludesLapsedTemporary(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _ := seedOrg(t, pool)
	ctx := context.Background()
	require.NoError(t, repo.EnsureSystemRoles(ctx, orgID))

	promoter := "promoter"
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	// Stored status still says active; only the expiry shows it lapsed.
	insertOrgMembership(t, pool, orgID, &promoter, nil, "active", true, &past)
	insertOrgMembership(t, pool, orgID, &promoter, nil, "active", true, &future)
	insertOrgMembership(t, pool, orgID, &promoter, nil, "active", false, nil)

	list, err := repo.ListWithCounts(ctx, orgID)
	require.NoError(t, err)
	var count int
	for _, r := range list {
		if r.Key == promoter {
			count = r.MembersCount
		}
	}
	assert.Equal(t, 2, count)
}
