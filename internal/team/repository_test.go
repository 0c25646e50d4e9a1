package team

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
	"go.uber.org/zap"

	"github.com/eventlane/backend/internal/events"
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

func seedOrg(t *testing.T, pool *pgxpool.Pool) (orgID, ownerID uuid.UUID, ownerEmail string) {
	t.Helper()
	ctx := context.Background()
	ownerEmail = fmt.Sprintf("owner-%s@test.local", uuid.NewString())
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, '') RETURNING id`, ownerEmail).Scan(&ownerID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO organizations (owner_user_id, name) VALUES ($1, 'Night Shift Live') RETURNING id`, ownerID).Scan(&orgID))
	return orgID, ownerID, ownerEmail
}

func seedEvent(t *testing.T, pool *pgxpool.Pool, orgID, creatorID uuid.UUID, name string) *models.Event {
	t.Helper()
	ev := &models.Event{OrganizationID: orgID, Name: name, CreatedByUserID: creatorID}
	require.NoError(t, events.NewRepository(pool).Create(context.Background(), ev))
	return ev
}

func invite(t *testing.T, repo *Repository, scopeType models.ScopeType, scopeID uuid.UUID, email string, ref models.RoleRef, temporary bool, expiresAt *time.Time) *models.Membership {
	t.Helper()
	m := &models.Membership{
		ScopeType:       scopeType,
		ScopeID:         scopeID,
		Email:           email,
		Role:            ref,
		TemporaryAccess: temporary,
		ExpiresAt:       expiresAt,
		InviteToken:     uuid.NewString(),
	}
	require.NoError(t, repo.Upsert(context.Background(), m))
	return m
}

func TestExpireStaleSweepThenRead(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _, _ := seedOrg(t, pool)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	scanner := models.SystemRoleRef(models.RoleKeyScanner)

	lapsed := invite(t, repo, models.ScopeOrganization, orgID, "lapsed@test.local", scanner, true, &past)
	live := invite(t, repo, models.ScopeOrganization, orgID, "live@test.local", scanner, true, &future)
	revoked := invite(t, repo, models.ScopeOrganization, orgID, "revoked@test.local", scanner, true, &past)
	for _, id := range []uuid.UUID{lapsed.ID, live.ID} {
		_, err := pool.Exec(ctx, `UPDATE memberships SET status = 'active' WHERE id = $1`, id)
		require.NoError(t, err)
	}
	_, err := pool.Exec(ctx, `UPDATE memberships SET status = 'revoked' WHERE id = $1`, revoked.ID)
	require.NoError(t, err)

	swept, err := repo.ExpireStale(ctx, models.ScopeOrganization, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	list, err := repo.ListByScope(ctx, models.ScopeOrganization, orgID)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, m := range list {
		statuses[m.Email] = m.Status
	}
	assert.Equal(t, models.StatusExpired, statuses["lapsed@test.local"])
	assert.Equal(t, models.StatusActive, statuses["live@test.local"])
	// Revoked is terminal; the sweep leaves it alone.
	assert.Equal(t, models.StatusRevoked, statuses["revoked@test.local"])
}

func TestUpsertConvergesOnScopeAndEmail(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _, _ := seedOrg(t, pool)
	ctx := context.Background()

	first := invite(t, repo, models.ScopeOrganization, orgID, "door@test.local",
		models.SystemRoleRef(models.RoleKeyScanner), false, nil)
	_, err := pool.Exec(ctx, `UPDATE memberships SET status = 'revoked' WHERE id = $1`, first.ID)
	require.NoError(t, err)

	second := invite(t, repo, models.ScopeOrganization, orgID, "door@test.local",
		models.SystemRoleRef(models.RoleKeyPromoter), false, nil)

	// Same row, overwritten: status back to invited, role and token replaced.
	assert.Equal(t, first.ID, second.ID)
	list, err := repo.ListByScope(ctx, models.ScopeOrganization, orgID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusInvited, list[0].Status)
	key, _ := list[0].Role.SystemKey()
	assert.Equal(t, models.RoleKeyPromoter, key)
	assert.Equal(t, second.InviteToken, list[0].InviteToken)
	assert.NotEqual(t, first.InviteToken, list[0].InviteToken)
}

func TestRotateTokenPreservesBusinessFields(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, _, _ := seedOrg(t, pool)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	m := invite(t, repo, models.ScopeOrganization, orgID, "resend@test.local",
		models.SystemRoleRef(models.RoleKeyCollaborator), true, &past)
	_, err := pool.Exec(ctx, `UPDATE memberships SET status = 'expired' WHERE id = $1`, m.ID)
	require.NoError(t, err)

	fresh := uuid.NewString()
	require.NoError(t, repo.RotateToken(ctx, m.ID, fresh))

	got, err := repo.GetByID(ctx, models.ScopeOrganization, orgID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	// Resend resets status regardless of prior expiration, nothing else.
	assert.Equal(t, models.StatusInvited, got.Status)
	assert.Equal(t, fresh, got.InviteToken)
	key, _ := got.Role.SystemKey()
	assert.Equal(t, models.RoleKeyCollaborator, key)
	assert.True(t, got.TemporaryAccess)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, past, *got.ExpiresAt, time.Second)
}

func TestPropagateExistingFansOutToSiblings(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, ownerID, _ := seedOrg(t, pool)
	ctx := context.Background()

	source := seedEvent(t, pool, orgID, ownerID, "Friday")
	sibA := seedEvent(t, pool, orgID, ownerID, "Saturday")
	sibB := seedEvent(t, pool, orgID, ownerID, "Sunday")

	ref := models.SystemRoleRef(models.RoleKeyScanner)
	parent := invite(t, repo, models.ScopeEvent, source.ID, "crew@test.local", ref, false, nil)

	h := &Handler{repo: repo, eventRepo: events.NewRepository(pool), logger: zap.NewNop()}
	body := &InviteRequest{Email: "crew@test.local", Role: models.RoleKeyScanner}
	applied := h.propagateExisting(ctx, source, body, ref, parent)
	assert.Equal(t, 2, applied)

	tokens := map[string]struct{}{parent.InviteToken: {}}
	for _, ev := range []*models.Event{sibA, sibB} {
		list, err := repo.ListByScope(ctx, models.ScopeEvent, ev.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "crew@test.local", list[0].Email)
		assert.Equal(t, models.StatusInvited, list[0].Status)
		tokens[list[0].InviteToken] = struct{}{}
	}
	// Every scope mints its own token.
	assert.Len(t, tokens, 3)
}
