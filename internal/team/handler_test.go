package team

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventlane/backend/internal/access"
	"github.com/eventlane/backend/internal/middleware"
	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/internal/roles"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupOrgTeamRouter serves the org member patch route as the given actor.
func setupOrgTeamRouter(h *Handler, actorID uuid.UUID, actorEmail string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actorID)
		c.Set(middleware.ContextUserEmail, actorEmail)
	})
	router.PATCH("/organizations/:orgId/team/:memberId", h.UpdateOrgMember)
	return router
}

func TestUpdateMemberRolePatchIgnoresLapsedExpiry(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	orgID, ownerID, ownerEmail := seedOrg(t, pool)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	m := invite(t, repo, models.ScopeOrganization, orgID, "lapsed-role@test.local",
		models.SystemRoleRef(models.RoleKeyPromoter), true, &past)
	_, err := pool.Exec(ctx, `UPDATE memberships SET status = 'active' WHERE id = $1`, m.ID)
	require.NoError(t, err)

	h := &Handler{
		repo:     repo,
		roleRepo: roles.NewRepository(pool),
		checker:  access.NewChecker(pool),
		logger:   zap.NewNop(),
	}
	router := setupOrgTeamRouter(h, ownerID, ownerEmail)

	// A role-only patch must not trip over the already-lapsed expires_at.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/organizations/%s/team/%s", orgID, m.ID),
		strings.NewReader(`{"role":"scanner"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := repo.GetByID(ctx, models.ScopeOrganization, orgID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	key, _ := got.Role.SystemKey()
	assert.Equal(t, models.RoleKeyScanner, key)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, past, *got.ExpiresAt, time.Second)

	// Touching the expiry pair still validates it.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/organizations/%s/team/%s", orgID, m.ID),
		strings.NewReader(fmt.Sprintf(`{"expires_at":%q}`, past.Format(time.RFC3339))))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
