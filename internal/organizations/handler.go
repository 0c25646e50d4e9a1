package organizations

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventlane/backend/internal/access"
	"github.com/eventlane/backend/internal/middleware"
	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/response"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo    *Repository
	checker *access.Checker
}

// NewHandler creates an organizations handler.
func NewHandler(repo *Repository, checker *access.Checker) *Handler {
	return &Handler{repo: repo, checker: checker}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /organizations. The caller becomes the owner.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	name := strings.TrimSpace(body.Name)
	if len(name) < 1 || len(name) > 255 {
		response.BadRequest(c, "name must be 1–255 characters")
		return
	}
	org := &models.Organization{OwnerUserID: userID, Name: name}
	if err := h.repo.Create(c.Request.Context(), org); err != nil {
		response.Internal(c, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// ListMine handles GET /organizations.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	orgs, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load organizations")
		return
	}
	response.OK(c, orgs)
}

// Get handles GET /organizations/:orgId. Non-viewers get 404 so the
// endpoint does not reveal whether the organization exists.
func (h *Handler) Get(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	actor := access.Actor{
		ID:    c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Email: c.MustGet(middleware.ContextUserEmail).(string),
	}
	snap, err := h.checker.OrgSnapshot(c.Request.Context(), orgID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return
	}
	if snap == nil || !access.CanView(actor.ID, *snap, time.Now()) {
		response.NotFound(c, "organization not found")
		return
	}
	org, err := h.repo.GetByID(c.Request.Context(), orgID)
	if err != nil || org == nil {
		response.NotFound(c, "organization not found")
		return
	}
	response.OK(c, org)
}
