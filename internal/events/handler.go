package events

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

// Handler handles event HTTP endpoints.
type Handler struct {
	repo    *Repository
	checker *access.Checker
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, checker *access.Checker) *Handler {
	return &Handler{repo: repo, checker: checker}
}

// CreateEventRequest is the body for POST /organizations/:orgId/events.
type CreateEventRequest struct {
	Name     string     `json:"name" binding:"required"`
	StartsAt *time.Time `json:"starts_at"`
}

func actorFrom(c *gin.Context) access.Actor {
	return access.Actor{
		ID:    c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Email: c.MustGet(middleware.ContextUserEmail).(string),
	}
}

// Create handles POST /organizations/:orgId/events.
func (h *Handler) Create(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	actor := actorFrom(c)
	snap, err := h.checker.OrgSnapshot(c.Request.Context(), orgID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return
	}
	now := time.Now()
	if snap == nil || !access.CanView(actor.ID, *snap, now) {
		response.NotFound(c, "organization not found")
		return
	}
	if !access.CanManage(actor.ID, *snap, models.PermManageEvents, now) {
		response.Forbidden(c, "not authorized to manage events")
		return
	}
	var body CreateEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > 255 {
		response.BadRequest(c, "name must be 1–255 characters")
		return
	}
	ev := &models.Event{
		OrganizationID:  orgID,
		Name:            name,
		StartsAt:        body.StartsAt,
		CreatedByUserID: actor.ID,
	}
	if err := h.repo.Create(c.Request.Context(), ev); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, ev)
}

// ListByOrganization handles GET /organizations/:orgId/events.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	actor := actorFrom(c)
	snap, err := h.checker.OrgSnapshot(c.Request.Context(), orgID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return
	}
	if snap == nil || !access.CanView(actor.ID, *snap, time.Now()) {
		response.NotFound(c, "organization not found")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:eventId.
func (h *Handler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := actorFrom(c)
	snap, ev, err := h.checker.EventSnapshot(c.Request.Context(), eventID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return
	}
	if snap == nil || !access.CanView(actor.ID, *snap, time.Now()) {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, ev)
}
