package emaillog

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventlane/backend/internal/access"
	"github.com/eventlane/backend/internal/middleware"
	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/response"
)

// Handler exposes the delivery history to organization managers.
type Handler struct {
	repo    *Repository
	checker *access.Checker
}

// NewHandler creates an email log handler.
func NewHandler(repo *Repository, checker *access.Checker) *Handler {
	return &Handler{repo: repo, checker: checker}
}

// ListByOrganization handles GET /organizations/:orgId/email-logs. Only
// callers who can manage the team see the history; non-viewers get 404.
func (h *Handler) ListByOrganization(c *gin.Context) {
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
	now := time.Now()
	if snap == nil || !access.CanView(actor.ID, *snap, now) {
		response.NotFound(c, "organization not found")
		return
	}
	if !access.CanManage(actor.ID, *snap, models.PermManageTeam, now) {
		response.Forbidden(c, "not authorized to view email logs")
		return
	}
	list, err := h.repo.ListByScope(c.Request.Context(), models.ScopeOrganization, orgID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, list)
}
