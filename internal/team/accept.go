package team

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/response"
)

// Accept handles POST /invitations/:token/accept. The caller's email must
// match the invited address; the membership becomes active and is bound
// to the caller's account. Expired temporary invites are rejected even if
// no sweep has rewritten them yet.
func (h *Handler) Accept(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "invitation token required")
		return
	}
	m, err := h.repo.GetByToken(c.Request.Context(), token)
	if err != nil {
		response.Internal(c, "failed to load invitation")
		return
	}
	if m == nil {
		response.NotFound(c, "invitation not found")
		return
	}
	actor := actorFrom(c)
	if NormalizeEmail(actor.Email) != m.Email {
		response.Forbidden(c, "invitation was issued to a different address")
		return
	}
	switch m.EffectiveStatus(time.Now()) {
	case models.StatusInvited:
		// proceed
	case models.StatusActive:
		response.OK(c, m)
		return
	case models.StatusExpired:
		response.BadRequest(c, "invitation has expired")
		return
	default:
		response.BadRequest(c, "invitation is no longer valid")
		return
	}
	if err := h.repo.Activate(c.Request.Context(), m.ID, actor.ID); err != nil {
		response.Internal(c, "failed to accept invitation")
		return
	}
	m.Status = models.StatusActive
	m.UserID = &actor.ID
	response.OK(c, m)
}
