package team

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/response"
)

// eventInviteResponse is the body for event-scope invites, carrying the
// sibling fan-out count and the inert-feature marker when apply_to.future
// was requested.
type eventInviteResponse struct {
	Membership      *models.Membership `json:"membership"`
	AppliedExisting int                `json:"applied_existing"`
	Note            string             `json:"note,omitempty"`
}

// ListEventTeam handles GET /events/:eventId/team.
func (h *Handler) ListEventTeam(c *gin.Context) {
	ev, ok := h.guardEvent(c, false)
	if !ok {
		return
	}
	h.listTeam(c, models.ScopeEvent, ev.ID)
}

// InviteEventMember handles POST /events/:eventId/team. With
// apply_to.existing the invite is replicated across sibling events of the
// same organization; apply_to.future is accepted but not persisted and is
// flagged back to the caller.
func (h *Handler) InviteEventMember(c *gin.Context) {
	ev, ok := h.guardEvent(c, true)
	if !ok {
		return
	}
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "valid email and role required")
		return
	}
	ref, fields := h.validateInvite(c.Request.Context(), ev.OrganizationID, &body)
	if len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}
	m, err := h.buildMembership(c.Request.Context(), models.ScopeEvent, ev.ID, &body, ref, actorFrom(c).ID)
	if err != nil {
		response.Internal(c, "failed to prepare invitation")
		return
	}
	if err := h.repo.Upsert(c.Request.Context(), m); err != nil {
		h.logger.Error("upsert event invite", zap.Error(err))
		response.Internal(c, "failed to save invitation")
		return
	}
	h.enqueueInviteEmail(c, "invite", m, ev.Name)

	resp := eventInviteResponse{Membership: m}
	if body.ApplyTo != nil && body.ApplyTo.Existing {
		resp.AppliedExisting = h.propagateExisting(c.Request.Context(), ev, &body, ref, m)
	}
	if body.ApplyTo != nil && body.ApplyTo.Future {
		resp.Note = NoteFutureNotImplemented
	}
	response.Created(c, resp)
}

// UpdateEventMember handles PATCH /events/:eventId/team/:memberId.
func (h *Handler) UpdateEventMember(c *gin.Context) {
	ev, ok := h.guardEvent(c, true)
	if !ok {
		return
	}
	h.updateMember(c, models.ScopeEvent, ev.ID, ev.OrganizationID)
}

// DeleteEventMember handles DELETE /events/:eventId/team/:memberId.
func (h *Handler) DeleteEventMember(c *gin.Context) {
	ev, ok := h.guardEvent(c, true)
	if !ok {
		return
	}
	h.deleteMember(c, models.ScopeEvent, ev.ID)
}
