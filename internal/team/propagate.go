package team

import (
	"context"

	"go.uber.org/zap"

	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/utils"
)

// propagateExisting replicates an event invite across every sibling event
// of the same organization, excluding the source event. Each sibling gets
// the identical upsert keyed by (event, email) with its own fresh token.
// The fan-out is unordered and partial-failure-tolerant: a failed sibling
// is logged and left out of the count, the rest proceed, and no
// transaction spans the parent invite and the siblings.
func (h *Handler) propagateExisting(ctx context.Context, source *models.Event, body *InviteRequest, ref models.RoleRef, parent *models.Membership) int {
	siblings, err := h.eventRepo.ListSiblingIDs(ctx, source.OrganizationID, source.ID)
	if err != nil {
		h.logger.Error("load sibling events", zap.Error(err), zap.String("event_id", source.ID.String()))
		return 0
	}
	applied := 0
	for _, siblingID := range siblings {
		token, err := utils.NewInviteToken()
		if err != nil {
			h.logger.Warn("sibling invite token", zap.Error(err), zap.String("event_id", siblingID.String()))
			continue
		}
		m := &models.Membership{
			ScopeType:       models.ScopeEvent,
			ScopeID:         siblingID,
			Email:           parent.Email,
			UserID:          parent.UserID,
			FullName:        parent.FullName,
			Role:            ref,
			TemporaryAccess: body.TemporaryAccess,
			ExpiresAt:       body.ExpiresAt,
			InviteToken:     token,
			InvitedBy:       parent.InvitedBy,
		}
		if err := h.repo.Upsert(ctx, m); err != nil {
			h.logger.Warn("sibling invite upsert",
				zap.Error(err),
				zap.String("event_id", siblingID.String()),
				zap.String("email", parent.Email),
			)
			continue
		}
		applied++
	}
	return applied
}
