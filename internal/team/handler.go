package team

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventlane/backend/internal/access"
	"github.com/eventlane/backend/internal/auth"
	"github.com/eventlane/backend/internal/events"
	"github.com/eventlane/backend/internal/middleware"
	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/internal/organizations"
	"github.com/eventlane/backend/internal/roles"
	"github.com/eventlane/backend/pkg/queue"
	"github.com/eventlane/backend/pkg/response"
	"github.com/eventlane/backend/pkg/utils"
)

// Handler handles team membership HTTP endpoints for both scopes.
type Handler struct {
	repo      *Repository
	roleRepo  *roles.Repository
	userRepo  *auth.Repository
	eventRepo *events.Repository
	orgRepo   *organizations.Repository
	checker   *access.Checker
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewHandler creates a team handler.
func NewHandler(
	repo *Repository,
	roleRepo *roles.Repository,
	userRepo *auth.Repository,
	eventRepo *events.Repository,
	orgRepo *organizations.Repository,
	checker *access.Checker,
	q *queue.Queue,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		repo:      repo,
		roleRepo:  roleRepo,
		userRepo:  userRepo,
		eventRepo: eventRepo,
		orgRepo:   orgRepo,
		checker:   checker,
		queue:     q,
		logger:    logger,
	}
}

func actorFrom(c *gin.Context) access.Actor {
	return access.Actor{
		ID:    c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Email: c.MustGet(middleware.ContextUserEmail).(string),
	}
}

// guardOrg authorizes the caller for the organization team. Non-viewers
// get 404; viewers without team:manage get 403 when manage is required.
func (h *Handler) guardOrg(c *gin.Context, manage bool) (uuid.UUID, bool) {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return uuid.Nil, false
	}
	actor := actorFrom(c)
	snap, err := h.checker.OrgSnapshot(c.Request.Context(), orgID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return uuid.Nil, false
	}
	now := time.Now()
	if snap == nil || !access.CanView(actor.ID, *snap, now) {
		response.NotFound(c, "organization not found")
		return uuid.Nil, false
	}
	if manage && !access.CanManage(actor.ID, *snap, models.PermManageTeam, now) {
		response.Forbidden(c, "not authorized to manage the team")
		return uuid.Nil, false
	}
	return orgID, true
}

// guardEvent authorizes the caller for the event team.
func (h *Handler) guardEvent(c *gin.Context, manage bool) (*models.Event, bool) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	actor := actorFrom(c)
	snap, ev, err := h.checker.EventSnapshot(c.Request.Context(), eventID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return nil, false
	}
	now := time.Now()
	if snap == nil || !access.CanView(actor.ID, *snap, now) {
		response.NotFound(c, "event not found")
		return nil, false
	}
	if manage && !access.CanManage(actor.ID, *snap, models.PermManageTeam, now) {
		response.Forbidden(c, "not authorized to manage the team")
		return nil, false
	}
	return ev, true
}

// listTeam runs the lazy expiration sweep, then reads.
func (h *Handler) listTeam(c *gin.Context, scopeType models.ScopeType, scopeID uuid.UUID) {
	if _, err := h.repo.ExpireStale(c.Request.Context(), scopeType, scopeID); err != nil {
		h.logger.Error("expire sweep", zap.Error(err), zap.String("scope_id", scopeID.String()))
		response.Internal(c, "failed to load team")
		return
	}
	list, err := h.repo.ListByScope(c.Request.Context(), scopeType, scopeID)
	if err != nil {
		response.Internal(c, "failed to load team")
		return
	}
	response.OK(c, list)
}

// ListOrgTeam handles GET /organizations/:orgId/team.
func (h *Handler) ListOrgTeam(c *gin.Context) {
	orgID, ok := h.guardOrg(c, false)
	if !ok {
		return
	}
	h.listTeam(c, models.ScopeOrganization, orgID)
}

// validateInvite resolves the role reference (checking custom roles
// against the owning organization) and the temporary-access pair.
func (h *Handler) validateInvite(ctx context.Context, orgID uuid.UUID, body *InviteRequest) (models.RoleRef, map[string][]string) {
	fields := map[string][]string{}
	ref := ResolveRoleRef(body.Role, body.RoleID, fields)
	if id, ok := ref.CustomID(); ok {
		role, err := h.roleRepo.GetByID(ctx, orgID, id)
		if err != nil {
			fields["role_id"] = append(fields["role_id"], "could not verify role")
		} else if role == nil {
			fields["role_id"] = append(fields["role_id"], "role not found in this organization")
		}
	}
	ValidateTemporaryAccess(body.TemporaryAccess, body.ExpiresAt, time.Now(), fields)
	return ref, fields
}

// buildMembership assembles the row for an invite upsert: normalized
// email, resolved user (when the address already has an account) and a
// fresh token.
func (h *Handler) buildMembership(ctx context.Context, scopeType models.ScopeType, scopeID uuid.UUID, body *InviteRequest, ref models.RoleRef, invitedBy uuid.UUID) (*models.Membership, error) {
	email := NormalizeEmail(body.Email)
	token, err := utils.NewInviteToken()
	if err != nil {
		return nil, err
	}
	m := &models.Membership{
		ScopeType:       scopeType,
		ScopeID:         scopeID,
		Email:           email,
		FullName:        body.FullName,
		Role:            ref,
		TemporaryAccess: body.TemporaryAccess,
		ExpiresAt:       body.ExpiresAt,
		InviteToken:     token,
		InvitedBy:       &invitedBy,
	}
	user, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		m.UserID = &user.ID
		if m.FullName == "" {
			m.FullName = user.FullName
		}
	}
	return m, nil
}

// enqueueInviteEmail hands the notification to the worker queue. Email
// delivery is fire-and-forget: failures are logged, never surfaced.
func (h *Handler) enqueueInviteEmail(c *gin.Context, emailType string, m *models.Membership, scopeName string) {
	payload := queue.InviteEmailPayload{
		EmailType:      emailType,
		ScopeType:      string(m.ScopeType),
		ScopeID:        m.ScopeID,
		ScopeName:      scopeName,
		MembershipID:   m.ID,
		RecipientEmail: m.Email,
		InviteToken:    m.InviteToken,
		InvitedByName:  c.MustGet(middleware.ContextUserEmail).(string),
	}
	if err := h.queue.EnqueueInviteEmail(c.Request.Context(), payload); err != nil {
		h.logger.Warn("enqueue invite email", zap.Error(err), zap.String("recipient", m.Email))
	}
}

// InviteOrgMember handles POST /organizations/:orgId/team.
func (h *Handler) InviteOrgMember(c *gin.Context) {
	orgID, ok := h.guardOrg(c, true)
	if !ok {
		return
	}
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "valid email and role required")
		return
	}
	ref, fields := h.validateInvite(c.Request.Context(), orgID, &body)
	if len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}
	m, err := h.buildMembership(c.Request.Context(), models.ScopeOrganization, orgID, &body, ref, actorFrom(c).ID)
	if err != nil {
		response.Internal(c, "failed to prepare invitation")
		return
	}
	if err := h.repo.Upsert(c.Request.Context(), m); err != nil {
		h.logger.Error("upsert invite", zap.Error(err))
		response.Internal(c, "failed to save invitation")
		return
	}
	scopeName := ""
	if org, err := h.orgRepo.GetByID(c.Request.Context(), orgID); err == nil && org != nil {
		scopeName = org.Name
	}
	h.enqueueInviteEmail(c, "invite", m, scopeName)
	response.Created(c, m)
}

// UpdateOrgMember handles PATCH /organizations/:orgId/team/:memberId.
func (h *Handler) UpdateOrgMember(c *gin.Context) {
	orgID, ok := h.guardOrg(c, true)
	if !ok {
		return
	}
	h.updateMember(c, models.ScopeOrganization, orgID, orgID)
}

// DeleteOrgMember handles DELETE /organizations/:orgId/team/:memberId.
func (h *Handler) DeleteOrgMember(c *gin.Context) {
	orgID, ok := h.guardOrg(c, true)
	if !ok {
		return
	}
	h.deleteMember(c, models.ScopeOrganization, orgID)
}

// updateMember applies a patch or resend to one membership. orgID is the
// owning organization used for custom-role validation (equal to the scope
// id for org scope).
func (h *Handler) updateMember(c *gin.Context, scopeType models.ScopeType, scopeID, orgID uuid.UUID) {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var body UpdateMemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), scopeType, scopeID, memberID)
	if err != nil {
		response.Internal(c, "failed to load member")
		return
	}
	if m == nil {
		response.NotFound(c, "member not found")
		return
	}

	// resend rotates the token and forces invited; other fields ignored.
	if body.Action == ActionResend {
		token, err := utils.NewInviteToken()
		if err != nil {
			response.Internal(c, "failed to rotate token")
			return
		}
		if err := h.repo.RotateToken(c.Request.Context(), m.ID, token); err != nil {
			response.Internal(c, "failed to rotate token")
			return
		}
		m.InviteToken = token
		m.Status = models.StatusInvited
		h.enqueueInviteEmail(c, "resend", m, "")
		response.OK(c, m)
		return
	}

	fields := map[string][]string{}
	if body.Role != nil || body.RoleID != nil {
		role := ""
		if body.Role != nil {
			role = *body.Role
		}
		ref := ResolveRoleRef(role, body.RoleID, fields)
		if id, ok := ref.CustomID(); ok {
			r, err := h.roleRepo.GetByID(c.Request.Context(), orgID, id)
			if err != nil || r == nil {
				fields["role_id"] = append(fields["role_id"], "role not found in this organization")
			}
		}
		if len(fields) == 0 {
			m.Role = ref
		}
	}
	if body.Status != nil {
		ValidateStatus(*body.Status, fields)
		if len(fields["status"]) == 0 {
			m.Status = *body.Status
		}
	}
	if body.TemporaryAccess != nil {
		m.TemporaryAccess = *body.TemporaryAccess
		if !m.TemporaryAccess {
			m.ExpiresAt = nil
		}
	}
	if body.ExpiresAt != nil {
		m.ExpiresAt = body.ExpiresAt
	}
	// Only re-check the expiry pair when the patch touched it; a role or
	// status change on an already-lapsed member must not fail on the old
	// expires_at.
	if body.TemporaryAccess != nil || body.ExpiresAt != nil {
		ValidateTemporaryAccess(m.TemporaryAccess, m.ExpiresAt, time.Now(), fields)
	}
	if len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}
	if err := h.repo.UpdateFields(c.Request.Context(), m); err != nil {
		h.logger.Error("update member", zap.Error(err))
		response.Internal(c, "failed to update member")
		return
	}
	response.OK(c, m)
}

// deleteMember removes one membership of the scope.
func (h *Handler) deleteMember(c *gin.Context, scopeType models.ScopeType, scopeID uuid.UUID) {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), scopeType, scopeID, memberID)
	if err != nil {
		response.Internal(c, "failed to delete member")
		return
	}
	if !deleted {
		response.NotFound(c, "member not found")
		return
	}
	response.Deleted(c)
}
