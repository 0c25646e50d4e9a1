package roles

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/eventlane/backend/internal/access"
	"github.com/eventlane/backend/internal/middleware"
	"github.com/eventlane/backend/internal/models"
	"github.com/eventlane/backend/pkg/response"
)

var (
	colorRegex   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	iconKeyRegex = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)
)

// Handler handles role HTTP endpoints.
type Handler struct {
	repo    *Repository
	checker *access.Checker
	logger  *zap.Logger
}

// NewHandler creates a roles handler.
func NewHandler(repo *Repository, checker *access.Checker, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, checker: checker, logger: logger}
}

// guardOrg authorizes the caller for the organization. Non-viewers get
// 404 (existence is not revealed); viewers without roles:manage get 403
// when manage is required. Returns uuid.Nil when the response was
// already written.
func (h *Handler) guardOrg(c *gin.Context, manage bool) uuid.UUID {
	orgID, err := uuid.Parse(c.Param("orgId"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return uuid.Nil
	}
	actor := access.Actor{
		ID:    c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Email: c.MustGet(middleware.ContextUserEmail).(string),
	}
	snap, err := h.checker.OrgSnapshot(c.Request.Context(), orgID, actor)
	if err != nil {
		response.Internal(c, "failed to check access")
		return uuid.Nil
	}
	now := time.Now()
	if snap == nil || !access.CanView(actor.ID, *snap, now) {
		response.NotFound(c, "organization not found")
		return uuid.Nil
	}
	if manage && !access.CanManage(actor.ID, *snap, models.PermManageRoles, now) {
		response.Forbidden(c, "not authorized to manage roles")
		return uuid.Nil
	}
	return orgID
}

// List handles GET /organizations/:orgId/roles. System roles are seeded
// before any listing is served.
func (h *Handler) List(c *gin.Context) {
	orgID := h.guardOrg(c, false)
	if orgID == uuid.Nil {
		return
	}
	if err := h.repo.EnsureSystemRoles(c.Request.Context(), orgID); err != nil {
		h.logger.Error("seed system roles", zap.Error(err), zap.String("org_id", orgID.String()))
		response.Internal(c, "failed to seed system roles")
		return
	}
	list, err := h.repo.ListWithCounts(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	response.OK(c, list)
}

// CreateRoleRequest is the body for POST /organizations/:orgId/roles.
type CreateRoleRequest struct {
	Name        string          `json:"name" binding:"required"`
	Key         string          `json:"key"`
	Color       string          `json:"color"`
	IconKey     *string         `json:"icon_key"`
	IconURL     *string         `json:"icon_url"`
	Permissions map[string]bool `json:"permissions"`
}

// Create handles POST /organizations/:orgId/roles.
func (h *Handler) Create(c *gin.Context) {
	orgID := h.guardOrg(c, true)
	if orgID == uuid.Nil {
		return
	}
	var body CreateRoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	fields := map[string][]string{}
	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > 255 {
		fields["name"] = append(fields["name"], "must be 1–255 characters")
	}
	color := body.Color
	if color == "" {
		color = "#6b7280"
	} else if !colorRegex.MatchString(color) {
		fields["color"] = append(fields["color"], "must be a #rrggbb hex color")
	}
	iconKey, iconURL, iconErr := validateIcon(body.IconKey, body.IconURL)
	if iconErr != "" {
		fields["icon"] = append(fields["icon"], iconErr)
	}
	perms, err := models.MergePermissions(models.DefaultPermissions(), body.Permissions)
	if err != nil {
		fields["permissions"] = append(fields["permissions"], err.Error())
	}
	slug := Slugify(body.Key)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		fields["key"] = append(fields["key"], "cannot derive a key from the supplied values")
	}
	if len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}

	maxOrder, err := h.repo.MaxSortOrder(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to create role")
		return
	}
	role := &models.Role{
		OrganizationID: orgID,
		Name:           name,
		Color:          color,
		IconKey:        iconKey,
		IconURL:        iconURL,
		SortOrder:      maxOrder + 1,
		Permissions:    perms,
	}
	if err := h.repo.Create(c.Request.Context(), role, slug); err != nil {
		if errors.Is(err, ErrSlugExhausted) {
			response.Conflict(c, "could not allocate a unique role key")
			return
		}
		h.logger.Error("create role", zap.Error(err))
		response.Internal(c, "failed to create role")
		return
	}
	response.Created(c, role)
}

// UpdateRoleRequest is the body for PATCH /organizations/:orgId/roles/:roleId.
// All fields are optional; icon_key and icon_url are mutually exclusive
// and setting one clears the other.
type UpdateRoleRequest struct {
	Name        *string         `json:"name"`
	Color       *string         `json:"color"`
	IconKey     *string         `json:"icon_key"`
	IconURL     *string         `json:"icon_url"`
	SortOrder   *int            `json:"sort_order"`
	Permissions map[string]bool `json:"permissions"`
}

// Update handles PATCH /organizations/:orgId/roles/:roleId.
func (h *Handler) Update(c *gin.Context) {
	orgID := h.guardOrg(c, true)
	if orgID == uuid.Nil {
		return
	}
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var body UpdateRoleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	role, err := h.repo.GetByID(c.Request.Context(), orgID, roleID)
	if err != nil {
		response.Internal(c, "failed to load role")
		return
	}
	if role == nil {
		response.NotFound(c, "role not found")
		return
	}

	fields := map[string][]string{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" || len(name) > 255 {
			fields["name"] = append(fields["name"], "must be 1–255 characters")
		} else {
			role.Name = name
		}
	}
	if body.Color != nil {
		if !colorRegex.MatchString(*body.Color) {
			fields["color"] = append(fields["color"], "must be a #rrggbb hex color")
		} else {
			role.Color = *body.Color
		}
	}
	if body.IconKey != nil || body.IconURL != nil {
		iconKey, iconURL, iconErr := validateIcon(body.IconKey, body.IconURL)
		if iconErr != "" {
			fields["icon"] = append(fields["icon"], iconErr)
		} else {
			role.IconKey = iconKey
			role.IconURL = iconURL
		}
	}
	if body.SortOrder != nil {
		if *body.SortOrder < 1 {
			fields["sort_order"] = append(fields["sort_order"], "must be >= 1")
		} else {
			role.SortOrder = *body.SortOrder
		}
	}
	if body.Permissions != nil {
		perms, err := models.MergePermissions(role.Permissions, body.Permissions)
		if err != nil {
			fields["permissions"] = append(fields["permissions"], err.Error())
		} else {
			role.Permissions = perms
		}
	}
	if len(fields) > 0 {
		response.ValidationFailed(c, fields)
		return
	}
	if err := h.repo.Update(c.Request.Context(), role); err != nil {
		h.logger.Error("update role", zap.Error(err))
		response.Internal(c, "failed to update role")
		return
	}
	response.OK(c, role)
}

// ReorderRequest is the body for PATCH /organizations/:orgId/roles/reorder.
type ReorderRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" binding:"required,min=1"`
}

// Reorder handles PATCH /organizations/:orgId/roles/reorder.
func (h *Handler) Reorder(c *gin.Context) {
	orgID := h.guardOrg(c, true)
	if orgID == uuid.Nil {
		return
	}
	var body ReorderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "role_ids required")
		return
	}
	seen := make(map[uuid.UUID]struct{}, len(body.RoleIDs))
	for _, id := range body.RoleIDs {
		if _, dup := seen[id]; dup {
			response.BadRequest(c, "role_ids contains duplicates")
			return
		}
		seen[id] = struct{}{}
	}
	if err := h.repo.Reorder(c.Request.Context(), orgID, body.RoleIDs); err != nil {
		if errors.Is(err, ErrUnknownRole) {
			response.BadRequest(c, "role_ids contains a role not in this organization")
			return
		}
		h.logger.Error("reorder roles", zap.Error(err))
		response.Internal(c, "failed to reorder roles")
		return
	}
	list, err := h.repo.ListWithCounts(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /organizations/:orgId/roles/:roleId.
func (h *Handler) Delete(c *gin.Context) {
	orgID := h.guardOrg(c, true)
	if orgID == uuid.Nil {
		return
	}
	roleID, err := uuid.Parse(c.Param("roleId"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), orgID, roleID); err != nil {
		switch {
		case errors.Is(err, ErrSystemRole):
			response.BadRequest(c, "system roles cannot be deleted")
		case errors.Is(err, pgx.ErrNoRows):
			response.NotFound(c, "role not found")
		default:
			h.logger.Error("delete role", zap.Error(err))
			response.Internal(c, "failed to delete role")
		}
		return
	}
	response.Deleted(c)
}

// validateIcon enforces the icon_key XOR icon_url invariant and shape.
func validateIcon(iconKey, iconURL *string) (*string, *string, string) {
	if iconKey != nil && iconURL != nil {
		return nil, nil, "icon_key and icon_url are mutually exclusive"
	}
	if iconKey != nil {
		if !iconKeyRegex.MatchString(*iconKey) {
			return nil, nil, "icon_key must be a lowercase slug"
		}
		return iconKey, nil, ""
	}
	if iconURL != nil {
		if !strings.HasPrefix(*iconURL, "http://") && !strings.HasPrefix(*iconURL, "https://") {
			return nil, nil, "icon_url must be an http(s) URL"
		}
		return nil, iconURL, ""
	}
	return nil, nil, ""
}
