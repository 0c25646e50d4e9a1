package models

import (
	"time"

	"github.com/google/uuid"
)

// System role keys seeded for every organization.
const (
	RoleKeyAdmin        = "admin"
	RoleKeyPromoter     = "promoter"
	RoleKeyScanner      = "scanner"
	RoleKeyCollaborator = "collaborator"
	RoleKeyMember       = "member"
)

// Role is an organization-scoped role, either system (seeded, immutable
// key, undeletable) or custom (organization-defined permission map).
type Role struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	Key            string        `json:"key"`
	Name           string        `json:"name"`
	Color          string        `json:"color"`
	IconKey        *string       `json:"icon_key,omitempty"`
	IconURL        *string       `json:"icon_url,omitempty"`
	IsSystem       bool          `json:"is_system"`
	SortOrder      int           `json:"sort_order"`
	Permissions    PermissionMap `json:"permissions"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SystemRoleDefinition describes one seeded system role.
type SystemRoleDefinition struct {
	Key         string
	Name        string
	Color       string
	SortOrder   int
	Permissions PermissionMap
}

// SystemRoleDefinitions returns the five built-in roles in seed order.
func SystemRoleDefinitions() []SystemRoleDefinition {
	return []SystemRoleDefinition{
		{
			Key:         RoleKeyAdmin,
			Name:        "Admin",
			Color:       "#ef4444",
			SortOrder:   1,
			Permissions: FullPermissions(),
		},
		{
			Key:       RoleKeyPromoter,
			Name:      "Promoter",
			Color:     "#f59e0b",
			SortOrder: 2,
			Permissions: withGrants(
				PermManageOrders,
				PermViewReports,
			),
		},
		{
			Key:       RoleKeyScanner,
			Name:      "Scanner",
			Color:     "#10b981",
			SortOrder: 3,
			Permissions: withGrants(
				PermScanTickets,
			),
		},
		{
			Key:       RoleKeyCollaborator,
			Name:      "Collaborator",
			Color:     "#3b82f6",
			SortOrder: 4,
			Permissions: withGrants(
				PermManageEvents,
				PermManageAttendees,
				PermViewReports,
			),
		},
		{
			Key:         RoleKeyMember,
			Name:        "Member",
			Color:       "#6b7280",
			SortOrder:   5,
			Permissions: DefaultPermissions(),
		},
	}
}

func withGrants(grants ...Permission) PermissionMap {
	m := DefaultPermissions()
	for _, p := range grants {
		m[p] = true
	}
	return m
}
