package models

import "fmt"

// Permission identifies one entry in a role's permission map. The set is
// closed; payloads carrying keys outside it are rejected at the boundary.
type Permission string

const (
	PermManageOrganization Permission = "organization:manage"
	PermManageEvents       Permission = "events:manage"
	PermManageTeam         Permission = "team:manage"
	PermManageRoles        Permission = "roles:manage"
	PermManageAttendees    Permission = "attendees:manage"
	PermManageOrders       Permission = "orders:manage"
	PermScanTickets        Permission = "tickets:scan"
	PermViewReports        Permission = "reports:view"
)

// AllPermissions is the closed set of permission keys, in display order.
var AllPermissions = []Permission{
	PermManageOrganization,
	PermManageEvents,
	PermManageTeam,
	PermManageRoles,
	PermManageAttendees,
	PermManageOrders,
	PermScanTickets,
	PermViewReports,
}

// PermissionMap maps permission keys to granted/denied.
type PermissionMap map[Permission]bool

// DefaultPermissions returns an all-false map covering every known key.
func DefaultPermissions() PermissionMap {
	m := make(PermissionMap, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = false
	}
	return m
}

// FullPermissions returns an all-true map covering every known key.
func FullPermissions() PermissionMap {
	m := make(PermissionMap, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = true
	}
	return m
}

// Granted reports whether the permission is present and true.
func (m PermissionMap) Granted(p Permission) bool {
	return m[p]
}

// MergePermissions validates a free-form patch against the closed key set
// and overlays it on base. Unknown keys fail the whole patch.
func MergePermissions(base PermissionMap, patch map[string]bool) (PermissionMap, error) {
	known := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		known[p] = struct{}{}
	}
	out := make(PermissionMap, len(AllPermissions))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		p := Permission(k)
		if _, ok := known[p]; !ok {
			return nil, fmt.Errorf("unknown permission key: %q", k)
		}
		out[p] = v
	}
	return out, nil
}
