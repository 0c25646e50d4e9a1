package models

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ErrEmptyRoleRef is returned when neither a system key nor a custom role
// id is present.
var ErrEmptyRoleRef = errors.New("role reference is empty")

// RoleRef is a tagged reference to either a system role (by key) or a
// custom role (by id). A membership always holds exactly one variant.
type RoleRef struct {
	key    string
	roleID uuid.UUID
	custom bool
}

// SystemRoleRef references a system role by key.
func SystemRoleRef(key string) RoleRef {
	return RoleRef{key: key}
}

// CustomRoleRef references a custom role by id.
func CustomRoleRef(id uuid.UUID) RoleRef {
	return RoleRef{roleID: id, custom: true}
}

// IsZero reports whether the reference holds neither variant.
func (r RoleRef) IsZero() bool {
	return !r.custom && r.key == ""
}

// IsCustom reports whether the reference points at a custom role.
func (r RoleRef) IsCustom() bool {
	return r.custom
}

// SystemKey returns the system role key and whether that is the active variant.
func (r RoleRef) SystemKey() (string, bool) {
	if r.custom {
		return "", false
	}
	return r.key, r.key != ""
}

// CustomID returns the custom role id and whether that is the active variant.
func (r RoleRef) CustomID() (uuid.UUID, bool) {
	if !r.custom {
		return uuid.Nil, false
	}
	return r.roleID, true
}

// Columns splits the reference into the nullable role_key / role_id pair
// used by the memberships table. Exactly one return value is non-nil.
func (r RoleRef) Columns() (roleKey *string, roleID *uuid.UUID) {
	if r.custom {
		id := r.roleID
		return nil, &id
	}
	if r.key != "" {
		k := r.key
		return &k, nil
	}
	return nil, nil
}

// RoleRefFromColumns rebuilds the reference from the stored column pair.
func RoleRefFromColumns(roleKey *string, roleID *uuid.UUID) RoleRef {
	if roleID != nil {
		return CustomRoleRef(*roleID)
	}
	if roleKey != nil {
		return SystemRoleRef(*roleKey)
	}
	return RoleRef{}
}

type roleRefJSON struct {
	Key *string    `json:"key,omitempty"`
	ID  *uuid.UUID `json:"id,omitempty"`
}

// MarshalJSON encodes the active variant as {"key": ...} or {"id": ...}.
func (r RoleRef) MarshalJSON() ([]byte, error) {
	key, id := r.Columns()
	return json.Marshal(roleRefJSON{Key: key, ID: id})
}

// UnmarshalJSON accepts {"key": ...} or {"id": ...}; both or neither is an error.
func (r *RoleRef) UnmarshalJSON(data []byte) error {
	var raw roleRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Key != nil && raw.ID != nil:
		return errors.New("role reference cannot carry both key and id")
	case raw.ID != nil:
		*r = CustomRoleRef(*raw.ID)
	case raw.Key != nil:
		*r = SystemRoleRef(*raw.Key)
	default:
		return ErrEmptyRoleRef
	}
	return nil
}
