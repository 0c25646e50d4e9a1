package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPermissionsAllFalse(t *testing.T) {
	m := DefaultPermissions()
	assert.Len(t, m, len(AllPermissions))
	for _, p := range AllPermissions {
		assert.False(t, m.Granted(p), string(p))
	}
}

func TestFullPermissionsAllTrue(t *testing.T) {
	m := FullPermissions()
	for _, p := range AllPermissions {
		assert.True(t, m.Granted(p), string(p))
	}
}

func TestMergePermissions(t *testing.T) {
	out, err := MergePermissions(DefaultPermissions(), map[string]bool{
		"team:manage":  true,
		"tickets:scan": true,
	})
	require.NoError(t, err)
	assert.True(t, out.Granted(PermManageTeam))
	assert.True(t, out.Granted(PermScanTickets))
	assert.False(t, out.Granted(PermManageRoles))
}

func TestMergePermissionsRejectsUnknownKey(t *testing.T) {
	_, err := MergePermissions(DefaultPermissions(), map[string]bool{
		"team:manage":       true,
		"warp:reality-bend": true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warp:reality-bend")
}

func TestMergePermissionsDoesNotMutateBase(t *testing.T) {
	base := DefaultPermissions()
	_, err := MergePermissions(base, map[string]bool{"team:manage": true})
	require.NoError(t, err)
	assert.False(t, base.Granted(PermManageTeam))
}
