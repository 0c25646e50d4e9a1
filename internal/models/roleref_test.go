package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRefVariants(t *testing.T) {
	sys := SystemRoleRef(RoleKeyAdmin)
	assert.False(t, sys.IsCustom())
	assert.False(t, sys.IsZero())
	key, ok := sys.SystemKey()
	assert.True(t, ok)
	assert.Equal(t, "admin", key)
	_, ok = sys.CustomID()
	assert.False(t, ok)

	id := uuid.New()
	custom := CustomRoleRef(id)
	assert.True(t, custom.IsCustom())
	got, ok := custom.CustomID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = custom.SystemKey()
	assert.False(t, ok)

	var zero RoleRef
	assert.True(t, zero.IsZero())
}

func TestRoleRefColumns(t *testing.T) {
	key, id := SystemRoleRef("scanner").Columns()
	require.NotNil(t, key)
	assert.Nil(t, id)
	assert.Equal(t, "scanner", *key)

	rid := uuid.New()
	key, id = CustomRoleRef(rid).Columns()
	assert.Nil(t, key)
	require.NotNil(t, id)
	assert.Equal(t, rid, *id)
}

func TestRoleRefFromColumns(t *testing.T) {
	k := "promoter"
	ref := RoleRefFromColumns(&k, nil)
	key, ok := ref.SystemKey()
	assert.True(t, ok)
	assert.Equal(t, "promoter", key)

	rid := uuid.New()
	ref = RoleRefFromColumns(nil, &rid)
	got, ok := ref.CustomID()
	assert.True(t, ok)
	assert.Equal(t, rid, got)

	assert.True(t, RoleRefFromColumns(nil, nil).IsZero())
}

func TestRoleRefJSON(t *testing.T) {
	out, err := json.Marshal(SystemRoleRef("member"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"member"}`, string(out))

	rid := uuid.New()
	out, err = json.Marshal(CustomRoleRef(rid))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+rid.String()+`"}`, string(out))

	var ref RoleRef
	require.NoError(t, json.Unmarshal([]byte(`{"key":"admin"}`), &ref))
	key, ok := ref.SystemKey()
	assert.True(t, ok)
	assert.Equal(t, "admin", key)

	err = json.Unmarshal([]byte(`{"key":"admin","id":"`+rid.String()+`"}`), &ref)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{}`), &ref)
	assert.ErrorIs(t, err, ErrEmptyRoleRef)
}
