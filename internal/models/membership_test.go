package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		m    Membership
		want string
	}{
		{
			name: "permanent active stays active",
			m:    Membership{Status: StatusActive},
			want: StatusActive,
		},
		{
			name: "temporary active past expiry reads expired",
			m:    Membership{Status: StatusActive, TemporaryAccess: true, ExpiresAt: &past},
			want: StatusExpired,
		},
		{
			name: "temporary invited past expiry reads expired",
			m:    Membership{Status: StatusInvited, TemporaryAccess: true, ExpiresAt: &past},
			want: StatusExpired,
		},
		{
			name: "temporary active before expiry stays active",
			m:    Membership{Status: StatusActive, TemporaryAccess: true, ExpiresAt: &future},
			want: StatusActive,
		},
		{
			name: "revoked is terminal even past expiry",
			m:    Membership{Status: StatusRevoked, TemporaryAccess: true, ExpiresAt: &past},
			want: StatusRevoked,
		},
		{
			name: "expiry without temporary flag is ignored",
			m:    Membership{Status: StatusActive, ExpiresAt: &past},
			want: StatusActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.EffectiveStatus(now))
		})
	}
}

func TestIsLiveActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	active := Membership{Status: StatusActive}
	assert.True(t, active.IsLiveActive(now))

	invited := Membership{Status: StatusInvited}
	assert.False(t, invited.IsLiveActive(now))

	lapsed := Membership{Status: StatusActive, TemporaryAccess: true, ExpiresAt: &past}
	assert.False(t, lapsed.IsLiveActive(now))
}
