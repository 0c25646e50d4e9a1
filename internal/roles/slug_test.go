package roles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Door Staff", "door-staff"},
		{"already slug", "vip-host", "vip-host"},
		{"diacritics", "Tourné Générale", "tourne-generale"},
		{"punctuation collapsed", "Box Office / Till #2", "box-office-till-2"},
		{"leading and trailing junk", "  --Backstage!  ", "backstage"},
		{"uppercase", "SECURITY", "security"},
		{"empty", "", ""},
		{"only symbols", "!!! ???", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("abcde-", 20)
	got := Slugify(long)
	assert.LessOrEqual(t, len(got), maxSlugLen)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestSlugWithSuffix(t *testing.T) {
	assert.Equal(t, "door-staff-2", SlugWithSuffix("door-staff", 2))
	assert.Equal(t, "door-staff-50", SlugWithSuffix("door-staff", 50))
}

func TestSlugWithSuffixKeepsCap(t *testing.T) {
	base := strings.Repeat("a", maxSlugLen)
	got := SlugWithSuffix(base, 17)
	assert.LessOrEqual(t, len(got), maxSlugLen)
	assert.True(t, strings.HasSuffix(got, "-17"))
}
