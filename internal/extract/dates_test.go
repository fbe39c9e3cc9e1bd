package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"3/5/24 9:00am", "2024/03/05 09:00:00", true},
		{"3/5/24 9:00 PM", "2024/03/05 21:00:00", true},
		{"2024/03/05 09:00:00", "2024/03/05 09:00:00", true},
		{"2024-03-05 14:30:00", "2024/03/05 14:30:00", true},
		{"2024-03-05", "2024/03/05 00:00:00", true},
		{"May 8, 2009 5:57:51 PM", "2009/05/08 17:57:51", true},
		{"March 4, 2024 at 6:15 PM", "2024/03/04 18:15:00", true},
		{"Monday, March 4, 2024 6:15 PM", "2024/03/04 18:15:00", true},
		{"", "", false},
		{"tomorrow-ish", "tomorrow-ish", false},
		{"9:00am", "9:00am", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CanonicalDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCanonicalTimestamp(t *testing.T) {
	assert.True(t, IsCanonicalTimestamp("2024/03/05 09:00:00"))
	assert.False(t, IsCanonicalTimestamp("2024/3/5 9:00:00"))
	assert.False(t, IsCanonicalTimestamp("2024-03-05 09:00:00"))
}
