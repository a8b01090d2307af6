package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessibilityScore(t *testing.T) {
	tests := []struct {
		name   string
		issues int
		want   int
	}{
		{"clean page", 0, 100},
		{"one issue", 1, 90},
		{"several issues", 7, 30},
		{"exactly at the floor", 10, 0},
		{"beyond the floor", 25, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, accessibilityScore(tt.issues))
		})
	}
}
