package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRelative(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds ago", now.Add(-30 * time.Second), "just now"},
		{"minutes ago", now.Add(-5 * time.Minute), "5 min ago"},
		{"hours ago", now.Add(-3 * time.Hour), "3 h ago"},
		{"yesterday", now.Add(-30 * time.Hour), "yesterday"},
		{"days ago", now.Add(-3 * 24 * time.Hour), "3 d ago"},
		{"weeks ago", now.Add(-15 * 24 * time.Hour), "2 w ago"},
		{"months ago", now.Add(-70 * 24 * time.Hour), "2 mo ago"},
		{"years ago", now.Add(-400 * 24 * time.Hour), "1 y ago"},
		{"slightly future", now.Add(30 * time.Second), "now"},
		{"future minutes", now.Add(10 * time.Minute), "in 9 min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRelative(tt.t))
		})
	}
}
