package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/swarmhub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Swarm on the oak tree", "Swarm on the oak tree"},
		{"ampersand kept", "Tom & Jerry's garden", "Tom & Jerry's garden"},
		{"tags stripped", "<b>big</b> swarm", "big swarm"},
		{"script removed", "near the shed<script>alert('x')</script>", "near the shed"},
		{"attributes gone", `<a href="javascript:alert(1)">click</a>`, "click"},
		{"trimmed", "  <p> by the river </p> ", "by the river"},
		{"non ascii", "Prešernov trg, Ljubljana", "Prešernov trg, Ljubljana"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
