package jobs

import (
	"strings"
	"testing"
)

func TestGenerateSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSessionID()
		if !strings.HasPrefix(id, SessionPrefix) {
			t.Fatalf("id %q missing prefix", id)
		}
		if len(id) != len(SessionPrefix)+32 {
			t.Errorf("id %q has length %d", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNormalizeSessionID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"session_abc", "session_abc"},
		{"abc", "session_abc"},
		{"  abc ", "session_abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSessionID(tt.in); got != tt.want {
			t.Errorf("NormalizeSessionID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
