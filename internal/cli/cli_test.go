package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/fpang/reel-studio/internal/store"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{65 * time.Second, "1:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.d); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.t, now); got != tt.want {
			t.Errorf("FormatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestStateLabel(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	if got := StateLabel(store.StateCompleted); got != "completed  " {
		t.Errorf("StateLabel(completed) = %q", got)
	}
	if got := StateLabel(store.State("weird")); strings.TrimSpace(got) != "weird" {
		t.Errorf("StateLabel(weird) = %q", got)
	}
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveDirectory(dir)
	if err != nil || !filepath.IsAbs(got) {
		t.Errorf("ResolveDirectory(%q) = (%q, %v)", dir, got, err)
	}

	if _, err := ResolveDirectory(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing directory should fail")
	}

	file := filepath.Join(dir, "f.txt")
	os.WriteFile(file, []byte("x"), 0o644)
	if _, err := ResolveDirectory(file); err == nil {
		t.Error("file should fail")
	}
}

func TestPromptForDirectory(t *testing.T) {
	var out bytes.Buffer
	if got := PromptForDirectory(strings.NewReader("\n"), &out, "images"); got != "images" {
		t.Errorf("empty input = %q, want default", got)
	}
	if !strings.Contains(out.String(), "[images]") {
		t.Errorf("prompt = %q", out.String())
	}
	if got := PromptForDirectory(strings.NewReader("  photos/city \n"), &out, "images"); got != "photos/city" {
		t.Errorf("input = %q", got)
	}
	if got := PromptForDirectory(strings.NewReader(""), &out, "images"); got != "images" {
		t.Errorf("EOF input = %q, want default", got)
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		if got := Confirm(strings.NewReader(input), &out, "Delete?"); got != want {
			t.Errorf("Confirm(%q) = %v, want %v", input, got, want)
		}
	}
}
