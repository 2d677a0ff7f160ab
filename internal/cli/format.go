package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/fpang/reel-studio/internal/store"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatAge renders how long ago t was, e.g. "3m ago" or "2d ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

var stateColors = map[store.State]*color.Color{
	store.StateStarted:    color.New(color.FgCyan),
	store.StateInProgress: color.New(color.FgYellow),
	store.StateCompleted:  color.New(color.FgGreen, color.Bold),
	store.StateFailed:     color.New(color.FgRed, color.Bold),
	store.StateUnknown:    color.New(color.FgMagenta),
}

// StateLabel returns the state name padded to a fixed width and coloured
// when the output is a terminal.
func StateLabel(s store.State) string {
	label := fmt.Sprintf("%-11s", s)
	if c, ok := stateColors[s]; ok {
		return c.Sprint(label)
	}
	return label
}
