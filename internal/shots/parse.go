package shots

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fpang/reel-studio/internal/reel"
)

// rawShot is one element of the model's JSON answer.
type rawShot struct {
	Text       string `json:"text"`
	ImageIndex *int   `json:"image_index"`
}

// stripFences removes a ```json ... ``` wrapper, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// extractArray returns the outermost [...] in text.
func extractArray(text string) (string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end < start {
		return "", fmt.Errorf("no JSON array found")
	}
	return text[start : end+1], nil
}

// parsePlans decodes a model answer into plans for n images. Entries beyond
// n, with an out-of-range index or with empty text are dropped; a missing
// image_index defaults to the entry's position.
func parsePlans(raw string, n int) ([]reel.ShotPlan, error) {
	arr, err := extractArray(stripFences(raw))
	if err != nil {
		return nil, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}
	var shots []rawShot
	if err := json.Unmarshal([]byte(arr), &shots); err != nil {
		preview := arr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return nil, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}

	plans := make([]reel.ShotPlan, 0, len(shots))
	for i, s := range shots {
		if i >= n {
			break
		}
		idx := i
		if s.ImageIndex != nil {
			idx = *s.ImageIndex
		}
		text := strings.TrimSpace(s.Text)
		if idx < 0 || idx >= n || text == "" {
			continue
		}
		plans = append(plans, reel.ShotPlan{Text: text, ImageIndex: idx})
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("no usable shots in %d entries", len(shots))
	}
	return plans, nil
}
