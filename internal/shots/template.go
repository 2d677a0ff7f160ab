package shots

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fpang/reel-studio/internal/reel"
)

// TemplateWriter builds one prompt per image without calling a model.
type TemplateWriter struct{}

// Compile-time interface check.
var _ reel.ShotWriter = TemplateWriter{}

func (TemplateWriter) WriteShots(ctx context.Context, req reel.ShotRequest) ([]reel.ShotPlan, error) {
	cues := cuesFor(req.Style)
	subject := subjectOf(req.Category)
	plans := make([]reel.ShotPlan, len(req.Images))
	for i, img := range req.Images {
		move := cameraMoves[i%len(cameraMoves)]
		text := fmt.Sprintf("%s, %s scene of %s, %s style with %s",
			capitalize(move), subject, describeRef(img.Ref), req.Style, cues)
		if i == len(req.Images)-1 && i > 0 {
			text += ", closing the sequence with a lingering final frame"
		}
		plans[i] = reel.ShotPlan{Text: text, ImageIndex: i}
	}
	return plans, nil
}

// FallbackPlan is the single generic shot used when per-image prompts
// cannot be produced.
func FallbackPlan(style, category string) []reel.ShotPlan {
	return []reel.ShotPlan{{
		Text:       fmt.Sprintf("A %s style video showcasing %s imagery with cinematic camera movements and smooth transitions", style, subjectOf(category)),
		ImageIndex: 0,
	}}
}

func subjectOf(category string) string {
	if category = strings.TrimSpace(category); category == "" {
		return "curated"
	}
	return category
}

// describeRef turns "images/nature/misty_lake.jpg" into "misty lake".
func describeRef(ref string) string {
	base := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	if strings.TrimSpace(base) == "" {
		return "the image"
	}
	return base
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
