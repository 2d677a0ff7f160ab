// Package shots writes per-image shot prompts for multi-shot video
// generation, either with Gemini or from a deterministic template.
package shots

import "strings"

// Style is a named visual treatment with the cues folded into prompts.
type Style struct {
	Name string `json:"name"`
	Cues string `json:"cues"`
}

// Family groups related styles for display.
type Family struct {
	Name   string  `json:"name"`
	Styles []Style `json:"styles"`
}

var families = []Family{
	{Name: "Cinematic", Styles: []Style{
		{"cinematic", "anamorphic framing, shallow depth of field, warm contrast"},
		{"epic", "sweeping scale, dramatic skies, slow majestic motion"},
		{"noir", "high-contrast monochrome, hard shadows, moody atmosphere"},
		{"dreamy", "soft focus, pastel light, gentle floating motion"},
	}},
	{Name: "Documentary", Styles: []Style{
		{"documentary", "natural light, observational framing, grounded realism"},
		{"nature documentary", "patient wildlife framing, golden hour light, rich textures"},
		{"travel vlog", "handheld energy, bright daylight, sense of discovery"},
	}},
	{Name: "Artistic", Styles: []Style{
		{"watercolor", "painterly washes, soft bleeding edges, muted palette"},
		{"anime", "cel-shaded look, vivid colors, expressive motion"},
		{"vintage film", "film grain, faded colors, gentle gate weave"},
		{"cyberpunk", "neon glow, rain-slick reflections, dense night city mood"},
	}},
	{Name: "Commercial", Styles: []Style{
		{"product showcase", "clean studio light, crisp detail, smooth orbit"},
		{"fashion", "editorial lighting, bold poses, confident slow motion"},
		{"real estate", "bright even light, wide angles, steady glides"},
	}},
}

// cameraMoves rotate through shots in the template writer.
var cameraMoves = []string{
	"slow aerial rise revealing the scene",
	"smooth tracking shot moving alongside the subject",
	"gentle pan across the frame",
	"slow push in toward the focal point",
	"sweeping drone orbit",
	"steady dolly out that widens the view",
	"low-angle glide",
	"crane shot descending into the scene",
}

// Styles returns the style catalog grouped by family.
func Styles() []Family {
	out := make([]Family, len(families))
	for i, f := range families {
		out[i] = Family{Name: f.Name, Styles: append([]Style(nil), f.Styles...)}
	}
	return out
}

// StyleNames returns every style name in catalog order.
func StyleNames() []string {
	var names []string
	for _, f := range families {
		for _, s := range f.Styles {
			names = append(names, s.Name)
		}
	}
	return names
}

// Lookup finds a style by case-insensitive name.
func Lookup(name string) (Style, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range families {
		for _, s := range f.Styles {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Style{}, false
}

// cuesFor returns the prompt cues for style, or a generic phrase for
// styles outside the catalog.
func cuesFor(style string) string {
	if s, ok := Lookup(style); ok {
		return s.Cues
	}
	return style + " look and atmosphere"
}
