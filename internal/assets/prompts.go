// Package assets embeds the prompt templates sent to Gemini.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// ShotSystemPrompt is the system instruction for shot description requests.
//
//go:embed prompts/shot-system.txt
var ShotSystemPrompt string

//go:embed prompts/shot-request.txt
var shotRequestTemplate string

// template.Must panics on a malformed template at startup rather than at call time.
var shotRequestTmpl = template.Must(template.New("shot-request").Parse(shotRequestTemplate))

// ShotPromptData holds the dynamic data injected into the shot request.
type ShotPromptData struct {
	Count   int
	Subject string
	Style   string
	Cues    string
}

// LastIndex is the highest valid image_index.
func (d ShotPromptData) LastIndex() int { return d.Count - 1 }

// RenderShotPrompt renders the shot request for d.
func RenderShotPrompt(d ShotPromptData) string {
	var buf bytes.Buffer
	// Execution errors are not expected with this template; whatever was
	// rendered is returned.
	_ = shotRequestTmpl.Execute(&buf, d)
	return strings.TrimSpace(buf.String())
}
