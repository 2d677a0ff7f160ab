package shots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/reel-studio/internal/assets"
	"github.com/fpang/reel-studio/internal/metrics"
	"github.com/fpang/reel-studio/internal/reel"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ContentGenerator is the part of genai.Models used by GeminiWriter.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiWriter asks Gemini for one description per image. An answer that
// cannot be parsed falls back to a single generic shot over the first image.
type GeminiWriter struct {
	models ContentGenerator
	model  string
}

// Compile-time interface check.
var _ reel.ShotWriter = (*GeminiWriter)(nil)

// NewGeminiWriter wraps a genai client's Models service.
func NewGeminiWriter(models ContentGenerator, model string) *GeminiWriter {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiWriter{models: models, model: model}
}

// NewGeminiClient creates a Gemini API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}

func (w *GeminiWriter) WriteShots(ctx context.Context, req reel.ShotRequest) ([]reel.ShotPlan, error) {
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("no images")
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	parts = append(parts, &genai.Part{Text: buildPrompt(req)})
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: img.Bytes},
		})
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: strings.TrimSpace(assets.ShotSystemPrompt)}}},
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	start := time.Now()
	resp, err := w.models.GenerateContent(ctx, w.model, contents, config)
	elapsed := time.Since(start)

	m := metrics.New(metrics.Namespace).
		Dimension("Operation", "shotDescriptions").
		Metric("GeminiApiLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("GeminiApiCalls")
	if err != nil {
		m.Count("GeminiApiErrors")
	}
	if resp != nil && resp.UsageMetadata != nil {
		m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
		m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
	}
	m.Flush()

	if err != nil {
		return nil, fmt.Errorf("generate shot descriptions: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	text := resp.Text()
	plans, err := parsePlans(text, len(req.Images))
	if err != nil {
		log.Warn().Err(err).Int("responseLength", len(text)).Msg("Unparseable shot descriptions, falling back to a single shot")
		return FallbackPlan(req.Style, req.Category), nil
	}
	log.Info().Int("images", len(req.Images)).Int("shots", len(plans)).Dur("elapsed", elapsed).Msg("Shot descriptions generated")
	return plans, nil
}

func buildPrompt(req reel.ShotRequest) string {
	return assets.RenderShotPrompt(assets.ShotPromptData{
		Count:   len(req.Images),
		Subject: subjectOf(req.Category),
		Style:   req.Style,
		Cues:    cuesFor(req.Style),
	})
}
