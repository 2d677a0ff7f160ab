package shots

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/fpang/reel-studio/internal/metrics"
	"github.com/fpang/reel-studio/internal/reel"
)

func TestMain(m *testing.M) {
	metrics.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeGenerator struct {
	text     string
	err      error
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func request(n int) reel.ShotRequest {
	req := reel.ShotRequest{Style: "documentary", Category: "nature"}
	for i := 0; i < n; i++ {
		req.Images = append(req.Images, reel.ShotImage{Ref: "images/nature/misty_lake.jpg", Bytes: []byte{byte(i)}})
	}
	return req
}

func TestParsePlans(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		n       int
		want    []reel.ShotPlan
		wantErr bool
	}{
		{
			name: "plain array",
			raw:  `[{"text":"a","image_index":1},{"text":"b","image_index":0}]`,
			n:    2,
			want: []reel.ShotPlan{{Text: "a", ImageIndex: 1}, {Text: "b", ImageIndex: 0}},
		},
		{
			name: "fenced with prose",
			raw:  "```json\nHere you go: [{\"text\":\"a\",\"image_index\":0}]\n```",
			n:    1,
			want: []reel.ShotPlan{{Text: "a", ImageIndex: 0}},
		},
		{
			name: "missing index defaults to position",
			raw:  `[{"text":"a"},{"text":"b"}]`,
			n:    2,
			want: []reel.ShotPlan{{Text: "a", ImageIndex: 0}, {Text: "b", ImageIndex: 1}},
		},
		{
			name: "out of range and extra entries dropped",
			raw:  `[{"text":"a","image_index":7},{"text":"b","image_index":1},{"text":"c","image_index":0}]`,
			n:    2,
			want: []reel.ShotPlan{{Text: "b", ImageIndex: 1}},
		},
		{name: "no array", raw: "I cannot help with that", n: 2, wantErr: true},
		{name: "bad json", raw: `[{"text": }]`, n: 2, wantErr: true},
		{name: "all unusable", raw: `[{"text":"","image_index":0}]`, n: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePlans(tt.raw, tt.n)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsePlans() = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePlans() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parsePlans() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("plan %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGeminiWriter_ParsesAnswer(t *testing.T) {
	gen := &fakeGenerator{text: `[{"text":"Aerial rise over the lake","image_index":0},{"text":"Tracking shot along the shore","image_index":1}]`}
	plans, err := NewGeminiWriter(gen, "").WriteShots(context.Background(), request(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 2 || plans[1].Text != "Tracking shot along the shore" {
		t.Errorf("plans = %+v", plans)
	}

	parts := gen.contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want prompt + 2 images", len(parts))
	}
	if !strings.Contains(parts[0].Text, "documentary") || !strings.Contains(parts[0].Text, "image_index") {
		t.Errorf("prompt = %q", parts[0].Text)
	}
	if parts[2].InlineData == nil || parts[2].InlineData.MIMEType != "image/jpeg" {
		t.Errorf("image part = %+v", parts[2])
	}
}

func TestGeminiWriter_FallbackOnGarbage(t *testing.T) {
	gen := &fakeGenerator{text: "Sorry, no JSON today."}
	plans, err := NewGeminiWriter(gen, "").WriteShots(context.Background(), request(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 || plans[0].ImageIndex != 0 {
		t.Fatalf("plans = %+v, want single fallback shot", plans)
	}
	want := "A documentary style video showcasing nature imagery with cinematic camera movements and smooth transitions"
	if plans[0].Text != want {
		t.Errorf("fallback text = %q", plans[0].Text)
	}
}

func TestGeminiWriter_APIError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	if _, err := NewGeminiWriter(gen, "").WriteShots(context.Background(), request(1)); err == nil {
		t.Error("WriteShots() swallowed API error")
	}
}

func TestTemplateWriter(t *testing.T) {
	plans, err := TemplateWriter{}.WriteShots(context.Background(), request(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 3 {
		t.Fatalf("plans = %d, want 3", len(plans))
	}
	for i, p := range plans {
		if p.ImageIndex != i {
			t.Errorf("plan %d ImageIndex = %d", i, p.ImageIndex)
		}
		if !strings.Contains(p.Text, "misty lake") || !strings.Contains(p.Text, "documentary") {
			t.Errorf("plan %d text = %q", i, p.Text)
		}
	}
	if plans[0].Text == plans[1].Text {
		t.Error("consecutive shots should use different camera moves")
	}
}

func TestStyles(t *testing.T) {
	names := StyleNames()
	if len(names) == 0 {
		t.Fatal("empty style catalog")
	}
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate style %q", n)
		}
		seen[n] = true
	}
	if _, ok := Lookup("  Cinematic "); !ok {
		t.Error("Lookup should be case-insensitive")
	}
	fams := Styles()
	fams[0].Styles[0].Name = "changed"
	if Styles()[0].Styles[0].Name == "changed" {
		t.Error("Styles() exposes the internal catalog")
	}
}
