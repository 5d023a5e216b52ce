// Package caption describes single photos with a vision-capable model.
package caption

import (
	"context"
	"fmt"
	"log/slog"

	"i2cgo/pkg/config"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/llm/imageutil"
	"i2cgo/pkg/llm/prompts"
	"i2cgo/pkg/model"
	"i2cgo/pkg/tracker"
)

// Fallback replaces a caption that could not be generated.
const Fallback = "캡션을 생성할 수 없습니다."

// TrackerLabel is the tracker key for caption fallbacks.
const TrackerLabel = "caption"

// Generator produces one caption per photo.
type Generator struct {
	llm       llm.Provider
	prompts   *prompts.Manager
	maxTokens int
	tracker   *tracker.Tracker
}

// NewGenerator creates a Generator.
func NewGenerator(p llm.Provider, pm *prompts.Manager, cfg config.NarrativeConfig, t *tracker.Tracker) *Generator {
	return &Generator{llm: p, prompts: pm, maxTokens: cfg.CaptionMaxTokens, tracker: t}
}

// Caption describes the image at path. It never fails; any error yields Fallback.
func (g *Generator) Caption(ctx context.Context, path string, md model.Metadata) string {
	text, err := g.generate(ctx, path, md)
	if err != nil {
		slog.Error("Caption generation failed", "path", path, "error", err)
		g.tracker.TrackFallback(TrackerLabel)
		return Fallback
	}
	return text
}

func (g *Generator) generate(ctx context.Context, path string, md model.Metadata) (string, error) {
	prompt, err := g.prompts.Render(prompts.Caption, PromptData(md))
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	data, mime, err := imageutil.PrepareForLLM(path)
	if err != nil {
		return "", err
	}

	return g.llm.GenerateImageText(ctx, config.ProfileCaption, prompt,
		llm.Image{Data: data, MIMEType: mime},
		llm.Options{MaxTokens: g.maxTokens})
}

// PromptData returns the template fields of the caption prompt.
func PromptData(md model.Metadata) map[string]string {
	return map[string]string{
		"DateTime": orNA(md.Labeled.DateTime),
		"Address":  orNA(md.Location.FullAddress),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
