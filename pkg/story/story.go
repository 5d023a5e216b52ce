// Package story turns a batch of captioned photos into one narrative and its hashtags.
package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"i2cgo/pkg/catalog"
	"i2cgo/pkg/config"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/llm/prompts"
	"i2cgo/pkg/model"
	"i2cgo/pkg/tracker"
)

// SystemPrompt frames both the story and the hashtag request.
const SystemPrompt = "당신은 여러 이미지의 정보를 종합하여 하나의 연결된 글을 작성하는 전문 작가입니다."

// HashtagFallback replaces hashtags that could not be generated.
const HashtagFallback = "해시태그를 생성할 수 없습니다."

// HashtagTrackerLabel is the tracker key for hashtag fallbacks.
const HashtagTrackerLabel = "hashtags"

// DefaultTone is reported when the persona carries no tone.
const DefaultTone = "default"

// lengthTolerance is the ±window the prompt asks for. It is only reported.
const lengthTolerance = 10

// excerptRunes is how much of the story the hashtag prompt quotes.
const excerptRunes = 100

var (
	ErrUnknownStyle  = errors.New("unknown writing style")
	ErrInvalidLength = errors.New("writing length must be positive")
)

// Request holds everything one story is generated from.
type Request struct {
	Records     []model.PhotoRecord
	UserContext string
	Style       string
	Length      int // target length in characters
	Temperature float32
	Persona     model.Persona
}

// Generator writes stories and hashtags.
type Generator struct {
	llm     llm.Provider
	prompts *prompts.Manager
	catalog *catalog.Catalog
	cfg     config.NarrativeConfig
	tracker *tracker.Tracker
}

// NewGenerator creates a Generator.
func NewGenerator(p llm.Provider, pm *prompts.Manager, cat *catalog.Catalog, cfg config.NarrativeConfig, t *tracker.Tracker) *Generator {
	return &Generator{llm: p, prompts: pm, catalog: cat, cfg: cfg, tracker: t}
}

// CreateStory writes the story and returns it with the persona's tone key.
// The target length is requested, never enforced.
func (g *Generator) CreateStory(ctx context.Context, req Request) (text, tone string, err error) {
	prompt, err := g.StoryPrompt(req)
	if err != nil {
		return "", "", err
	}

	slog.Info("Generating story", "style", req.Style, "tone", req.Persona.WritingTone, "length", req.Length, "temperature", req.Temperature, "images", len(req.Records))

	text, err = g.llm.GenerateText(ctx, config.ProfileStory, prompt, llm.Options{
		System:      SystemPrompt,
		MaxTokens:   g.maxTokens(req.Length),
		Temperature: llm.Temperature(req.Temperature),
	})
	if err != nil {
		slog.Error("Story generation failed", "style", req.Style, "error", err)
		return "", "", fmt.Errorf("story generation: %w", err)
	}

	actual := utf8.RuneCountInString(text)
	if diff := actual - req.Length; diff > lengthTolerance || diff < -lengthTolerance {
		slog.Warn("Story length outside tolerance", "target_chars", req.Length, "actual_chars", actual)
	} else {
		slog.Info("Story generated", "target_chars", req.Length, "actual_chars", actual)
	}

	tone = req.Persona.WritingTone
	if tone == "" {
		tone = DefaultTone
	}
	return text, tone, nil
}

// StoryPrompt renders the composite story prompt with the records in capture order.
func (g *Generator) StoryPrompt(req Request) (string, error) {
	style, ok := g.catalog.Style(req.Style)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, req.Style)
	}
	if req.Length <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, req.Length)
	}

	tone, _ := g.catalog.Tone(req.Persona.WritingTone)

	data := promptData{
		Style:             style.Name,
		StyleInstructions: style.Instructions,
		UserContext:       req.UserContext,
		Length:            req.Length,
		Age:               req.Persona.Age,
		Gender:            req.Persona.Gender,
		ToneName:          tone.ShortName,
		ToneDescription:   req.Persona.WritingToneDescription,
		Images:            imageBlocks(SortRecords(req.Records)),
	}

	prompt, err := g.prompts.Render(prompts.Story, data)
	if err != nil {
		return "", fmt.Errorf("render story prompt: %w", err)
	}
	return prompt, nil
}

// CreateHashtags asks for five hashtags for the story. It never fails;
// any error yields HashtagFallback.
func (g *Generator) CreateHashtags(ctx context.Context, story string) string {
	text, err := g.hashtags(ctx, story)
	if err != nil {
		slog.Error("Hashtag generation failed", "error", err)
		g.tracker.TrackFallback(HashtagTrackerLabel)
		return HashtagFallback
	}
	return text
}

func (g *Generator) hashtags(ctx context.Context, story string) (string, error) {
	prompt, err := g.prompts.Render(prompts.Hashtags, hashtagData{
		Length:  utf8.RuneCountInString(story),
		Excerpt: excerpt(story, excerptRunes),
	})
	if err != nil {
		return "", fmt.Errorf("render hashtag prompt: %w", err)
	}

	return g.llm.GenerateText(ctx, config.ProfileHashtags, prompt, llm.Options{
		System:      SystemPrompt,
		MaxTokens:   g.cfg.HashtagMaxTokens,
		Temperature: llm.Temperature(g.cfg.HashtagTemperature),
	})
}

func (g *Generator) maxTokens(length int) int {
	return max(int(float64(length)*g.cfg.TokensPerChar), 1)
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
