package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"i2cgo/pkg/config"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/tracker"
)

const trackerLabel = "gemini"

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	profiles    map[string]string // Map intent -> modelName
	tracker     *tracker.Tracker
	history     *llm.HistoryLog
}

// NewClient creates a new Gemini client. cfg.BaseURL overrides the API endpoint.
func NewClient(ctx context.Context, cfg config.LLMConfig, t *tracker.Tracker, history *llm.HistoryLog) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("gemini api key is missing")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.Key,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{
		genaiClient: client,
		profiles:    cfg.Profiles,
		tracker:     t,
		history:     history,
	}, nil
}

// GenerateText sends a prompt and returns the text response.
func (c *Client) GenerateText(ctx context.Context, name, prompt string, opts llm.Options) (string, error) {
	return c.generate(ctx, name, prompt, genai.Text(prompt), opts)
}

// GenerateImageText sends a prompt and an inline image.
func (c *Client) GenerateImageText(ctx context.Context, name, prompt string, img llm.Image, opts llm.Options) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}
	return c.generate(ctx, name, prompt, contents, opts)
}

func (c *Client) generate(ctx context.Context, name, prompt string, contents []*genai.Content, opts llm.Options) (string, error) {
	modelName, err := c.resolveModel(name)
	if err != nil {
		return "", err
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, modelName, contents, buildConfig(opts))
	if err != nil {
		c.history.Record(name, prompt, fmt.Sprintf("ERROR: %v", err))
		c.tracker.TrackAPIFailure(trackerLabel)
		return "", fmt.Errorf("generate text error: %w", err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		c.history.Record(name, prompt, fmt.Sprintf("TEXT_PARSE_ERROR: %v", err))
		c.tracker.TrackAPIFailure(trackerLabel)
		return "", err
	}

	c.history.Record(name, prompt, text)
	c.tracker.TrackAPISuccess(trackerLabel)
	return text, nil
}

func buildConfig(opts llm.Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: opts.Temperature,
	}
	if opts.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	return cfg
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("empty candidate (finish reason %s)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// HasProfile checks if the provider has a specific profile configured.
func (c *Client) HasProfile(name string) bool {
	model, ok := c.profiles[name]
	return ok && model != ""
}

func (c *Client) resolveModel(intent string) (string, error) {
	if model, ok := c.profiles[intent]; ok && model != "" {
		return model, nil
	}
	return "", fmt.Errorf("profile %q not configured", intent)
}

// ValidateModels checks each configured model. On a miss it lists the
// gemini models available to the key to help fix the config.
func (c *Client) ValidateModels(ctx context.Context) error {
	var missing []string
	seen := make(map[string]bool)
	for _, model := range c.profiles {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true

		name := model
		if !strings.HasPrefix(name, "models/") {
			name = "models/" + name
		}
		if _, err := c.genaiClient.Models.Get(ctx, name, nil); err != nil {
			slog.Warn("Gemini model validation failed", "model", model, "error", err)
			missing = append(missing, model)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	available := c.listModels(ctx)
	if len(available) > 0 {
		slog.Info("Available gemini models for this key", "models", strings.Join(available, ", "))
	}
	return fmt.Errorf("configured models %v not available", missing)
}

func (c *Client) listModels(ctx context.Context) []string {
	page, err := c.genaiClient.Models.List(ctx, nil)
	if err != nil {
		slog.Warn("Failed to list models", "error", err)
		return nil
	}

	var names []string
	for {
		for _, m := range page.Items {
			if strings.Contains(strings.ToLower(m.Name), "gemini") {
				names = append(names, m.Name)
			}
		}
		page, err = page.Next(ctx)
		if errors.Is(err, iterator.Done) || errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			break
		}
	}
	return names
}
