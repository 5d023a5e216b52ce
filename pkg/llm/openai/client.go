package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"i2cgo/pkg/config"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/request"
)

// Client implements llm.Provider for any OpenAI-compatible API.
type Client struct {
	rc       *request.Client
	apiKey   string
	baseURL  string
	profiles map[string]string
	label    string
	history  *llm.HistoryLog
}

// Request follows the standard OpenAI Chat Completions format.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float32  `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // Can be string or []ContentPart
}

type ContentPart struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	ImageURL *ImageURLContent `json:"image_url,omitempty"`
}

type ImageURLContent struct {
	URL string `json:"url"`
}

// Response follows the standard Chat Completions response format.
type Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenAI-compatible client.
// label names the provider in request tracking.
func NewClient(cfg config.LLMConfig, defaultBaseURL, label string, rc *request.Client, history *llm.HistoryLog) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if label == "" {
		label = "openai"
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   cfg.Key,
		profiles: cfg.Profiles,
		rc:       rc,
		label:    label,
		history:  history,
	}, nil
}

// ValidateModels checks if the configured models are available.
func (c *Client) ValidateModels(ctx context.Context) error {
	if len(c.profiles) == 0 {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("api key is missing")
	}

	// We assume baseURL is the root (e.g. https://api.openai.com/v1)
	u := c.baseURL + "/models"
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	respBody, err := c.rc.GetWithHeaders(c.withLabel(ctx), u, headers)
	if err != nil {
		return fmt.Errorf("failed to fetch models from %s: %w", u, err)
	}

	var mresp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &mresp); err != nil {
		return fmt.Errorf("failed to parse models response: %w", err)
	}

	available := make(map[string]bool, len(mresp.Data))
	for _, m := range mresp.Data {
		available[m.ID] = true
	}

	var missing []string
	for _, model := range c.profiles {
		if model != "" && !available[model] {
			missing = append(missing, model)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("configured models %v not found at %s", missing, u)
	}

	slog.Debug("OpenAI model validation success", "provider", c.label, "models", len(c.profiles))
	return nil
}

func (c *Client) GenerateText(ctx context.Context, name, prompt string, opts llm.Options) (string, error) {
	model, err := c.ResolveModel(name)
	if err != nil {
		return "", err
	}

	req := c.newRequest(model, opts)
	req.Messages = append(req.Messages, Message{Role: "user", Content: prompt})

	return c.execute(ctx, name, prompt, req)
}

func (c *Client) GenerateImageText(ctx context.Context, name, prompt string, img llm.Image, opts llm.Options) (string, error) {
	model, err := c.ResolveModel(name)
	if err != nil {
		return "", err
	}

	req := c.newRequest(model, opts)
	req.Messages = append(req.Messages, Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageURLContent{URL: img.DataURL()}},
		},
	})

	return c.execute(ctx, name, prompt, req)
}

func (c *Client) newRequest(model string, opts llm.Options) Request {
	req := Request{
		Model:       model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if opts.System != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: opts.System})
	}
	return req
}

func (c *Client) execute(ctx context.Context, name, prompt string, oreq Request) (string, error) {
	text, err := c.Execute(ctx, oreq)
	if err != nil {
		c.history.Record(name, prompt, fmt.Sprintf("ERROR: %v", err))
		return "", err
	}
	c.history.Record(name, prompt, text)
	return text, nil
}

// Execute posts one chat completion and returns the first choice's content.
func (c *Client) Execute(ctx context.Context, oreq Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("api key is missing")
	}

	body, err := json.Marshal(oreq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}

	respBody, err := c.rc.PostWithHeaders(c.withLabel(ctx), c.baseURL+"/chat/completions", body, headers)
	if err != nil {
		return "", err
	}

	var oresp Response
	if err := json.Unmarshal(respBody, &oresp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if oresp.Error != nil {
		return "", fmt.Errorf("%s api error: %s (%s)", c.label, oresp.Error.Message, oresp.Error.Type)
	}

	if len(oresp.Choices) == 0 {
		return "", fmt.Errorf("api returned no choices")
	}

	return oresp.Choices[0].Message.Content, nil
}

func (c *Client) withLabel(ctx context.Context) context.Context {
	return context.WithValue(ctx, request.CtxProviderLabel, c.label)
}

func (c *Client) HasProfile(name string) bool {
	model, ok := c.profiles[name]
	return ok && model != ""
}

func (c *Client) ResolveModel(intent string) (string, error) {
	if model, ok := c.profiles[intent]; ok && model != "" {
		return model, nil
	}
	return "", fmt.Errorf("profile %q not configured", intent)
}
