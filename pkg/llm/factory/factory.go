package factory

import (
	"context"
	"fmt"
	"strings"

	"i2cgo/pkg/config"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/llm/gemini"
	"i2cgo/pkg/llm/openai"
	"i2cgo/pkg/request"
)

// Base URLs of the OpenAI-compatible vendors.
const (
	OpenAIBaseURL   = "https://api.openai.com/v1"
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	NvidiaBaseURL   = "https://integrate.api.nvidia.com/v1"
)

var compatBaseURLs = map[string]string{
	"openai":   OpenAIBaseURL,
	"groq":     GroqBaseURL,
	"deepseek": DeepSeekBaseURL,
	"nvidia":   NvidiaBaseURL,
}

// New returns the provider named by cfg.Provider.
// Every OpenAI-compatible vendor shares the openai client with its own base URL and tracking label.
func New(ctx context.Context, cfg config.LLMConfig, rc *request.Client, history *llm.HistoryLog) (llm.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = "openai"
	}

	if name == "gemini" {
		c, err := gemini.NewClient(ctx, cfg, rc.Tracker(), history)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	baseURL, ok := compatBaseURLs[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("llm provider %s: api key is required", name)
	}
	c, err := openai.NewClient(cfg, baseURL, name, rc, history)
	if err != nil {
		return nil, err
	}
	return c, nil
}
