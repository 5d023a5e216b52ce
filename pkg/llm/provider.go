package llm

import (
	"context"
	"encoding/base64"
)

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateText sends a prompt and returns the text response.
	GenerateText(ctx context.Context, name, prompt string, opts Options) (string, error)

	// GenerateImageText sends a prompt together with an image and returns the text response.
	GenerateImageText(ctx context.Context, name, prompt string, img Image, opts Options) (string, error)

	// ValidateModels checks that the configured models exist for the credentials.
	ValidateModels(ctx context.Context) error

	// HasProfile checks if the provider has a specific profile configured.
	HasProfile(name string) bool
}

// Options are per-call generation settings. Zero values leave the provider default.
type Options struct {
	System      string
	MaxTokens   int
	Temperature *float32
}

// Temperature returns a pointer for Options.Temperature.
func Temperature(t float32) *float32 {
	return &t
}

// Image is an encoded image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL returns the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}
