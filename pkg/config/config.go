package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upload    UploadConfig    `yaml:"upload"`
	LLM       LLMConfig       `yaml:"llm"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	// ReadTimeout covers the whole request body, so it bounds how long a
	// multipart upload batch may take to arrive.
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
	StaticDir    string   `yaml:"static_dir"` // mounted at /static when set
}

// UploadConfig holds settings for the scratch upload directory.
type UploadConfig struct {
	Dir       string   `yaml:"dir"`
	MaxMemory ByteSize `yaml:"max_memory"` // multipart bytes kept in memory before spilling to disk
}

// LLMConfig holds settings for the generation provider.
type LLMConfig struct {
	Provider string            `yaml:"provider"` // "openai", "gemini", "groq", "deepseek", "nvidia"
	Key      string            `yaml:"key"`
	BaseURL  string            `yaml:"base_url"`
	Profiles map[string]string `yaml:"profiles"` // intent -> model
}

// NarrativeConfig holds generation budgets for captions, stories and hashtags.
type NarrativeConfig struct {
	TokensPerChar      float64 `yaml:"tokens_per_char"`
	CaptionMaxTokens   int     `yaml:"caption_max_tokens"`
	HashtagMaxTokens   int     `yaml:"hashtag_max_tokens"`
	HashtagTemperature float32 `yaml:"hashtag_temperature"`
}

// GeocoderConfig holds reverse geocoding settings.
type GeocoderConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	UserAgent string   `yaml:"user_agent"`
	Language  string   `yaml:"language"` // accept-language, empty for server default
	Timeout   Duration `yaml:"timeout"`
}

// PromptsConfig points at an optional template override directory.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	LLM      LogSettings `yaml:"llm"`
	// Trace adds per-tag metadata logs on top of DEBUG.
	Trace bool `yaml:"trace"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Profile names used by the generators.
const (
	ProfileCaption  = "caption"
	ProfileStory    = "story"
	ProfileHashtags = "hashtags"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      "0.0.0.0:8000",
			ReadTimeout:  Duration(10 * time.Minute),
			WriteTimeout: Duration(10 * time.Minute),
			IdleTimeout:  Duration(120 * time.Second),
		},
		Upload: UploadConfig{
			Dir:       "image_upload",
			MaxMemory: ByteSize(32 << 20),
		},
		LLM: LLMConfig{
			Provider: "openai",
			Profiles: map[string]string{
				ProfileCaption:  "gpt-4o-mini",
				ProfileStory:    "gpt-4",
				ProfileHashtags: "gpt-4",
			},
		},
		Narrative: NarrativeConfig{
			TokensPerChar:      1.0,
			CaptionMaxTokens:   300,
			HashtagMaxTokens:   100,
			HashtagTemperature: 0.2,
		},
		Geocoder: GeocoderConfig{
			Endpoint:  "https://nominatim.openstreetmap.org",
			UserAgent: "my_app",
			Timeout:   Duration(1 * time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			LLM: LogSettings{
				Path:  "./logs/llm.log",
				Level: "INFO",
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Environment overrides are applied afterwards and never written back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills secrets and bind overrides from the environment.
func ApplyEnv(cfg *Config) error {
	if cfg.LLM.Key == "" {
		keyVar := "OPENAI_API_KEY"
		if cfg.LLM.Provider == "gemini" {
			keyVar = "GEMINI_API_KEY"
		}
		if key := os.Getenv(keyVar); key != "" {
			cfg.LLM.Key = key
		}
	}

	host, port := os.Getenv("HOST"), os.Getenv("PORT")
	if host == "" && port == "" {
		return nil
	}

	curHost, curPort, err := net.SplitHostPort(cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("invalid server address %q: %w", cfg.Server.Address, err)
	}
	if host != "" {
		curHost = host
	}
	if port != "" {
		curPort = port
	}
	cfg.Server.Address = net.JoinHostPort(curHost, curPort)
	return nil
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return fmt.Errorf("invalid server address %q: %w", c.Server.Address, err)
	}
	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir must not be empty")
	}
	if c.Narrative.TokensPerChar <= 0 {
		return fmt.Errorf("narrative.tokens_per_char must be positive, got %v", c.Narrative.TokensPerChar)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# i2cgo Configuration
# -------------------
# Secrets: leave llm.key empty to read OPENAI_API_KEY (or GEMINI_API_KEY).
# HOST and PORT environment variables override server.address.
# server.read_timeout includes receiving the whole upload body; raise it for slow links.
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Size: B, KB, MB, GB

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: openai, gemini, groq, deepseek, nvidia\n${1}provider:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
