// Package config loads deckgen settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the settings file.
type Config struct {
	Server     Server     `yaml:"server"`
	Storage    Storage    `yaml:"storage"`
	Generation Generation `yaml:"generation"`
	Queue      Queue      `yaml:"queue"`
	Export     Export     `yaml:"export"`
	Navigator  Navigator  `yaml:"navigator"`
	Log        Log        `yaml:"log"`
}

type Server struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
	SeedDemo   bool   `yaml:"seed_demo"`
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

// Generation selects the text and image providers. API keys are never
// stored in the file; the *_env fields name the variables holding them.
type Generation struct {
	Provider           string  `yaml:"provider"` // openai, anthropic or mock
	ImageProvider      string  `yaml:"image_provider"`
	OpenAIKeyEnv       string  `yaml:"openai_api_key_env"`
	OpenAIBaseURL      string  `yaml:"openai_base_url"`
	AnthropicKeyEnv    string  `yaml:"anthropic_api_key_env"`
	AnthropicModel     string  `yaml:"anthropic_model"`
	AnthropicMaxTokens int     `yaml:"anthropic_max_tokens"`
	OutlineModel       string  `yaml:"outline_model"`
	NarrationModel     string  `yaml:"narration_model"`
	Temperature        float64 `yaml:"temperature"`
}

type Queue struct {
	Limit       int           `yaml:"limit"`
	Window      time.Duration `yaml:"window"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

type Export struct {
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Scale       float64       `yaml:"scale"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	JPEGQuality int           `yaml:"jpeg_quality"`
	FontPath    string        `yaml:"font_path"`
	// AllowPrivateImages lets slide images load from loopback and private
	// network addresses.
	AllowPrivateImages bool `yaml:"allow_private_images"`
}

type Navigator struct {
	RestoreDelay    time.Duration `yaml:"restore_delay"`
	RestoreAttempts int           `yaml:"restore_attempts"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:  Server{Addr: ":8080", CORSOrigin: "*", SeedDemo: true},
		Storage: Storage{DataDir: ".data"},
		Generation: Generation{
			Provider:           "openai",
			ImageProvider:      "openai",
			OpenAIKeyEnv:       "OPENAI_API_KEY",
			AnthropicKeyEnv:    "ANTHROPIC_API_KEY",
			AnthropicModel:     "claude-3-5-sonnet-latest",
			AnthropicMaxTokens: 4000,
			OutlineModel:       "gpt-4-turbo-preview",
			NarrationModel:     "gpt-4",
			Temperature:        0.7,
		},
		Queue:     Queue{Limit: 5, Window: time.Minute, TaskTimeout: 2 * time.Minute},
		Export:    Export{Width: 1920, Height: 1080, Scale: 2, SettleDelay: 500 * time.Millisecond, JPEGQuality: 95},
		Navigator: Navigator{RestoreDelay: 100 * time.Millisecond, RestoreAttempts: 3},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the components cannot run with.
func (c Config) Validate() error {
	var problems []string
	switch c.Generation.Provider {
	case "openai", "anthropic", "mock":
	default:
		problems = append(problems, fmt.Sprintf("generation.provider %q is not openai, anthropic or mock", c.Generation.Provider))
	}
	switch c.Generation.ImageProvider {
	case "openai", "mock":
	default:
		problems = append(problems, fmt.Sprintf("generation.image_provider %q is not openai or mock", c.Generation.ImageProvider))
	}
	if c.Queue.Limit <= 0 || c.Queue.Window <= 0 {
		problems = append(problems, "queue.limit and queue.window must be positive")
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 || c.Export.Scale <= 0 {
		problems = append(problems, "export.width, export.height and export.scale must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// OpenAIKey reads the OpenAI key from the configured variable.
func (g Generation) OpenAIKey() string {
	return os.Getenv(g.OpenAIKeyEnv)
}

// AnthropicKey reads the Anthropic key from the configured variable.
func (g Generation) AnthropicKey() string {
	return os.Getenv(g.AnthropicKeyEnv)
}

// Example is a commented settings file with the defaults.
const Example = `server:
  addr: ":8080"
  cors_origin: "*"
  seed_demo: true
storage:
  data_dir: .data
generation:
  provider: openai          # openai, anthropic or mock
  image_provider: openai    # openai or mock
  openai_api_key_env: OPENAI_API_KEY
  anthropic_api_key_env: ANTHROPIC_API_KEY
  outline_model: gpt-4-turbo-preview
  narration_model: gpt-4
  temperature: 0.7
queue:
  limit: 5
  window: 1m
  task_timeout: 2m
export:
  width: 1920
  height: 1080
  scale: 2
  settle_delay: 500ms
  jpeg_quality: 95
  allow_private_images: false
navigator:
  restore_delay: 100ms
  restore_attempts: 3
log:
  level: info
  format: text
`
