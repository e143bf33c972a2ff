// Package config loads responder settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// Environment overrides.
const (
	EnvLogLevel   = "BIP_COVERART_LOG_LEVEL"
	EnvScratchDir = "BIP_COVERART_SCRATCH_DIR"
)

// Config holds everything a responder session needs.
type Config struct {
	LogLevel   string `yaml:"log_level" validate:"oneof=info debug"`
	SessionTag string `yaml:"session_tag" validate:"required,alphanum,max=32"`

	Bounds    bip.Bounds `yaml:"bounds"`
	Thumbnail Thumbnail  `yaml:"thumbnail"`

	CompressionQuality int `yaml:"compression_quality" validate:"gte=1,lte=100"`

	ScratchDir  string `yaml:"scratch_dir"`
	CatalogPath string `yaml:"catalog_path"`

	Resampler       string `yaml:"resampler" validate:"oneof=lanczos catmullrom linear box nearest bild"`
	FillColor       string `yaml:"fill_color" validate:"hexcolor"`
	HandleCollision string `yaml:"handle_collision" validate:"oneof=reroll overwrite fail"`

	// WatchArt evicts cached art when files change on disk.
	WatchArt bool `yaml:"watch_art"`
}

// Thumbnail is the fixed thumbnail size.
type Thumbnail struct {
	Width  int `yaml:"width" validate:"gte=1"`
	Height int `yaml:"height" validate:"gte=1"`
}

// Size returns the thumbnail dimensions.
func (t Thumbnail) Size() bip.Size { return bip.Size{Width: t.Width, Height: t.Height} }

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           "info",
		SessionTag:         "bip",
		Bounds:             bip.DefaultBounds(),
		Thumbnail:          Thumbnail{Width: 200, Height: 200},
		CompressionQuality: 75,
		Resampler:          "lanczos",
		FillColor:          "#000000",
		CatalogPath:        "bip-coverart.db",
		HandleCollision:    "reroll",
		WatchArt:           true,
	}
}

// Load reads configuration from path on top of the defaults. A missing
// file is not an error. Environment overrides are applied last and the
// result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvScratchDir); v != "" {
		c.ScratchDir = v
	}
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool { return c.LogLevel == "debug" }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
