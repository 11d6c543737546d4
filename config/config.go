package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all shaper settings.
type Config struct {
	// Preset catalog file; empty uses the built-in presets.
	Catalog string `yaml:"catalog"`

	Logging     LoggingConfig     `yaml:"logging"`
	Mirror      MirrorConfig      `yaml:"mirror"`
	Controllers ControllersConfig `yaml:"controllers"`
	Files       FilesConfig       `yaml:"files"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// MirrorConfig configures mirroring defaults.
type MirrorConfig struct {
	Axis       string      `yaml:"axis"`
	SideTokens [][2]string `yaml:"side_tokens"`
}

type ControllersConfig struct {
	Suffix string `yaml:"suffix"`
}

type FilesConfig struct {
	// Extension appended to export paths that have none.
	Extension string `yaml:"extension"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Mirror: MirrorConfig{
			Axis: "x",
			SideTokens: [][2]string{
				{"L_", "R_"},
				{"_L", "_R"},
				{"left", "right"},
				{"Left", "Right"},
			},
		},
		Controllers: ControllersConfig{
			Suffix: "_ctl",
		},
		Files: FilesConfig{
			Extension: ".ctrl",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHAPER_CATALOG"); v != "" {
		c.Catalog = v
	}
	if v := os.Getenv("SHAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Mirror.Axis) {
	case "x", "y", "z", "none", "":
	default:
		return fmt.Errorf("invalid mirror axis %q", c.Mirror.Axis)
	}
	for _, t := range c.Mirror.SideTokens {
		if t[0] == "" || t[1] == "" {
			return fmt.Errorf("side token pair %q has an empty side", t)
		}
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
