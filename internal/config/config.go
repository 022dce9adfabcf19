// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for atomchat.
//
// Static configuration lives in ~/.atomchat/config.toml with sensible
// defaults and environment variable overrides. Runtime-mutable preferences
// (API key, temperature, response length, ...) live in the key-value store
// and are read through the Prefs capability.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/averill/atomchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the static atomchat configuration.
type Config struct {
	// API holds completion endpoint settings.
	API APIConfig `toml:"api"`

	// Generation holds default generation parameters. These seed the
	// key-value store on first run; afterwards the stored values win.
	Generation GenerationConfig `toml:"generation"`

	// Search holds Google Custom Search credentials for the websearch
	// atom.
	Search SearchConfig `toml:"search"`

	// UI holds terminal UI settings.
	UI UIConfig `toml:"ui"`
}

// APIConfig contains completion endpoint configuration.
type APIConfig struct {
	// URL is the completion endpoint. A model id embedded in a
	// /models/{id}: path segment overrides Model.
	URL string `toml:"url"`
	// Model is the model id used when the URL does not embed one.
	Model string `toml:"model"`
	// KeyPassphrase, when set, seals the stored API key at rest.
	KeyPassphrase string `toml:"key_passphrase"`
}

// GenerationConfig contains default generation parameters.
type GenerationConfig struct {
	// SystemPrompt is prepended to every completion request when set.
	SystemPrompt string `toml:"system_prompt"`
	// Temperature in [0, 2].
	Temperature float64 `toml:"temperature"`
	// ResponseLength in [0, 1] scales the output token budget:
	// maxOutputTokens = 500 + length*1500.
	ResponseLength float64 `toml:"response_length"`
}

// SearchConfig contains Google Custom Search configuration.
type SearchConfig struct {
	// APIKey is the Google API key for the Custom Search JSON API.
	APIKey string `toml:"api_key"`
	// EngineID is the Custom Search engine id (cx).
	EngineID string `toml:"engine_id"`
	// MaxResults caps the number of results per search.
	MaxResults int `toml:"max_results"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme"`
	// FontScale adjusts layout density (reserved for future use by the
	// renderer; persisted for parity with the settings surface).
	FontScale float64 `toml:"font_scale"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:   "",
			Model: "",
		},
		Generation: GenerationConfig{
			Temperature:    0.7,
			ResponseLength: 0.5,
		},
		Search: SearchConfig{
			MaxResults: 5,
		},
		UI: UIConfig{
			Theme:     "auto",
			FontScale: 1.0,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the atomchat configuration directory (~/.atomchat).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".atomchat"), nil
}

// Path returns the configuration file path (~/.atomchat/config.toml).
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration file, applies defaults for missing fields
// and environment overrides, and validates the result. A missing file is
// not an error: defaults plus environment win.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to its default path atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath is Save with an explicit file path.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// Config may hold credentials; keep it owner-readable only.
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies ATOMCHAT_* environment variables over the
// loaded values. Environment always wins over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ATOMCHAT_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("ATOMCHAT_MODEL"); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv("ATOMCHAT_SEARCH_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("ATOMCHAT_SEARCH_CX"); v != "" {
		c.Search.EngineID = v
	}
	if v := os.Getenv("ATOMCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("ATOMCHAT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Generation.Temperature = f
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

// Validate checks field ranges and formats, clamping nothing: a bad value
// is reported, not silently repaired.
func (c *Config) Validate() error {
	var errs []error

	if c.API.URL != "" {
		if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{Field: "api.url", Message: "not a valid absolute URL"})
		}
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "generation.temperature", Message: "must be in [0, 2]"})
	}
	if c.Generation.ResponseLength < 0 || c.Generation.ResponseLength > 1 {
		errs = append(errs, ValidationError{Field: "generation.response_length", Message: "must be in [0, 1]"})
	}
	if c.Search.MaxResults < 0 || c.Search.MaxResults > 10 {
		errs = append(errs, ValidationError{Field: "search.max_results", Message: "must be in [0, 10]"})
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be auto, dark, or light"})
	}

	return errors.Join(errs...)
}
