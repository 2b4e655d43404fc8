// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jeranaias/oranges-tui/internal/model"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ORANGES_"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete oranges configuration.
type Config struct {
	// DefaultModel is selected when a chat starts
	DefaultModel string `toml:"default_model" json:"default_model" env:"DEFAULT_MODEL"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log" envPrefix:"LOG_"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// LogConfig controls the shared logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level" env:"LEVEL"`
	// File receives log lines instead of stderr when set
	File string `toml:"file" json:"file" env:"FILE"`
}

// UIConfig controls the terminal front end.
type UIConfig struct {
	// NoColor disables styling
	NoColor bool `toml:"no_color" json:"no_color" env:"NO_COLOR"`
	// ShowTimestamps prints message times in the transcript
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps" env:"SHOW_TIMESTAMPS"`
	// ListWidth is the column width of conversation names in /list
	ListWidth int `toml:"list_width" json:"list_width" env:"LIST_WIDTH"`
	// HistoryFile stores REPL input history (empty = ~/.oranges/chat_history)
	HistoryFile string `toml:"history_file" json:"history_file" env:"HISTORY_FILE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultModel: string(model.DefaultModel),
		Log: LogConfig{
			Level: "warn",
		},
		UI: UIConfig{
			ShowTimestamps: false,
			ListWidth:      40,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.oranges.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".oranges"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// HistoryPath returns the REPL history file path.
func (c *Config) HistoryPath() string {
	if c.UI.HistoryFile != "" {
		return c.UI.HistoryFile
	}
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "oranges_chat_history")
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file at path (the default path when empty), then
// applies a .env file from the working directory and ORANGES_* environment
// variables, and validates the result. A missing config file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path into cfg.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides applies ORANGES_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SaveTOML writes the config to path, creating parent directories.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and normalizes DefaultModel to a model
// ID.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if m, err := model.ParseModel(c.DefaultModel); err != nil {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: fmt.Sprintf("invalid model '%s', must be one of: %s", c.DefaultModel, modelNames()),
		})
	} else {
		c.DefaultModel = string(m)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.UI.ListWidth < 10 {
		errs = append(errs, ValidationError{
			Field:   "ui.list_width",
			Message: fmt.Sprintf("must be at least 10, got %d", c.UI.ListWidth),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Model returns the validated default model.
func (c *Config) Model() model.Model {
	if m, err := model.ParseModel(c.DefaultModel); err == nil {
		return m
	}
	return model.DefaultModel
}

func modelNames() string {
	ids := model.All()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
