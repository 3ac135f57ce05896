// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for seekchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.seekchat/config.toml
//   - ~/.seekchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/seekchat/internal/util"
	"github.com/jeranaias/seekchat/internal/variant"
)

// CurrentVersion is the config schema version written by SaveToPath.
const CurrentVersion = "1"

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete seekchat configuration.
type Config struct {
	Version        string `toml:"version" json:"version"`
	DefaultVariant string `toml:"default_variant" json:"default_variant"`

	Endpoints EndpointsConfig `toml:"endpoints" json:"endpoints"`
	Keys      KeysConfig      `toml:"keys" json:"keys"`
	Reveal    RevealConfig    `toml:"reveal" json:"reveal"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	Request   RequestConfig   `toml:"request" json:"request"`
	UI        UIConfig        `toml:"ui" json:"ui"`
}

// EndpointsConfig overrides upstream base URLs. Empty keeps the built-in URL.
type EndpointsConfig struct {
	DeepSeek string `toml:"deepseek" json:"deepseek"`
	OneAPI   string `toml:"oneapi" json:"oneapi"`
	FastGPT  string `toml:"fastgpt" json:"fastgpt"`
}

// KeysConfig holds API keys. Environment variables with the same meaning
// take precedence.
type KeysConfig struct {
	DeepSeek        string `toml:"deepseek" json:"deepseek"`
	OneAPI          string `toml:"oneapi" json:"oneapi"`
	FastGPTChat     string `toml:"fastgpt_chat" json:"fastgpt_chat"`
	FastGPTReasoner string `toml:"fastgpt_reasoner" json:"fastgpt_reasoner"`
}

// RevealConfig controls the progressive reveal animation.
type RevealConfig struct {
	IntervalMs int  `toml:"interval_ms" json:"interval_ms"`
	Enabled    bool `toml:"enabled" json:"enabled"`
}

// StorageConfig selects the conversation backend.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend"` // file, sqlite, memory
	Path    string `toml:"path" json:"path"`       // empty = ~/.seekchat/<default name>
}

// RequestConfig bounds upstream calls.
type RequestConfig struct {
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// UIConfig contains user interface preferences.
type UIConfig struct {
	Theme         string `toml:"theme" json:"theme"` // auto, dark, light
	Markdown      bool   `toml:"markdown" json:"markdown"`
	ShowReasoning bool   `toml:"show_reasoning" json:"show_reasoning"`

	// LastVariant is written by the chat front ends when the user switches
	// variant, so the choice survives a restart.
	LastVariant string `toml:"last_variant,omitempty" json:"last_variant,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:        CurrentVersion,
		DefaultVariant: variant.TagPlain,
		Reveal: RevealConfig{
			IntervalMs: 30,
			Enabled:    true,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Request: RequestConfig{
			TimeoutSecs: 180,
		},
		UI: UIConfig{
			Theme:         "auto",
			Markdown:      true,
			ShowReasoning: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the seekchat directory: $SEEKCHAT_HOME or ~/.seekchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SEEKCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".seekchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. .env files and
// environment overrides are applied last. A broken file is reported alongside
// a usable default config.
func Load() (*Config, error) {
	LoadDotEnv()

	var loadErr error
	if path, err := ConfigPathTOML(); err == nil && util.FileExists(path) {
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
	} else if path, err := ConfigPathJSON(); err == nil && util.FileExists(path) {
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads ./.env and <config dir>/.env into the process
// environment. Variables already set are left alone; missing files are
// ignored.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if !util.FileExists(path) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
		}
	}
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.DefaultVariant == "" {
		c.DefaultVariant = defaults.DefaultVariant
	}
	if c.Reveal.IntervalMs == 0 {
		c.Reveal.IntervalMs = defaults.Reveal.IntervalMs
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveToPath writes cfg as JSON when path ends in .json, TOML otherwise.
func SaveToPath(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# seekchat configuration file\n")
	sb.WriteString("# API keys may also come from DEEPSEEK_API_KEY, ONEAPI_API_KEY,\n")
	sb.WriteString("# DEEPSEEK_V3_WITH_BOCHA and DEEPSEEK_R1_WITH_BOCHA.\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as JSON with owner-only permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RememberVariant records tag as ui.last_variant in the file at path,
// creating it if needed. The file is re-read without environment overrides so
// keys taken from the environment are never written back.
func RememberVariant(path, tag string) error {
	if _, err := variant.Default().Lookup(tag); err != nil {
		return err
	}

	cfg := Default()
	if util.FileExists(path) {
		var err error
		if strings.HasSuffix(path, ".json") {
			err = LoadJSON(cfg, path)
		} else {
			err = LoadTOML(cfg, path)
		}
		if err != nil {
			return fmt.Errorf("refusing to rewrite %s: %w", path, err)
		}
		cfg.SetDefaults()
	}
	cfg.UI.LastVariant = tag

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveToPath(cfg, path)
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

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := variant.Default().Lookup(c.DefaultVariant); err != nil {
		errs = append(errs, ValidationError{
			Field:   "default_variant",
			Message: fmt.Sprintf("unknown variant '%s', must be one of: %s", c.DefaultVariant, strings.Join(variant.Default().Tags(), ", ")),
		})
	}

	if c.UI.LastVariant != "" {
		if _, err := variant.Default().Lookup(c.UI.LastVariant); err != nil {
			errs = append(errs, ValidationError{
				Field:   "ui.last_variant",
				Message: fmt.Sprintf("unknown variant '%s'", c.UI.LastVariant),
			})
		}
	}

	for field, raw := range map[string]string{
		"endpoints.deepseek": c.Endpoints.DeepSeek,
		"endpoints.oneapi":   c.Endpoints.OneAPI,
		"endpoints.fastgpt":  c.Endpoints.FastGPT,
	} {
		if raw == "" {
			continue
		}
		if msg := validateURL(raw); msg != "" {
			errs = append(errs, ValidationError{Field: field, Message: msg})
		}
	}

	if c.Reveal.IntervalMs < 1 || c.Reveal.IntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "reveal.interval_ms",
			Message: fmt.Sprintf("must be between 1 and 1000, got %d", c.Reveal.IntervalMs),
		})
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if c.Request.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "request.timeout_secs",
			Message: "must not be negative",
		})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("URL must use http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - SEEKCHAT_VARIANT: overrides default_variant and ignores ui.last_variant
//   - SEEKCHAT_BACKEND: overrides storage.backend
//   - SEEKCHAT_REVEAL_MS: overrides reveal.interval_ms
//   - SEEKCHAT_NO_ANIMATION: disables reveal when "1" or "true"
//   - SEEKCHAT_DEEPSEEK_URL, SEEKCHAT_ONEAPI_URL, SEEKCHAT_FASTGPT_URL: endpoints
//   - DEEPSEEK_API_KEY, ONEAPI_API_KEY: keys
//   - DEEPSEEK_V3_WITH_BOCHA, DEEPSEEK_R1_WITH_BOCHA: FastGPT app keys
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SEEKCHAT_VARIANT"); v != "" {
		c.DefaultVariant = v
		c.UI.LastVariant = ""
	}
	if v := os.Getenv("SEEKCHAT_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SEEKCHAT_REVEAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Reveal.IntervalMs = ms
		}
	}
	if v := os.Getenv("SEEKCHAT_NO_ANIMATION"); v != "" {
		c.Reveal.Enabled = !(v == "1" || strings.EqualFold(v, "true"))
	}

	for env, dst := range map[string]*string{
		"SEEKCHAT_DEEPSEEK_URL":  &c.Endpoints.DeepSeek,
		"SEEKCHAT_ONEAPI_URL":    &c.Endpoints.OneAPI,
		"SEEKCHAT_FASTGPT_URL":   &c.Endpoints.FastGPT,
		"DEEPSEEK_API_KEY":       &c.Keys.DeepSeek,
		"ONEAPI_API_KEY":         &c.Keys.OneAPI,
		"DEEPSEEK_V3_WITH_BOCHA": &c.Keys.FastGPTChat,
		"DEEPSEEK_R1_WITH_BOCHA": &c.Keys.FastGPTReasoner,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// KeyLookup resolves a recipe's key variable name to a configured key.
func (c *Config) KeyLookup() func(envVar string) string {
	keys := c.Keys
	return func(envVar string) string {
		var v string
		switch envVar {
		case "DEEPSEEK_API_KEY":
			v = keys.DeepSeek
		case "ONEAPI_API_KEY":
			v = keys.OneAPI
		case "DEEPSEEK_V3_WITH_BOCHA":
			v = keys.FastGPTChat
		case "DEEPSEEK_R1_WITH_BOCHA":
			v = keys.FastGPTReasoner
		}
		if v == "" {
			v = os.Getenv(envVar)
		}
		return v
	}
}

// Registry returns the built-in variant registry with endpoint overrides.
func (c *Config) Registry() *variant.Registry {
	return variant.Default().WithEndpoints(map[string]variant.Endpoint{
		"deepseek": {BaseURL: c.Endpoints.DeepSeek},
		"oneapi":   {BaseURL: c.Endpoints.OneAPI},
		"fastgpt":  {BaseURL: c.Endpoints.FastGPT},
	})
}

// StartVariant is the variant an interactive session opens with: the last
// one the user switched to, else default_variant.
func (c *Config) StartVariant() string {
	if c.UI.LastVariant != "" {
		return c.UI.LastVariant
	}
	return c.DefaultVariant
}

// RevealInterval returns the reveal step as a duration.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Reveal.IntervalMs) * time.Millisecond
}

// RequestTimeout returns the per-call timeout. Zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Request.TimeoutSecs) * time.Second
}

// StoragePath returns the configured storage path or the backend default.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == BackendSQLite {
		return filepath.Join(dir, "seekchat.db"), nil
	}
	return filepath.Join(dir, "conversation.json"), nil
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON with keys redacted.
func (c *Config) String() string {
	safe := c.Clone()
	for _, k := range []*string{&safe.Keys.DeepSeek, &safe.Keys.OneAPI, &safe.Keys.FastGPTChat, &safe.Keys.FastGPTReasoner} {
		if *k != "" {
			*k = "[REDACTED]"
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
