// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/seekchat/internal/variant"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SEEKCHAT_HOME", dir)
	for _, env := range []string{
		"SEEKCHAT_VARIANT", "SEEKCHAT_BACKEND", "SEEKCHAT_REVEAL_MS", "SEEKCHAT_NO_ANIMATION",
		"SEEKCHAT_DEEPSEEK_URL", "SEEKCHAT_ONEAPI_URL", "SEEKCHAT_FASTGPT_URL",
		"DEEPSEEK_API_KEY", "ONEAPI_API_KEY", "DEEPSEEK_V3_WITH_BOCHA", "DEEPSEEK_R1_WITH_BOCHA",
	} {
		t.Setenv(env, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, variant.TagPlain, cfg.DefaultVariant)
	assert.Equal(t, 30*time.Millisecond, cfg.RevealInterval())
	assert.True(t, cfg.Reveal.Enabled)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
}

func TestLoadWithoutFiles(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().DefaultVariant, cfg.DefaultVariant)
}

func TestLoadTOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
default_variant = "reasoning-large+search"

[endpoints]
fastgpt = "https://fastgpt.example.com/api"

[reveal]
interval_ms = 15
enabled = false

[storage]
backend = "sqlite"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, variant.TagReasoningLargeSearch, cfg.DefaultVariant)
	assert.Equal(t, 15, cfg.Reveal.IntervalMs)
	assert.False(t, cfg.Reveal.Enabled)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.True(t, cfg.UI.Markdown, "unset keys keep defaults")

	path, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "seekchat.db"), path)

	v := cfg.Registry().MustLookup(variant.TagPlainSearch)
	assert.Equal(t, "https://fastgpt.example.com/api", v.Recipe.BaseURL)
	assert.Equal(t, variant.DefaultDeepSeekURL, cfg.Registry().MustLookup(variant.TagPlain).Recipe.BaseURL)
}

func TestLoadJSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"default_variant":"reasoning-small","reveal":{"interval_ms":50,"enabled":true}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, variant.TagReasoningSmall, cfg.DefaultVariant)
	assert.Equal(t, 50, cfg.Reveal.IntervalMs)
}

func TestLoadBrokenFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "default_variant = \n[[[")

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, variant.TagPlain, cfg.DefaultVariant)
}

func TestLoadFromPathInvalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.toml")
	writeFile(t, path, `default_variant = "gpt-9"`)

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "default_variant", verrs[0].Field)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown variant", func(c *Config) { c.DefaultVariant = "nope" }, "default_variant"},
		{"bad endpoint scheme", func(c *Config) { c.Endpoints.DeepSeek = "ftp://x" }, "endpoints.deepseek"},
		{"endpoint without host", func(c *Config) { c.Endpoints.OneAPI = "http://" }, "endpoints.oneapi"},
		{"interval too small", func(c *Config) { c.Reveal.IntervalMs = 0 }, "reveal.interval_ms"},
		{"interval too large", func(c *Config) { c.Reveal.IntervalMs = 5000 }, "reveal.interval_ms"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"negative timeout", func(c *Config) { c.Request.TimeoutSecs = -1 }, "request.timeout_secs"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestValidateErrorsMessage(t *testing.T) {
	errs := ValidateErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", errs.Error())
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SEEKCHAT_VARIANT", variant.TagReasoningLarge)
	t.Setenv("SEEKCHAT_BACKEND", "SQLite")
	t.Setenv("SEEKCHAT_REVEAL_MS", "45")
	t.Setenv("SEEKCHAT_NO_ANIMATION", "true")
	t.Setenv("DEEPSEEK_API_KEY", " sk-env ")
	t.Setenv("DEEPSEEK_R1_WITH_BOCHA", "fg-r1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, variant.TagReasoningLarge, cfg.DefaultVariant)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 45, cfg.Reveal.IntervalMs)
	assert.False(t, cfg.Reveal.Enabled)
	assert.Equal(t, "sk-env", cfg.Keys.DeepSeek)
	assert.Equal(t, "fg-r1", cfg.Keys.FastGPTReasoner)
}

func TestKeyLookup(t *testing.T) {
	isolate(t)
	t.Setenv("ONEAPI_API_KEY", "from-env")

	cfg := Default()
	cfg.Keys.DeepSeek = "from-config"
	lookup := cfg.KeyLookup()

	assert.Equal(t, "from-config", lookup("DEEPSEEK_API_KEY"))
	assert.Equal(t, "from-env", lookup("ONEAPI_API_KEY"))
	assert.Empty(t, lookup("DEEPSEEK_V3_WITH_BOCHA"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "DEEPSEEK_V3_WITH_BOCHA=fg-v3\n")
	os.Unsetenv("DEEPSEEK_V3_WITH_BOCHA")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fg-v3", cfg.Keys.FastGPTChat)
}

func TestStringRedactsKeys(t *testing.T) {
	cfg := Default()
	cfg.Keys.DeepSeek = "sk-very-secret"
	s := cfg.String()
	assert.NotContains(t, s, "sk-very-secret")
	assert.Contains(t, s, "[REDACTED]")
	assert.Equal(t, "sk-very-secret", cfg.Keys.DeepSeek, "String must not modify the config")
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.DefaultVariant = variant.TagPlainSearch
	cfg.Reveal.IntervalMs = 20

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveToPath(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, _ := os.ReadFile(path)
	assert.True(t, strings.HasPrefix(string(data), "# seekchat configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, variant.TagPlainSearch, loaded.DefaultVariant)
	assert.Equal(t, 20, loaded.Reveal.IntervalMs)

	jsonPath := filepath.Join(dir, "copy.json")
	require.NoError(t, SaveToPath(cfg, jsonPath))
	data, _ = os.ReadFile(jsonPath)
	assert.True(t, strings.HasPrefix(string(data), "{"), "a .json path is written as JSON")
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultVariant, fromJSON.DefaultVariant)
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcherReloads(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[reveal]\ninterval_ms = 30\n")

	changes := make(chan *Config, 4)
	w, err := Watch(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			changes <- cfg
		}
	})
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, "[reveal]\ninterval_ms = 60\n")

	// A truncating write can surface as an intermediate empty file.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Reveal.IntervalMs == 60 {
				return
			}
		case <-deadline:
			t.Fatal("watcher did not report the change")
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	called := make(chan struct{}, 1)
	w, err := Watch(path, 10*time.Millisecond, func(*Config, error) { called <- struct{}{} })
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1")
	select {
	case <-called:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, w.Close())
}

// =============================================================================
// REMEMBERED VARIANT
// =============================================================================

func TestRememberVariantSurvivesReload(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "default_variant = \"plain\"\n[reveal]\ninterval_ms = 45\n")

	require.NoError(t, RememberVariant(path, variant.TagReasoningLargeSearch))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, variant.TagReasoningLargeSearch, cfg.UI.LastVariant)
	assert.Equal(t, variant.TagReasoningLargeSearch, cfg.StartVariant())
	assert.Equal(t, variant.TagPlain, cfg.DefaultVariant, "default_variant is left alone")
	assert.Equal(t, 45, cfg.Reveal.IntervalMs, "other settings are kept")
}

func TestRememberVariantCreatesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.json")

	require.NoError(t, RememberVariant(path, variant.TagPlainSearch))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, variant.TagPlainSearch, cfg.StartVariant())
}

func TestRememberVariantKeepsEnvironmentOut(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-from-env")
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, RememberVariant(path, variant.TagReasoningLarge))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-from-env")
}

func TestRememberVariantRejects(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	assert.ErrorIs(t, RememberVariant(path, "bogus"), variant.ErrUnknownVariant)

	writeFile(t, path, "this is = = not toml")
	assert.Error(t, RememberVariant(path, variant.TagPlain))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "this is = = not toml", string(data), "a broken file is not overwritten")
}

func TestStartVariantPrecedence(t *testing.T) {
	isolate(t)
	cfg := Default()
	assert.Equal(t, variant.TagPlain, cfg.StartVariant())

	cfg.UI.LastVariant = variant.TagPlainSearch
	assert.Equal(t, variant.TagPlainSearch, cfg.StartVariant())

	t.Setenv("SEEKCHAT_VARIANT", variant.TagReasoningSmall)
	cfg.ApplyEnvOverrides()
	assert.Equal(t, variant.TagReasoningSmall, cfg.StartVariant())

	cfg.UI.LastVariant = "bogus"
	var verrs ValidateErrors
	require.ErrorAs(t, cfg.Validate(), &verrs)
	assert.Equal(t, "ui.last_variant", verrs[0].Field)
}
