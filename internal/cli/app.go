// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jeranaias/seekchat/internal/config"
	"github.com/jeranaias/seekchat/internal/lifecycle"
	"github.com/jeranaias/seekchat/internal/reveal"
	"github.com/jeranaias/seekchat/internal/storage"
	"github.com/jeranaias/seekchat/internal/upstream"
	"github.com/jeranaias/seekchat/internal/util"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	ConfigPath string
	Backend    string
	Ephemeral  bool
	Verbose    bool
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// App is the wired stack every command runs on.
type App struct {
	Config     *config.Config
	ConfigPath string // file the config came from or would be saved to
	Store      *storage.Store
	Controller *lifecycle.Controller

	closers []func() error
}

// appDeps lets tests replace the network client.
type appDeps struct {
	client lifecycle.UpstreamClient
}

// newApp loads config and wires storage, upstream, reveal and lifecycle.
// animate reports whether the front end can show the reveal animation.
func newApp(ctx context.Context, opts globalOptions, animate bool, deps appDeps) (*App, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	backend, closer, err := openBackend(cfg)
	if err != nil {
		return nil, NewCommandError("storage", "open", cfg.Storage.Backend, err)
	}
	app := &App{Config: cfg, ConfigPath: path}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	store, err := storage.Open(ctx, backend)
	if err != nil {
		app.Close()
		return nil, NewCommandError("storage", "load", "cannot read conversation", err)
	}
	app.Store = store

	engine := reveal.NewEngine(cfg.RevealInterval())
	engine.SetEnabled(cfg.Reveal.Enabled && animate)

	client := deps.client
	if client == nil {
		client = upstream.New(upstream.WithKeyLookup(cfg.KeyLookup()))
	}

	app.Controller = lifecycle.New(cfg.Registry(), store, client, engine,
		lifecycle.WithTimeout(cfg.RequestTimeout()))

	log.Printf("APP_START | backend=%s variant=%s reveal_ms=%d animate=%t",
		cfg.Storage.Backend, cfg.DefaultVariant, cfg.Reveal.IntervalMs, cfg.Reveal.Enabled && animate)
	return app, nil
}

// Close settles the conversation and releases the backend.
func (a *App) Close() error {
	if a.Controller != nil {
		a.Controller.Settle()
	}
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// RememberVariant saves tag as the variant the next interactive session
// starts with.
func (a *App) RememberVariant(tag string) error {
	if a.ConfigPath == "" {
		return nil
	}
	if err := config.RememberVariant(a.ConfigPath, tag); err != nil {
		return err
	}
	a.Config.UI.LastVariant = tag
	log.Printf("VARIANT_REMEMBERED | variant=%s path=%s", tag, a.ConfigPath)
	return nil
}

// loadConfig resolves the config file and applies flag overrides.
func loadConfig(opts globalOptions) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)

	if opts.ConfigPath != "" {
		config.LoadDotEnv()
		path = opts.ConfigPath
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, "", NewCommandError("config", "load", path, err)
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, "", NewCommandError("config", "load", "no usable configuration", err)
		}
		if err != nil {
			log.Printf("CONFIG_LOAD_FAILED | error=%v", err)
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: "+err.Error()+" (using defaults)"))
		}
		path = defaultConfigPath()
	}

	if opts.Backend != "" {
		cfg.Storage.Backend = strings.ToLower(opts.Backend)
	}
	if opts.Ephemeral {
		cfg.Storage.Backend = config.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", NewCommandError("config", "validate", "invalid settings", err)
	}

	return cfg, path, nil
}

// defaultConfigPath is the file Load reads: config.toml, or config.json when
// only that exists.
func defaultConfigPath() string {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return ""
	}
	if !util.FileExists(tomlPath) {
		if jsonPath, err := config.ConfigPathJSON(); err == nil && util.FileExists(jsonPath) {
			return jsonPath
		}
	}
	return tomlPath
}

// openBackend builds the configured storage backend. The returned closer may
// be nil.
func openBackend(cfg *config.Config) (storage.Backend, func() error, error) {
	if cfg.Storage.Backend == config.BackendMemory {
		return storage.NewMemoryBackend(), nil, nil
	}

	path, err := cfg.StoragePath()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Storage.Backend == config.BackendSQLite {
		b, err := storage.NewSQLiteBackend(path)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}

	b, err := storage.NewFileBackend(path)
	if err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}
