// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and watches seekchat settings.
//
// # Key Types
//
//   - Config: main configuration structure
//   - EndpointsConfig, KeysConfig: upstream base URLs and API keys
//   - RevealConfig: reveal interval and on/off switch
//   - StorageConfig: conversation backend selection
//   - Watcher: reloads the file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SEEKCHAT_*, plus the provider key variables)
//   - .env in the working directory, then ~/.seekchat/.env
//   - ~/.seekchat/config.toml
//   - ~/.seekchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v", err)
//	}
//	reg := cfg.Registry()
package config
