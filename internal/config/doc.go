// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates traverse configuration.
//
// Supports TOML, JSON and YAML files with defaults, environment presets,
// .env files and TRAVERSE_* overrides.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EnvironmentConfig: API root and Entra ID application registration
//   - SessionConfig: Idle timeout and warning lead
//   - Watcher: Reloads the file on change
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TRAVERSE_*)
//   - .env in the working directory, then ~/.traverse/.env
//   - ~/.traverse/config.toml
//   - ~/.traverse/config.json
//   - ~/.traverse/config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctrl, err := session.New(cfg.IdleWindow(), collab)
package config
