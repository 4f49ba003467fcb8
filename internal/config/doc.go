// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tutorcito.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides and validation. A running TUI or REPL can watch the file and
// apply reply settings without restarting.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ReplyConfig: Simulated assistant delay, content and rate limit
//   - UIConfig: Locale, timezone, theme
//   - LogConfig: Log level and file
//   - SeedConfig: Sessions created at startup
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TUTORCITO_*)
//   - ~/.tutorcito/config.toml (or --config)
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Watch for edits:
//
//	err := config.Watch(ctx, path, func(cfg *config.Config) {
//	    sim.SetDelay(cfg.Reply.Delay())
//	})
package config
