// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tutorcito.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/tutorcito/internal/logger"
)

// watchDebounce groups the burst of events an editor produces on save.
const watchDebounce = 150 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes
// each valid result to fn. Invalid edits are logged and skipped. Watch
// returns once watching has started; it stops when ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temp file over the original are handled.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	go watchLoop(ctx, watcher, absPath, fn)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, fn func(*Config)) {
	defer watcher.Close()
	log := logger.Component("config")

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			cfg, err := LoadFromPath(path)
			if err != nil {
				log.Warn("config reload failed", "path", path, "error", err)
				continue
			}
			log.Info("config reloaded", "path", path)
			fn(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "error", err)
		}
	}
}
