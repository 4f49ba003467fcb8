// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"

	"github.com/jeranaias/tutorcito/internal/chat"
	"github.com/jeranaias/tutorcito/internal/config"
	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/reply"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// APP
// =============================================================================

// App carries what every command needs once flags are parsed.
type App struct {
	Config *config.Config

	// ConfigPath is the file the config was read from, or "" for defaults
	ConfigPath string

	Times *util.TimeFormatter
	Out   io.Writer
	Err   io.Writer

	// Profile is the color profile for printed output
	Profile termenv.Profile
}

// loadApp reads configuration, sets up logging and builds the formatter.
func loadApp(configPath string, verbose bool, out, errOut io.Writer) (*App, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
		if path, pathErr := config.ConfigPathTOML(); pathErr == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				configPath = path
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if level, levelErr := logger.ParseLevel(cfg.Log.Level); levelErr == nil {
		logger.SetLevel(level)
	}
	if verbose {
		logger.SetDebug(true)
	}
	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = logger.DefaultPath()
	}
	if err := logger.Init(logPath); err != nil {
		// Logging is optional; the app still runs without a log file.
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}

	loc, err := util.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.UI.Timezone, err)
	}

	profile := termenv.Ascii
	if f, ok := out.(*os.File); ok && f == os.Stdout {
		profile = ColorProfile()
	}

	return &App{
		Config:     cfg,
		ConfigPath: configPath,
		Times:      util.NewTimeFormatter(cfg.UI.Locale, loc),
		Out:        out,
		Err:        errOut,
		Profile:    profile,
	}, nil
}

// Printer returns a printer on the app's output.
func (a *App) Printer() *Printer {
	return NewPrinter(a.Out, a.Profile, a.Times, a.Config.UI.AssistantName)
}

// =============================================================================
// CORE CONSTRUCTION
// =============================================================================

// replyOptions maps the [reply] section onto simulator options.
func replyOptions(cfg *config.Config) reply.Options {
	opts := reply.DefaultOptions()
	opts.Delay = cfg.Reply.Delay()
	opts.RatePerSecond = cfg.Reply.RatePerSecond
	opts.Burst = cfg.Reply.Burst
	opts.Timeout = cfg.Reply.Timeout()
	return opts
}

// NewCore builds a core from the configuration, seeded when enabled.
func (a *App) NewCore() (*chat.Core, error) {
	opts := chat.DefaultOptions()
	opts.Reply = replyOptions(a.Config)
	opts.Responder = reply.PlaceholderResponder{Content: a.Config.Reply.Content}
	core := chat.New(opts)

	if a.Config.Seed.Enabled {
		if _, err := core.Seed(a.Config.Seed.Titles(), a.Config.Seed.Welcome); err != nil {
			core.Close()
			return nil, fmt.Errorf("seed sessions: %w", err)
		}
	}
	return core, nil
}

// applyReplyConfig pushes reloaded reply settings into a running simulator.
func applyReplyConfig(sim *reply.Simulator, cfg *config.Config) {
	opts := replyOptions(cfg)
	sim.SetDelay(opts.Delay)
	sim.SetRate(opts.RatePerSecond, opts.Burst)
	sim.SetResponder(reply.PlaceholderResponder{Content: cfg.Reply.Content})
}

// WatchConfig applies edits to the config file's [reply] section while
// the core runs. It does nothing when no file was loaded. The timeout is
// fixed when the core is built and is not reloaded.
func (a *App) WatchConfig(ctx context.Context, core *chat.Core) {
	if a.ConfigPath == "" {
		return
	}
	log := logger.Component("cli")
	err := config.Watch(ctx, a.ConfigPath, func(cfg *config.Config) {
		applyReplyConfig(core.Replies(), cfg)
		log.Info("reply settings reloaded", "delay", cfg.Reply.Delay(), "rate", cfg.Reply.RatePerSecond)
	})
	if err != nil {
		log.Warn("config watch unavailable", "path", a.ConfigPath, "error", err)
	}
}
