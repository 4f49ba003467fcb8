// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/tutorcito/internal/logger"
	uichat "github.com/jeranaias/tutorcito/internal/ui/chat"
	"github.com/jeranaias/tutorcito/internal/ui/styles"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func versionString() string {
	if GitCommit != "unknown" && GitCommit != "" {
		return fmt.Sprintf("tutorcito %s\n  commit: %s\n  built:  %s\n", Version, GitCommit, BuildDate)
	}
	return fmt.Sprintf("tutorcito %s\n", Version)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		configPath string
		verbose    bool
		app        *App
	)
	getApp := func() *App { return app }

	root := &cobra.Command{
		Use:   "tutorcito",
		Short: "Programming tutor chat with simulated replies",
		Long: `tutorcito keeps several tutoring conversations side by side.

On a terminal it opens the full-screen interface; when input or output
is redirected it falls back to the line-oriented REPL.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(configPath, verbose, out, errOut)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if Interactive() {
				return runTUI(cmd.Context(), app)
			}
			return runREPL(cmd.Context(), app)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(versionString())

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.tutorcito/config.toml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Run the line-oriented interface",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runREPL(cmd.Context(), app)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprint(out, versionString())
			},
		},
		newDemoCmd(getApp),
		newExportCmd(getApp),
		newConfigCmd(getApp),
	)
	return root
}

// Execute runs the command line against the process's stdio.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// =============================================================================
// INTERFACES
// =============================================================================

// runTUI runs the full-screen interface until the user quits.
func runTUI(ctx context.Context, app *App) error {
	core, err := app.NewCore()
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.WatchConfig(ctx, core)

	m := uichat.New(core, uichat.Options{
		Theme:           styles.NewTheme(app.Config.UI.Theme),
		Times:           app.Times,
		NewSessionTitle: app.Config.UI.NewSessionTitle,
		AssistantName:   app.Config.UI.AssistantName,
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// runREPL runs the line-oriented interface until /quit or EOF.
func runREPL(ctx context.Context, app *App) error {
	core, err := app.NewCore()
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.WatchConfig(ctx, core)

	line := newLiner()
	defer closeLiner(line)

	return NewREPL(core, app.Printer(), app.Config.UI.NewSessionTitle).Run(ctx, line)
}
