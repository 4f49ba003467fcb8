// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tutorcito/internal/chat"
	"github.com/jeranaias/tutorcito/internal/export"
)

func newExportCmd(app func() *App) *cobra.Command {
	var (
		format string
		output string
		index  int
		noMeta bool
		theme  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Play the demo script and export one session's transcript",
		Long: `Play the demo script and export one session's transcript.

Sessions are numbered as in the REPL's /list, most recent first.
Without --output the file name is derived from the session title.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			opts := export.DefaultOptions()
			opts.Times = a.Times
			opts.IncludeMetadata = !noMeta
			opts.Theme = theme
			if opts.Theme == "" {
				opts.Theme = a.Config.UI.Theme
			}
			exp, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			core := chat.New(demoOptions(0))
			defer core.Close()
			if err := PlayScript(cmd.Context(), core, DemoScript); err != nil {
				return err
			}

			sess, err := core.SessionAt(index)
			if err != nil {
				return fmt.Errorf("session %d: %w", index, err)
			}
			sess, thread, err := core.Transcript(sess.ID)
			if err != nil {
				return err
			}

			written, err := export.ExportToFile(export.NewTranscript(sess, thread), exp, output, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, written)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format ("+strings.Join(export.Formats, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().IntVarP(&index, "session", "s", 1, "Session number, 1 = most recent")
	cmd.Flags().BoolVar(&noMeta, "no-metadata", false, "Omit the metadata header")
	cmd.Flags().StringVar(&theme, "theme", "", "HTML theme (dark, light)")
	return cmd
}
