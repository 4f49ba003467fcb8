// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tutorcito/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every key with its current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			for _, key := range config.GetAllKeys() {
				value, err := a.Config.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.Out, "%-22s = %v\n", key, value)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one value (e.g. reply.delay_ms)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			value, err := a.Config.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value and save the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			updated := a.Config.Clone()
			if err := updated.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := updated.Validate(); err != nil {
				return err
			}

			path := a.ConfigPath
			if path == "" {
				var err error
				if path, err = config.ConfigPathTOML(); err != nil {
					return err
				}
			}
			if err := config.SaveTOML(updated, path); err != nil {
				return err
			}
			a.Config = updated
			fmt.Fprintf(a.Out, "%s = %v (%s)\n", args[0], args[1], path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			path := a.ConfigPath
			if path == "" {
				var err error
				if path, err = config.ConfigPathTOML(); err != nil {
					return err
				}
				path += " (no existe; se usan los valores por defecto)"
			}
			fmt.Fprintln(a.Out, path)
			return nil
		},
	})

	return cmd
}
