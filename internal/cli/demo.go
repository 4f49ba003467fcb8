// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tutorcito/internal/chat"
	"github.com/jeranaias/tutorcito/internal/reply"
)

// =============================================================================
// DEMO SCRIPT
// =============================================================================

// DemoSession is one scripted conversation.
type DemoSession struct {
	Title   string
	Prompts []string
}

// DemoScript is the conversation the demo and export commands play.
// Prompts within a session are submitted back to back, so later ones
// queue behind earlier replies.
var DemoScript = []DemoSession{
	{
		Title: "Aprendiendo Python",
		Prompts: []string{
			"¿Qué es una list comprehension?",
			"¿Y en qué se diferencia de un generador?",
		},
	},
	{
		Title:   "React Hooks",
		Prompts: []string{"¿Cuándo debo usar useEffect?"},
	},
	{
		Title:   "Algoritmos de ordenamiento",
		Prompts: []string{"Explícame quicksort con un ejemplo."},
	},
}

// demoOptions builds a core that answers by quoting each prompt.
func demoOptions(delay time.Duration) chat.Options {
	opts := chat.DefaultOptions()
	opts.Reply.Delay = delay
	opts.Responder = reply.EchoResponder{}
	return opts
}

// PlayScript creates each scripted session, submits its prompts and waits
// for the session's replies before moving on, so the last scripted
// session ends up first in the list. It stays selected.
func PlayScript(ctx context.Context, core *chat.Core, script []DemoSession) error {
	for _, ds := range script {
		if _, err := core.StartSession(ds.Title); err != nil {
			return fmt.Errorf("create %q: %w", ds.Title, err)
		}
		for _, prompt := range ds.Prompts {
			core.SetDraft(prompt)
			if _, err := core.Submit(ctx); err != nil {
				return fmt.Errorf("submit to %q: %w", ds.Title, err)
			}
		}
		core.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// DEMO COMMAND
// =============================================================================

func newDemoCmd(app func() *App) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play a scripted conversation and print the transcript",
		Long: `Play a scripted conversation without a terminal UI.

Sessions are created, questions are submitted back to back, and the
transcript is printed once every simulated reply has arrived.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			core := chat.New(demoOptions(delay))
			defer core.Close()

			if err := PlayScript(cmd.Context(), core, DemoScript); err != nil {
				return err
			}

			p := a.Printer()
			for i, sess := range core.Sessions() {
				if i > 0 {
					fmt.Fprintln(a.Out)
				}
				thread, err := core.Thread(sess.ID)
				if err != nil {
					return err
				}
				p.Thread(sess, thread)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 50*time.Millisecond, "Simulated reply delay")
	return cmd
}
