// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the tutorcito command line.
//
// # Commands
//
//   - (none): full-screen interface on a terminal, REPL otherwise
//   - repl: line-oriented interface with slash commands
//   - demo: play a scripted conversation and print it
//   - export: play the script and write one transcript
//   - config list|get|set|path
//   - version
//
// # Usage
//
//	if err := cli.Execute(); err != nil {
//	    fmt.Fprintln(os.Stderr, err)
//	    os.Exit(1)
//	}
package cli
