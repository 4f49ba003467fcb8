// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger provides the process-wide structured logger.
//
// Output goes to a log file, never to the terminal, so the TUI's screen is
// not corrupted. Until Init is called every record is discarded.
//
// # Key Functions
//
//   - Init: Open the log file and install the text handler
//   - SetLevel: Change the minimum level at runtime
//   - Component: Logger with a component attribute attached
//   - WithSession: Logger with a session id attached
//
// # Usage
//
//	if err := logger.Init(logger.DefaultPath()); err != nil {
//	    fmt.Fprintln(os.Stderr, err)
//	}
//	defer logger.Close()
//
//	log := logger.Component("reply")
//	log.Debug("reply scheduled", "session", id, "delay", delay)
package logger
