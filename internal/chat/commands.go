// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the stores, the selection, the composer and the reply
// simulator into one state core.
package chat

import (
	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/session"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command is a request to change the core's state.
type Command interface {
	command()
}

// CreateSession creates a session, optionally selecting it.
type CreateSession struct {
	Title  string
	Select bool
}

// RemoveSession removes a session, its thread and its pending replies.
type RemoveSession struct {
	ID model.SessionID
}

// Select makes a session active.
type Select struct {
	ID model.SessionID
}

// ClearSelection leaves no session active.
type ClearSelection struct{}

// SetDraft replaces the draft.
type SetDraft struct {
	Text string
}

// Submit sends the draft to the active session.
type Submit struct{}

func (CreateSession) command()  {}
func (RemoveSession) command()  {}
func (Select) command()         {}
func (ClearSelection) command() {}
func (SetDraft) command()       {}
func (Submit) command()         {}

// Result carries what a command produced.
type Result struct {
	// Session is set by CreateSession
	Session model.Session

	// Submission is set by Submit
	Submission session.Submission
}
