// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the active-session selection and the composer.
package session

import (
	"context"
	"sync"

	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
)

// ActiveSession reports the selected session.
type ActiveSession interface {
	Current() (model.SessionID, bool)
}

// Turns accepts a user turn for a session. It returns the user message when
// it was appended right away, or nil when the turn was queued behind
// replies still in flight for that session.
type Turns interface {
	SubmitTurn(sessionID model.SessionID, content string) (*model.Message, error)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submission is the outcome of Composer.Submit.
type Submission struct {
	// SessionID is the session the draft was sent to
	SessionID model.SessionID

	// Message is the created user message; nil when Queued
	Message *model.Message

	// Queued is true when the turn waits behind pending replies
	Queued bool
}

// Accepted reports whether the draft was sent. A blank draft yields a
// zero Submission.
func (s Submission) Accepted() bool {
	return s.SessionID != ""
}

// =============================================================================
// COMPOSER
// =============================================================================

// Composer owns the draft and the submit action.
type Composer struct {
	mu        sync.Mutex
	draft     string
	selection ActiveSession
	turns     Turns
}

// NewComposer creates a composer with an empty draft.
func NewComposer(selection ActiveSession, turns Turns) *Composer {
	return &Composer{selection: selection, turns: turns}
}

// SetDraft replaces the draft unconditionally.
func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the current draft.
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit sends the draft to the active session.
//
// A blank draft is a silent no-op. Without an active session it fails with
// ErrNoActiveSession and the draft is kept. Otherwise the draft is cleared
// and handed to Turns; if Turns rejects it before anything was appended the
// draft is restored.
func (c *Composer) Submit(ctx context.Context) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if model.BlankContent(c.draft) {
		return Submission{}, nil
	}

	id, ok := c.selection.Current()
	if !ok {
		return Submission{}, model.E(model.KindNoActiveSession, "session.Submit", "")
	}

	text := c.draft
	c.draft = ""

	msg, err := c.turns.SubmitTurn(id, text)
	if err != nil && msg == nil {
		c.draft = text
		return Submission{}, err
	}
	if err != nil {
		// Message landed but its reply could not be scheduled
		logger.WithSession(string(id)).Warn("reply not scheduled", "message", msg.ID, "error", err)
	}

	return Submission{SessionID: id, Message: msg, Queued: msg == nil}, err
}
