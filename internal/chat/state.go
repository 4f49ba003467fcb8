// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the stores, the selection, the composer and the reply
// simulator into one state core.
package chat

import (
	"errors"

	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// State is a consistent copy of everything a renderer needs.
type State struct {
	// Sessions in most-recent-first order
	Sessions []model.Session

	// ActiveID is the selected session, or "" for none
	ActiveID model.SessionID

	// Thread is the active session's messages
	Thread []model.Message

	// Draft is the composer text
	Draft string

	// Pending is the number of unfinished replies per session
	Pending map[model.SessionID]int
}

// Active returns the selected session, if any.
func (s State) Active() (model.Session, bool) {
	if s.ActiveID == "" {
		return model.Session{}, false
	}
	for _, sess := range s.Sessions {
		if sess.ID == s.ActiveID {
			return sess, true
		}
	}
	return model.Session{}, false
}

// Waiting reports whether the active session has a reply in flight.
func (s State) Waiting() bool {
	return s.ActiveID != "" && s.Pending[s.ActiveID] > 0
}

// Snapshot returns the current state.
func (c *Core) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := State{
		Sessions: c.store.ListSessions(),
		Draft:    c.composer.Draft(),
		Pending:  c.replies.PendingAll(),
	}

	if id, ok := c.selection.Current(); ok {
		thread, err := c.store.GetThread(id)
		if err != nil {
			// Selection is cleared on removal; this only logs a broken invariant
			logger.Component("chat").Error("active session has no thread", "session", id, "error", err)
		} else {
			state.ActiveID = id
			state.Thread = thread
		}
	}
	return state
}

// Sessions lists every session, most recent first.
func (c *Core) Sessions() []model.Session {
	return c.store.ListSessions()
}

// SessionAt returns the session at a 1-based position of Sessions.
func (c *Core) SessionAt(index int) (model.Session, error) {
	return c.store.SessionByIndex(index)
}

// Search returns sessions whose title or preview contains query.
func (c *Core) Search(query string) []model.Session {
	return c.store.SearchSessions(query)
}

// Thread returns a session's messages.
func (c *Core) Thread(id model.SessionID) ([]model.Message, error) {
	return c.store.GetThread(id)
}

// Transcript returns a session together with its thread.
func (c *Core) Transcript(id model.SessionID) (model.Session, []model.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.store.GetSession(id)
	if err != nil {
		return model.Session{}, nil, err
	}
	thread, err := c.store.GetThread(id)
	if err != nil {
		return model.Session{}, nil, err
	}
	return sess, thread, nil
}

// =============================================================================
// SEEDING
// =============================================================================

// Seed creates sessions that open with an assistant welcome message.
// The first created session is selected when nothing is active.
func (c *Core) Seed(titles []string, welcome string) ([]model.Session, error) {
	var created []model.Session
	for _, title := range titles {
		sess, err := c.CreateSession(title)
		if err != nil {
			return created, err
		}
		if welcome != "" {
			msg, err := c.store.AppendMessage(sess.ID, model.SenderAssistant, welcome)
			switch {
			case err == nil:
				c.MessageAppended(msg)
				sess.Touch(msg)
			case !errors.Is(err, model.ErrInvalidInput):
				return created, err
			}
		}
		created = append(created, sess)
	}

	if len(created) > 0 {
		if _, ok := c.selection.Current(); !ok {
			if err := c.Select(created[0].ID); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}
