// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the active-session selection and the composer.
package session

import (
	"sync"

	"github.com/jeranaias/tutorcito/internal/model"
)

// SessionLookup reports whether a session is live.
type SessionLookup interface {
	Exists(id model.SessionID) bool
}

// =============================================================================
// SELECTION
// =============================================================================

// Selection tracks which session is active. The zero id means none.
type Selection struct {
	mu       sync.RWMutex
	active   model.SessionID
	sessions SessionLookup
}

// NewSelection creates an empty selection validated against sessions.
func NewSelection(sessions SessionLookup) *Selection {
	return &Selection{sessions: sessions}
}

// Select makes id the active session. It fails with ErrNotFound, leaving
// the selection unchanged, if id is not a live session.
func (s *Selection) Select(id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessions.Exists(id) {
		return model.E(model.KindNotFound, "session.Select", string(id))
	}
	s.active = id
	return nil
}

// Clear removes the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
}

// ClearIf removes the selection only if id is active.
// Returns true if the selection changed.
func (s *Selection) ClearIf(id model.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || s.active != id {
		return false
	}
	s.active = ""
	return true
}

// Current returns the active session id, if any.
func (s *Selection) Current() (model.SessionID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}
