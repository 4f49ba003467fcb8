// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the conversation sessions and their message threads.
package storage

import (
	"sync"
	"time"

	"github.com/jeranaias/tutorcito/internal/model"
)

// Clock returns the current time.
type Clock func() time.Time

// Store owns the set of sessions and, per session, its message thread.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*model.Session
	threads  map[model.SessionID][]*model.Message
	now      Clock
}

// NewStore creates an empty store using the wall clock.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock creates an empty store with a custom time source.
func NewStoreWithClock(now Clock) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[model.SessionID]*model.Session),
		threads:  make(map[model.SessionID][]*model.Message),
		now:      now,
	}
}

// Exists reports whether id names a live session.
func (s *Store) Exists(id model.SessionID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}
