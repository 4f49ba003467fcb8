// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the conversation sessions and their message threads.
package storage

import (
	"sort"
	"strings"

	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// CreateSession creates a session with an empty thread. The title is
// trimmed and must not be empty.
func (s *Store) CreateSession(title string) (model.Session, error) {
	title = model.NormalizeTitle(title)
	if title == "" {
		return model.Session{}, model.E(model.KindInvalidInput, "storage.CreateSession", "empty title")
	}

	now := s.now()
	sess := &model.Session{
		ID:            model.NewSessionID(),
		Title:         title,
		CreatedAt:     now,
		LastMessageAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess
	s.threads[sess.ID] = []*model.Message{}
	return *sess, nil
}

// GetSession returns a copy of the session with the given id.
func (s *Store) GetSession(id model.SessionID) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, model.E(model.KindNotFound, "storage.GetSession", string(id))
	}
	return *sess, nil
}

// RemoveSession removes the session and discards its thread in one step.
func (s *Store) RemoveSession(id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return model.E(model.KindNotFound, "storage.RemoveSession", string(id))
	}
	delete(s.sessions, id)
	delete(s.threads, id)
	return nil
}

// ListSessions returns every session, most recent activity first.
// Ties are broken by newer creation time, then by id, so the order is
// stable between calls.
func (s *Store) ListSessions() []model.Session {
	s.mu.RLock()
	sessions := make([]model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, *sess)
	}
	s.mu.RUnlock()

	sortSessions(sessions)
	return sessions
}

// SessionByIndex returns the session at a 1-based position of ListSessions.
func (s *Store) SessionByIndex(index int) (model.Session, error) {
	sessions := s.ListSessions()
	if index < 1 || index > len(sessions) {
		return model.Session{}, model.E(model.KindNotFound, "storage.SessionByIndex", "index out of range")
	}
	return sessions[index-1], nil
}

// SearchSessions returns sessions whose title or preview contains query,
// case-insensitively, in ListSessions order.
func (s *Store) SearchSessions(query string) []model.Session {
	query = strings.ToLower(strings.TrimSpace(query))
	all := s.ListSessions()
	if query == "" {
		return all
	}

	var results []model.Session
	for _, sess := range all {
		if strings.Contains(strings.ToLower(sess.Title), query) ||
			strings.Contains(strings.ToLower(sess.Preview), query) {
			results = append(results, sess)
		}
	}
	return results
}

func sortSessions(sessions []model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
