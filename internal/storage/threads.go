// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the conversation sessions and their message threads.
package storage

import (
	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// THREAD OPERATIONS
// =============================================================================

// GetThread returns a copy of the session's messages in thread order.
// An unknown session is ErrNotFound; an empty thread is an empty slice.
func (s *Store) GetThread(id model.SessionID) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[id]
	if !ok {
		return nil, model.E(model.KindNotFound, "storage.GetThread", string(id))
	}

	out := make([]model.Message, len(thread))
	for i, msg := range thread {
		out[i] = *msg
	}
	return out, nil
}

// AppendMessage adds a message to the end of the session's thread and
// updates the session's activity time and preview.
//
// An unknown session is ErrNotFound before the content is looked at.
// Blank content is rejected but accepted content is stored as given, so
// indentation in pasted code survives. The timestamp is the
// current time, raised to the previous message's timestamp if the clock
// went backwards, so a thread never decreases in time. Nothing is written
// when an error is returned.
func (s *Store) AppendMessage(id model.SessionID, sender model.Sender, content string) (model.Message, error) {
	const op = "storage.AppendMessage"

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return model.Message{}, model.E(model.KindNotFound, op, string(id))
	}
	if !sender.Valid() {
		return model.Message{}, model.E(model.KindInvalidInput, op, "unknown sender "+sender.String())
	}
	if model.BlankContent(content) {
		return model.Message{}, model.E(model.KindInvalidInput, op, "empty content")
	}
	thread := s.threads[id]

	createdAt := s.now()
	if n := len(thread); n > 0 && createdAt.Before(thread[n-1].CreatedAt) {
		createdAt = thread[n-1].CreatedAt
	}

	msg := &model.Message{
		ID:        model.NewMessageID(),
		SessionID: id,
		Sender:    sender,
		Content:   content,
		CreatedAt: createdAt,
	}
	s.threads[id] = append(thread, msg)
	sess.Touch(*msg)

	return *msg, nil
}
