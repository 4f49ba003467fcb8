// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies a session.
type SessionID string

// Session is one named conversation. Only LastMessageAt and Preview change
// after creation, and only when a message is appended to its thread.
type Session struct {
	ID            SessionID `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	LastMessageAt time.Time `json:"last_message_at" yaml:"last_message_at"`
	Preview       string    `json:"preview" yaml:"preview"`
}

// NewSessionID creates a unique session ID.
func NewSessionID() SessionID {
	return SessionID("sess_" + uuid.NewString())
}

// NormalizeTitle trims a session title. An empty result is invalid.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

// Short returns the first characters of the session ID after its prefix,
// for compact display.
func (id SessionID) Short() string {
	s := strings.TrimPrefix(string(id), "sess_")
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// IsZero reports whether the session has not been initialized.
func (s Session) IsZero() bool {
	return s.ID == ""
}

// Touch records that msg arrived in the session.
func (s *Session) Touch(msg Message) {
	s.LastMessageAt = msg.CreatedAt
	s.Preview = msg.Preview(PreviewLength)
}
