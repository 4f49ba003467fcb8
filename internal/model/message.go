// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message. It is a closed set: only
// SenderUser and SenderAssistant are valid.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// Valid reports whether s is one of the two known senders.
func (s Sender) Valid() bool {
	switch s {
	case SenderUser, SenderAssistant:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "Tú"
	case SenderAssistant:
		return "Tutorcito"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageID uniquely identifies a message.
type MessageID string

// PreviewLength is the number of runes kept in a session preview.
const PreviewLength = 80

// Message is a single entry of a session's thread. Messages are created by
// the thread store and never modified afterwards.
type Message struct {
	ID        MessageID `json:"id" yaml:"id"`
	SessionID SessionID `json:"session_id" yaml:"session_id"`
	Sender    Sender    `json:"sender" yaml:"sender"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewMessageID creates a unique message ID.
func NewMessageID() MessageID {
	return MessageID("msg_" + uuid.NewString())
}

// BlankContent reports whether content has nothing but whitespace. Blank
// content is never stored.
func BlankContent(content string) bool {
	return strings.TrimSpace(content) == ""
}

// Preview returns a truncated single-line preview of the message content.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.SingleLine(m.Content), maxLen)
}

// IsFrom reports whether the message was written by sender.
func (m Message) IsFrom(sender Sender) bool {
	return m.Sender == sender
}
