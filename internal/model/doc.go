// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// This package defines the core domain types shared by the stores, the
// controllers and the rendering layers: a conversation Session, the
// immutable Message that makes up a session's thread, the closed Sender
// tag and the error kinds every operation reports.
//
// # Key Types
//
//   - Session: One named conversation with preview and activity time
//   - Message: Single immutable entry of a thread
//   - Sender: Closed two-value tag (user, assistant)
//   - Error: Error carrying a Kind (NotFound, InvalidInput, NoActiveSession)
//
// # Usage
//
// Check the kind of a failure:
//
//	if _, err := store.GetThread(id); errors.Is(err, model.ErrNotFound) {
//	    // session is gone
//	}
//
// Branch on the sender:
//
//	switch msg.Sender {
//	case model.SenderUser:
//	case model.SenderAssistant:
//	}
package model
