// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the stores, the selection, the composer and the reply
// simulator into one state core.
package chat

import (
	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what changed.
type EventKind int

const (
	EventSessionCreated EventKind = iota
	EventSessionRemoved
	EventSelectionChanged
	EventDraftChanged
	EventMessageAppended
	EventReplyFailed
	EventRepliesChanged
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventSessionCreated:
		return "session-created"
	case EventSessionRemoved:
		return "session-removed"
	case EventSelectionChanged:
		return "selection-changed"
	case EventDraftChanged:
		return "draft-changed"
	case EventMessageAppended:
		return "message-appended"
	case EventReplyFailed:
		return "reply-failed"
	case EventRepliesChanged:
		return "replies-changed"
	default:
		return "unknown"
	}
}

// Event tells subscribers that state changed. Subscribers should read a
// fresh Snapshot rather than rebuild state from events.
type Event struct {
	Kind      EventKind
	SessionID model.SessionID

	// Message is set for EventMessageAppended
	Message *model.Message

	// Err is set for EventReplyFailed
	Err error
}

// Subscribe returns a channel of events and a function that ends the
// subscription. A subscriber that falls behind loses events rather than
// blocking the core.
func (c *Core) Subscribe() (<-chan Event, func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	ch := make(chan Event, c.eventBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// publish delivers ev to every subscriber without blocking.
func (c *Core) publish(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			logger.Component("chat").Warn("subscriber channel full, dropped event",
				"subscriber", id, "event", ev.Kind.String(), "session", ev.SessionID)
		}
	}
}

// closeSubscribers closes every subscriber channel.
func (c *Core) closeSubscribers() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// MessageAppended is called by reply tasks.
func (c *Core) MessageAppended(msg model.Message) {
	c.publish(Event{Kind: EventMessageAppended, SessionID: msg.SessionID, Message: &msg})
}

// ReplyFailed is called by reply tasks.
func (c *Core) ReplyFailed(sessionID model.SessionID, err error) {
	c.publish(Event{Kind: EventReplyFailed, SessionID: sessionID, Err: err})
}
