// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the stores, the selection, the composer and the reply
// simulator into one state core.
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/reply"
	"github.com/jeranaias/tutorcito/internal/session"
	"github.com/jeranaias/tutorcito/internal/storage"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Core.
type Options struct {
	// Reply configures the reply simulator
	Reply reply.Options

	// Responder produces assistant replies (nil = placeholder)
	Responder reply.Responder

	// Clock is the store's time source (nil = wall clock)
	Clock storage.Clock

	// EventBuffer is the capacity of each subscriber channel
	EventBuffer int
}

// DefaultOptions returns the default reply options and a placeholder
// responder.
func DefaultOptions() Options {
	return Options{
		Reply:       reply.DefaultOptions(),
		Responder:   reply.PlaceholderResponder{},
		EventBuffer: 64,
	}
}

// =============================================================================
// CORE
// =============================================================================

// Core owns every piece of conversation state. Commands are serialized;
// reads return copies.
type Core struct {
	mu        sync.Mutex
	store     *storage.Store
	selection *session.Selection
	composer  *session.Composer
	replies   *reply.Simulator

	subsMu      sync.Mutex
	subs        map[int]chan Event
	nextSub     int
	eventBuffer int
	closed      bool

	forwardDone chan struct{}
	closeOnce   sync.Once
}

// New creates an empty core and starts forwarding reply task updates.
func New(opts Options) *Core {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	store := storage.NewStoreWithClock(opts.Clock)
	selection := session.NewSelection(store)
	replies := reply.New(store, opts.Responder, opts.Reply)

	c := &Core{
		store:       store,
		selection:   selection,
		composer:    session.NewComposer(selection, replies),
		replies:     replies,
		subs:        make(map[int]chan Event),
		eventBuffer: opts.EventBuffer,
		forwardDone: make(chan struct{}),
	}
	replies.SetNotifier(c)

	go c.forwardTaskUpdates()
	return c
}

// Replies returns the reply simulator, for runtime tuning.
func (c *Core) Replies() *reply.Simulator {
	return c.replies
}

// Close cancels pending replies and closes every subscription.
func (c *Core) Close() {
	c.closeOnce.Do(func() {
		c.replies.Close()
		<-c.forwardDone
		c.closeSubscribers()
	})
}

// Wait blocks until every pending reply has landed or been canceled.
func (c *Core) Wait() {
	c.replies.Wait()
}

// forwardTaskUpdates turns finished reply tasks into events until the
// simulator closes.
func (c *Core) forwardTaskUpdates() {
	defer close(c.forwardDone)

	for n := range c.replies.Notifications() {
		logger.Component("chat").Debug("reply task finished",
			"session", n.Key, "status", n.Status.String(), "duration", n.Duration)
		c.publish(Event{Kind: EventRepliesChanged, SessionID: model.SessionID(n.Key)})
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch applies one command.
func (c *Core) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd := cmd.(type) {
	case CreateSession:
		sess, err := c.createSession(cmd.Title, cmd.Select)
		return Result{Session: sess}, err
	case RemoveSession:
		return Result{}, c.removeSession(cmd.ID)
	case Select:
		return Result{}, c.selectSession(cmd.ID)
	case ClearSelection:
		if _, ok := c.selection.Current(); ok {
			c.selection.Clear()
			c.publish(Event{Kind: EventSelectionChanged})
		}
		return Result{}, nil
	case SetDraft:
		c.composer.SetDraft(cmd.Text)
		c.publish(Event{Kind: EventDraftChanged})
		return Result{}, nil
	case Submit:
		sub, err := c.submit(ctx)
		return Result{Submission: sub}, err
	default:
		return Result{}, fmt.Errorf("chat: unknown command %T", cmd)
	}
}

func (c *Core) createSession(title string, selectIt bool) (model.Session, error) {
	sess, err := c.store.CreateSession(title)
	if err != nil {
		return model.Session{}, err
	}
	logger.WithSession(string(sess.ID)).Info("session created", "title", sess.Title)
	c.publish(Event{Kind: EventSessionCreated, SessionID: sess.ID})

	if selectIt {
		if err := c.selection.Select(sess.ID); err != nil {
			return sess, err
		}
		c.publish(Event{Kind: EventSelectionChanged, SessionID: sess.ID})
	}
	return sess, nil
}

func (c *Core) removeSession(id model.SessionID) error {
	if err := c.store.RemoveSession(id); err != nil {
		return err
	}
	canceled := c.replies.CancelAll(id)
	logger.WithSession(string(id)).Info("session removed", "canceled_replies", canceled)
	c.publish(Event{Kind: EventSessionRemoved, SessionID: id})

	if c.selection.ClearIf(id) {
		c.publish(Event{Kind: EventSelectionChanged})
	}
	return nil
}

func (c *Core) selectSession(id model.SessionID) error {
	prev, _ := c.selection.Current()
	if err := c.selection.Select(id); err != nil {
		return err
	}
	if prev != id {
		c.publish(Event{Kind: EventSelectionChanged, SessionID: id})
	}
	return nil
}

func (c *Core) submit(ctx context.Context) (session.Submission, error) {
	sub, err := c.composer.Submit(ctx)
	if !sub.Accepted() {
		return sub, err
	}

	c.publish(Event{Kind: EventDraftChanged})
	if sub.Message != nil {
		c.publish(Event{Kind: EventMessageAppended, SessionID: sub.SessionID, Message: sub.Message})
	}
	c.publish(Event{Kind: EventRepliesChanged, SessionID: sub.SessionID})
	return sub, err
}

// =============================================================================
// TYPED HELPERS
// =============================================================================

// CreateSession creates a session without selecting it.
func (c *Core) CreateSession(title string) (model.Session, error) {
	res, err := c.Dispatch(context.Background(), CreateSession{Title: title})
	return res.Session, err
}

// StartSession creates a session and selects it.
func (c *Core) StartSession(title string) (model.Session, error) {
	res, err := c.Dispatch(context.Background(), CreateSession{Title: title, Select: true})
	return res.Session, err
}

// RemoveSession removes a session, discards its thread, cancels its
// pending replies and clears the selection if it was active.
func (c *Core) RemoveSession(id model.SessionID) error {
	_, err := c.Dispatch(context.Background(), RemoveSession{ID: id})
	return err
}

// Select makes id the active session.
func (c *Core) Select(id model.SessionID) error {
	_, err := c.Dispatch(context.Background(), Select{ID: id})
	return err
}

// ClearSelection leaves no session active.
func (c *Core) ClearSelection() {
	_, _ = c.Dispatch(context.Background(), ClearSelection{})
}

// SetDraft replaces the draft.
func (c *Core) SetDraft(text string) {
	_, _ = c.Dispatch(context.Background(), SetDraft{Text: text})
}

// Submit sends the draft to the active session.
func (c *Core) Submit(ctx context.Context) (session.Submission, error) {
	res, err := c.Dispatch(ctx, Submit{})
	return res.Submission, err
}
