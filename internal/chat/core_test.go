// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the stores, the selection, the composer and the reply
// simulator into one state core.
package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/reply"
)

const testDelay = 20 * time.Millisecond

func newTestCore(t *testing.T) *Core {
	t.Helper()

	opts := DefaultOptions()
	opts.Reply.Delay = testDelay
	core := New(opts)
	t.Cleanup(core.Close)
	return core
}

func contents(thread []model.Message) []string {
	out := make([]string, len(thread))
	for i, m := range thread {
		out[i] = string(m.Sender) + ":" + m.Content
	}
	return out
}

// waitFor reads events until one matches or the timeout expires.
func waitFor(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event channel closed")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return Event{}
		}
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_UserMessageThenReply(t *testing.T) {
	core := newTestCore(t)
	sess, err := core.StartSession("Aprendiendo Python")
	require.NoError(t, err)

	core.SetDraft("Hello")
	sub, err := core.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sub.Message)

	state := core.Snapshot()
	assert.Equal(t, sess.ID, state.ActiveID)
	assert.Equal(t, []string{"user:Hello"}, contents(state.Thread))
	assert.Empty(t, state.Draft)
	assert.True(t, state.Waiting())

	core.Wait()

	state = core.Snapshot()
	assert.Equal(t, []string{"user:Hello", "assistant:" + reply.DefaultContent}, contents(state.Thread))
	assert.False(t, state.Waiting())

	active, ok := state.Active()
	require.True(t, ok)
	assert.Equal(t, state.Thread[1].CreatedAt, active.LastMessageAt)
	assert.Equal(t, reply.DefaultContent, active.Preview)
}

func TestSubmit_BlankDraftChangesNothing(t *testing.T) {
	core := newTestCore(t)
	_, err := core.StartSession("Vacía")
	require.NoError(t, err)

	for _, draft := range []string{"", "   "} {
		core.SetDraft(draft)
		sub, err := core.Submit(context.Background())
		require.NoError(t, err)
		assert.Nil(t, sub.Message)
		assert.False(t, sub.Accepted())
	}

	core.Wait()
	state := core.Snapshot()
	assert.Empty(t, state.Thread)
	assert.Empty(t, state.Pending)
}

func TestSubmit_NoActiveSession(t *testing.T) {
	core := newTestCore(t)
	_, err := core.CreateSession("Sin seleccionar")
	require.NoError(t, err)

	core.SetDraft("Hola")
	_, err = core.Submit(context.Background())
	assert.ErrorIs(t, err, model.ErrNoActiveSession)
	assert.Equal(t, "Hola", core.Snapshot().Draft)
}

func TestSubmit_RapidSubmissionsKeepOrder(t *testing.T) {
	core := newTestCore(t)
	sess, err := core.StartSession("Algoritmos de ordenamiento")
	require.NoError(t, err)

	core.SetDraft("A")
	first, err := core.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Queued)

	core.SetDraft("B")
	second, err := core.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Queued)

	core.Wait()

	thread, err := core.Thread(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"user:A", "assistant:" + reply.DefaultContent,
		"user:B", "assistant:" + reply.DefaultContent,
	}, contents(thread))

	for i := 1; i < len(thread); i++ {
		assert.False(t, thread[i].CreatedAt.Before(thread[i-1].CreatedAt))
	}
}

func TestSubmit_DraftIsSharedAcrossSessions(t *testing.T) {
	core := newTestCore(t)
	a, _ := core.StartSession("A")
	b, _ := core.CreateSession("B")

	core.SetDraft("borrador")
	require.NoError(t, core.Select(b.ID))
	assert.Equal(t, "borrador", core.Snapshot().Draft)

	require.NoError(t, core.Select(a.ID))
	assert.Equal(t, "borrador", core.Snapshot().Draft)
}

func TestReplyLandsInNonActiveSession(t *testing.T) {
	core := newTestCore(t)
	a, _ := core.StartSession("A")
	b, _ := core.CreateSession("B")

	core.SetDraft("pregunta")
	_, err := core.Submit(context.Background())
	require.NoError(t, err)

	// Switching does not cancel the reply
	require.NoError(t, core.Select(b.ID))
	core.Wait()

	thread, err := core.Thread(a.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 2)
	assert.Empty(t, core.Snapshot().Thread)
	assert.Equal(t, a.ID, core.Sessions()[0].ID, "reply moves session to the top")
}

// =============================================================================
// SELECTION AND REMOVAL
// =============================================================================

func TestSelect_UnknownKeepsSelection(t *testing.T) {
	core := newTestCore(t)
	sess, _ := core.StartSession("Python")

	err := core.Select("unknown-id")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, sess.ID, core.Snapshot().ActiveID)

	core.ClearSelection()
	assert.Empty(t, core.Snapshot().ActiveID)
}

func TestRemoveSession_WhileReplyPending(t *testing.T) {
	core := newTestCore(t)
	events, unsubscribe := core.Subscribe()
	defer unsubscribe()

	sess, _ := core.StartSession("Borrada")
	other, _ := core.CreateSession("Otra")
	core.SetDraft("Hola")
	_, err := core.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, core.Snapshot().Pending[sess.ID])

	require.NoError(t, core.RemoveSession(sess.ID))
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSessionRemoved && ev.SessionID == sess.ID })

	time.Sleep(3 * testDelay)
	core.Wait()

	_, err = core.Thread(sess.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	state := core.Snapshot()
	assert.Empty(t, state.ActiveID, "removed session is no longer selected")
	assert.Empty(t, state.Pending)
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, other.ID, state.Sessions[0].ID)

	thread, err := core.Thread(other.ID)
	require.NoError(t, err)
	assert.Empty(t, thread, "no orphaned message anywhere")

	assert.ErrorIs(t, core.RemoveSession(sess.ID), model.ErrNotFound)
}

func TestCreateSession_EmptyTitle(t *testing.T) {
	core := newTestCore(t)

	_, err := core.CreateSession("  ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, core.Sessions())
}

func TestThread_UnknownSession(t *testing.T) {
	core := newTestCore(t)

	_, err := core.Thread("unknown-id")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, _, err = core.Transcript("unknown-id")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestEvents(t *testing.T) {
	core := newTestCore(t)
	events, unsubscribe := core.Subscribe()
	defer unsubscribe()

	sess, _ := core.StartSession("Eventos")
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSessionCreated && ev.SessionID == sess.ID })
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSelectionChanged })

	core.SetDraft("hola")
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventDraftChanged })

	_, err := core.Submit(context.Background())
	require.NoError(t, err)

	ev := waitFor(t, events, func(ev Event) bool {
		return ev.Kind == EventMessageAppended && ev.Message.Sender == model.SenderAssistant
	})
	assert.Equal(t, sess.ID, ev.SessionID)
	assert.Equal(t, reply.DefaultContent, ev.Message.Content)

	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventRepliesChanged })
}

func TestEvents_ReplyFailed(t *testing.T) {
	opts := DefaultOptions()
	opts.Reply.Delay = 0
	opts.Responder = reply.ResponderFunc(func(ctx context.Context, id model.SessionID, prompt string) (string, error) {
		return "", assert.AnError
	})
	core := New(opts)
	defer core.Close()

	events, unsubscribe := core.Subscribe()
	defer unsubscribe()

	_, _ = core.StartSession("Falla")
	core.SetDraft("hola")
	_, err := core.Submit(context.Background())
	require.NoError(t, err)

	ev := waitFor(t, events, func(ev Event) bool { return ev.Kind == EventReplyFailed })
	assert.ErrorIs(t, ev.Err, assert.AnError)
}

func TestSubscribe_CloseEndsChannels(t *testing.T) {
	core := New(DefaultOptions())
	events, unsubscribe := core.Subscribe()

	core.Close()
	core.Close()
	unsubscribe()

	_, ok := <-events
	assert.False(t, ok)

	late, _ := core.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

type bogusCommand struct{}

func (bogusCommand) command() {}

func TestDispatch_UnknownCommand(t *testing.T) {
	core := newTestCore(t)

	_, err := core.Dispatch(context.Background(), bogusCommand{})
	assert.Error(t, err)
}

// =============================================================================
// SEEDING
// =============================================================================

func TestSeed(t *testing.T) {
	core := newTestCore(t)
	welcome := "¡Hola! Soy tu asistente de programación. ¿En qué puedo ayudarte hoy?"

	created, err := core.Seed([]string{"Aprendiendo Python", "React Hooks"}, welcome)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, welcome, created[0].Preview)

	state := core.Snapshot()
	assert.Equal(t, created[0].ID, state.ActiveID)
	assert.Equal(t, []string{"assistant:" + welcome}, contents(state.Thread))

	_, err = core.Seed([]string{""}, welcome)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
