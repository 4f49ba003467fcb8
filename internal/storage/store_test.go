// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the conversation sessions and their message threads.
package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tutorcito/internal/model"
)

// fakeClock hands out times under test control.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestCreateSession(t *testing.T) {
	clock := newFakeClock()
	store := NewStoreWithClock(clock.Now)

	sess, err := store.CreateSession("  Aprendiendo Python  ")
	require.NoError(t, err)

	assert.Equal(t, "Aprendiendo Python", sess.Title)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, clock.Now(), sess.CreatedAt)
	assert.Equal(t, clock.Now(), sess.LastMessageAt)
	assert.Empty(t, sess.Preview)

	thread, err := store.GetThread(sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, thread)
	assert.Empty(t, thread)
}

func TestCreateSession_EmptyTitle(t *testing.T) {
	store := NewStore()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := store.CreateSession(title)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "title %q", title)
	}
	assert.Equal(t, 0, len(store.ListSessions()))
}

func TestCreateSession_UniqueIDs(t *testing.T) {
	store := NewStore()
	seen := make(map[model.SessionID]bool)

	for i := 0; i < 100; i++ {
		sess, err := store.CreateSession("Nueva conversación")
		require.NoError(t, err)
		require.False(t, seen[sess.ID], "duplicate id %s", sess.ID)
		seen[sess.ID] = true
	}
}

func TestGetSession_NotFound(t *testing.T) {
	store := NewStore()

	_, err := store.GetSession("sess_missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemoveSession(t *testing.T) {
	store := NewStore()
	sess, err := store.CreateSession("React Hooks")
	require.NoError(t, err)
	_, err = store.AppendMessage(sess.ID, model.SenderUser, "useEffect")
	require.NoError(t, err)

	require.NoError(t, store.RemoveSession(sess.ID))

	_, err = store.GetSession(sess.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.GetThread(sess.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.False(t, store.Exists(sess.ID))

	err = store.RemoveSession(sess.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListSessions_MostRecentFirst(t *testing.T) {
	clock := newFakeClock()
	store := NewStoreWithClock(clock.Now)

	first, _ := store.CreateSession("Aprendiendo Python")
	clock.Advance(time.Minute)
	second, _ := store.CreateSession("React Hooks")
	clock.Advance(time.Minute)
	third, _ := store.CreateSession("Algoritmos de ordenamiento")

	list := store.ListSessions()
	require.Len(t, list, 3)
	assert.Equal(t, []model.SessionID{third.ID, second.ID, first.ID}, ids(list))

	// A message moves the oldest session to the top
	clock.Advance(time.Minute)
	_, err := store.AppendMessage(first.ID, model.SenderUser, "¿Qué es un diccionario?")
	require.NoError(t, err)

	list = store.ListSessions()
	assert.Equal(t, []model.SessionID{first.ID, third.ID, second.ID}, ids(list))
	assert.Equal(t, "¿Qué es un diccionario?", list[0].Preview)
}

func TestListSessions_TiesAreStable(t *testing.T) {
	clock := newFakeClock()
	store := NewStoreWithClock(clock.Now)

	for i := 0; i < 5; i++ {
		_, err := store.CreateSession("Nueva conversación")
		require.NoError(t, err)
	}

	want := ids(store.ListSessions())
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, ids(store.ListSessions()))
	}
}

func TestListSessions_ReturnsCopies(t *testing.T) {
	store := NewStore()
	sess, _ := store.CreateSession("Original")

	list := store.ListSessions()
	list[0].Title = "Changed"

	got, err := store.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)
}

func TestSessionByIndex(t *testing.T) {
	clock := newFakeClock()
	store := NewStoreWithClock(clock.Now)

	older, _ := store.CreateSession("Vieja")
	clock.Advance(time.Second)
	newer, _ := store.CreateSession("Nueva")

	got, err := store.SessionByIndex(1)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	got, err = store.SessionByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	_, err = store.SessionByIndex(0)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.SessionByIndex(3)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSearchSessions(t *testing.T) {
	store := NewStore()
	py, _ := store.CreateSession("Aprendiendo Python")
	react, _ := store.CreateSession("React Hooks")
	_, err := store.AppendMessage(react.ID, model.SenderUser, "useState con listas")
	require.NoError(t, err)

	assert.Equal(t, []model.SessionID{py.ID}, ids(store.SearchSessions("python")))
	assert.Equal(t, []model.SessionID{react.ID}, ids(store.SearchSessions("USESTATE")))
	assert.Empty(t, store.SearchSessions("rust"))
	assert.Len(t, store.SearchSessions("  "), 2)
}

// =============================================================================
// THREAD TESTS
// =============================================================================

func TestAppendMessage(t *testing.T) {
	clock := newFakeClock()
	store := NewStoreWithClock(clock.Now)
	sess, _ := store.CreateSession("Aprendiendo Python")

	clock.Advance(time.Second)
	msg, err := store.AppendMessage(sess.ID, model.SenderUser, "Hello")
	require.NoError(t, err)

	assert.Equal(t, "Hello", msg.Content)
	assert.Equal(t, sess.ID, msg.SessionID)
	assert.Equal(t, model.SenderUser, msg.Sender)
	assert.Equal(t, clock.Now(), msg.CreatedAt)

	thread, err := store.GetThread(sess.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, msg, thread[0])

	updated, _ := store.GetSession(sess.ID)
	assert.Equal(t, msg.CreatedAt, updated.LastMessageAt)
	assert.Equal(t, "Hello", updated.Preview)
}

func TestAppendMessage_InvalidInputIsNoOp(t *testing.T) {
	store := NewStore()
	sess, _ := store.CreateSession("Aprendiendo Python")
	before, _ := store.GetSession(sess.ID)

	testCases := []struct {
		name    string
		sender  model.Sender
		content string
	}{
		{"empty", model.SenderUser, ""},
		{"whitespace", model.SenderUser, "   \n\t"},
		{"bad sender", model.Sender("system"), "hola"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.AppendMessage(sess.ID, tc.sender, tc.content)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}

	thread, err := store.GetThread(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)
	after, _ := store.GetSession(sess.ID)
	assert.Equal(t, before, after)
}

func TestAppendMessage_UnknownSession(t *testing.T) {
	store := NewStore()
	existing, _ := store.CreateSession("Existente")
	before := store.ListSessions()

	_, err := store.AppendMessage("unknown-id", model.SenderUser, "hola")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, before, store.ListSessions())
	thread, _ := store.GetThread(existing.ID)
	assert.Empty(t, thread)
	_, err = store.GetThread("unknown-id")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// Unknown session wins over bad input
	_, err = store.AppendMessage("unknown-id", model.SenderUser, "   ")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = store.AppendMessage("unknown-id", model.Sender("system"), "hola")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAppendMessage_KeepsContentAsGiven(t *testing.T) {
	store := NewStore()
	sess, _ := store.CreateSession("Aprendiendo Python")

	code := "    for x in items:\n        print(x)\n"
	msg, err := store.AppendMessage(sess.ID, model.SenderUser, code)
	require.NoError(t, err)
	assert.Equal(t, code, msg.Content)

	thread, _ := store.GetThread(sess.ID)
	require.Len(t, thread, 1)
	assert.Equal(t, code, thread[0].Content)

	updated, _ := store.GetSession(sess.ID)
	assert.Equal(t, "for x in items: print(x)", updated.Preview)
}

func TestAppendMessage_TimestampsNeverDecrease(t *testing.T) {
	clock := newFakeClock()
	store := NewStoreWithClock(clock.Now)
	sess, _ := store.CreateSession("Reloj")

	start := clock.Now()
	_, err := store.AppendMessage(sess.ID, model.SenderUser, "uno")
	require.NoError(t, err)

	// Clock steps back
	clock.Set(start.Add(-time.Hour))
	second, err := store.AppendMessage(sess.ID, model.SenderAssistant, "dos")
	require.NoError(t, err)
	assert.Equal(t, start, second.CreatedAt)

	// Same instant is allowed
	clock.Set(start)
	_, err = store.AppendMessage(sess.ID, model.SenderUser, "tres")
	require.NoError(t, err)

	thread, _ := store.GetThread(sess.ID)
	require.Len(t, thread, 3)
	assertNonDecreasing(t, thread)
	assert.Equal(t, []string{"uno", "dos", "tres"}, contents(thread))
}

func TestAppendMessage_PreviewTruncated(t *testing.T) {
	store := NewStore()
	sess, _ := store.CreateSession("Largo")

	long := ""
	for i := 0; i < 30; i++ {
		long += "ordenación "
	}
	_, err := store.AppendMessage(sess.ID, model.SenderAssistant, long)
	require.NoError(t, err)

	got, _ := store.GetSession(sess.ID)
	assert.Equal(t, model.PreviewLength, len([]rune(got.Preview)))
}

func TestGetThread_ReturnsCopies(t *testing.T) {
	store := NewStore()
	sess, _ := store.CreateSession("Copias")
	_, _ = store.AppendMessage(sess.ID, model.SenderUser, "original")

	thread, _ := store.GetThread(sess.ID)
	thread[0].Content = "mutated"

	again, _ := store.GetThread(sess.ID)
	assert.Equal(t, "original", again[0].Content)
}

func TestAppendMessage_Concurrent(t *testing.T) {
	store := NewStore()
	sess, _ := store.CreateSession("Concurrente")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AppendMessage(sess.ID, model.SenderUser, "hola")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	thread, err := store.GetThread(sess.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 50)
	assertNonDecreasing(t, thread)

	seen := make(map[model.MessageID]bool)
	for _, msg := range thread {
		assert.False(t, seen[msg.ID])
		seen[msg.ID] = true
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func ids(sessions []model.Session) []model.SessionID {
	out := make([]model.SessionID, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func contents(thread []model.Message) []string {
	out := make([]string, len(thread))
	for i, m := range thread {
		out[i] = m.Content
	}
	return out
}

func assertNonDecreasing(t *testing.T, thread []model.Message) {
	t.Helper()
	for i := 1; i < len(thread); i++ {
		assert.False(t, thread[i].CreatedAt.Before(thread[i-1].CreatedAt),
			"message %d is older than message %d", i, i-1)
	}
}
