// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reply generates the assistant's answer to each user submission.
package reply

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/tasks"
)

// DefaultDelay is how long the assistant "thinks" before answering.
const DefaultDelay = time.Second

// Metadata keys set on reply tasks.
const (
	MetaSession = "session"
	MetaTrigger = "trigger"
	MetaKind    = "kind"
)

// Task kinds.
const (
	KindReply = "reply"
	KindTurn  = "turn"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Thread is the part of the thread store the simulator needs.
type Thread interface {
	GetThread(id model.SessionID) ([]model.Message, error)
	AppendMessage(id model.SessionID, sender model.Sender, content string) (model.Message, error)
}

// Notifier is told about changes made from background tasks.
type Notifier interface {
	MessageAppended(msg model.Message)
	ReplyFailed(sessionID model.SessionID, err error)
}

type nopNotifier struct{}

func (nopNotifier) MessageAppended(model.Message) {}

func (nopNotifier) ReplyFailed(model.SessionID, error) {}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Simulator.
type Options struct {
	// Delay before each reply is produced
	Delay time.Duration

	// RatePerSecond caps replies across all sessions (0 = unlimited)
	RatePerSecond float64

	// Burst is the limiter bucket size (minimum 1)
	Burst int

	// Timeout bounds each task, delay included (0 = no limit). A reply
	// that runs out of time is reported as failed.
	Timeout time.Duration

	// MaxHistory is the number of finished tasks kept for inspection
	MaxHistory int
}

// DefaultOptions returns a one second delay and no rate limit.
func DefaultOptions() Options {
	return Options{
		Delay:      DefaultDelay,
		Burst:      1,
		MaxHistory: 50,
	}
}

// =============================================================================
// SIMULATOR
// =============================================================================

// Simulator schedules delayed assistant replies, one lane per session.
type Simulator struct {
	store  Thread
	queue  *tasks.Queue
	runner *tasks.Runner

	// turnMu makes the idle check and the append of SubmitTurn atomic
	turnMu sync.Mutex

	mu        sync.RWMutex
	responder Responder
	notifier  Notifier
	limiter   *rate.Limiter

	delay atomic.Int64
}

// New creates a simulator that appends to store.
func New(store Thread, responder Responder, opts Options) *Simulator {
	if responder == nil {
		responder = PlaceholderResponder{}
	}

	queue := tasks.NewQueue(opts.MaxHistory, 0)
	s := &Simulator{
		store:     store,
		queue:     queue,
		runner:    tasks.NewRunnerWithOptions(queue, opts.Timeout),
		responder: responder,
		notifier:  nopNotifier{},
	}
	s.SetDelay(opts.Delay)
	s.SetRate(opts.RatePerSecond, opts.Burst)
	return s
}

// SetNotifier installs the receiver of background changes.
func (s *Simulator) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// SetResponder replaces the reply backend for tasks that have not yet
// asked for their content.
func (s *Simulator) SetResponder(r Responder) {
	if r == nil {
		r = PlaceholderResponder{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = r
}

// SetDelay changes the reply delay. Negative values mean no delay.
func (s *Simulator) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.delay.Store(int64(d))
}

// Delay returns the current reply delay.
func (s *Simulator) Delay() time.Duration {
	return time.Duration(s.delay.Load())
}

// SetRate installs a global reply rate limit; perSecond <= 0 removes it.
func (s *Simulator) SetRate(perSecond float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if perSecond <= 0 {
		s.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (s *Simulator) collaborators() (Responder, Notifier, *rate.Limiter) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.responder, s.notifier, s.limiter
}

// =============================================================================
// SCHEDULING
// =============================================================================

// Schedule starts the reply to an existing user message. The task runs
// after every earlier task of the same session.
func (s *Simulator) Schedule(sessionID model.SessionID, triggerID model.MessageID) (*tasks.Task, error) {
	const op = "reply.Schedule"

	thread, err := s.store.GetThread(sessionID)
	if err != nil {
		return nil, err
	}

	var prompt string
	found := false
	for _, msg := range thread {
		if msg.ID == triggerID {
			prompt, found = msg.Content, true
			break
		}
	}
	if !found {
		return nil, model.E(model.KindNotFound, op, "message "+string(triggerID))
	}

	task := tasks.NewTask(string(sessionID), "reply to "+string(triggerID), func(ctx context.Context, _ *tasks.Task) error {
		return s.reply(ctx, sessionID, prompt)
	})
	task.Metadata[MetaSession] = string(sessionID)
	task.Metadata[MetaTrigger] = string(triggerID)
	task.Metadata[MetaKind] = KindReply

	if err := s.runner.Submit(task); err != nil {
		return nil, err
	}
	logger.WithSession(string(sessionID)).Debug("reply scheduled",
		"task", task.ID, "trigger", triggerID, "delay", s.Delay())
	return task, nil
}

// ScheduleTurn queues a whole turn: the user message is appended when the
// task reaches the head of the session's lane, then the reply follows.
func (s *Simulator) ScheduleTurn(sessionID model.SessionID, content string) (*tasks.Task, error) {
	const op = "reply.ScheduleTurn"

	if model.BlankContent(content) {
		return nil, model.E(model.KindInvalidInput, op, "empty content")
	}
	if _, err := s.store.GetThread(sessionID); err != nil {
		return nil, err
	}

	task := tasks.NewTask(string(sessionID), "queued turn", func(ctx context.Context, _ *tasks.Task) error {
		return s.turn(ctx, sessionID, content)
	})
	task.Metadata[MetaSession] = string(sessionID)
	task.Metadata[MetaKind] = KindTurn

	if err := s.runner.Submit(task); err != nil {
		return nil, err
	}
	logger.WithSession(string(sessionID)).Debug("turn queued", "task", task.ID)
	return task, nil
}

// SubmitTurn accepts a user submission. When the session has no reply in
// flight the user message is appended now and returned, and its reply is
// scheduled. Otherwise the whole turn is queued behind the pending replies
// and the returned message is nil; it will appear once the turn runs. This
// keeps every user message directly ahead of its own reply.
func (s *Simulator) SubmitTurn(sessionID model.SessionID, content string) (*model.Message, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	if s.runner.Busy(string(sessionID)) {
		_, err := s.ScheduleTurn(sessionID, content)
		return nil, err
	}

	msg, err := s.store.AppendMessage(sessionID, model.SenderUser, content)
	if err != nil {
		return nil, err
	}
	if _, err := s.Schedule(sessionID, msg.ID); err != nil {
		return &msg, err
	}
	return &msg, nil
}

// CancelAll cancels every pending or running task of the session without
// side effects and returns how many were canceled.
func (s *Simulator) CancelAll(sessionID model.SessionID) int {
	n := s.queue.CancelKey(string(sessionID))
	if n > 0 {
		logger.WithSession(string(sessionID)).Debug("replies canceled", "count", n)
	}
	return n
}

// Pending returns the number of unfinished tasks of the session.
func (s *Simulator) Pending(sessionID model.SessionID) int {
	return s.queue.Pending(string(sessionID))
}

// PendingAll returns the unfinished task count of every busy session.
func (s *Simulator) PendingAll() map[model.SessionID]int {
	byKey := s.queue.PendingByKey()
	result := make(map[model.SessionID]int, len(byKey))
	for key, n := range byKey {
		if n > 0 {
			result[model.SessionID(key)] = n
		}
	}
	return result
}

// Notifications reports every finished task. The channel is closed by
// Close.
func (s *Simulator) Notifications() <-chan tasks.TaskNotification {
	return s.queue.Notifications()
}

// Summary describes the task counts.
func (s *Simulator) Summary() string {
	return s.queue.Summary()
}

// Wait blocks until every session lane has drained.
func (s *Simulator) Wait() {
	s.runner.Wait()
}

// Close cancels every task and stops the workers.
func (s *Simulator) Close() {
	s.runner.Stop()
}

// =============================================================================
// TASK BODIES
// =============================================================================

// turn appends a queued user message, then produces its reply.
func (s *Simulator) turn(ctx context.Context, sessionID model.SessionID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.store.AppendMessage(sessionID, model.SenderUser, content)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.WithSession(string(sessionID)).Debug("discarding queued turn for removed session")
			return nil
		}
		return err
	}
	_, notifier, _ := s.collaborators()
	notifier.MessageAppended(msg)

	return s.reply(ctx, sessionID, msg.Content)
}

// reply waits, asks the responder and appends the assistant message.
func (s *Simulator) reply(ctx context.Context, sessionID model.SessionID, prompt string) (err error) {
	log := logger.WithSession(string(sessionID))
	responder, notifier, limiter := s.collaborators()

	defer func() {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("reply timed out", "error", err)
			notifier.ReplyFailed(sessionID, err)
		}
	}()

	if err := sleep(ctx, s.Delay()); err != nil {
		return err
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	content, err := responder.Respond(ctx, sessionID, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("responder failed", "error", err)
		notifier.ReplyFailed(sessionID, err)
		return err
	}

	// Canceled while the responder was working
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.store.AppendMessage(sessionID, model.SenderAssistant, content)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			log.Debug("discarding stale reply for removed session")
			return nil
		}
		log.Warn("reply rejected by thread store", "error", err)
		notifier.ReplyFailed(sessionID, err)
		return err
	}

	notifier.MessageAppended(msg)
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
