// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides keyed, cancellable background tasks.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a background task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting in its lane
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates the task is currently executing
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the task finished successfully
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the task returned an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the task was canceled before finishing
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusComplete, TaskStatusFailed, TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Func is the work a task performs. It must return promptly once ctx is
// done.
type Func func(ctx context.Context, task *Task) error

// Task is one unit of work in a keyed lane.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Key names the lane; tasks with the same key run one at a time in
	// submission order
	Key string

	// Description is a human-readable description of what this task does
	Description string

	// Metadata stores task-specific values such as the triggering message
	Metadata map[string]string

	status    TaskStatus
	startTime time.Time
	endTime   time.Time
	err       error

	fn     Func
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.RWMutex
}

// NewTask creates a queued task for the given lane.
func NewTask(key, description string, fn Func) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Key:         key,
		Description: description,
		Metadata:    make(map[string]string),
		status:      TaskStatusQueued,
		fn:          fn,
		done:        make(chan struct{}),
	}
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// setLocked applies status and stamps times (lock held). Callers only
// move forward: Queued -> Running -> Complete/Failed/Canceled, or
// Queued -> Canceled.
func (t *Task) setLocked(status TaskStatus) {
	if t.status == status {
		return
	}
	t.status = status

	switch status {
	case TaskStatusRunning:
		t.startTime = time.Now()
	case TaskStatusComplete, TaskStatusFailed, TaskStatusCanceled:
		t.endTime = time.Now()
		close(t.done)
	}
}

// start moves a queued task to running and installs its cancel function
// in one step. It reports false if the task was canceled while queued.
func (t *Task) start(cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != TaskStatusQueued {
		return false
	}
	t.cancel = cancel
	t.setLocked(TaskStatusRunning)
	return true
}

// finish records the outcome of fn. A task canceled while running keeps
// its Canceled status.
func (t *Task) finish(err error, canceled bool) TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return t.status
	}

	switch {
	case canceled:
		t.setLocked(TaskStatusCanceled)
	case err != nil:
		t.err = err
		t.setLocked(TaskStatusFailed)
	default:
		t.setLocked(TaskStatusComplete)
	}
	return t.status
}

// Cancel cancels a queued or running task.
// Returns true if the task was canceled, false if it had already finished.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != TaskStatusRunning && t.status != TaskStatusQueued {
		return false
	}

	if t.cancel != nil {
		t.cancel()
	}
	t.setLocked(TaskStatusCanceled)
	return true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Status returns the current task status.
func (t *Task) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Err returns the error the task failed with, if any.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Done is closed once the task reaches a terminal status.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (TaskStatus, error) {
	select {
	case <-t.done:
		return t.Status(), nil
	case <-ctx.Done():
		return t.Status(), ctx.Err()
	}
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.startTime.IsZero() {
		return 0
	}
	if t.endTime.IsZero() {
		return time.Since(t.startTime)
	}
	return t.endTime.Sub(t.startTime)
}

// IsComplete returns true if the task has finished (success, failure, or canceled).
func (t *Task) IsComplete() bool {
	return t.Status().Terminal()
}

