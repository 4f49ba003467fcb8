// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides keyed, cancellable background tasks.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/tutorcito/internal/logger"
)

// ErrStopped is returned when submitting to a stopped runner.
var ErrStopped = errors.New("task runner stopped")

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes the tasks of a Queue. Each busy lane gets its own
// goroutine, so lanes run independently while the tasks inside one lane
// run strictly one after another in submission order.
type Runner struct {
	queue       *Queue
	wg          sync.WaitGroup
	mu          sync.RWMutex
	stopped     atomic.Bool
	ctx         context.Context
	cancel      context.CancelFunc
	taskTimeout time.Duration
}

// NewRunner creates a runner for the given queue with no task timeout.
func NewRunner(queue *Queue) *Runner {
	return NewRunnerWithOptions(queue, 0)
}

// NewRunnerWithOptions creates a runner with a per-task timeout
// (0 = no timeout).
func NewRunnerWithOptions(queue *Queue, taskTimeout time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		queue:       queue,
		ctx:         ctx,
		cancel:      cancel,
		taskTimeout: taskTimeout,
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit appends task to its lane and starts a worker if the lane was idle.
func (r *Runner) Submit(task *Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped.Load() {
		return ErrStopped
	}

	startWorker, err := r.queue.push(task)
	if err != nil {
		return err
	}
	if startWorker {
		r.wg.Add(1)
		go r.drain(task.Key)
	}
	return nil
}

// Busy reports whether the key's lane has unfinished tasks.
func (r *Runner) Busy(key string) bool {
	return r.queue.Pending(key) > 0
}

// Wait blocks until every lane has drained.
func (r *Runner) Wait() {
	r.queue.waitIdle()
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Stop cancels every task, waits for the workers to exit and closes the
// notification channel. Later submissions fail with ErrStopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped.Swap(true) {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.queue.CancelAll()
	r.cancel()
	r.wg.Wait()
	r.queue.close()
}

// =============================================================================
// TASK PROCESSING
// =============================================================================

// drain runs the tasks of one lane until it is empty.
func (r *Runner) drain(key string) {
	defer r.wg.Done()

	for {
		task := r.queue.next(key)
		if task == nil {
			return
		}
		r.executeTask(task)
		r.queue.done(task)
	}
}

// executeTask executes a single task.
func (r *Runner) executeTask(task *Task) {
	var ctx context.Context
	var cancel context.CancelFunc
	if r.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(r.ctx, r.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(r.ctx)
	}
	defer cancel()

	if !task.start(cancel) {
		// Canceled between next() and here
		return
	}

	err := r.call(ctx, task)

	canceled := errors.Is(ctx.Err(), context.Canceled)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && err != nil {
		err = fmt.Errorf("task timeout after %v: %w", r.taskTimeout, err)
	}

	status := task.finish(err, canceled)
	if status == TaskStatusFailed {
		logger.Component("tasks").Warn("task failed",
			"task", task.ID, "key", task.Key, "description", task.Description, "error", err)
	}
}

// call runs the task function, turning a panic into an error so one bad
// task cannot take down its lane.
func (r *Runner) call(ctx context.Context, task *Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()

	if task.fn == nil {
		return fmt.Errorf("task %s has no function", task.ID)
	}
	return task.fn(ctx, task)
}
