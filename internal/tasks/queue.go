// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides keyed, cancellable background tasks.
package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/tutorcito/internal/logger"
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue holds one FIFO lane of tasks per key plus a bounded history of
// finished tasks. A lane exists while it has tasks and a worker draining it.
type Queue struct {
	// lanes holds the unfinished tasks of each key in submission order;
	// the head is the task currently running
	lanes map[string][]*Task

	// history is the list of finished tasks, oldest first
	history []*Task

	// maxHistory is the maximum number of finished tasks to keep
	maxHistory int

	// maxLaneSize is the maximum number of tasks per lane (0 = unlimited)
	maxLaneSize int

	mu   sync.Mutex
	idle *sync.Cond

	// notifyChan sends notifications when tasks finish
	notifyChan chan TaskNotification
	closed     bool
}

// TaskNotification represents a notification about a finished task.
type TaskNotification struct {
	TaskID      string
	Key         string
	Description string
	Status      TaskStatus
	Error       string
	Duration    time.Duration
}

// NewQueue creates a new queue.
// maxHistory: maximum number of finished tasks to keep (0 = none)
// maxLaneSize: maximum number of tasks per lane (0 = unlimited)
func NewQueue(maxHistory, maxLaneSize int) *Queue {
	q := &Queue{
		lanes:       make(map[string][]*Task),
		maxHistory:  maxHistory,
		maxLaneSize: maxLaneSize,
		notifyChan:  make(chan TaskNotification, 100),
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// =============================================================================
// LANE MANAGEMENT
// =============================================================================

// push appends task to its lane. It reports whether the lane did not
// exist, in which case the caller must start a worker for it. A lane that
// is empty but still present belongs to a worker between done and next,
// and that worker will pick the task up.
func (q *Queue) push(task *Task) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane, exists := q.lanes[task.Key]
	if q.maxLaneSize > 0 && len(lane) >= q.maxLaneSize {
		return false, fmt.Errorf("lane %s is full: %d tasks (max: %d)", task.Key, len(lane), q.maxLaneSize)
	}

	q.lanes[task.Key] = append(lane, task)
	return !exists, nil
}

// next returns the head of the lane, dropping tasks that were canceled
// while queued. When the lane is empty it is removed and nil is returned;
// the worker must then exit. This is the only place a lane is removed.
func (q *Queue) next(key string) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane := q.lanes[key]
	for len(lane) > 0 && lane[0].IsComplete() {
		q.recordLocked(lane[0])
		lane = lane[1:]
	}

	if len(lane) == 0 {
		delete(q.lanes, key)
		q.idle.Broadcast()
		return nil
	}
	q.lanes[key] = lane
	return lane[0]
}

// done removes a finished task from the head of its lane.
func (q *Queue) done(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane := q.lanes[task.Key]
	for i, t := range lane {
		if t == task {
			q.lanes[task.Key] = append(lane[:i:i], lane[i+1:]...)
			break
		}
	}
	q.recordLocked(task)
}

// recordLocked moves a finished task to history and sends a notification.
// Must be called with lock held.
func (q *Queue) recordLocked(task *Task) {
	q.history = append(q.history, task)
	q.cleanupLocked()

	errText := ""
	if err := task.Err(); err != nil {
		errText = err.Error()
	}
	q.notify(TaskNotification{
		TaskID:      task.ID,
		Key:         task.Key,
		Description: task.Description,
		Status:      task.Status(),
		Error:       errText,
		Duration:    task.Duration(),
	})
}

// CancelKey cancels every unfinished task in the key's lane.
// Returns the number of tasks canceled.
func (q *Queue) CancelKey(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, task := range q.lanes[key] {
		if task.Cancel() {
			count++
		}
	}
	return count
}

// CancelAll cancels every unfinished task in every lane.
func (q *Queue) CancelAll() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, lane := range q.lanes {
		for _, task := range lane {
			if task.Cancel() {
				count++
			}
		}
	}
	return count
}

// waitIdle blocks until no lane has tasks.
func (q *Queue) waitIdle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.lanes) > 0 {
		q.idle.Wait()
	}
}

// =============================================================================
// QUEUE QUERIES
// =============================================================================

// Pending returns the number of unfinished tasks in the key's lane,
// including the one that is running.
func (q *Queue) Pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, task := range q.lanes[key] {
		if !task.IsComplete() {
			count++
		}
	}
	return count
}

// PendingByKey returns the unfinished task count of every busy lane.
func (q *Queue) PendingByKey() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make(map[string]int, len(q.lanes))
	for key, lane := range q.lanes {
		for _, task := range lane {
			if !task.IsComplete() {
				result[key]++
			}
		}
	}
	return result
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the notification channel. It is closed when the
// runner owning the queue stops.
func (q *Queue) Notifications() <-chan TaskNotification {
	return q.notifyChan
}

// notify sends a notification (must be called with lock held).
func (q *Queue) notify(notification TaskNotification) {
	if q.closed {
		return
	}
	select {
	case q.notifyChan <- notification:
	default:
		logger.Component("tasks").Warn("notification channel full, dropped notification",
			"task", notification.TaskID, "status", notification.Status)
	}
}

// close closes the notification channel once no worker can send on it.
func (q *Queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.notifyChan)
	}
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked drops the oldest finished tasks beyond maxHistory.
// Must be called with lock held.
func (q *Queue) cleanupLocked() {
	if excess := len(q.history) - q.maxHistory; excess > 0 {
		q.history = append([]*Task(nil), q.history[excess:]...)
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of the queue.
func (q *Queue) Summary() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	running, queued := 0, 0
	for _, lane := range q.lanes {
		for _, task := range lane {
			switch task.Status() {
			case TaskStatusRunning:
				running++
			case TaskStatusQueued:
				queued++
			}
		}
	}

	completed, failed, canceled := 0, 0, 0
	for _, task := range q.history {
		switch task.Status() {
		case TaskStatusComplete:
			completed++
		case TaskStatusFailed:
			failed++
		case TaskStatusCanceled:
			canceled++
		}
	}

	return fmt.Sprintf("Running: %d | Queued: %d | Completed: %d | Failed: %d | Canceled: %d",
		running, queued, completed, failed, canceled)
}
