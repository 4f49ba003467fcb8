// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, t *Task) error { return nil }

func submitFunc(r *Runner, key, description string, fn Func) (*Task, error) {
	task := NewTask(key, description, fn)
	if err := r.Submit(task); err != nil {
		return nil, err
	}
	return task, nil
}

// =============================================================================
// TASK TESTS
// =============================================================================

func TestNewTask(t *testing.T) {
	task := NewTask("sess_1", "Test task", noop)

	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Key != "sess_1" {
		t.Errorf("Expected key 'sess_1', got '%s'", task.Key)
	}
	if task.Description != "Test task" {
		t.Errorf("Expected description 'Test task', got '%s'", task.Description)
	}
	if task.Status() != TaskStatusQueued {
		t.Errorf("Expected status Queued, got %s", task.Status())
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	task := NewTask("k", "Test", noop)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.True(t, task.start(cancel))
	assert.Equal(t, TaskStatusRunning, task.Status())
	assert.False(t, task.start(cancel), "a running task cannot start again")

	assert.Equal(t, TaskStatusComplete, task.finish(nil, false))
	assert.Equal(t, TaskStatusComplete, task.finish(errors.New("late"), false), "terminal status is final")
	assert.False(t, task.Cancel())
	assert.NoError(t, task.Err())

	assert.True(t, task.IsComplete())
	assert.GreaterOrEqual(t, task.Duration(), time.Duration(0))

	select {
	case <-task.Done():
	default:
		t.Error("Done should be closed after a terminal status")
	}
}

func TestTaskCancel(t *testing.T) {
	task := NewTask("k", "Test", noop)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, task.start(cancel))

	if !task.Cancel() {
		t.Error("Cancel should succeed for running task")
	}
	if task.Status() != TaskStatusCanceled {
		t.Error("Task should be canceled")
	}
	if ctx.Err() == nil {
		t.Error("Cancel should cancel the task context")
	}
	if task.Cancel() {
		t.Error("Second cancel should fail")
	}

	// Outcome reported after cancel does not override it
	assert.Equal(t, TaskStatusCanceled, task.finish(nil, false))
}

func TestTaskStartAfterCancel(t *testing.T) {
	task := NewTask("k", "Test", noop)
	require.True(t, task.Cancel())

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.False(t, task.start(cancel))
}

// =============================================================================
// RUNNER TESTS
// =============================================================================

func TestRunner_LaneRunsInOrder(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunner(queue)
	defer runner.Stop()

	var mu sync.Mutex
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		_, err := submitFunc(runner, "sess_1", "step", func(ctx context.Context, t *Task) error {
			// Earlier tasks sleep longer; order must still hold
			time.Sleep(time.Duration(5-i) * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	runner.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, queue.Pending("sess_1"))
	assert.False(t, runner.Busy("sess_1"))
}

func TestRunner_LanesAreIndependent(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunner(queue)
	defer runner.Stop()

	release := make(chan struct{})
	blocked, err := submitFunc(runner, "slow", "blocked", func(ctx context.Context, t *Task) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	require.NoError(t, err)

	fast, err := submitFunc(runner, "fast", "fast", noop)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := fast.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusComplete, status)
	assert.True(t, runner.Busy("slow"))

	close(release)
	status, err = blocked.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusComplete, status)
}

func TestQueue_CancelKey(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunner(queue)
	defer runner.Stop()

	started := make(chan struct{})
	var ran sync.Map

	running, err := submitFunc(runner, "sess_1", "running", func(ctx context.Context, t *Task) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	queued, err := submitFunc(runner, "sess_1", "queued", func(ctx context.Context, t *Task) error {
		ran.Store("queued", true)
		return nil
	})
	require.NoError(t, err)

	other, err := submitFunc(runner, "sess_2", "other", noop)
	require.NoError(t, err)

	<-started
	assert.Equal(t, 2, queue.Pending("sess_1"))
	assert.Equal(t, 2, queue.CancelKey("sess_1"))
	assert.Equal(t, 0, queue.Pending("sess_1"))

	runner.Wait()
	assert.Equal(t, TaskStatusCanceled, running.Status())
	assert.Equal(t, TaskStatusCanceled, queued.Status())
	assert.Equal(t, TaskStatusComplete, other.Status())
	_, didRun := ran.Load("queued")
	assert.False(t, didRun, "canceled queued task must never run")
}

func TestRunner_FailedAndPanickingTasks(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunner(queue)
	defer runner.Stop()

	failed, err := submitFunc(runner, "k", "fails", func(ctx context.Context, t *Task) error {
		return errors.New("boom")
	})
	require.NoError(t, err)
	panicked, err := submitFunc(runner, "k", "panics", func(ctx context.Context, t *Task) error {
		panic("bad task")
	})
	require.NoError(t, err)
	after, err := submitFunc(runner, "k", "after", noop)
	require.NoError(t, err)

	runner.Wait()
	assert.Equal(t, TaskStatusFailed, failed.Status())
	assert.EqualError(t, failed.Err(), "boom")
	assert.Equal(t, TaskStatusFailed, panicked.Status())
	assert.Equal(t, TaskStatusComplete, after.Status())
}

func TestRunner_Timeout(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunnerWithOptions(queue, 10*time.Millisecond)
	defer runner.Stop()

	task, err := submitFunc(runner, "k", "slow", func(ctx context.Context, t *Task) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	runner.Wait()
	assert.Equal(t, TaskStatusFailed, task.Status())
	assert.ErrorIs(t, task.Err(), context.DeadlineExceeded)
}

func TestRunner_StopRejectsAndClosesNotifications(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunner(queue)

	task, err := submitFunc(runner, "k", "blocked", func(ctx context.Context, t *Task) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	runner.Stop()
	runner.Stop()

	assert.Equal(t, TaskStatusCanceled, task.Status())
	_, err = submitFunc(runner, "k", "late", noop)
	assert.ErrorIs(t, err, ErrStopped)

	// Channel drains then reports closed
	for range queue.Notifications() {
	}
}

func TestQueue_LaneSizeLimit(t *testing.T) {
	queue := NewQueue(10, 1)
	runner := NewRunner(queue)
	defer runner.Stop()

	release := make(chan struct{})
	_, err := submitFunc(runner, "k", "first", func(ctx context.Context, t *Task) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	_, err = submitFunc(runner, "k", "second", noop)
	assert.Error(t, err)

	close(release)
	runner.Wait()
}

func TestQueue_NotificationsAndHistory(t *testing.T) {
	queue := NewQueue(2, 0)
	runner := NewRunner(queue)
	defer runner.Stop()

	var last *Task
	for i := 0; i < 3; i++ {
		task, err := submitFunc(runner, "k", "step", noop)
		require.NoError(t, err)
		last = task
	}
	runner.Wait()

	for i := 0; i < 3; i++ {
		select {
		case n := <-queue.Notifications():
			assert.Equal(t, "k", n.Key)
			assert.Equal(t, TaskStatusComplete, n.Status)
		case <-time.After(time.Second):
			t.Fatal("missing notification")
		}
	}

	assert.Equal(t, TaskStatusComplete, last.Status())
	assert.Contains(t, queue.Summary(), "Completed: 2", "history keeps the newest two")
}

func TestRunner_SubmitWhileWorkerHandsOff(t *testing.T) {
	queue := NewQueue(10, 0)
	runner := NewRunner(queue)
	defer runner.Stop()

	// Walk a lane worker up to the point where it has finished its task
	// but has not yet asked for the next one.
	first := NewTask("sess_1", "first", noop)
	startWorker, err := queue.push(first)
	require.NoError(t, err)
	require.True(t, startWorker)
	require.Same(t, first, queue.next("sess_1"))
	runner.executeTask(first)
	queue.done(first)

	release := make(chan struct{})
	defer close(release)
	second := NewTask("sess_1", "second", func(ctx context.Context, t *Task) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	require.NoError(t, runner.Submit(second))

	// The lane still belongs to the first worker, which now resumes
	runner.wg.Add(1)
	go runner.drain("sess_1")

	require.Eventually(t, func() bool {
		return second.Status() == TaskStatusRunning
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, queue.Pending("sess_1"))
	assert.True(t, runner.Busy("sess_1"))

	assert.Equal(t, 1, queue.CancelKey("sess_1"))
	runner.Wait()
	assert.Equal(t, TaskStatusCanceled, second.Status())

	seen := 0
	for {
		select {
		case n := <-queue.Notifications():
			if n.TaskID == second.ID {
				seen++
				assert.Equal(t, TaskStatusCanceled, n.Status)
			}
			continue
		default:
		}
		break
	}
	assert.Equal(t, 1, seen, "a task is recorded once")
}
