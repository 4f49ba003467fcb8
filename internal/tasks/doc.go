// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides keyed, cancellable background tasks.
//
// Tasks are grouped into lanes by key. Within a lane tasks run one at a
// time in the order they were submitted; different lanes run concurrently.
// Every task has its own context, so a single task, a whole lane or every
// lane can be canceled.
//
// # Key Types
//
//   - Task: Unit of work with forward-only status transitions
//   - Queue: Per-key FIFO lanes, history and notifications
//   - Runner: Starts one worker per busy lane
//   - TaskStatus: Queued, Running, Complete, Failed, Canceled
//
// # Usage
//
// Submit work to a lane:
//
//	queue := tasks.NewQueue(50, 0)
//	runner := tasks.NewRunner(queue)
//	defer runner.Stop()
//
//	task := tasks.NewTask("sess_1", "reply", func(ctx context.Context, t *tasks.Task) error {
//	    select {
//	    case <-time.After(time.Second):
//	        return nil
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	})
//	err := runner.Submit(task)
//
// Cancel a lane:
//
//	n := queue.CancelKey("sess_1")
//
// Watch finished tasks:
//
//	for n := range queue.Notifications() {
//	    fmt.Println(n.Key, n.Status)
//	}
package tasks
