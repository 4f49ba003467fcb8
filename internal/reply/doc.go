// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reply generates the assistant's answer to each user submission.
//
// A Simulator schedules one deferred task per accepted submission on the
// session's lane of a tasks.Runner. After the configured delay the task
// asks a Responder for the content and appends exactly one assistant
// message to the thread. Removing a session cancels its lane; a reply that
// still fires for a removed session is discarded.
//
// # Key Types
//
//   - Simulator: Delayed, cancellable reply scheduling per session
//   - Responder: Backend contract (prompt in, assistant text out)
//   - PlaceholderResponder: Fixed text used until a real backend exists
//   - Notifier: Receives messages appended by tasks and reply failures
//
// # Usage
//
//	sim := reply.New(store, reply.PlaceholderResponder{}, reply.DefaultOptions())
//	defer sim.Close()
//
//	msg, err := store.AppendMessage(id, model.SenderUser, "¿Qué es un closure?")
//	task, err := sim.Schedule(id, msg.ID)
//
//	sim.CancelAll(id) // before removing the session
package reply
