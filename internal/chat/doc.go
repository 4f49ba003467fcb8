// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat wires the stores, the selection, the composer and the reply
// simulator into one state core.
//
// Rendering layers never touch the stores directly. They send Commands
// through Dispatch (or the typed helpers), read a State snapshot and
// subscribe to Events to learn when to read again. Commands are applied
// one at a time; assistant replies arrive later from background tasks and
// are announced the same way.
//
// # Key Types
//
//   - Core: Command dispatcher and snapshot source
//   - Command: CreateSession, RemoveSession, Select, ClearSelection, SetDraft, Submit
//   - State: Sessions, active id, active thread, draft, pending replies
//   - Event: Change notification delivered to subscribers
//
// # Usage
//
//	core := chat.New(chat.DefaultOptions())
//	defer core.Close()
//
//	events, unsubscribe := core.Subscribe()
//	defer unsubscribe()
//
//	sess, _ := core.CreateSession("Aprendiendo Python")
//	_ = core.Select(sess.ID)
//	core.SetDraft("¿Qué es una tupla?")
//	sub, err := core.Submit(ctx)
//
//	for ev := range events {
//	    state := core.Snapshot()
//	    render(state)
//	}
package chat
