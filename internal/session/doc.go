// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the active-session selection and the composer.
//
// Selection tracks the single session presented to the user. Composer owns
// the draft text and turns a submission into a user message plus a
// scheduled assistant reply. The draft is shared by all sessions: switching
// the selection neither clears nor swaps it.
//
// # Key Types
//
//   - Selection: Optional active session id, validated on Select
//   - Composer: Draft buffer and Submit
//   - Submission: Outcome of Submit (created or queued message)
//   - Turns: Accepts a user turn for a session (reply.Simulator)
//
// # Usage
//
//	sel := session.NewSelection(store)
//	composer := session.NewComposer(sel, simulator)
//
//	if err := sel.Select(id); err != nil { ... }
//	composer.SetDraft("¿Qué es la recursión?")
//	sub, err := composer.Submit(ctx)
//	if errors.Is(err, model.ErrNoActiveSession) { ... }
package session
