// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the conversation sessions and their message threads.
//
// A Store keeps every session together with its append-only thread in
// memory. Sessions are keyed by id and each thread is an ordered slice of
// messages whose timestamps never decrease. Every read returns copies, so
// callers can never mutate the store behind its lock.
//
// # Key Types
//
//   - Store: Sessions and threads behind a single RWMutex
//   - Clock: Time source, replaceable in tests
//
// # Usage
//
// Create a session and append to its thread:
//
//	store := storage.NewStore()
//	sess, err := store.CreateSession("Aprendiendo Python")
//	msg, err := store.AppendMessage(sess.ID, model.SenderUser, "¿Qué es una lista?")
//
// List sessions, most recent first:
//
//	for _, s := range store.ListSessions() {
//	    fmt.Println(s.Title, s.Preview)
//	}
//
// Errors carry a model.Kind:
//
//	if errors.Is(err, model.ErrNotFound) { ... }
package storage
