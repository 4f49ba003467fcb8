// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared by the stores and the UIs.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: Display-width truncation (go-runewidth)
//   - SingleLine: Collapse whitespace for one-line previews
//
// Time:
//   - TimeFormatter: Locale-aware hour:minute formatting
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	f := util.NewTimeFormatter("es-ES", time.Local)
//	label := f.Format(session.LastMessageAt) // "14:05"
//
//	preview := util.TruncateWidth(session.Preview, 30)
package util
