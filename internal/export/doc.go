// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes session transcripts to Markdown, JSON, YAML and HTML.
//
// # Key Types
//
//   - Transcript: a session plus its thread in display order
//   - Exporter: format-specific encoder
//   - Options: metadata, timestamp and theme settings
//   - Error: failed export with format and destination
//
// # Usage
//
//	sess, thread, err := core.Transcript(id)
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(export.NewTranscript(sess, thread), exp, "out.md", nil)
package export
