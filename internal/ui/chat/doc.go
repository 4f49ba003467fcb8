// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the bubbletea interface over the conversation core.
//
// The model renders a session sidebar, the active thread and a composer.
// It subscribes to core events and re-reads a snapshot on each one, so
// replies that land while the user is elsewhere show up on the next frame.
//
// # Key Types
//
//   - Model: bubbletea model
//   - Options: theme, time formatting and labels
//   - KeyMap: keyboard bindings, also used for the help line
//
// # Usage
//
//	m := chat.New(core, chat.Options{Theme: styles.NewTheme(cfg.UI.Theme)})
//	defer m.Close()
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
package chat
