// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/tutorcito/internal/chat"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// CoreEventMsg carries one change notification from the core.
type CoreEventMsg struct {
	Event chatcore.Event
}

// EventsClosedMsg reports that the core stopped publishing.
type EventsClosedMsg struct{}

// waitForEvent blocks on the subscription and hands the next event to
// Update. Update re-arms it after every CoreEventMsg.
func waitForEvent(events <-chan chatcore.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return CoreEventMsg{Event: ev}
	}
}
