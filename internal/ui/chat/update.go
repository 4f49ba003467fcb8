// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/tutorcito/internal/chat"
	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case CoreEventMsg:
		return m.handleCoreEvent(msg)

	case EventsClosedMsg:
		m.events = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCoreEvent re-reads the snapshot and re-arms the listener.
func (m Model) handleCoreEvent(msg CoreEventMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	if ev.Kind == chatcore.EventReplyFailed && ev.SessionID == m.state.ActiveID {
		m.err = ev.Err
	}
	m.refresh()
	return m, waitForEvent(m.events)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NewSession):
		m.clearNotice()
		if _, err := m.core.StartSession(m.opts.NewSessionTitle); err != nil {
			m.err = err
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.RemoveSession):
		m.clearNotice()
		if m.state.ActiveID == "" {
			m.status = "No hay conversación activa"
			return m, nil
		}
		if err := m.core.RemoveSession(m.state.ActiveID); err != nil {
			m.err = err
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.NextSession):
		m.cycleSession(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevSession):
		m.cycleSession(-1)
		return m, nil

	case key.Matches(msg, m.keys.ClearSelection):
		m.clearNotice()
		m.core.ClearSelection()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Everything else edits the draft.
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.core.SetDraft(after)
		m.state.Draft = after
	}
	return m, cmd
}

// submit sends the draft to the active session.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.clearNotice()

	sub, err := m.core.Submit(context.Background())
	switch {
	case errors.Is(err, model.ErrNoActiveSession):
		m.status = "Selecciona o crea una conversación (C-n)"
	case errors.Is(err, model.ErrInvalidInput):
		// Blank drafts are ignored.
	case err != nil:
		m.err = err
		logger.Component("ui").Warn("submit failed", "error", err)
	case sub.Queued:
		m.status = "Mensaje en cola"
	}

	m.refresh()
	return m, nil
}

// cycleSession moves the selection by delta in display order, wrapping at
// either end. With nothing selected it starts from the first session.
func (m *Model) cycleSession(delta int) {
	m.clearNotice()
	sessions := m.state.Sessions
	if len(sessions) == 0 {
		return
	}

	next := 0
	if delta < 0 {
		next = len(sessions) - 1
	}
	for i, sess := range sessions {
		if sess.ID == m.state.ActiveID {
			next = (i + delta + len(sessions)) % len(sessions)
			break
		}
	}

	if err := m.core.Select(sessions[next].ID); err != nil {
		m.err = err
	}
	m.refresh()
}

func (m *Model) clearNotice() {
	m.status = ""
	m.err = nil
}
