// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Cargando..."
	}

	header := m.opts.Theme.Header.Width(m.width).Render(m.renderHeader())
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(),
		" ",
		lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.renderComposer()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatus())
}

func (m Model) renderHeader() string {
	title := m.opts.Theme.Brand.Render("tutorcito")
	if active, ok := m.state.Active(); ok {
		return title + "  " + active.Title
	}
	return title
}

// =============================================================================
// SIDEBAR
// =============================================================================

// renderSidebar lists sessions with title, preview and last activity.
func (m Model) renderSidebar() string {
	theme := m.opts.Theme
	inner := sidebarWidth - 4

	var items []string
	if len(m.state.Sessions) == 0 {
		items = append(items, theme.EmptyState.Render("Sin conversaciones"))
	}

	for _, sess := range m.state.Sessions {
		title := util.TruncateWidth(sess.Title, inner-2)
		if n := m.state.Pending[sess.ID]; n > 0 {
			title += theme.SessionPending.Render(fmt.Sprintf(" •%d", n))
		}

		line2 := ""
		if !sess.LastMessageAt.IsZero() {
			line2 = m.opts.Times.Format(sess.LastMessageAt) + " "
		}
		line2 += sess.Preview
		line2 = util.TruncateWidth(line2, inner-2)

		style := theme.SessionItem
		if sess.ID == m.state.ActiveID {
			style = theme.SessionItemSelected
		}
		items = append(items, style.Width(inner).Render(
			theme.SessionTitle.Render(title)+"\n"+theme.SessionPreview.Render(line2),
		))
	}

	height := m.viewport.Height + 2
	return theme.Sidebar.Width(sidebarWidth - 2).Height(height).Render(strings.Join(items, "\n"))
}

// =============================================================================
// THREAD
// =============================================================================

// renderThread renders the active session's messages oldest first.
func (m Model) renderThread() string {
	theme := m.opts.Theme
	if m.state.ActiveID == "" {
		return theme.EmptyState.Render("Selecciona una conversación o crea una nueva con C-n.")
	}
	if len(m.state.Thread) == 0 {
		return theme.EmptyState.Render("Escribe un mensaje para empezar.")
	}

	var sb strings.Builder
	for _, msg := range m.state.Thread {
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderMessage(msg model.Message) string {
	theme := m.opts.Theme
	width := m.threadWidth() - 6

	label := msg.Sender.DisplayName()
	if msg.IsFrom(model.SenderAssistant) {
		label = m.opts.AssistantName
	}
	heading := theme.SenderLabel.Render(label) + " " + theme.Timestamp.Render(m.opts.Times.Format(msg.CreatedAt))

	switch msg.Sender {
	case model.SenderAssistant:
		return heading + "\n" + theme.AssistantBubble.Render(m.renderMarkdown(msg.Content))
	default:
		return heading + "\n" + theme.UserBubble.Width(width).Render(msg.Content)
	}
}

// renderMarkdown renders assistant content, falling back to plain text.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// COMPOSER AND STATUS
// =============================================================================

func (m Model) renderComposer() string {
	return m.opts.Theme.InputContainer.Width(m.threadWidth()).Render(m.input.View())
}

// renderStatus shows errors first, then the reply spinner, then help.
func (m Model) renderStatus() string {
	theme := m.opts.Theme

	var line string
	switch {
	case m.err != nil:
		line = theme.ErrorText.Render("Error: " + m.err.Error())
	case m.state.Waiting():
		line = m.spinner.View() + " " + theme.ThinkingText.Render(m.opts.AssistantName+" está escribiendo...")
	case m.status != "":
		line = m.status
	default:
		line = m.help.View(m.keys)
	}
	if m.showHelp && (m.err != nil || m.state.Waiting() || m.status != "") {
		line += "\n" + m.help.View(m.keys)
	}
	return theme.StatusBar.Width(m.width).Render(line)
}
