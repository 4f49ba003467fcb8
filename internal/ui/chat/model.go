// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the bubbletea interface over the conversation core.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	chatcore "github.com/jeranaias/tutorcito/internal/chat"
	"github.com/jeranaias/tutorcito/internal/config"
	"github.com/jeranaias/tutorcito/internal/logger"
	"github.com/jeranaias/tutorcito/internal/ui/styles"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// sidebarWidth is the outer width of the session list.
	sidebarWidth = 32

	// minThreadWidth keeps the thread readable on narrow terminals.
	minThreadWidth = 20

	// maxDraftLength bounds the composer input.
	maxDraftLength = 4000
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat interface.
type Options struct {
	// Theme styles every element (nil = dark)
	Theme *styles.Theme

	// Times formats message and session timestamps (nil = es-ES local)
	Times *util.TimeFormatter

	// NewSessionTitle names sessions created with the new-session key
	NewSessionTitle string

	// AssistantName labels assistant messages
	AssistantName string
}

func (o Options) withDefaults() Options {
	if o.Theme == nil {
		o.Theme = styles.NewTheme("dark")
	}
	if o.Times == nil {
		o.Times = util.NewTimeFormatter(util.DefaultLocale, time.Local)
	}
	if o.NewSessionTitle == "" {
		o.NewSessionTitle = config.DefaultNewSessionTitle
	}
	if o.AssistantName == "" {
		o.AssistantName = "Tutorcito"
	}
	return o
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model. It never owns conversation state: every
// change goes through the core, and the view renders the latest snapshot.
type Model struct {
	core *chatcore.Core
	opts Options
	keys KeyMap

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	renderer *glamour.TermRenderer

	events      <-chan chatcore.Event
	unsubscribe func()

	state    chatcore.State
	width    int
	height   int
	ready    bool
	showHelp bool

	// status is a one-line notice, err the last failure shown to the user
	status string
	err    error
}

// New creates the interface and subscribes to core events.
func New(core *chatcore.Core, opts Options) Model {
	opts = opts.withDefaults()

	input := textinput.New()
	input.Placeholder = "Escribe tu mensaje..."
	input.Prompt = "> "
	input.PromptStyle = opts.Theme.InputPrompt
	input.CharLimit = maxDraftLength
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.Spinner

	events, unsubscribe := core.Subscribe()

	m := Model{
		core:        core,
		opts:        opts,
		keys:        DefaultKeyMap(),
		input:       input,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		help:        help.New(),
		events:      events,
		unsubscribe: unsubscribe,
	}
	m.refresh()
	return m
}

// Init starts the cursor blink, the spinner and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

// State returns the snapshot the view is rendering.
func (m Model) State() chatcore.State {
	return m.state
}

// Close ends the event subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

// threadWidth is the width available to the message thread.
func (m Model) threadWidth() int {
	w := m.width - sidebarWidth - 1
	if w < minThreadWidth {
		w = minThreadWidth
	}
	return w
}

// resize applies a new terminal size to every component.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	// header + composer (with border) + status bar
	chrome := 1 + 2 + 1
	vpHeight := height - chrome
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = m.threadWidth()
	m.viewport.Height = vpHeight
	m.input.Width = m.threadWidth() - 4
	m.help.Width = width

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.opts.Theme.GlamourStyle()),
		glamour.WithWordWrap(m.threadWidth()-6),
	)
	if err != nil {
		logger.Component("ui").Warn("markdown renderer unavailable", "error", err)
		renderer = nil
	}
	m.renderer = renderer
	m.updateViewport()
}

// =============================================================================
// STATE
// =============================================================================

// refresh pulls a fresh snapshot from the core and syncs the widgets.
func (m *Model) refresh() {
	m.state = m.core.Snapshot()
	if m.input.Value() != m.state.Draft {
		m.input.SetValue(m.state.Draft)
		m.input.CursorEnd()
	}
	m.updateViewport()
}

// updateViewport re-renders the active thread and keeps the newest
// message in view.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderThread())
	m.viewport.GotoBottom()
}
