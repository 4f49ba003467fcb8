// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the tutorcito TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Name is "dark" or "light"
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Brand  lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionTitle        lipgloss.Style
	SessionPreview      lipgloss.Style
	SessionTime         lipgloss.Style
	SessionPending      lipgloss.Style

	// ==========================================================================
	// THREAD
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SenderLabel     lipgloss.Style
	Timestamp       lipgloss.Style
	EmptyState      lipgloss.Style

	// ==========================================================================
	// COMPOSER AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	Spinner        lipgloss.Style
	ThinkingText   lipgloss.Style
	StatusBar      lipgloss.Style
	ErrorText      lipgloss.Style
}

// NewTheme creates a theme. name is "dark" or "light"; anything else
// follows the terminal background.
func NewTheme(name string) *Theme {
	t := &Theme{
		ColorProfile: termenv.ColorProfile(),
	}

	switch strings.ToLower(name) {
	case "dark":
		t.IsDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		t.IsDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		t.IsDark = termenv.HasDarkBackground()
	}
	t.Name = "light"
	if t.IsDark {
		t.Name = "dark"
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SessionItem = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(SurfaceDim)

	t.SessionItemSelected = t.SessionItem.
		BorderForeground(Purple).
		Background(SurfaceBright)

	t.SessionTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.SessionPreview = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.SessionTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SessionPending = lipgloss.NewStyle().
		Foreground(Amber)

	// Thread
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		MarginRight(4)

	t.SenderLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.EmptyState = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	// Composer
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
}

// GlamourStyle returns the glamour standard style name matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
