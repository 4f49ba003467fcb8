// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the bubbletea interface over the conversation core.
//
// This file defines keyboard bindings and the help text built from them.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
// Printable keys always go to the composer, so every binding is a
// control or function key.
type KeyMap struct {
	Submit         key.Binding
	NewSession     key.Binding
	RemoveSession  key.Binding
	NextSession    key.Binding
	PrevSession    key.Binding
	ClearSelection key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
	Help           key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "enviar"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "nueva"),
		),
		RemoveSession: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("C-w", "eliminar"),
		),
		NextSession: key.NewBinding(
			key.WithKeys("tab", "ctrl+down"),
			key.WithHelp("Tab", "siguiente"),
		),
		PrevSession: key.NewBinding(
			key.WithKeys("shift+tab", "ctrl+up"),
			key.WithHelp("S-Tab", "anterior"),
		),
		ClearSelection: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "deseleccionar"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "subir"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "bajar"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "ayuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "salir"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewSession, k.NextSession, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped in columns.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.ClearSelection},
		{k.NewSession, k.RemoveSession},
		{k.NextSession, k.PrevSession},
		{k.PageUp, k.PageDown},
		{k.Help, k.Quit},
	}
}
