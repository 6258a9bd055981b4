// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/traverse-tui/internal/ui/components"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the client.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Back     key.Binding
	Quit     key.Binding
	Suspend  key.Binding
	Refresh  key.Binding

	Login  key.Binding
	Logout key.Binding
	Yes    key.Binding
	No     key.Binding

	NextTab key.Binding
	PrevTab key.Binding
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Search  key.Binding

	PrevYear     key.Binding
	NextYear     key.Binding
	Instructions key.Binding

	Comment  key.Binding
	Approve  key.Binding
	Reject   key.Binding
	Timeline key.Binding
	Letter   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h", "prev account")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l", "next account")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Suspend:  key.NewBinding(key.WithKeys("ctrl+z")),
		Refresh:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),

		Login:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in")),
		Logout: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		No:     key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),

		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next status")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab")),
		Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "pending")),
		Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "accepted")),
		Tab3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "rejected")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),

		PrevYear:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev year")),
		NextYear:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next year")),
		Instructions: key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i", "instructions")),

		Comment:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comments")),
		Approve:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
		Reject:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reject")),
		Timeline: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "approval flow")),
		Letter:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open letter")),
	}
}

// shortcuts turns bindings into status bar hints.
func shortcuts(bindings ...key.Binding) []components.Shortcut {
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}
