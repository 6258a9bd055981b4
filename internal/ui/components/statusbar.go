// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/traverse-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is a key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the footer: screen shortcuts on the left, a transient status
// message and the idle countdown on the right.
type StatusBar struct {
	Width     int
	Shortcuts []Shortcut
	Message   string
	IsError   bool

	// Remaining is the time left before the idle logout. Zero hides it.
	Remaining time.Duration

	theme *styles.Theme
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetMessage shows msg on the right side until replaced.
func (s *StatusBar) SetMessage(msg string, isError bool) {
	s.Message = msg
	s.IsError = isError
}

// View renders the bar. Shortcuts that do not fit are dropped from the end.
func (s *StatusBar) View() string {
	width := s.Width
	if width < 20 {
		width = 20
	}

	var right []string
	if s.Message != "" {
		st := s.theme.InfoStyle
		if s.IsError {
			st = s.theme.ErrorStyle
		}
		right = append(right, st.Render(s.Message))
	}
	if s.Remaining > 0 {
		right = append(right, s.theme.ShortcutDesc.Render("idle "+formatTimeRemaining(s.Remaining)))
	}
	rightStr := strings.Join(right, "  ")
	budget := width - 2 - lipgloss.Width(rightStr)

	var left string
	for _, sc := range s.Shortcuts {
		item := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		next := item
		if left != "" {
			next = left + "  " + item
		}
		if lipgloss.Width(next) > budget {
			break
		}
		left = next
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + rightStr)
}
