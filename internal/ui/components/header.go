// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the traverse TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/traverse-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: product name, screen title, environment badge
// and the signed-in user's avatar.
type Header struct {
	Title       string
	Screen      string
	Environment string
	UserName    string
	Initials    string
	Width       int
	theme       *styles.Theme
}

// NewHeader creates a header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "traverse",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetUser sets the avatar. An empty name clears it.
func (h *Header) SetUser(name, initials string) {
	h.UserName = name
	h.Initials = initials
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	left := h.theme.HeaderTitle.Render(h.Title)
	if h.Screen != "" {
		left += lipgloss.NewStyle().Foreground(styles.TextMuted).Render("  /  ") +
			lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(h.Screen)
	}

	var right []string
	if h.Environment != "" {
		right = append(right, lipgloss.NewStyle().
			Foreground(styles.TextInverse).
			Background(h.envColor()).
			Bold(true).
			Padding(0, 1).
			Render(strings.ToUpper(h.Environment)))
	}
	if h.Initials != "" {
		if h.UserName != "" && width >= 70 {
			right = append(right, lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(h.UserName))
		}
		right = append(right, h.theme.Avatar.Render(h.Initials))
	}
	rightStr := strings.Join(right, " ")

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(width).Render(left + strings.Repeat(" ", gap) + rightStr)
}

func (h *Header) envColor() lipgloss.TerminalColor {
	switch strings.ToLower(h.Environment) {
	case "production", "prod":
		return styles.Rose
	case "qa":
		return styles.Amber
	default:
		return styles.Cyan
	}
}
