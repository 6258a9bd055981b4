// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/traverse-tui/internal/instruction"
)

// Theme holds all the styled components for the application.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Avatar      lipgloss.Style

	// Screen body
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Section  lipgloss.Style

	// Tabs
	Tab       lipgloss.Style
	TabActive lipgloss.Style

	// Lists
	Row         lipgloss.Style
	RowSelected lipgloss.Style

	// Cards and buttons
	Card          lipgloss.Style
	Button        lipgloss.Style
	ButtonApprove lipgloss.Style
	ButtonReject  lipgloss.Style

	// Footer
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Status
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(Navy).
		Foreground(TextInverse).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true)
	t.Avatar = lipgloss.NewStyle().
		Background(Cyan).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().Foreground(Navy).Bold(true)
	t.Subtitle = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Label = lipgloss.NewStyle().Foreground(TextSecondary).Width(22)
	t.Value = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Section = lipgloss.NewStyle().Foreground(Navy).Bold(true).Underline(true).MarginTop(1)

	t.Tab = lipgloss.NewStyle().Foreground(TextSecondary).Padding(0, 2)
	t.TabActive = lipgloss.NewStyle().
		Foreground(Navy).
		Bold(true).
		Underline(true).
		Padding(0, 2)

	t.Row = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.RowSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(2)

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2)
	t.Button = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Navy).
		Padding(0, 2)
	t.ButtonApprove = t.Button.Background(Emerald)
	t.ButtonReject = t.Button.Background(Rose)

	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.SuccessStyle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
}

// StatusStyle colors an instruction status.
func (t *Theme) StatusStyle(s instruction.Status) lipgloss.Style {
	switch s {
	case instruction.StatusAccepted:
		return t.SuccessStyle
	case instruction.StatusRejected:
		return t.ErrorStyle
	default:
		return t.WarningStyle
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
