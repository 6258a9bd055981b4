// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for the CLI commands.
//
// Block layout (titles, labels, separators) uses lipgloss. Inline status
// words in list output use fatih/color. Both follow ColorsEnabled.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

func init() {
	applyColorMode()
}

// applyColorMode points both renderers at the current color decision.
func applyColorMode() {
	lipgloss.SetColorProfile(GetColorProfile())
	color.NoColor = !ColorsEnabled()
}

// =============================================================================
// BLOCK STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	// SectionStyle is used for section headers
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(22)

	// ValueStyle is used for regular values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// DimStyle is used for hints and secondary text
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle is used for separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// =============================================================================
// INLINE COLORS
// =============================================================================

var (
	okLabel    = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel  = color.New(color.FgYellow).SprintFunc()
	infoLabel  = color.New(color.FgCyan).SprintFunc()
	dimLabel   = color.New(color.Faint).SprintFunc()
)

// RenderSeparator renders a horizontal separator, 70 cells unless width is
// given.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("=", w))
}

// RenderStatus renders a bracketed status word in its color.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "approved", "accepted", "signed in":
		return okLabel("[" + strings.ToUpper(status) + "]")
	case "error", "fail", "failed", "rejected":
		return errorLabel("[" + strings.ToUpper(status) + "]")
	case "warning", "warn", "pending":
		return warnLabel("[" + strings.ToUpper(status) + "]")
	default:
		return dimLabel("[" + strings.ToUpper(status) + "]")
	}
}

// RenderLabel renders a label at the default width or the given one.
func RenderLabel(label string, width ...int) string {
	if len(width) > 0 && width[0] > 0 {
		return LabelStyle.Width(width[0]).Render(label)
	}
	return LabelStyle.Render(label)
}

// RenderField renders "label value" on one line.
func RenderField(label, value string) string {
	return RenderLabel(label) + ValueStyle.Render(value)
}
