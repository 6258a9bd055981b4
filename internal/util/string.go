// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// TruncateWidth truncates s to maxWidth terminal columns. Wide (CJK)
// characters count as two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight truncates or pads s to exactly width columns.
func PadRight(s string, width int) string {
	s = TruncateWidth(s, width)
	if w := runewidth.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// PadLeft truncates or left-pads s to exactly width columns. Used for
// right-aligned amounts.
func PadLeft(s string, width int) string {
	s = TruncateWidth(s, width)
	if w := runewidth.StringWidth(s); w < width {
		s = strings.Repeat(" ", width-w) + s
	}
	return s
}

// Columns lays out cells in fixed-width columns separated by two spaces.
// A negative width right-aligns the cell and a zero width hides it.
func Columns(widths []int, cells ...string) string {
	var b strings.Builder
	n := 0
	for i, cell := range cells {
		if i < len(widths) && widths[i] == 0 {
			continue
		}
		if n > 0 {
			b.WriteString("  ")
		}
		n++
		switch {
		case i >= len(widths):
			b.WriteString(cell)
		case widths[i] < 0:
			b.WriteString(PadLeft(cell, -widths[i]))
		default:
			b.WriteString(PadRight(cell, widths[i]))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
