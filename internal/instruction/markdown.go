// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instruction

import (
	"fmt"
	"strings"
)

// Markdown renders the review screen and approval flow of d as a markdown
// document, for terminal rendering outside the TUI.
func Markdown(id string, d Details, listed Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Instruction %s\n\n", id)
	fmt.Fprintf(&b, "_%s_\n\n", listed.Title())

	for _, sec := range Sections(d) {
		fmt.Fprintf(&b, "## %s\n\n", sec.Title)
		b.WriteString("| Field | Value |\n|---|---|\n")
		for _, f := range sec.Fields {
			fmt.Fprintf(&b, "| %s | %s |\n", f.Label, escapeCell(f.Value))
		}
		b.WriteString("\n")
	}

	steps := Timeline(d)
	if len(steps) == 0 {
		return b.String()
	}

	b.WriteString("## Approval Flow\n\n")
	for _, st := range steps {
		fmt.Fprintf(&b, "### %d. %s\n\n", st.Number, st.Label)
		for _, f := range st.Fields {
			fmt.Fprintf(&b, "- **%s:** %s\n", f.Label, orNA(f.Value))
		}
		for _, r := range st.Reviewers {
			fmt.Fprintf(&b, "- **%s** (%s) on %s\n", orNA(r.Name()), orNA(r.Status), FormatDate(r.Date()))
			if r.Comments != "" {
				fmt.Fprintf(&b, "  > %s\n", r.Comments)
			}
		}
		b.WriteString("\n")
	}

	if CanApprove(d, listed) {
		b.WriteString("---\n\nApprove or reject with `traverse approve " + id + " --comments \"...\"`.\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
