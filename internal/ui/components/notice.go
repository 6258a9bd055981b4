// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/traverse-tui/internal/ui/styles"
	"github.com/jeranaias/traverse-tui/internal/util"
)

// NoticeKind selects the accent of a notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice is a titled message waiting to be acknowledged.
type Notice struct {
	Title   string
	Message string
	Kind    NoticeKind
}

// NoticeDismissedMsg is sent when the front notice is closed.
type NoticeDismissedMsg struct {
	Notice Notice
}

// NoticeModal shows queued notices one at a time.
type NoticeModal struct {
	queue  []Notice
	width  int
	height int
}

// NewNoticeModal creates an empty modal.
func NewNoticeModal() NoticeModal {
	return NoticeModal{}
}

// SetSize sets the area the modal is centered in.
func (m *NoticeModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Push queues n behind any notice already showing.
func (m *NoticeModal) Push(n Notice) {
	m.queue = append(m.queue, n)
}

// Clear drops every queued notice.
func (m *NoticeModal) Clear() {
	m.queue = nil
}

// IsVisible reports whether a notice is showing.
func (m *NoticeModal) IsVisible() bool {
	return len(m.queue) > 0
}

// Current returns the notice being shown.
func (m *NoticeModal) Current() (Notice, bool) {
	if len(m.queue) == 0 {
		return Notice{}, false
	}
	return m.queue[0], true
}

// Len returns the number of queued notices.
func (m *NoticeModal) Len() int {
	return len(m.queue)
}

// Update closes the front notice on enter, esc or space.
func (m NoticeModal) Update(msg tea.Msg) (NoticeModal, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if len(m.queue) == 0 {
			return m, nil
		}
		switch msg.String() {
		case "enter", "esc", " ":
			n := m.queue[0]
			m.queue = m.queue[1:]
			return m, func() tea.Msg { return NoticeDismissedMsg{Notice: n} }
		}
	}
	return m, nil
}

// View renders the front notice centered in the modal area.
func (m NoticeModal) View() string {
	n, ok := m.Current()
	if !ok {
		return ""
	}
	width, height := m.width, m.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 24
	}
	boxWidth := width - 10
	if boxWidth > 56 {
		boxWidth = 56
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	accent, icon := noticeAccent(n.Kind)
	parts := []string{
		lipgloss.NewStyle().Foreground(accent).Bold(true).Render(icon + " " + n.Title),
		"",
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(boxWidth - 8).Align(lipgloss.Center).Render(n.Message),
		"",
		lipgloss.NewStyle().Foreground(styles.TextMuted).Render("[enter] OK"),
	}
	if len(m.queue) > 1 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).
			Render(util.Plural(len(m.queue)-1, "more notice")))
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 3).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, parts...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func noticeAccent(k NoticeKind) (lipgloss.TerminalColor, string) {
	switch k {
	case NoticeSuccess:
		return styles.Emerald, styles.StatusIndicators.Success
	case NoticeWarning:
		return styles.Amber, styles.StatusIndicators.Warning
	case NoticeError:
		return styles.Rose, styles.StatusIndicators.Error
	default:
		return styles.Cyan, styles.StatusIndicators.Info
	}
}
