// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/traverse-tui/internal/session"
	"github.com/jeranaias/traverse-tui/internal/ui/styles"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func warningNotice(pressed *int) session.Notice {
	return session.Notice{
		Title:   session.TitleWarning,
		Message: session.MessageWarning,
		Actions: []session.Action{{
			Label:   session.ActionStayLoggedIn,
			OnPress: func() { *pressed++ },
		}},
	}
}

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

func TestSessionTimeoutOverlay_WarningView(t *testing.T) {
	var pressed int
	o := NewSessionTimeoutOverlay()
	o.SetSize(80, 24)
	o.ShowWarning(warningNotice(&pressed), 70*time.Second)

	require.True(t, o.IsVisible())
	assert.True(t, o.IsWarning())
	assert.False(t, o.IsExpired())

	view := o.View()
	assert.Contains(t, view, session.TitleWarning)
	assert.Contains(t, view, "1:10")
	assert.Contains(t, view, session.ActionStayLoggedIn)

	o.UpdateTime(-time.Second)
	assert.Equal(t, time.Duration(0), o.TimeRemaining())
	assert.Contains(t, o.View(), "0:00")
}

func TestSessionTimeoutOverlay_EnterPressesAction(t *testing.T) {
	var pressed int
	o := NewSessionTimeoutOverlay()
	o.ShowWarning(warningNotice(&pressed), time.Minute)

	o, cmd := o.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, o.IsVisible())
	assert.Equal(t, 0, pressed, "action runs inside the command")

	msg := cmd()
	assert.Equal(t, SessionExtendedMsg{Pressed: true}, msg)
	assert.Equal(t, 1, pressed)
}

func TestSessionTimeoutOverlay_AnyKeyDismissesWarning(t *testing.T) {
	var pressed int
	o := NewSessionTimeoutOverlay()
	o.ShowWarning(warningNotice(&pressed), time.Minute)

	o, cmd := o.Update(key("j"))
	require.NotNil(t, cmd)
	assert.False(t, o.IsVisible())
	assert.Equal(t, SessionExtendedMsg{}, cmd())
	assert.Equal(t, 0, pressed)
}

func TestSessionTimeoutOverlay_Expired(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o.ShowExpired(session.Notice{Title: session.TitleExpired, Message: session.ReasonBackground})

	assert.True(t, o.IsExpired())
	assert.False(t, o.IsWarning())
	assert.Contains(t, o.View(), session.ReasonBackground)
	assert.Contains(t, o.View(), session.TitleExpired)

	// Ordinary keys do not close the expired notice.
	o, cmd := o.Update(key("j"))
	assert.Nil(t, cmd)
	assert.True(t, o.IsVisible())

	o, cmd = o.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, o.IsVisible())
	assert.Equal(t, SessionNoticeDismissedMsg{}, cmd())
}

func TestSessionTimeoutOverlay_HiddenIgnoresKeys(t *testing.T) {
	o := NewSessionTimeoutOverlay()
	o, cmd := o.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Empty(t, o.View())
}

func TestFormatTimeRemaining(t *testing.T) {
	assert.Equal(t, "0:00", formatTimeRemaining(-time.Second))
	assert.Equal(t, "0:59", formatTimeRemaining(59*time.Second))
	assert.Equal(t, "2:05", formatTimeRemaining(125*time.Second))
}

// =============================================================================
// NOTICE MODAL
// =============================================================================

func TestNoticeModal_Queue(t *testing.T) {
	m := NewNoticeModal()
	m.SetSize(80, 24)
	assert.False(t, m.IsVisible())
	assert.Empty(t, m.View())

	m.Push(Notice{Title: "New Pending Instructions", Message: "You have 2 new pending instructions to review"})
	m.Push(Notice{Title: "Done", Message: "Instruction approved successfully", Kind: NoticeSuccess})
	require.Equal(t, 2, m.Len())

	view := m.View()
	assert.Contains(t, view, "New Pending Instructions")
	assert.Contains(t, view, "1 more notice")

	m, cmd := m.Update(key("x"))
	assert.Nil(t, cmd)
	assert.Equal(t, 2, m.Len())

	m, cmd = m.Update(key("enter"))
	require.NotNil(t, cmd)
	dismissed := cmd().(NoticeDismissedMsg)
	assert.Equal(t, "New Pending Instructions", dismissed.Notice.Title)

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "Done", cur.Title)

	m.Clear()
	assert.False(t, m.IsVisible())
}

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

func TestHeader_View(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetWidth(100)
	h.Screen = "Instructions"
	h.Environment = "qa"
	h.SetUser("Ada Lovelace", "AL")

	view := h.View()
	assert.Contains(t, view, "traverse")
	assert.Contains(t, view, "Instructions")
	assert.Contains(t, view, "QA")
	assert.Contains(t, view, "AL")
	assert.Contains(t, view, "Ada Lovelace")

	h.SetWidth(50)
	assert.NotContains(t, h.View(), "Ada Lovelace", "name is dropped on narrow terminals")
}

func TestStatusBar_View(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.SetWidth(100)
	s.Shortcuts = []Shortcut{{"tab", "status"}, {"/", "search"}, {"q", "quit"}}
	s.Remaining = 95 * time.Second
	s.SetMessage("Loaded 3 instructions", false)

	view := s.View()
	assert.Contains(t, view, "search")
	assert.Contains(t, view, "idle 1:35")
	assert.Contains(t, view, "Loaded 3 instructions")

	s.SetWidth(30)
	assert.False(t, strings.Contains(s.View(), "quit"), "shortcuts that do not fit are dropped")
}

func TestSpinner(t *testing.T) {
	s := NewSpinner()
	assert.Empty(t, s.View())

	cmd := s.Start("Loading instructions")
	assert.NotNil(t, cmd)
	assert.True(t, s.IsActive())
	assert.Contains(t, s.View(), "Loading instructions...")
	assert.Nil(t, s.Start(""), "already running")
	assert.Equal(t, "Loading instructions", s.Message())

	s.Stop()
	assert.Empty(t, s.View())
}
