// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/traverse-tui/internal/session"
	"github.com/jeranaias/traverse-tui/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// SessionTimeoutOverlay presents the inactivity warning and the session
// expired notice raised by the session controller.
type SessionTimeoutOverlay struct {
	visible       bool
	expired       bool
	title         string
	message       string
	actions       []session.Action
	timeRemaining time.Duration

	width  int
	height int
}

// NewSessionTimeoutOverlay creates a hidden overlay.
func NewSessionTimeoutOverlay() SessionTimeoutOverlay {
	return SessionTimeoutOverlay{}
}

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// ShowWarning displays the inactivity warning with its actions.
func (o *SessionTimeoutOverlay) ShowWarning(n session.Notice, remaining time.Duration) {
	o.visible = true
	o.expired = false
	o.title = n.Title
	o.message = n.Message
	o.actions = n.Actions
	o.timeRemaining = remaining
}

// ShowExpired displays the logout notice. The message carries the reason.
func (o *SessionTimeoutOverlay) ShowExpired(n session.Notice) {
	o.visible = true
	o.expired = true
	o.title = n.Title
	o.message = n.Message
	o.actions = nil
	o.timeRemaining = 0
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
	o.actions = nil
}

// UpdateTime updates the countdown.
func (o *SessionTimeoutOverlay) UpdateTime(remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	o.timeRemaining = remaining
}

// IsVisible returns whether the overlay is shown.
func (o *SessionTimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the overlay shows the logout notice.
func (o *SessionTimeoutOverlay) IsExpired() bool {
	return o.expired
}

// IsWarning returns whether the overlay shows the inactivity warning.
func (o *SessionTimeoutOverlay) IsWarning() bool {
	return o.visible && !o.expired
}

// TimeRemaining returns the countdown value.
func (o *SessionTimeoutOverlay) TimeRemaining() time.Duration {
	return o.timeRemaining
}

// Message returns the body text being shown.
func (o *SessionTimeoutOverlay) Message() string {
	return o.message
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// SessionExtendedMsg reports that the warning was answered.
type SessionExtendedMsg struct {
	// Pressed is true when the Stay Logged In action was chosen explicitly.
	Pressed bool
}

// SessionNoticeDismissedMsg reports that the expired notice was closed.
type SessionNoticeDismissedMsg struct{}

// Update handles messages for the overlay.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if !o.visible {
			return o, nil
		}
		if o.expired {
			switch msg.String() {
			case "enter", "esc", " ":
				o.Hide()
				return o, func() tea.Msg { return SessionNoticeDismissedMsg{} }
			}
			return o, nil
		}

		// The key press itself already counted as activity. Enter also runs
		// the notice action so an explicit answer is recorded.
		actions := o.actions
		o.Hide()
		if msg.String() == "enter" && len(actions) > 0 && actions[0].OnPress != nil {
			press := actions[0].OnPress
			return o, func() tea.Msg {
				press()
				return SessionExtendedMsg{Pressed: true}
			}
		}
		return o, func() tea.Msg { return SessionExtendedMsg{} }
	}

	return o, nil
}

// View renders the overlay.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}
	if o.expired {
		return o.viewExpired()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o SessionTimeoutOverlay) dims() (width, height, boxWidth int) {
	width, height = o.width, o.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 24
	}
	boxWidth = width - 8
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > 60 {
		boxWidth = 60
	}
	return width, height, boxWidth
}

func (o SessionTimeoutOverlay) viewWarning() string {
	width, height, boxWidth := o.dims()

	title := o.title
	if title == "" {
		title = session.TitleWarning
	}
	titleStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	timeStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(boxWidth - 8).
		Align(lipgloss.Center)
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true)

	parts := []string{
		titleStyle.Render(styles.StatusIndicators.Warning + " " + title),
		"",
		msgStyle.Render(o.message),
		"",
		msgStyle.Render("Logging out in " + timeStyle.Render(formatTimeRemaining(o.timeRemaining))),
		"",
	}
	for _, a := range o.actions {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(styles.TextInverse).
			Background(styles.Amber).
			Bold(true).
			Padding(0, 2).
			Render("[enter] "+a.Label))
	}
	parts = append(parts, "", hintStyle.Render("Any key keeps you signed in"))

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Amber).
		Padding(1, 3).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, parts...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim))
}

func (o SessionTimeoutOverlay) viewExpired() string {
	width, height, boxWidth := o.dims()

	title := o.title
	if title == "" {
		title = session.TitleExpired
	}
	titleStyle := lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(boxWidth - 8).
		Align(lipgloss.Center)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(styles.StatusIndicators.Error+" "+title),
		"",
		msgStyle.Render(o.message),
		"",
		hintStyle.Render("Press enter to sign in again"),
	)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 3).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim))
}

// formatTimeRemaining formats a duration as M:SS.
func formatTimeRemaining(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	totalSecs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", totalSecs/60, totalSecs%60)
}
