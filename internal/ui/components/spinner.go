// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/traverse-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner is the loading indicator shown while a backend request is running.
type Spinner struct {
	spinner  spinner.Model
	message  string
	isActive bool
}

// NewSpinner creates an ASCII line spinner.
func NewSpinner() Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	return Spinner{spinner: s, message: "Loading"}
}

// Start activates the spinner with msg and returns its first tick.
func (s *Spinner) Start(msg string) tea.Cmd {
	if msg != "" {
		s.message = msg
	}
	wasActive := s.isActive
	s.isActive = true
	if wasActive {
		return nil
	}
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive returns whether the spinner is running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// Message returns the text next to the spinner.
func (s *Spinner) Message() string {
	return s.message
}

// Update advances the animation while active.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.isActive {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner.
func (s Spinner) View() string {
	if !s.isActive {
		return ""
	}
	return lipgloss.NewStyle().Foreground(styles.Cyan).Render(s.spinner.View()) + " " +
		lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(s.message+"...")
}
