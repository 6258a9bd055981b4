// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// SESSION STATE MACHINE
// =============================================================================

// State is the state of one session instance.
//
//	Idle --warning timer--> Warned --logout timer--> LoggedOut
//	Warned --StayLoggedIn/Touch--> Idle
//	Idle|Warned --ForceLogout--> LoggedOut
//
// LoggedOut is terminal; a fresh Start creates a new instance.
type State int

const (
	// StateIdle is an active session inside its idle window.
	StateIdle State = iota
	// StateWarned is an active session whose inactivity warning is showing.
	StateWarned
	// StateLoggedOut is a session that was force-logged-out.
	StateLoggedOut
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWarned:
		return "WARNED"
	case StateLoggedOut:
		return "LOGGED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	SessionID    string
	UserID       string
	State        State
	Active       bool
	WarningShown bool
	LoggingOut   bool
	StartedAt    time.Time
	LastActivity time.Time
	Remaining    time.Duration
}

// =============================================================================
// APP LIFECYCLE PHASE
// =============================================================================

// Phase is the foreground state reported by the platform.
type Phase int

const (
	// PhaseActive means the application is in the foreground and focused.
	PhaseActive Phase = iota
	// PhaseInactive means the application is visible but not focused.
	PhaseInactive
	// PhaseBackground means the application is suspended or hidden.
	PhaseBackground
)

// String returns the platform name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseInactive:
		return "inactive"
	case PhaseBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Foreground reports whether the phase is PhaseActive.
func (p Phase) Foreground() bool {
	return p == PhaseActive
}

// ParsePhase parses a platform phase name.
func ParsePhase(name string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "active":
		return PhaseActive, nil
	case "inactive":
		return PhaseInactive, nil
	case "background":
		return PhaseBackground, nil
	default:
		return PhaseActive, fmt.Errorf("unknown lifecycle phase %q", name)
	}
}
