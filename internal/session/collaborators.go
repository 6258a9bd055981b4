// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logout reasons shown to the user.
const (
	ReasonInactivity = "You have been logged out due to inactivity."
	ReasonBackground = "App moved to background."
)

// Notice titles and the warning affordance.
const (
	TitleExpired       = "Session Expired"
	TitleWarning       = "Inactivity Warning"
	MessageWarning     = "You will be logged out soon due to inactivity."
	ActionStayLoggedIn = "Stay Logged In"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Authenticator performs the credential teardown of a logout.
type Authenticator interface {
	Logout(ctx context.Context) error
}

// Navigator returns the user interface to the login screen.
type Navigator interface {
	ResetToLogin()
}

// Action is a button on a notice.
type Action struct {
	Label   string
	OnPress func()
}

// Notice is a user-visible modal message.
type Notice struct {
	Title   string
	Message string
	Actions []Action
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logger. Used when no terminal is attached.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs the notice.
func (l LogNotifier) Notify(n Notice) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("session notice", zap.String("title", n.Title), zap.String("message", n.Message))
}

// Collaborators are the external services a Controller drives.
type Collaborators struct {
	Auth      Authenticator
	Navigator Navigator
	Notifier  Notifier
}

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies a session event for audit and metrics.
type EventType string

const (
	EventStarted      EventType = "SESSION_STARTED"
	EventWarning      EventType = "SESSION_WARNING"
	EventExtended     EventType = "SESSION_EXTENDED"
	EventTimeout      EventType = "SESSION_TIMEOUT"
	EventBackground   EventType = "SESSION_BACKGROUND"
	EventForced       EventType = "SESSION_FORCED_LOGOUT"
	EventLogoutFailed EventType = "SESSION_LOGOUT_FAILED"
	EventStopped      EventType = "SESSION_STOPPED"
)

// Event describes a session transition.
type Event struct {
	Type      EventType
	SessionID string
	UserID    string
	Reason    string
	Error     string
	At        time.Time
}

// EventSink observes session events.
type EventSink interface {
	SessionEvent(e Event)
}

// eventTypeForReason maps a logout reason to the event that records it.
func eventTypeForReason(reason string) EventType {
	switch reason {
	case ReasonInactivity:
		return EventTimeout
	case ReasonBackground:
		return EventBackground
	default:
		return EventForced
	}
}
