// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/logging"
	"github.com/jeranaias/traverse-tui/internal/session"
)

func openTemp(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, logging.FileWriterConfig{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestEvent_ToLogLine(t *testing.T) {
	e := Event{
		Timestamp: time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC),
		EventType: string(session.EventTimeout),
		SessionID: "s-1",
		UserID:    "dana",
		Metadata:  map[string]string{"reason": session.ReasonInactivity},
		Success:   true,
	}
	assert.Equal(t,
		`2025-04-02 09:30:00 | SESSION_TIMEOUT | s-1 | dana | "You have been logged out due to inactivity." | SUCCESS`,
		e.ToLogLine())

	e.Success = false
	e.Error = "boom"
	assert.True(t, strings.HasSuffix(e.ToLogLine(), "| ERROR: boom"))

	e.Error = ""
	assert.True(t, strings.HasSuffix(e.ToLogLine(), "| FAILURE"))
}

func TestLogger_SessionEvents(t *testing.T) {
	l, path := openTemp(t)
	at := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	l.SessionEvent(session.Event{Type: session.EventStarted, SessionID: "s-1", UserID: "u", At: at})
	l.SessionEvent(session.Event{Type: session.EventWarning, SessionID: "s-1", UserID: "u", At: at.Add(2 * time.Minute)})
	l.SessionEvent(session.Event{
		Type: session.EventLogoutFailed, SessionID: "s-1", UserID: "u",
		Reason: session.ReasonInactivity, Error: "revoke failed: Bearer abc.def", At: at.Add(190 * time.Second),
	})

	events, err := ReadRecent(path, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "SESSION_STARTED", events[0].EventType)
	assert.True(t, events[0].Success)
	assert.Equal(t, at, events[0].Timestamp.UTC())

	failed := events[2]
	assert.False(t, failed.Success)
	assert.Equal(t, "revoke failed: Bearer [TOKEN_REDACTED]", failed.Error)
	assert.Equal(t, session.ReasonInactivity, failed.Metadata["reason"])
}

func TestLogger_LogDecision(t *testing.T) {
	l, path := openTemp(t)
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	approve, err := instruction.NewDecision("77", instruction.StatusAccepted, "all good")
	require.NoError(t, err)
	reject, err := instruction.NewDecision("78", instruction.StatusRejected, "missing letter")
	require.NoError(t, err)

	require.NoError(t, l.LogDecision("s-1", "u", approve, nil))
	require.NoError(t, l.LogDecision("s-1", "u", reject, errors.New("HTTP error! status: 500")))
	require.NoError(t, l.LogAuth(EventLogin, "u", nil))

	events, err := ReadRecent(path, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventInstructionRejected, events[0].EventType)
	assert.Equal(t, "78", events[0].Subject)
	assert.False(t, events[0].Success)
	assert.Equal(t, "missing letter", events[0].Metadata["comments"])
	assert.Equal(t, fixed, events[0].Timestamp.UTC())

	assert.Equal(t, EventLogin, events[1].EventType)

	all, err := ReadRecent(path, 0)
	require.NoError(t, err)
	assert.Equal(t, EventInstructionApproved, all[0].EventType)
}

func TestLogger_Closed(t *testing.T) {
	l, _ := openTemp(t)
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Log(Event{EventType: EventLogout}), ErrClosed)
	assert.NoError(t, l.Close())
}

func TestReadRecent_Missing(t *testing.T) {
	_, err := ReadRecent(filepath.Join(t.TempDir(), "none.log"), 5)
	assert.Error(t, err)
}
