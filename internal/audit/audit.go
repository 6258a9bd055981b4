// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records session transitions and instruction decisions as
// JSON lines in a rotating file.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/logging"
	"github.com/jeranaias/traverse-tui/internal/session"
)

// Event types beyond the session ones.
const (
	EventLogin               = "LOGIN"
	EventLogout              = "LOGOUT"
	EventInstructionApproved = "INSTRUCTION_APPROVED"
	EventInstructionRejected = "INSTRUCTION_REJECTED"
)

// ErrClosed is returned by Log after Close.
var ErrClosed = errors.New("audit log is closed")

// =============================================================================
// AUDIT EVENT
// =============================================================================

// Event is a single audit record.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SessionID string            `json:"session_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event as a single pipe-delimited line.
func (e *Event) ToLogLine() string {
	status := "SUCCESS"
	if !e.Success {
		if e.Error != "" {
			status = "ERROR: " + e.Error
		} else {
			status = "FAILURE"
		}
	}

	subject := e.Subject
	if reason := e.Metadata["reason"]; reason != "" && subject == "" {
		subject = fmt.Sprintf("%q", reason)
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s | %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.EventType,
		e.SessionID,
		e.UserID,
		subject,
		status,
	)
}

// ToJSON formats the event as JSON.
func (e *Event) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// =============================================================================
// LOGGER
// =============================================================================

// Logger appends events to w. It implements session.EventSink.
type Logger struct {
	mu     sync.Mutex
	w      io.WriteCloser
	now    func() time.Time
	logger *zap.Logger
	closed bool
}

// Open creates a Logger writing to a rotating file at path.
func Open(path string, rotation logging.FileWriterConfig, logger *zap.Logger) (*Logger, error) {
	f, err := logging.NewRotatingFile(path, rotation)
	if err != nil {
		return nil, err
	}
	return New(f, logger), nil
}

// New creates a Logger writing to w.
func New(w io.WriteCloser, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{w: w, now: time.Now, logger: logger}
}

// Log redacts and appends e. A zero timestamp is set to now.
func (l *Logger) Log(e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	e.Error = logging.Redact(e.Error)
	if len(e.Metadata) > 0 {
		md := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			md[k] = logging.Redact(v)
		}
		e.Metadata = md
	}

	line, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// SessionEvent records a session transition. Write failures are logged.
func (l *Logger) SessionEvent(ev session.Event) {
	e := Event{
		Timestamp: ev.At,
		EventType: string(ev.Type),
		SessionID: ev.SessionID,
		UserID:    ev.UserID,
		Success:   ev.Error == "",
		Error:     ev.Error,
	}
	if ev.Reason != "" {
		e.Metadata = map[string]string{"reason": ev.Reason}
	}
	if err := l.Log(e); err != nil {
		l.logger.Error("audit write failed", zap.String("event", e.EventType), zap.Error(err))
	}
}

// LogDecision records an approve or reject submission and its outcome.
func (l *Logger) LogDecision(sessionID, userID string, d instruction.Decision, submitErr error) error {
	e := Event{
		EventType: EventInstructionRejected,
		SessionID: sessionID,
		UserID:    userID,
		Subject:   d.InstructionID,
		Success:   submitErr == nil,
		Metadata:  map[string]string{"comments": d.StatusUpdate.Comments},
	}
	if d.StatusUpdate.StatusID == instruction.StatusAccepted {
		e.EventType = EventInstructionApproved
	}
	if submitErr != nil {
		e.Error = submitErr.Error()
	}
	return l.Log(e)
}

// LogAuth records a sign-in or sign-out.
func (l *Logger) LogAuth(eventType, userID string, authErr error) error {
	e := Event{EventType: eventType, UserID: userID, Success: authErr == nil}
	if authErr != nil {
		e.Error = authErr.Error()
	}
	return l.Log(e)
}

// Close closes the underlying writer.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.w.Close()
}

// =============================================================================
// READING
// =============================================================================

// ReadRecent returns the last n events of the file at path, oldest first.
// n <= 0 returns all. Lines that fail to decode are skipped.
func ReadRecent(path string, n int) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Event
		if json.Unmarshal([]byte(line), &e) != nil {
			continue
		}
		events = append(events, e)
		if n > 0 && len(events) > n {
			events = events[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
