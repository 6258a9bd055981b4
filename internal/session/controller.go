// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session timing defaults. The warning appears at DefaultIdleTimeout -
// DefaultWarningLead (two minutes) after the last interaction.
const (
	DefaultIdleTimeout   = 190 * time.Second
	DefaultWarningLead   = 70 * time.Second
	DefaultLogoutTimeout = 10 * time.Second
)

// ErrMissingCollaborator is returned by New when a required collaborator is nil.
var ErrMissingCollaborator = errors.New("session collaborator is nil")

// Config holds the idle window settings.
type Config struct {
	// IdleTimeout is the inactivity window after which the session is logged out.
	IdleTimeout time.Duration
	// WarningLead is how long before IdleTimeout the warning is shown.
	WarningLead time.Duration
}

// DefaultConfig returns the default idle window.
func DefaultConfig() Config {
	return Config{
		IdleTimeout: DefaultIdleTimeout,
		WarningLead: DefaultWarningLead,
	}
}

// WarnDelay is the delay from the last interaction to the warning.
func (c Config) WarnDelay() time.Duration {
	return c.IdleTimeout - c.WarningLead
}

// Validate checks that the warning strictly precedes the logout.
func (c Config) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", c.IdleTimeout)
	}
	if c.WarningLead <= 0 || c.WarningLead >= c.IdleTimeout {
		return fmt.Errorf("warning lead %v must be positive and shorter than idle timeout %v", c.WarningLead, c.IdleTimeout)
	}
	return nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for timers and timestamps.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSinks adds event observers.
func WithSinks(sinks ...EventSink) Option {
	return func(c *Controller) {
		for _, s := range sinks {
			if s != nil {
				c.sinks = append(c.sinks, s)
			}
		}
	}
}

// WithBaseContext sets the parent context for logouts started by the idle timer.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}

// WithLogoutTimeout bounds the credential teardown of timer-initiated logouts.
func WithLogoutTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.logoutTimeout = d
		}
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the session state and is the only place it changes.
// All transitions happen under mu; collaborators are called without it.
type Controller struct {
	auth     Authenticator
	nav      Navigator
	notifier Notifier

	clock         Clock
	timers        *TimerPair
	logger        *zap.Logger
	sinks         []EventSink
	baseCtx       context.Context
	logoutTimeout time.Duration

	mu           sync.Mutex
	cfg          Config
	id           string
	userID       string
	state        State
	active       bool
	warningShown bool
	loggingOut   bool
	epoch        uint64
	startedAt    time.Time
	lastActivity time.Time
}

// New creates a Controller. No session runs until Start is called.
func New(cfg Config, collab Collaborators, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case collab.Auth == nil:
		return nil, fmt.Errorf("%w: auth", ErrMissingCollaborator)
	case collab.Navigator == nil:
		return nil, fmt.Errorf("%w: navigator", ErrMissingCollaborator)
	case collab.Notifier == nil:
		return nil, fmt.Errorf("%w: notifier", ErrMissingCollaborator)
	}

	c := &Controller{
		auth:          collab.Auth,
		nav:           collab.Navigator,
		notifier:      collab.Notifier,
		clock:         SystemClock{},
		logger:        zap.NewNop(),
		baseCtx:       context.Background(),
		logoutTimeout: DefaultLogoutTimeout,
		cfg:           cfg,
		state:         StateLoggedOut,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	c.timers = NewTimerPair(c.clock)
	return c, nil
}

// Start begins a new session instance for userID and arms the idle timers.
// A running instance is replaced.
func (c *Controller) Start(userID string) (string, error) {
	c.mu.Lock()
	if c.loggingOut {
		c.mu.Unlock()
		return "", errors.New("cannot start a session while a logout is in progress")
	}

	c.id = uuid.NewString()
	c.userID = userID
	c.state = StateIdle
	c.active = true
	c.warningShown = false
	c.startedAt = c.clock.Now()
	if err := c.armLocked(); err != nil {
		c.active = false
		c.state = StateLoggedOut
		c.mu.Unlock()
		return "", err
	}
	ev := c.eventLocked(EventStarted, "")
	c.mu.Unlock()

	c.logger.Info("session started",
		zap.String("session_id", ev.SessionID),
		zap.Duration("idle_timeout", c.Config().IdleTimeout))
	c.emit(ev)
	return ev.SessionID, nil
}

// Stop cancels the timers without logging out. Used when the screen that
// owns the session goes away.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.timers.Cancel()
	c.epoch++
	c.active = false
	c.warningShown = false
	ev := c.eventLocked(EventStopped, "")
	c.mu.Unlock()

	c.emit(ev)
}

// ForceLogout ends the current session with reason shown to the user. It
// reports false, doing nothing, when a logout is already in progress or no
// session is running.
func (c *Controller) ForceLogout(ctx context.Context, reason string) bool {
	c.mu.Lock()
	ok := c.beginLogoutLocked()
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("logout suppressed", zap.String("reason", reason))
		return false
	}
	c.finishLogout(ctx, reason)
	return true
}

// StayLoggedIn answers the inactivity warning: Warned -> Idle with a fresh
// idle window. Reports false when no warning is showing.
func (c *Controller) StayLoggedIn() bool {
	c.mu.Lock()
	if !c.active || c.loggingOut || c.state != StateWarned {
		c.mu.Unlock()
		return false
	}
	ok := c.resetLocked()
	ev := c.eventLocked(EventExtended, "")
	c.mu.Unlock()

	if ok {
		c.emit(ev)
	}
	return ok
}

// recordActivity re-arms the idle window. A warning that is showing counts
// as answered.
func (c *Controller) recordActivity() bool {
	c.mu.Lock()
	if !c.active || c.loggingOut {
		c.mu.Unlock()
		return false
	}
	wasWarned := c.state == StateWarned
	ok := c.resetLocked()
	ev := c.eventLocked(EventExtended, "")
	c.mu.Unlock()

	if ok && wasWarned {
		c.emit(ev)
	}
	return ok
}

// SetConfig replaces the idle window. It takes effect at the next arm.
func (c *Controller) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	return nil
}

// Config returns the idle window settings.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		SessionID:    c.id,
		UserID:       c.userID,
		State:        c.state,
		Active:       c.active,
		WarningShown: c.warningShown,
		LoggingOut:   c.loggingOut,
		StartedAt:    c.startedAt,
		LastActivity: c.lastActivity,
	}
	if c.active {
		remaining := c.cfg.IdleTimeout - c.clock.Now().Sub(c.lastActivity)
		if remaining > 0 {
			s.Remaining = remaining
		}
	}
	return s
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// armLocked starts a fresh idle window measured from now.
func (c *Controller) armLocked() error {
	c.epoch++
	epoch := c.epoch
	c.lastActivity = c.clock.Now()
	return c.timers.Arm(
		func() { c.onWarn(epoch) },
		func() { c.onExpire(epoch) },
		c.cfg.WarnDelay(),
		c.cfg.IdleTimeout,
	)
}

func (c *Controller) resetLocked() bool {
	c.state = StateIdle
	c.warningShown = false
	if err := c.armLocked(); err != nil {
		c.logger.Error("failed to re-arm idle timers", zap.Error(err))
		return false
	}
	return true
}

// beginLogoutLocked is the check-and-set of the logout guard.
func (c *Controller) beginLogoutLocked() bool {
	if !c.active || c.loggingOut || c.state == StateLoggedOut {
		return false
	}
	c.loggingOut = true
	c.timers.Cancel()
	c.epoch++
	c.warningShown = false
	return true
}

func (c *Controller) finishLogout(ctx context.Context, reason string) {
	c.notifier.Notify(Notice{Title: TitleExpired, Message: reason})

	var failed *Event
	if err := c.auth.Logout(ctx); err != nil {
		c.logger.Warn("remote logout failed; local session cleared", zap.Error(err))
		c.mu.Lock()
		ev := c.eventLocked(EventLogoutFailed, reason)
		c.mu.Unlock()
		ev.Error = err.Error()
		failed = &ev
	}
	c.nav.ResetToLogin()

	c.mu.Lock()
	c.loggingOut = false
	c.active = false
	c.state = StateLoggedOut
	ev := c.eventLocked(eventTypeForReason(reason), reason)
	c.mu.Unlock()

	c.logger.Info("session logged out",
		zap.String("session_id", ev.SessionID),
		zap.String("reason", reason))
	if failed != nil {
		c.emit(*failed)
	}
	c.emit(ev)
}

func (c *Controller) onWarn(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || !c.active || c.loggingOut || c.state != StateIdle || c.warningShown {
		c.mu.Unlock()
		return
	}
	c.state = StateWarned
	c.warningShown = true
	ev := c.eventLocked(EventWarning, "")
	c.mu.Unlock()

	c.emit(ev)
	c.notifier.Notify(Notice{
		Title:   TitleWarning,
		Message: MessageWarning,
		Actions: []Action{{Label: ActionStayLoggedIn, OnPress: func() { c.StayLoggedIn() }}},
	})
}

func (c *Controller) onExpire(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	ok := c.beginLogoutLocked()
	c.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.baseCtx, c.logoutTimeout)
	defer cancel()
	c.finishLogout(ctx, ReasonInactivity)
}

func (c *Controller) eventLocked(t EventType, reason string) Event {
	return Event{
		Type:      t,
		SessionID: c.id,
		UserID:    c.userID,
		Reason:    reason,
		At:        c.clock.Now(),
	}
}

func (c *Controller) emit(ev Event) {
	for _, s := range c.sinks {
		s.SessionEvent(ev)
	}
}
