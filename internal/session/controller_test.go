// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{IdleTimeout: 120 * time.Second, WarningLead: 50 * time.Second}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(DefaultConfig(), Collaborators{Navigator: &fakeNav{}, Notifier: NotifierFunc(func(Notice) {})})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCollaborator))

	_, err = New(DefaultConfig(), Collaborators{Auth: &fakeAuth{}, Notifier: NotifierFunc(func(Notice) {})})
	assert.True(t, errors.Is(err, ErrMissingCollaborator))

	_, err = New(DefaultConfig(), Collaborators{Auth: &fakeAuth{}, Navigator: &fakeNav{}})
	assert.True(t, errors.Is(err, ErrMissingCollaborator))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"short window", Config{IdleTimeout: 10 * time.Second, WarningLead: 5 * time.Second}, false},
		{"zero idle", Config{IdleTimeout: 0, WarningLead: time.Second}, true},
		{"zero lead", Config{IdleTimeout: time.Minute}, true},
		{"lead equals idle", Config{IdleTimeout: time.Minute, WarningLead: time.Minute}, true},
		{"lead exceeds idle", Config{IdleTimeout: time.Minute, WarningLead: 2 * time.Minute}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig_WarnsAfterTwoMinutes(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 120*time.Second, cfg.WarnDelay())
	assert.Equal(t, 190*time.Second, cfg.IdleTimeout)
}

func TestController_IdleTimeline(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	start := h.clock.Now()

	id, err := h.ctrl.Start("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, StateIdle, h.ctrl.Snapshot().State)

	h.clock.Advance(69 * time.Second)
	assert.Empty(t, h.notifier.byTitle(TitleWarning))

	h.clock.Advance(time.Second)
	warnings := h.notifier.byTitle(TitleWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, start.Add(70*time.Second), warnings[0].At)
	assert.Equal(t, MessageWarning, warnings[0].Message)
	require.Len(t, warnings[0].Actions, 1)
	assert.Equal(t, ActionStayLoggedIn, warnings[0].Actions[0].Label)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateWarned, snap.State)
	assert.True(t, snap.WarningShown)

	h.clock.Advance(50 * time.Second)
	expired := h.notifier.byTitle(TitleExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, start.Add(120*time.Second), expired[0].At)
	assert.Equal(t, ReasonInactivity, expired[0].Message)

	assert.Equal(t, 1, h.auth.Calls())
	assert.Equal(t, 1, h.nav.Resets())

	snap = h.ctrl.Snapshot()
	assert.Equal(t, StateLoggedOut, snap.State)
	assert.False(t, snap.Active)
	assert.False(t, snap.LoggingOut)
	assert.Equal(t, []EventType{EventStarted, EventWarning, EventTimeout}, h.sink.types())
}

func TestController_StayLoggedInRestartsWindow(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	start := h.clock.Now()

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	h.clock.Advance(80 * time.Second)
	warnings := h.notifier.byTitle(TitleWarning)
	require.Len(t, warnings, 1)

	// Pressing the notice action is how the user answers.
	warnings[0].Actions[0].OnPress()
	assert.Equal(t, StateIdle, h.ctrl.Snapshot().State)

	h.clock.Advance(69 * time.Second)
	assert.Len(t, h.notifier.byTitle(TitleWarning), 1)
	assert.Empty(t, h.notifier.byTitle(TitleExpired))

	h.clock.Advance(time.Second)
	warnings = h.notifier.byTitle(TitleWarning)
	require.Len(t, warnings, 2)
	assert.Equal(t, start.Add(150*time.Second), warnings[1].At)

	h.clock.Advance(50 * time.Second)
	expired := h.notifier.byTitle(TitleExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, start.Add(200*time.Second), expired[0].At)
	assert.Equal(t, 1, h.auth.Calls())
}

func TestController_StayLoggedInWithoutWarning(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)

	assert.False(t, h.ctrl.StayLoggedIn(), "no session yet")

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)
	assert.False(t, h.ctrl.StayLoggedIn(), "no warning showing")
}

func TestActivityTracker_KeepsSessionAlive(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	tracker := NewActivityTracker(h.ctrl)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		h.clock.Advance(60 * time.Second)
		assert.True(t, tracker.Touch())
	}

	assert.Empty(t, h.notifier.byTitle(TitleWarning))
	assert.Empty(t, h.notifier.byTitle(TitleExpired))
	assert.Zero(t, h.auth.Calls())
	assert.Equal(t, uint64(20), tracker.Touches())
	assert.Equal(t, StateIdle, h.ctrl.Snapshot().State)
}

func TestActivityTracker_TouchAnswersWarning(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	tracker := NewActivityTracker(h.ctrl)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	h.clock.Advance(75 * time.Second)
	require.Equal(t, StateWarned, h.ctrl.Snapshot().State)

	assert.True(t, tracker.Touch())
	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.WarningShown)
	assert.Equal(t, 120*time.Second, snap.Remaining)
	assert.Contains(t, h.sink.types(), EventExtended)
}

func TestActivityTracker_IgnoredAfterLogout(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	tracker := NewActivityTracker(h.ctrl)

	assert.False(t, tracker.Touch(), "no session yet")

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)
	require.True(t, h.ctrl.ForceLogout(context.Background(), ReasonBackground))

	assert.False(t, tracker.Touch())
	assert.Equal(t, 0, h.clock.pending())
	assert.Equal(t, StateLoggedOut, h.ctrl.Snapshot().State)
}

func TestActivityTracker_IgnoredDuringLogout(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	h.auth.entered = make(chan struct{})
	h.auth.block = make(chan struct{})
	tracker := NewActivityTracker(h.ctrl)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ctrl.ForceLogout(context.Background(), "Signed out by administrator.")
	}()
	<-h.auth.entered

	assert.True(t, h.ctrl.Snapshot().LoggingOut)
	assert.False(t, tracker.Touch())
	assert.Equal(t, 0, h.clock.pending(), "touch must not re-arm during logout")

	close(h.auth.block)
	<-done
	assert.Equal(t, StateLoggedOut, h.ctrl.Snapshot().State)
	assert.Contains(t, h.sink.types(), EventForced)
}

func TestController_TimerAndBackgroundRace(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	h.auth.entered = make(chan struct{})
	h.auth.block = make(chan struct{})
	watcher := NewLifecycleWatcher(h.ctrl, PhaseActive)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.clock.Advance(120 * time.Second)
	}()
	<-h.auth.entered

	// The timer-driven logout is in flight; backgrounding now must not
	// start a second one.
	assert.False(t, watcher.Observe(context.Background(), PhaseBackground))

	close(h.auth.block)
	wg.Wait()

	assert.Equal(t, 1, h.auth.Calls())
	assert.Equal(t, 1, h.nav.Resets())
	assert.Len(t, h.notifier.byTitle(TitleExpired), 1)
}

func TestController_ConcurrentForceLogout(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- h.ctrl.ForceLogout(context.Background(), ReasonBackground)
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for ok := range results {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, h.auth.Calls())
	assert.Equal(t, 1, h.nav.Resets())
}

func TestController_RemoteLogoutFailureStillResets(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	h.auth.err = errRevoke

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	h.clock.Advance(120 * time.Second)

	assert.Equal(t, 1, h.auth.Calls())
	assert.Equal(t, 1, h.nav.Resets())
	assert.Equal(t, StateLoggedOut, h.ctrl.Snapshot().State)
	assert.Equal(t,
		[]EventType{EventStarted, EventWarning, EventLogoutFailed, EventTimeout},
		h.sink.types())

	h.sink.mu.Lock()
	failed := h.sink.events[2]
	h.sink.mu.Unlock()
	assert.Equal(t, errRevoke.Error(), failed.Error)
}

func TestController_ForceLogoutAfterLoggedOut(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)

	assert.False(t, h.ctrl.ForceLogout(context.Background(), ReasonBackground), "never started")

	first, err := h.ctrl.Start("user-1")
	require.NoError(t, err)
	h.clock.Advance(120 * time.Second)
	require.Equal(t, 1, h.auth.Calls())

	assert.False(t, h.ctrl.ForceLogout(context.Background(), ReasonBackground))
	assert.Equal(t, 1, h.auth.Calls())
	assert.Equal(t, 1, h.nav.Resets())

	second, err := h.ctrl.Start("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, h.ctrl.ForceLogout(context.Background(), ReasonBackground))
	assert.Equal(t, 2, h.auth.Calls())
}

func TestController_StopCancelsTimers(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)
	h.ctrl.Stop()
	h.ctrl.Stop()

	h.clock.Advance(10 * time.Minute)
	assert.Empty(t, h.notifier.notices)
	assert.Zero(t, h.auth.Calls())
	assert.False(t, h.ctrl.Snapshot().Active)
	assert.Equal(t, []EventType{EventStarted, EventStopped}, h.sink.types())
}

func TestController_SetConfigAppliesOnNextArm(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	tracker := NewActivityTracker(h.ctrl)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	assert.Error(t, h.ctrl.SetConfig(Config{IdleTimeout: time.Minute, WarningLead: time.Minute}))
	require.NoError(t, h.ctrl.SetConfig(Config{IdleTimeout: 30 * time.Second, WarningLead: 10 * time.Second}))

	tracker.Touch()
	h.clock.Advance(20 * time.Second)
	assert.Len(t, h.notifier.byTitle(TitleWarning), 1)
	h.clock.Advance(10 * time.Second)
	assert.Len(t, h.notifier.byTitle(TitleExpired), 1)
}

func TestController_WarningFiresOncePerWindow(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	h.clock.Advance(71 * time.Second)
	h.clock.Advance(10 * time.Second)
	assert.Len(t, h.notifier.byTitle(TitleWarning), 1)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(-time.Second))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m", FormatDuration(2*time.Minute))
	assert.Equal(t, "1m 10s", FormatDuration(70*time.Second))
}
