// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// manualClock fires timers only when Advance is called. Callbacks run on the
// goroutine calling Advance, with the clock unlocked.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	fired   bool
	stopped bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 23, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	pending := !t.fired && !t.stopped
	t.stopped = true
	return pending
}

// Advance moves the clock forward by d, firing due timers in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.fn()
	}
}

// pending returns the number of timers that can still fire.
func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// fakeAuth counts logouts. When block is set, Logout waits on it after
// signalling entered.
type fakeAuth struct {
	mu      sync.Mutex
	calls   int
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (a *fakeAuth) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.calls++
	entered, block, err := a.entered, a.block, a.err
	a.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (a *fakeAuth) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fakeNav struct {
	mu     sync.Mutex
	resets int
}

func (n *fakeNav) ResetToLogin() {
	n.mu.Lock()
	n.resets++
	n.mu.Unlock()
}

func (n *fakeNav) Resets() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets
}

type timedNotice struct {
	Notice
	At time.Time
}

type recordingNotifier struct {
	clock   Clock
	mu      sync.Mutex
	notices []timedNotice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, timedNotice{Notice: n, At: r.clock.Now()})
}

func (r *recordingNotifier) byTitle(title string) []timedNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timedNotice
	for _, n := range r.notices {
		if n.Title == title {
			out = append(out, n)
		}
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) SessionEvent(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

// harness wires a Controller to test doubles.
type harness struct {
	clock    *manualClock
	auth     *fakeAuth
	nav      *fakeNav
	notifier *recordingNotifier
	sink     *recordingSink
	ctrl     *Controller
}

func newHarness(cfg Config) (*harness, error) {
	clock := newManualClock()
	h := &harness{
		clock:    clock,
		auth:     &fakeAuth{},
		nav:      &fakeNav{},
		notifier: &recordingNotifier{clock: clock},
		sink:     &recordingSink{},
	}
	ctrl, err := New(cfg, Collaborators{
		Auth:      h.auth,
		Navigator: h.nav,
		Notifier:  h.notifier,
	}, WithClock(clock), WithSinks(h.sink))
	if err != nil {
		return nil, err
	}
	h.ctrl = ctrl
	return h, nil
}

var errRevoke = errors.New("revocation endpoint unreachable")
