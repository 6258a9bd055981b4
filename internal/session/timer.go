// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidDelays is returned by Arm when the warning would not precede the
// logout, or either delay is not positive.
var ErrInvalidDelays = errors.New("warning delay must be positive and shorter than the logout delay")

// =============================================================================
// TIMER PAIR
// =============================================================================

// TimerPair holds the warning timer and the logout timer of one idle window.
// At most one pair is outstanding: Arm cancels the previous pair first, and a
// callback belonging to a superseded pair never runs.
type TimerPair struct {
	clock Clock

	mu     sync.Mutex
	gen    uint64
	warn   Timer
	expire Timer
}

// NewTimerPair creates an unarmed pair. A nil clock means the system clock.
func NewTimerPair(clock Clock) *TimerPair {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TimerPair{clock: clock}
}

// Arm schedules onWarn after warnDelay and onExpire after expireDelay, both
// measured from now. Any previously armed pair is cancelled.
func (p *TimerPair) Arm(onWarn, onExpire func(), warnDelay, expireDelay time.Duration) error {
	if warnDelay <= 0 || expireDelay <= 0 || warnDelay >= expireDelay {
		return fmt.Errorf("%w (warn=%v expire=%v)", ErrInvalidDelays, warnDelay, expireDelay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.gen++
	gen := p.gen
	p.warn = p.clock.AfterFunc(warnDelay, p.guard(gen, onWarn))
	p.expire = p.clock.AfterFunc(expireDelay, p.guard(gen, onExpire))
	return nil
}

// Cancel stops both pending callbacks. Safe to call when nothing is armed.
func (p *TimerPair) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.gen++
}

// Armed reports whether a pair is currently scheduled and has not been
// cancelled. A pair whose callbacks already ran still reports true until the
// next Cancel or Arm.
func (p *TimerPair) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.warn != nil || p.expire != nil
}

func (p *TimerPair) stopLocked() {
	if p.warn != nil {
		p.warn.Stop()
		p.warn = nil
	}
	if p.expire != nil {
		p.expire.Stop()
		p.expire = nil
	}
}

// guard drops the callback when the pair was re-armed or cancelled after the
// underlying timer fired but before it got here.
func (p *TimerPair) guard(gen uint64, fn func()) func() {
	return func() {
		p.mu.Lock()
		live := p.gen == gen
		p.mu.Unlock()

		if live && fn != nil {
			fn()
		}
	}
}
