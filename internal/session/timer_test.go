// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerPair_ArmRejectsInvalidDelays(t *testing.T) {
	tests := []struct {
		name   string
		warn   time.Duration
		expire time.Duration
	}{
		{"warn equals expire", time.Minute, time.Minute},
		{"warn after expire", 2 * time.Minute, time.Minute},
		{"zero warn", 0, time.Minute},
		{"negative expire", time.Second, -time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := newManualClock()
			p := NewTimerPair(clock)
			err := p.Arm(func() {}, func() {}, tc.warn, tc.expire)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDelays))
			assert.Equal(t, 0, clock.pending(), "nothing should be scheduled")
			assert.False(t, p.Armed())
		})
	}
}

func TestTimerPair_FiresInOrder(t *testing.T) {
	clock := newManualClock()
	p := NewTimerPair(clock)

	var order []string
	require.NoError(t, p.Arm(
		func() { order = append(order, "warn") },
		func() { order = append(order, "expire") },
		70*time.Second, 120*time.Second,
	))

	clock.Advance(69 * time.Second)
	assert.Empty(t, order)

	clock.Advance(time.Second)
	assert.Equal(t, []string{"warn"}, order)

	clock.Advance(50 * time.Second)
	assert.Equal(t, []string{"warn", "expire"}, order)
}

func TestTimerPair_RearmCancelsPrevious(t *testing.T) {
	clock := newManualClock()
	p := NewTimerPair(clock)

	var firstWarn, firstExpire, secondExpire int
	require.NoError(t, p.Arm(func() { firstWarn++ }, func() { firstExpire++ }, 70*time.Second, 120*time.Second))

	clock.Advance(60 * time.Second)
	require.NoError(t, p.Arm(func() {}, func() { secondExpire++ }, 70*time.Second, 120*time.Second))
	assert.Equal(t, 2, clock.pending(), "only the new pair is outstanding")

	clock.Advance(100 * time.Second)
	assert.Zero(t, firstWarn)
	assert.Zero(t, firstExpire)
	assert.Zero(t, secondExpire)

	clock.Advance(20 * time.Second)
	assert.Equal(t, 1, secondExpire)
}

func TestTimerPair_CancelIsIdempotent(t *testing.T) {
	clock := newManualClock()
	p := NewTimerPair(clock)

	p.Cancel()
	p.Cancel()

	fired := false
	require.NoError(t, p.Arm(func() { fired = true }, func() { fired = true }, time.Second, 2*time.Second))
	p.Cancel()
	p.Cancel()

	clock.Advance(time.Minute)
	assert.False(t, fired)
	assert.False(t, p.Armed())
}

func TestTimerPair_StaleCallbackIsDropped(t *testing.T) {
	clock := newManualClock()
	p := NewTimerPair(clock)

	var stale int
	require.NoError(t, p.Arm(func() {}, func() { stale++ }, time.Second, 2*time.Second))

	// Simulate a timer that already fired and is waiting to run its
	// callback while the pair gets re-armed.
	cb := p.guard(p.gen, func() { stale++ })
	require.NoError(t, p.Arm(func() {}, func() {}, time.Second, 2*time.Second))
	cb()

	assert.Zero(t, stale)
}
