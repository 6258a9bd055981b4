// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLogouter struct {
	mu      sync.Mutex
	reasons []string
}

func (c *countingLogouter) ForceLogout(_ context.Context, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
	return true
}

func TestLifecycleWatcher_Transitions(t *testing.T) {
	tests := []struct {
		from, to Phase
		fire     bool
	}{
		{PhaseActive, PhaseActive, false},
		{PhaseActive, PhaseInactive, true},
		{PhaseActive, PhaseBackground, true},
		{PhaseInactive, PhaseActive, false},
		{PhaseInactive, PhaseInactive, false},
		{PhaseInactive, PhaseBackground, false},
		{PhaseBackground, PhaseActive, false},
		{PhaseBackground, PhaseInactive, false},
		{PhaseBackground, PhaseBackground, false},
	}

	for _, tc := range tests {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			target := &countingLogouter{}
			w := NewLifecycleWatcher(target, tc.from)

			assert.Equal(t, tc.fire, w.Observe(context.Background(), tc.to))
			assert.Equal(t, tc.to, w.Phase())
			if tc.fire {
				assert.Equal(t, []string{ReasonBackground}, target.reasons)
			} else {
				assert.Empty(t, target.reasons)
			}
		})
	}
}

func TestLifecycleWatcher_Sequence(t *testing.T) {
	target := &countingLogouter{}
	w := NewLifecycleWatcher(target, PhaseActive)
	ctx := context.Background()

	w.Observe(ctx, PhaseInactive)
	w.Observe(ctx, PhaseBackground)
	w.Observe(ctx, PhaseActive)
	w.Observe(ctx, PhaseBackground)

	assert.Len(t, target.reasons, 2)
}

func TestLifecycleWatcher_ObserveName(t *testing.T) {
	target := &countingLogouter{}
	w := NewLifecycleWatcher(target, PhaseActive)

	fired, err := w.ObserveName(context.Background(), " Background ")
	require.NoError(t, err)
	assert.True(t, fired)

	_, err = w.ObserveName(context.Background(), "suspended")
	assert.Error(t, err)
	assert.Equal(t, PhaseBackground, w.Phase(), "unknown names leave the phase alone")
}

func TestLifecycleWatcher_DrivesController(t *testing.T) {
	h, err := newHarness(testConfig())
	require.NoError(t, err)
	w := NewLifecycleWatcher(h.ctrl, PhaseActive)

	_, err = h.ctrl.Start("user-1")
	require.NoError(t, err)

	assert.True(t, w.Observe(context.Background(), PhaseBackground))
	assert.False(t, w.Observe(context.Background(), PhaseBackground))

	expired := h.notifier.byTitle(TitleExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, ReasonBackground, expired[0].Message)
	assert.Equal(t, 1, h.auth.Calls())
	assert.Equal(t, 1, h.nav.Resets())
	assert.Equal(t, []EventType{EventStarted, EventBackground}, h.sink.types())
}

func TestParsePhase(t *testing.T) {
	for _, name := range []string{"active", "inactive", "background"} {
		p, err := ParsePhase(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.String())
	}
	_, err := ParsePhase("")
	assert.Error(t, err)
	assert.True(t, PhaseActive.Foreground())
	assert.False(t, PhaseInactive.Foreground())
}
