// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
)

// Logouter is the part of the Controller the lifecycle watcher drives.
type Logouter interface {
	ForceLogout(ctx context.Context, reason string) bool
}

// LifecycleWatcher logs the session out when the application leaves the
// foreground. Only the transition out of PhaseActive fires; staying in the
// background, or moving from inactive to background, does not.
type LifecycleWatcher struct {
	target Logouter

	mu   sync.Mutex
	prev Phase
}

// NewLifecycleWatcher creates a watcher whose previous phase is initial.
func NewLifecycleWatcher(target Logouter, initial Phase) *LifecycleWatcher {
	return &LifecycleWatcher{target: target, prev: initial}
}

// Observe records a phase change and reports whether it triggered a logout.
// The stored phase is updated on every call.
func (w *LifecycleWatcher) Observe(ctx context.Context, next Phase) bool {
	w.mu.Lock()
	fire := w.prev == PhaseActive && (next == PhaseInactive || next == PhaseBackground)
	w.prev = next
	w.mu.Unlock()

	if !fire {
		return false
	}
	return w.target.ForceLogout(ctx, ReasonBackground)
}

// ObserveName is Observe for a platform phase name.
func (w *LifecycleWatcher) ObserveName(ctx context.Context, name string) (bool, error) {
	phase, err := ParsePhase(name)
	if err != nil {
		return false, err
	}
	return w.Observe(ctx, phase), nil
}

// Phase returns the last observed phase.
func (w *LifecycleWatcher) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prev
}
