// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "sync/atomic"

// ActivityTracker receives every user interaction on the screen surface and
// restarts the idle window.
type ActivityTracker struct {
	ctrl    *Controller
	touches atomic.Uint64
}

// NewActivityTracker creates a tracker feeding ctrl.
func NewActivityTracker(ctrl *Controller) *ActivityTracker {
	return &ActivityTracker{ctrl: ctrl}
}

// Touch records one interaction. It re-arms the timers and clears the
// warning, unless the session is logging out or already gone, in which case
// it does nothing and returns false.
func (t *ActivityTracker) Touch() bool {
	t.touches.Add(1)
	return t.ctrl.recordActivity()
}

// Touches returns the number of interactions seen, accepted or not.
func (t *ActivityTracker) Touches() uint64 {
	return t.touches.Load()
}
