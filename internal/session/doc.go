// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the session activity monitor for traverse.
//
// An authenticated session is force-logged-out after a period of no user
// interaction, with a warning shown shortly before, and immediately when the
// application leaves the foreground.
//
// # Components
//
//   - TimerPair: the warning and logout one-shot timers, always armed together
//   - ActivityTracker: re-arms the timers on every key press or mouse event
//   - LifecycleWatcher: logs out on an active -> inactive/background transition
//   - Controller: the Idle -> Warned -> LoggedOut state machine and the single
//     ForceLogout entry point, guarded against duplicate logouts
//
// # Usage
//
//	ctrl, err := session.New(session.DefaultConfig(), session.Collaborators{
//	    Auth:      authService,
//	    Navigator: router,
//	    Notifier:  notifier,
//	})
//	if err != nil {
//	    return err
//	}
//	id, err := ctrl.Start(userID)
//
//	tracker := session.NewActivityTracker(ctrl)
//	watcher := session.NewLifecycleWatcher(ctrl, session.PhaseActive)
//
//	tracker.Touch()                                  // on input
//	watcher.Observe(ctx, session.PhaseBackground)    // on suspend
package session
