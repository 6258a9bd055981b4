// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	"github.com/jeranaias/traverse-tui/internal/auth"
	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/navigation"
	"github.com/jeranaias/traverse-tui/internal/session"
)

// =============================================================================
// BRIDGED MESSAGES
// =============================================================================

// NoticeMsg carries a notice raised by the session controller.
type NoticeMsg struct {
	Notice session.Notice
}

// RouteMsg reports a change of the screen stack.
type RouteMsg struct {
	Entry navigation.Entry
}

// =============================================================================
// TIMING
// =============================================================================

// tickMsg refreshes the idle countdown.
type tickMsg struct {
	At time.Time
}

// lifecycleMsg reports the result of a phase observation.
type lifecycleMsg struct {
	Phase     session.Phase
	LoggedOut bool
}

// =============================================================================
// AUTH RESULTS
// =============================================================================

// authCheckMsg is the splash screen's stored-credential check.
type authCheckMsg struct {
	Authenticated bool
}

// loginMsg is the outcome of the interactive sign-in.
type loginMsg struct {
	Result auth.Result
	Err    error
}

// userMsg carries the signed-in user's profile.
type userMsg struct {
	User *auth.UserInfo
	Err  error
}

// logoutMsg is the outcome of a user-initiated logout.
type logoutMsg struct {
	Err error
}

// =============================================================================
// DATA RESULTS
// =============================================================================

// accountsMsg carries the dashboard accounts.
type accountsMsg struct {
	Accounts []instruction.Account
	Err      error
}

// chartMsg carries the dashboard series for one account and year.
type chartMsg struct {
	Account string
	Year    int
	Chart   instruction.ChartData
	Err     error
}

// instructionsMsg carries one status tab of instructions.
type instructionsMsg struct {
	Status   instruction.Status
	Items    []instruction.Instruction
	Arrivals int
	Err      error
}

// detailsMsg carries the review screen record.
type detailsMsg struct {
	ID      string
	Status  instruction.Status
	Details instruction.Details
	Err     error
}

// decisionMsg is the outcome of an approve or reject submission.
type decisionMsg struct {
	Decision instruction.Decision
	Err      error
}

// openURLMsg is the outcome of opening the instruction letter.
type openURLMsg struct {
	Err error
}
