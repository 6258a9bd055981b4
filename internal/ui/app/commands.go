// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/api"
	"github.com/jeranaias/traverse-tui/internal/instruction"
)

// ReasonUnauthorized is the logout reason used when the backend stops
// accepting the stored credentials.
const ReasonUnauthorized = "Your sign-in is no longer valid. Please sign in again."

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

func (m *Model) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.deps.RequestTimeout)
}

func (m *Model) checkAuth() tea.Cmd {
	a := m.deps.Auth
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		return authCheckMsg{Authenticated: a.IsAuthenticated(ctx)}
	}
}

// login runs the browser sign-in. It waits on the user, so it is bounded by
// the sign-in flow itself rather than the request timeout.
func (m *Model) login() tea.Cmd {
	a := m.deps.Auth
	return func() tea.Msg {
		res, err := a.Login(context.Background())
		return loginMsg{Result: res, Err: err}
	}
}

func (m *Model) loadUser() tea.Cmd {
	a := m.deps.Auth
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		u, err := a.CurrentUser(ctx)
		return userMsg{User: u, Err: err}
	}
}

// logout is the user-initiated logout from the welcome screen. The session
// timers are stopped first so an idle expiry cannot race it.
func (m *Model) logout() tea.Cmd {
	a := m.deps.Auth
	ctrl := m.deps.Session
	return func() tea.Msg {
		ctrl.Stop()
		ctx, cancel := m.requestCtx()
		defer cancel()
		return logoutMsg{Err: a.Logout(ctx)}
	}
}

func (m *Model) loadAccounts() tea.Cmd {
	b := m.deps.Backend
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		accounts, err := b.ExistingAccounts(ctx)
		return accountsMsg{Accounts: accounts, Err: err}
	}
}

func (m *Model) loadChart(account string, year int) tea.Cmd {
	b := m.deps.Backend
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		start, end := api.YearDateRange(year)
		chart, err := b.ChartData(ctx, account, start, end)
		return chartMsg{Account: account, Year: year, Chart: chart, Err: err}
	}
}

// loadInstructions fetches one status tab. For the pending tab it also
// counts arrivals not announced before and records the whole list as seen
// when there are any.
func (m *Model) loadInstructions(status instruction.Status) tea.Cmd {
	b := m.deps.Backend
	seen := m.deps.Seen
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		items, err := b.Instructions(ctx, status)
		if err != nil {
			return instructionsMsg{Status: status, Err: err}
		}
		msg := instructionsMsg{Status: status, Items: items}
		if status != instruction.StatusPending || seen == nil {
			return msg
		}

		known, err := seen.SeenInstructions(ctx)
		if err != nil {
			logger.Warn("reading seen instructions failed", zap.Error(err))
			known = map[string]bool{}
		}
		fresh := instruction.NewArrivals(known, items)
		if len(fresh) == 0 {
			return msg
		}
		msg.Arrivals = len(fresh)
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		if err := seen.ReplaceSeen(ctx, ids); err != nil {
			logger.Warn("recording seen instructions failed", zap.Error(err))
		}
		return msg
	}
}

func (m *Model) loadDetails(id string, status instruction.Status) tea.Cmd {
	b := m.deps.Backend
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		d, err := b.InstructionDetails(ctx, id, status)
		return detailsMsg{ID: id, Status: status, Details: d, Err: err}
	}
}

// submit sends a decision and records it in the audit trail and metrics.
func (m *Model) submit(d instruction.Decision) tea.Cmd {
	b := m.deps.Backend
	rec := m.deps.Recorder
	obs := m.deps.Metrics
	sessionID, userID := m.sessionID, m.userID()
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		err := b.UpdateInstruction(ctx, d)
		if rec != nil {
			if aerr := rec.LogDecision(sessionID, userID, d, err); aerr != nil {
				logger.Error("audit write failed", zap.Error(aerr))
			}
		}
		if obs != nil {
			obs.ObserveDecision(strings.ToLower(d.StatusUpdate.StatusID.String()), err)
		}
		return decisionMsg{Decision: d, Err: err}
	}
}

// expire logs the session out because the backend rejected the token.
func (m *Model) expire() tea.Cmd {
	ctrl := m.deps.Session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		ctrl.ForceLogout(ctx, ReasonUnauthorized)
		return nil
	}
}

func (m *Model) openLetter(url string) tea.Cmd {
	open := m.deps.OpenURL
	return func() tea.Msg {
		return openURLMsg{Err: open(url)}
	}
}
