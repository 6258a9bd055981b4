// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/auth"
	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/navigation"
	"github.com/jeranaias/traverse-tui/internal/session"
	"github.com/jeranaias/traverse-tui/internal/ui/components"
	"github.com/jeranaias/traverse-tui/internal/util"
)

// =============================================================================
// ROUTE ENTRY
// =============================================================================

// enter starts the loads a screen needs when it becomes the top of the
// stack.
func (m *Model) enter(e navigation.Entry) tea.Cmd {
	m.status.SetMessage("", false)
	switch e.Route {
	case navigation.Splash:
		return tea.Batch(m.spinner.Start("Checking sign-in"), m.checkAuth())

	case navigation.Login:
		m.spinner.Stop()
		return nil

	case navigation.Welcome:
		m.confirmLogout = false
		if m.user == nil {
			return m.loadUser()
		}
		return nil

	case navigation.Dashboard:
		m.summary = nil
		return tea.Batch(m.spinner.Start("Loading accounts"), m.loadAccounts())

	case navigation.Instructions:
		m.search.Blur()
		return tea.Batch(m.spinner.Start("Loading instructions"), m.loadInstructions(m.tab))

	case navigation.InstructionReview:
		id := e.Param(ParamID)
		status := statusParam(e)
		if m.details != nil && m.reviewID == id && m.reviewStatus == status {
			// Coming back from the approval flow.
			m.refreshDetail()
			return nil
		}
		m.reviewID = id
		m.reviewStatus = status
		m.details = nil
		m.comments.SetValue("")
		m.comments.Blur()
		return tea.Batch(m.spinner.Start("Loading instruction details"), m.loadDetails(id, status))

	case navigation.ApprovalTimeline:
		m.refreshDetail()
		return nil
	}
	return nil
}

func statusParam(e navigation.Entry) instruction.Status {
	s, err := instruction.ParseStatus(e.Param(ParamStatus))
	if err != nil {
		return instruction.StatusPending
	}
	return s
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.timeout.IsVisible() {
		var cmd tea.Cmd
		m.timeout, cmd = m.timeout.Update(msg)
		return m, cmd
	}
	if m.notices.IsVisible() {
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		var cmd tea.Cmd
		m.notices, cmd = m.notices.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "ctrl+c":
		return m.quit()
	case key.Matches(msg, m.keys.Suspend):
		// The terminal is being put in the background.
		return m, m.observe(session.PhaseBackground)
	}

	switch m.deps.Router.Current().Route {
	case navigation.Login:
		return m.loginKeys(msg)
	case navigation.Welcome:
		return m.welcomeKeys(msg)
	case navigation.Dashboard:
		return m.dashboardKeys(msg)
	case navigation.Instructions:
		return m.instructionsKeys(msg)
	case navigation.InstructionReview:
		return m.reviewKeys(msg)
	case navigation.ApprovalTimeline:
		return m.timelineKeys(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}
	return m, nil
}

func (m *Model) loginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Login):
		if m.signingIn {
			return m, nil
		}
		m.signingIn = true
		return m, tea.Batch(m.spinner.Start("Waiting for browser sign-in"), m.login())
	}
	return m, nil
}

func (m *Model) welcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmLogout {
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.confirmLogout = false
			return m, tea.Batch(m.spinner.Start("Signing out"), m.logout())
		case key.Matches(msg, m.keys.No):
			m.confirmLogout = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Select):
		m.navigate(navigation.Dashboard, nil)
	case key.Matches(msg, m.keys.Logout):
		m.confirmLogout = true
	}
	return m, nil
}

func (m *Model) dashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		m.deps.Router.Back()
	case key.Matches(msg, m.keys.Instructions):
		m.navigate(navigation.Instructions, nil)
	case key.Matches(msg, m.keys.Left):
		return m, m.selectAccount(m.accountIdx - 1)
	case key.Matches(msg, m.keys.Right):
		return m, m.selectAccount(m.accountIdx + 1)
	case key.Matches(msg, m.keys.PrevYear):
		m.year--
		return m, m.reloadChart()
	case key.Matches(msg, m.keys.NextYear):
		if m.year < m.deps.Now().Year() {
			m.year++
			return m, m.reloadChart()
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.spinner.Start("Loading accounts"), m.loadAccounts())
	}
	return m, nil
}

func (m *Model) selectAccount(idx int) tea.Cmd {
	if len(m.accounts) == 0 {
		return nil
	}
	if idx < 0 {
		idx = len(m.accounts) - 1
	}
	if idx >= len(m.accounts) {
		idx = 0
	}
	m.accountIdx = idx
	return m.reloadChart()
}

func (m *Model) reloadChart() tea.Cmd {
	if len(m.accounts) == 0 {
		return nil
	}
	m.summary = nil
	return tea.Batch(m.spinner.Start("Loading chart data"),
		m.loadChart(m.accounts[m.accountIdx].ID, m.year))
}

func (m *Model) instructionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.Focused() {
		switch msg.String() {
		case "esc", "enter":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.clampCursor()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.clampCursor()
			return m, nil
		}
		m.deps.Router.Back()
	case key.Matches(msg, m.keys.Search):
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visibleItems())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Tab1):
		return m, m.switchTab(instruction.StatusPending)
	case key.Matches(msg, m.keys.Tab2):
		return m, m.switchTab(instruction.StatusAccepted)
	case key.Matches(msg, m.keys.Tab3):
		return m, m.switchTab(instruction.StatusRejected)
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab(m.tab%3 + 1)
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab((m.tab+1)%3 + 1)
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.spinner.Start("Loading instructions"), m.loadInstructions(m.tab))
	case key.Matches(msg, m.keys.Select):
		items := m.visibleItems()
		if m.cursor < len(items) {
			m.navigate(navigation.InstructionReview, map[string]string{
				ParamID:     items[m.cursor].ID,
				ParamStatus: strconv.Itoa(int(m.tab)),
			})
		}
	}
	return m, nil
}

func (m *Model) switchTab(s instruction.Status) tea.Cmd {
	if s == m.tab {
		return nil
	}
	m.tab = s
	m.items = nil
	m.cursor = 0
	m.listError = ""
	return tea.Batch(m.spinner.Start("Loading instructions"), m.loadInstructions(s))
}

func (m *Model) visibleItems() []instruction.Instruction {
	return instruction.Filter(m.items, m.search.Value())
}

func (m *Model) clampCursor() {
	n := len(m.visibleItems())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) reviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.comments.Focused() {
		switch msg.String() {
		case "esc", "enter":
			m.comments.Blur()
			m.refreshDetail()
			return m, nil
		}
		var cmd tea.Cmd
		m.comments, cmd = m.comments.Update(msg)
		m.refreshDetail()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		m.deps.Router.Back()
		return m, nil
	}
	if m.details == nil {
		return m, nil
	}

	decidable := instruction.CanApprove(*m.details, m.reviewStatus)
	switch {
	case key.Matches(msg, m.keys.Timeline):
		m.navigate(navigation.ApprovalTimeline, map[string]string{
			ParamID:     m.reviewID,
			ParamStatus: strconv.Itoa(int(m.reviewStatus)),
		})
		return m, nil
	case key.Matches(msg, m.keys.Letter):
		url := instruction.LetterURL(*m.details, m.deps.LetterBaseURL)
		if url == "" {
			m.pushError("Error", "No PDF file available")
			return m, nil
		}
		return m, m.openLetter(url)
	case decidable && key.Matches(msg, m.keys.Comment):
		cmd := m.comments.Focus()
		m.refreshDetail()
		return m, cmd
	case decidable && key.Matches(msg, m.keys.Approve):
		return m, m.decide(instruction.StatusAccepted)
	case decidable && key.Matches(msg, m.keys.Reject):
		return m, m.decide(instruction.StatusRejected)
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) decide(outcome instruction.Status) tea.Cmd {
	if m.submitting {
		return nil
	}
	d, err := instruction.NewDecision(m.reviewID, outcome, m.comments.Value())
	if err != nil {
		msg := err.Error()
		if errors.Is(err, instruction.ErrCommentsRequired) {
			msg = "Please enter comments before submitting."
		}
		m.pushError("Error", msg)
		return nil
	}
	m.submitting = true
	label := "Approving"
	if outcome == instruction.StatusRejected {
		label = "Rejecting"
	}
	return tea.Batch(m.spinner.Start(label), m.submit(d))
}

func (m *Model) timelineKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Timeline):
		m.deps.Router.Back()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) navigate(route navigation.Route, params map[string]string) {
	if err := m.deps.Router.Navigate(route, params); err != nil {
		m.logger.Error("navigation failed", zap.String("route", string(route)), zap.Error(err))
	}
}

func (m *Model) replace(route navigation.Route) {
	if err := m.deps.Router.Replace(route, nil); err != nil {
		m.logger.Error("navigation failed", zap.String("route", string(route)), zap.Error(err))
	}
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

func (m *Model) handleAuthCheck(msg authCheckMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	if m.deps.Router.Current().Route != navigation.Splash {
		return m, nil
	}
	if !msg.Authenticated {
		m.replace(navigation.Login)
		return m, nil
	}
	m.startSession()
	m.replace(navigation.Welcome)
	return m, nil
}

func (m *Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	m.signingIn = false
	m.spinner.Stop()
	if msg.Err != nil {
		if m.deps.Recorder != nil {
			m.deps.Recorder.LogAuth(auditLogin, "", msg.Err)
		}
		if errors.Is(msg.Err, auth.ErrCancelled) {
			m.status.SetMessage("Sign-in cancelled", true)
			return m, nil
		}
		m.logger.Warn("login failed", zap.Error(msg.Err))
		m.pushError("Login Failed", msg.Err.Error())
		return m, nil
	}

	m.setUser(msg.Result.UserInfo)
	if m.deps.Recorder != nil {
		m.deps.Recorder.LogAuth(auditLogin, m.userID(), nil)
	}
	m.startSession()
	m.replace(navigation.Welcome)
	return m, nil
}

func (m *Model) handleUser(msg userMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("loading user info failed", zap.Error(msg.Err))
		return m, nil
	}
	m.setUser(msg.User)
	return m, nil
}

func (m *Model) handleLogout(msg logoutMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	userID := m.userID()
	if m.deps.Recorder != nil {
		m.deps.Recorder.LogAuth(auditLogout, userID, msg.Err)
	}
	m.signedOut()
	// Local credentials are gone even when the remote call failed.
	m.deps.Router.ResetToLogin()
	if msg.Err != nil {
		m.logger.Warn("logout failed", zap.Error(msg.Err))
		m.pushError("Logout Failed", msg.Err.Error())
	}
	return m, nil
}

func (m *Model) handleAccounts(msg accountsMsg) (tea.Model, tea.Cmd) {
	if m.deps.Router.Current().Route != navigation.Dashboard {
		return m, nil
	}
	if msg.Err != nil {
		m.spinner.Stop()
		return m, m.loadFailed("Failed to load accounts", msg.Err)
	}
	m.accounts = msg.Accounts
	if m.accountIdx >= len(m.accounts) {
		m.accountIdx = 0
	}
	if len(m.accounts) == 0 {
		m.spinner.Stop()
		return m, nil
	}
	return m, m.reloadChart()
}

func (m *Model) handleChart(msg chartMsg) (tea.Model, tea.Cmd) {
	if len(m.accounts) == 0 || msg.Account != m.accounts[m.accountIdx].ID || msg.Year != m.year {
		return m, nil
	}
	m.spinner.Stop()
	if msg.Err != nil {
		return m, m.loadFailed("Failed to load chart data", msg.Err)
	}
	s := instruction.Totals(msg.Chart)
	m.summary = &s
	return m, nil
}

func (m *Model) handleInstructions(msg instructionsMsg) (tea.Model, tea.Cmd) {
	if msg.Status != m.tab {
		return m, nil
	}
	m.spinner.Stop()
	if msg.Err != nil {
		m.listError = "Failed to load instructions"
		return m, m.loadFailed("Failed to load instructions", msg.Err)
	}
	m.listError = ""
	m.items = msg.Items
	m.clampCursor()
	m.status.SetMessage("Loaded "+util.Plural(len(msg.Items), "instruction"), false)
	if msg.Arrivals > 0 {
		m.notices.Push(components.Notice{
			Title:   instruction.ArrivalTitle,
			Message: instruction.ArrivalMessage(msg.Arrivals),
			Kind:    components.NoticeInfo,
		})
	}
	return m, nil
}

func (m *Model) handleDetails(msg detailsMsg) (tea.Model, tea.Cmd) {
	if msg.ID != m.reviewID || msg.Status != m.reviewStatus {
		return m, nil
	}
	m.spinner.Stop()
	if msg.Err != nil {
		return m, m.loadFailed("Failed to load instruction details.", msg.Err)
	}
	d := msg.Details
	m.details = &d
	m.refreshDetail()
	m.detail.GotoTop()
	return m, nil
}

func (m *Model) handleDecision(msg decisionMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	m.spinner.Stop()
	if msg.Err != nil {
		m.logger.Warn("decision failed",
			zap.String("instruction", msg.Decision.InstructionID), zap.Error(msg.Err))
		m.pushError("Error", msg.Decision.FailureMessage())
		if unauthorized(msg.Err) {
			return m, m.expire()
		}
		return m, nil
	}
	m.comments.SetValue("")
	m.notices.Push(components.Notice{
		Title:   "Success",
		Message: msg.Decision.SuccessMessage(),
		Kind:    components.NoticeSuccess,
	})
	m.backOnNotice = true
	return m, nil
}

// loadFailed shows a load error, or logs the session out when the backend
// no longer accepts the token.
func (m *Model) loadFailed(message string, err error) tea.Cmd {
	m.logger.Warn(message, zap.Error(err))
	if unauthorized(err) {
		return m.expire()
	}
	m.status.SetMessage(message, true)
	return nil
}
