// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/navigation"
	"github.com/jeranaias/traverse-tui/internal/ui/components"
	"github.com/jeranaias/traverse-tui/internal/ui/styles"
	"github.com/jeranaias/traverse-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the header, the current screen and the status bar. The
// session overlay takes the whole terminal while it is shown.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.timeout.IsVisible() {
		return m.timeout.View()
	}

	route := m.deps.Router.Current().Route
	m.header.Screen = screenTitle(route)
	m.status.Shortcuts = m.screenShortcuts(route)

	var body string
	if m.notices.IsVisible() {
		body = m.notices.View()
	} else {
		body = m.screenView(route)
	}
	body = lipgloss.NewStyle().
		Width(m.width).
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight()).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.status.View())
}

func screenTitle(r navigation.Route) string {
	switch r {
	case navigation.Splash:
		return ""
	case navigation.Login:
		return "Sign in"
	case navigation.Welcome:
		return "Welcome"
	case navigation.Dashboard:
		return "Dashboard"
	case navigation.Instructions:
		return "Instructions"
	case navigation.InstructionReview:
		return "Review"
	case navigation.ApprovalTimeline:
		return "Approval Flow"
	}
	return string(r)
}

func (m *Model) screenShortcuts(r navigation.Route) []components.Shortcut {
	k := m.keys
	switch r {
	case navigation.Login:
		return shortcuts(k.Login, k.Quit)
	case navigation.Welcome:
		if m.confirmLogout {
			return shortcuts(k.Yes, k.No)
		}
		return shortcuts(k.Select, k.Logout, k.Quit)
	case navigation.Dashboard:
		return shortcuts(k.Left, k.Right, k.PrevYear, k.NextYear, k.Instructions, k.Refresh, k.Back)
	case navigation.Instructions:
		if m.search.Focused() {
			return []components.Shortcut{{Key: "enter", Desc: "done"}, {Key: "esc", Desc: "done"}}
		}
		return shortcuts(k.Select, k.Up, k.Down, k.NextTab, k.Tab1, k.Tab2, k.Tab3, k.Search, k.Refresh, k.Back)
	case navigation.InstructionReview:
		if m.comments.Focused() {
			return []components.Shortcut{{Key: "enter", Desc: "done"}}
		}
		if m.details != nil && instruction.CanApprove(*m.details, m.reviewStatus) {
			return shortcuts(k.Comment, k.Approve, k.Reject, k.Timeline, k.Letter, k.Back)
		}
		return shortcuts(k.Timeline, k.Letter, k.Back)
	case navigation.ApprovalTimeline:
		return shortcuts(k.Up, k.Down, k.Back)
	}
	return shortcuts(k.Quit)
}

func (m *Model) screenView(r navigation.Route) string {
	switch r {
	case navigation.Splash:
		return m.splashView()
	case navigation.Login:
		return m.loginView()
	case navigation.Welcome:
		return m.welcomeView()
	case navigation.Dashboard:
		return m.dashboardView()
	case navigation.Instructions:
		return m.instructionsView()
	case navigation.InstructionReview, navigation.ApprovalTimeline:
		if m.details == nil {
			return m.loadingView("Loading instruction details")
		}
		return m.detail.View()
	}
	return ""
}

func (m *Model) loadingView(fallback string) string {
	msg := m.theme.Muted.Render(fallback + "...")
	if m.spinner.IsActive() {
		msg = m.spinner.View()
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(msg)
}

func (m *Model) centered(content string) string {
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, content)
}

// =============================================================================
// SCREENS
// =============================================================================

func (m *Model) splashView() string {
	t := m.theme
	lines := []string{
		t.Title.Render("traverse"),
		t.Subtitle.Render("Withdrawal instruction review"),
		"",
		m.spinner.View(),
	}
	return m.centered(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m *Model) loginView() string {
	t := m.theme
	lines := []string{
		t.Title.Render("Welcome"),
		t.Subtitle.Render("Sign in with your Microsoft account"),
		"",
	}
	if m.signingIn {
		lines = append(lines, m.spinner.View(), t.Muted.Render("Complete the sign-in in your browser"))
	} else {
		lines = append(lines, t.Button.Render("[enter] Sign in with Microsoft"))
	}
	if m.status.IsError && m.status.Message != "" {
		lines = append(lines, "", t.ErrorStyle.Render(m.status.Message))
	}
	return m.centered(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m *Model) welcomeView() string {
	t := m.theme
	lines := []string{
		t.Title.Render("Welcome!"),
		t.Subtitle.Render("You have successfully signed in"),
		"",
	}

	if m.user != nil {
		name := m.user.DisplayName
		if name == "" {
			name = "User"
		}
		card := []string{t.Value.Bold(true).Render(name), t.Muted.Render(m.userID())}
		if m.user.JobTitle != "" {
			card = append(card, t.Subtitle.Render(m.user.JobTitle))
		}
		lines = append(lines, t.Card.Render(lipgloss.JoinVertical(lipgloss.Left, card...)))
	} else {
		lines = append(lines, t.Muted.Render("Loading profile..."))
	}

	lines = append(lines, "",
		t.Section.Render("Authentication Status"),
		t.SuccessStyle.Render(styles.StatusIndicators.Success)+" "+t.Value.Render("Successfully authenticated with Microsoft"),
		"",
	)

	if m.confirmLogout {
		lines = append(lines,
			t.WarningStyle.Render("Are you sure you want to logout?"),
			t.Muted.Render("[y] Logout   [n] Cancel"))
	} else if m.spinner.IsActive() {
		lines = append(lines, m.spinner.View())
	} else {
		lines = append(lines,
			t.Button.Render("[enter] Go to Dashboard")+"  "+t.ButtonReject.Render("[L] Logout"))
	}
	return m.centered(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m *Model) dashboardView() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.Title.Render("Dashboard"))
	b.WriteString("\n\n")

	if len(m.accounts) == 0 {
		if m.spinner.IsActive() {
			b.WriteString(m.spinner.View())
		} else {
			b.WriteString(t.Muted.Render("No accounts available"))
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	acct := m.accounts[m.accountIdx]
	b.WriteString(t.Label.Render("Account"))
	b.WriteString(t.Value.Render(acct.AccountName))
	b.WriteString(t.Muted.Render("  (" + strconv.Itoa(m.accountIdx+1) + "/" + strconv.Itoa(len(m.accounts)) + ")"))
	b.WriteString("\n")
	b.WriteString(t.Label.Render("Year"))
	b.WriteString(t.Value.Render(strconv.Itoa(m.year)))
	b.WriteString("\n")

	if m.summary == nil {
		b.WriteString("\n")
		if m.spinner.IsActive() {
			b.WriteString(m.spinner.View())
		} else {
			b.WriteString(t.Muted.Render("No chart data"))
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	s := m.summary
	b.WriteString(t.Section.Render("Instructions"))
	b.WriteString("\n")
	b.WriteString(t.Label.Render("Approved"))
	b.WriteString(t.SuccessStyle.Render(strconv.Itoa(s.Approved)))
	b.WriteString("\n")
	b.WriteString(t.Label.Render("Rejected"))
	b.WriteString(t.ErrorStyle.Render(strconv.Itoa(s.Rejected)))
	b.WriteString("\n")

	b.WriteString(t.Section.Render("Amounts"))
	b.WriteString("\n")
	for _, f := range []instruction.Field{
		{Label: "Credited", Value: instruction.FormatCurrency("USD", s.Credited)},
		{Label: "Interest", Value: instruction.FormatCurrency("USD", s.Interest)},
		{Label: "Debited", Value: instruction.FormatCurrency("USD", s.Debited)},
	} {
		b.WriteString(t.Label.Render(f.Label))
		b.WriteString(t.Value.Render(f.Value))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *Model) instructionsView() string {
	t := m.theme
	var b strings.Builder

	var tabs []string
	for _, s := range instruction.Statuses {
		label := strconv.Itoa(int(s)) + " " + s.String()
		if s == m.tab {
			tabs = append(tabs, t.TabActive.Render(label))
		} else {
			tabs = append(tabs, t.Tab.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	if m.search.Focused() || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(t.StatusStyle(m.tab).Render(m.tab.Title()))
	b.WriteString("\n\n")

	items := m.visibleItems()
	switch {
	case m.spinner.IsActive() && m.items == nil:
		b.WriteString(m.spinner.View())
		return b.String()
	case m.listError != "" && len(items) == 0:
		b.WriteString(t.ErrorStyle.Render(m.listError))
		return b.String()
	case len(items) == 0:
		b.WriteString(t.Muted.Render("No instructions found"))
		return b.String()
	}

	widths := m.listColumns()
	b.WriteString(t.Muted.Render(util.Columns(widths, "Customer", "Account", "Reference", "Requested", "Amount")))
	b.WriteString("\n")

	// Each item takes a row and a description line.
	visible := (m.bodyHeight() - 8) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
	}

	for i := start; i < end; i++ {
		it := items[i]
		row := util.Columns(widths,
			it.CustomerName,
			it.AccountName,
			it.TxnReferenceID,
			instruction.FormatListDate(it.RequestedDate),
			instruction.FormatCurrency(it.CurrencyType, it.Amount),
		)
		desc := "    " + util.TruncateWidth(it.InstructionDescription, m.width-8)
		if i == m.cursor {
			b.WriteString(t.RowSelected.Width(m.width - 2).Render(row))
		} else {
			b.WriteString(t.Row.Render(row))
		}
		b.WriteString("\n")
		b.WriteString(t.Muted.Render(desc))
		b.WriteString("\n")
	}
	if len(items) > visible {
		b.WriteString(t.Muted.Render("  " + strconv.Itoa(m.cursor+1) + " of " + strconv.Itoa(len(items))))
	}
	return b.String()
}

// listColumns sizes the instruction table to the terminal. A negative
// width right-aligns the column.
func (m *Model) listColumns() []int {
	switch m.theme.GetLayoutMode() {
	case styles.LayoutNarrow:
		return []int{18, 0, 0, 0, -14}
	case styles.LayoutMedium:
		return []int{20, 18, 14, 0, -16}
	default:
		return []int{26, 24, 18, 12, -18}
	}
}

// =============================================================================
// REVIEW AND APPROVAL FLOW
// =============================================================================

// refreshDetail re-renders the scrollable content of the review or approval
// flow screen.
func (m *Model) refreshDetail() {
	if m.details == nil {
		m.detail.SetContent("")
		return
	}
	if m.deps.Router.Current().Route == navigation.ApprovalTimeline {
		m.detail.SetContent(m.timelineContent(*m.details))
		return
	}
	m.detail.SetContent(m.reviewContent(*m.details))
}

func (m *Model) reviewContent(d instruction.Details) string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.Title.Render(m.reviewStatus.Title()))
	b.WriteString("\n")
	if d.Approval != nil {
		b.WriteString(t.InfoStyle.Render("[t] Approval Timeline"))
		b.WriteString("\n")
	}

	valueWidth := m.width - 28
	if valueWidth < 20 {
		valueWidth = 20
	}
	for _, sec := range instruction.Sections(d) {
		b.WriteString(t.Section.Render(sec.Title))
		b.WriteString("\n")
		for _, f := range sec.Fields {
			b.WriteString(t.Label.Render(f.Label))
			b.WriteString(t.Value.Width(valueWidth).Render(f.Value))
			b.WriteString("\n")
		}
	}
	if instruction.LetterURL(d, m.deps.LetterBaseURL) != "" {
		b.WriteString(t.Muted.Render("[o] view letter"))
		b.WriteString("\n")
	}

	if !instruction.CanApprove(d, m.reviewStatus) {
		return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
	}

	b.WriteString("\n")
	b.WriteString(t.Label.Render("Comments*"))
	b.WriteString("\n")
	b.WriteString(m.comments.View())
	b.WriteString("\n\n")
	if m.submitting {
		b.WriteString(m.spinner.View())
	} else {
		b.WriteString(t.ButtonReject.Render("[x] Reject"))
		b.WriteString("  ")
		b.WriteString(t.ButtonApprove.Render("[a] Approve"))
	}
	b.WriteString("\n")
	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func (m *Model) timelineContent(d instruction.Details) string {
	t := m.theme
	steps := instruction.Timeline(d)
	if len(steps) == 0 {
		return lipgloss.NewStyle().Padding(1, 2).Render(t.Muted.Render("No approval flow available"))
	}

	var b strings.Builder
	b.WriteString(t.Title.Render("Approval Flow"))
	b.WriteString("\n")
	for i, s := range steps {
		marker := t.Avatar.Render(strconv.Itoa(s.Number))
		b.WriteString("\n")
		b.WriteString(marker + " " + t.Section.UnsetMarginTop().Render(s.Label))
		b.WriteString("\n")

		rail := t.Muted.Render("  |  ")
		if i == len(steps)-1 {
			rail = "     "
		}
		for _, f := range s.Fields {
			b.WriteString(rail + t.Label.Render(f.Label) + t.Value.Render(f.Value) + "\n")
		}
		for _, r := range s.Reviewers {
			b.WriteString(rail + t.Label.Render("Name") + t.Value.Render(orNA(r.Name())) + "\n")
			b.WriteString(rail + t.Label.Render("Review Date") + t.Value.Render(instruction.FormatDate(r.Date())) + "\n")
			b.WriteString(rail + t.Label.Render("Status") + reviewerStatusStyle(t, r.Status).Render(orNA(r.Status)) + "\n")
			b.WriteString(rail + t.Label.Render("Comments") + t.Value.Render(orNA(r.Comments)) + "\n")
			b.WriteString(rail + "\n")
		}
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func reviewerStatusStyle(t *styles.Theme, status string) lipgloss.Style {
	s, err := instruction.ParseStatus(status)
	if err != nil {
		return t.Value
	}
	return t.StatusStyle(s)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
