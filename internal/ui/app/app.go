// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the traverse terminal client.
//
// Every key press and mouse event is reported to the session's activity
// tracker before any screen sees it. Terminal focus changes and ctrl+z are
// reported to the lifecycle watcher, so leaving the terminal logs the user
// out. Notices and forced navigation from the session controller arrive
// through a Bridge.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/auth"
	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/navigation"
	"github.com/jeranaias/traverse-tui/internal/session"
	"github.com/jeranaias/traverse-tui/internal/ui/components"
	"github.com/jeranaias/traverse-tui/internal/ui/styles"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the REST API used by the screens.
type Backend interface {
	ExistingAccounts(ctx context.Context) ([]instruction.Account, error)
	ChartData(ctx context.Context, account, start, end string) (instruction.ChartData, error)
	Instructions(ctx context.Context, status instruction.Status) ([]instruction.Instruction, error)
	InstructionDetails(ctx context.Context, id string, status instruction.Status) (instruction.Details, error)
	UpdateInstruction(ctx context.Context, d instruction.Decision) error
}

// Authenticator signs the user in and out.
type Authenticator interface {
	Login(ctx context.Context) (auth.Result, error)
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*auth.UserInfo, error)
	Logout(ctx context.Context) error
}

// SeenStore remembers which pending instructions were already announced.
type SeenStore interface {
	SeenInstructions(ctx context.Context) (map[string]bool, error)
	ReplaceSeen(ctx context.Context, ids []string) error
}

// Recorder writes the audit trail of sign-ins and decisions.
type Recorder interface {
	LogDecision(sessionID, userID string, d instruction.Decision, submitErr error) error
	LogAuth(eventType, userID string, authErr error) error
}

// DecisionObserver counts decision submissions.
type DecisionObserver interface {
	ObserveDecision(outcome string, err error)
}

// Deps are the services the model drives. Backend, Auth, Session, Router and
// Bridge are required.
type Deps struct {
	Backend  Backend
	Auth     Authenticator
	Session  *session.Controller
	Router   *navigation.Router
	Bridge   *Bridge
	Seen     SeenStore
	Recorder Recorder
	Metrics  DecisionObserver

	// Environment is shown in the header.
	Environment string
	// LetterBaseURL resolves relative instruction letter links.
	LetterBaseURL string
	// OpenURL opens a link in the system browser.
	OpenURL func(url string) error
	// RequestTimeout bounds each backend call. Zero means 30 seconds.
	RequestTimeout time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// Route parameter keys.
const (
	ParamID     = "id"
	ParamStatus = "status"
)

// Audit event names for sign-in and sign-out.
const (
	auditLogin  = "LOGIN"
	auditLogout = "LOGOUT"
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the root model.
type Model struct {
	deps      Deps
	theme     *styles.Theme
	keys      KeyMap
	tracker   *session.ActivityTracker
	lifecycle *session.LifecycleWatcher
	logger    *zap.Logger

	width  int
	height int

	header  *components.Header
	status  *components.StatusBar
	spinner components.Spinner
	timeout components.SessionTimeoutOverlay
	notices components.NoticeModal

	user      *auth.UserInfo
	sessionID string
	quitting  bool

	// Login and welcome
	signingIn     bool
	confirmLogout bool

	// Dashboard
	accounts   []instruction.Account
	accountIdx int
	year       int
	summary    *instruction.Summary

	// Instructions
	tab       instruction.Status
	items     []instruction.Instruction
	cursor    int
	search    textinput.Model
	listError string

	// Review and approval flow
	reviewID     string
	reviewStatus instruction.Status
	details      *instruction.Details
	comments     textinput.Model
	submitting   bool
	backOnNotice bool
	detail       viewport.Model
}

// New creates the root model.
func New(deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	if deps.OpenURL == nil {
		deps.OpenURL = auth.OpenBrowser
	}

	theme := styles.NewTheme()

	search := textinput.New()
	search.Placeholder = "Search by customer, account, reference..."
	search.Prompt = "/ "
	search.CharLimit = 100

	comments := textinput.New()
	comments.Placeholder = "Enter comments"
	comments.Prompt = "> "
	comments.CharLimit = 500

	header := components.NewHeader(theme)
	header.Environment = deps.Environment

	return &Model{
		deps:      deps,
		theme:     theme,
		keys:      DefaultKeyMap(),
		tracker:   session.NewActivityTracker(deps.Session),
		lifecycle: session.NewLifecycleWatcher(deps.Session, session.PhaseActive),
		logger:    deps.Logger,
		header:    header,
		status:    components.NewStatusBar(theme),
		spinner:   components.NewSpinner(),
		timeout:   components.NewSessionTimeoutOverlay(),
		notices:   components.NewNoticeModal(),
		year:      deps.Now().Year(),
		tab:       instruction.StatusPending,
		search:    search,
		comments:  comments,
		detail:    viewport.New(80, 20),
	}
}

// Init starts the bridge listener, the countdown tick and the splash check.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.deps.Bridge.Wait(),
		tick(),
		m.enter(m.deps.Router.Current()),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg{At: t} })
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		m.tracker.Touch()
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.tracker.Touch()
		return m, nil

	case tea.FocusMsg:
		return m, m.observe(session.PhaseActive)

	case tea.BlurMsg:
		return m, m.observe(session.PhaseInactive)

	case lifecycleMsg:
		if msg.LoggedOut {
			m.logger.Info("logged out on leaving the terminal", zap.String("phase", msg.Phase.String()))
		}
		return m, nil

	case tickMsg:
		m.refreshCountdown()
		return m, tick()

	case NoticeMsg:
		m.handleNotice(msg.Notice)
		return m, m.deps.Bridge.Wait()

	case RouteMsg:
		return m, tea.Batch(m.enter(msg.Entry), m.deps.Bridge.Wait())

	case components.SessionExtendedMsg:
		m.status.SetMessage("Session extended", false)
		m.refreshCountdown()
		return m, nil

	case components.SessionNoticeDismissedMsg:
		return m, nil

	case components.NoticeDismissedMsg:
		if m.backOnNotice {
			m.backOnNotice = false
			m.deps.Router.Back()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case authCheckMsg:
		return m.handleAuthCheck(msg)
	case loginMsg:
		return m.handleLogin(msg)
	case userMsg:
		return m.handleUser(msg)
	case logoutMsg:
		return m.handleLogout(msg)
	case accountsMsg:
		return m.handleAccounts(msg)
	case chartMsg:
		return m.handleChart(msg)
	case instructionsMsg:
		return m.handleInstructions(msg)
	case detailsMsg:
		return m.handleDetails(msg)
	case decisionMsg:
		return m.handleDecision(msg)
	case openURLMsg:
		if msg.Err != nil {
			m.pushError("Error", "Failed to open the instruction letter.")
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.timeout.SetSize(width, height)
	m.notices.SetSize(width, m.bodyHeight())
	m.search.Width = width - 6
	m.comments.Width = width - 6
	m.detail.Width = width
	m.detail.Height = m.bodyHeight() - 2
	if m.details != nil {
		m.refreshDetail()
	}
}

func (m *Model) bodyHeight() int {
	h := m.height - 2
	if h < 5 {
		h = 5
	}
	return h
}

// observe reports a lifecycle phase. The logout it may trigger performs
// network I/O, so it runs as a command.
func (m *Model) observe(phase session.Phase) tea.Cmd {
	lc := m.lifecycle
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.deps.RequestTimeout)
		defer cancel()
		return lifecycleMsg{Phase: phase, LoggedOut: lc.Observe(ctx, phase)}
	}
}

func (m *Model) refreshCountdown() {
	snap := m.deps.Session.Snapshot()
	if !snap.Active {
		m.status.Remaining = 0
		return
	}
	m.status.Remaining = snap.Remaining
	if m.timeout.IsWarning() {
		m.timeout.UpdateTime(snap.Remaining)
	}
}

// handleNotice routes a controller notice to the overlay. The warning and
// the logout notice are recognised by title.
func (m *Model) handleNotice(n session.Notice) {
	switch n.Title {
	case session.TitleWarning:
		m.timeout.ShowWarning(n, m.deps.Session.Snapshot().Remaining)
	case session.TitleExpired:
		m.timeout.ShowExpired(n)
		m.signedOut()
	default:
		m.notices.Push(components.Notice{Title: n.Title, Message: n.Message})
	}
}

// signedOut drops everything tied to the previous user.
func (m *Model) signedOut() {
	m.user = nil
	m.sessionID = ""
	m.header.SetUser("", "")
	m.confirmLogout = false
	m.accounts = nil
	m.summary = nil
	m.items = nil
	m.details = nil
	m.reviewID = ""
	m.comments.SetValue("")
	m.comments.Blur()
	m.search.SetValue("")
	m.search.Blur()
	m.backOnNotice = false
	m.submitting = false
	m.signingIn = false
	m.spinner.Stop()
	m.status.Remaining = 0
}

// startSession begins the idle-monitored session for the signed-in user.
func (m *Model) startSession() {
	userID := ""
	if m.user != nil {
		userID = m.user.Mail
		if userID == "" {
			userID = m.user.UserPrincipalName
		}
	}
	id, err := m.deps.Session.Start(userID)
	if err != nil {
		m.logger.Error("session start failed", zap.Error(err))
		return
	}
	m.sessionID = id
	m.refreshCountdown()
}

func (m *Model) userID() string {
	if m.user == nil {
		return ""
	}
	if m.user.Mail != "" {
		return m.user.Mail
	}
	return m.user.UserPrincipalName
}

func (m *Model) setUser(u *auth.UserInfo) {
	m.user = u
	if u == nil {
		m.header.SetUser("", "")
		return
	}
	m.header.SetUser(u.DisplayName, auth.Initials(u.DisplayName))
}

func (m *Model) pushError(title, message string) {
	m.notices.Push(components.Notice{Title: title, Message: message, Kind: components.NoticeError})
}

// quit stops the session timers without logging out and ends the program.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.deps.Session.Stop()
	m.deps.Bridge.Close()
	return m, tea.Quit
}

// unauthorized reports whether err means the stored credentials are no
// longer accepted.
func unauthorized(err error) bool {
	var se interface{ Unauthorized() bool }
	return errors.As(err, &se) && se.Unauthorized()
}
