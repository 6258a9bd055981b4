// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// instructions_cmd.go - Instruction review from the command line.
//
// Command: instructions | show | approve | reject | dashboard
//
// Examples:
//   traverse instructions                      Pending instructions
//   traverse instructions rejected --json      Rejected tab as JSON
//   traverse show 42 --status accepted         Review page and approval flow
//   traverse approve 42 --comments "ok"        Approve a pending instruction
//   traverse dashboard --year 2024             Yearly totals, first account

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/api"
	"github.com/jeranaias/traverse-tui/internal/instruction"
	"github.com/jeranaias/traverse-tui/internal/util"
)

// ReviewBackend is the REST API used by the review commands.
type ReviewBackend interface {
	ExistingAccounts(ctx context.Context) ([]instruction.Account, error)
	ChartData(ctx context.Context, account, start, end string) (instruction.ChartData, error)
	Instructions(ctx context.Context, status instruction.Status) ([]instruction.Instruction, error)
	InstructionDetails(ctx context.Context, id string, status instruction.Status) (instruction.Details, error)
	UpdateInstruction(ctx context.Context, d instruction.Decision) error
}

// DecisionRecorder writes decisions to the audit trail.
type DecisionRecorder interface {
	LogDecision(sessionID, userID string, d instruction.Decision, submitErr error) error
}

// DecisionCounter counts decision submissions.
type DecisionCounter interface {
	ObserveDecision(outcome string, err error)
}

// SeenReader reports which pending instructions were already announced.
type SeenReader interface {
	SeenInstructions(ctx context.Context) (map[string]bool, error)
}

// reviewEnv is what the review commands run against.
type reviewEnv struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	backend     ReviewBackend
	auth        Authenticator
	seen        SeenReader
	recorder    DecisionRecorder
	counter     DecisionCounter
	letterBase  string
	width       int
	logger      *zap.Logger
	now         func() time.Time
}

func newReviewEnv(rt *Runtime) *reviewEnv {
	return &reviewEnv{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: IsTTY(),
		backend:     rt.API,
		auth:        rt.Auth,
		seen:        rt.Store,
		recorder:    rt.Audit,
		counter:     rt.Metrics,
		letterBase:  rt.API.BaseURL(),
		width:       GetTerminalWidth(),
		logger:      rt.Logger,
		now:         time.Now,
	}
}

// withReviewEnv opens the runtime and runs fn against it.
func withReviewEnv(ctx context.Context, args Args, fn func(*reviewEnv) error) error {
	rt, err := openForCommand(ctx, args)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(newReviewEnv(rt))
}

// apiError adds a sign-in hint to rejected credentials.
func apiError(command, action string, err error) error {
	var se *api.StatusError
	if errors.As(err, &se) && se.Unauthorized() {
		return NewCommandError(command, action, "sign-in is no longer valid, run 'traverse login'", err)
	}
	return NewCommandError(command, action, "request failed", err)
}

// parseStatusArg parses a status name or id, defaulting to pending.
func parseStatusArg(v string) (instruction.Status, error) {
	if v == "" {
		return instruction.StatusPending, nil
	}
	s, err := instruction.ParseStatus(v)
	if err != nil {
		return 0, NewValidationErrorWithExample("status", v, err.Error(), "pending, accepted, rejected or 1, 2, 3")
	}
	return s, nil
}

// =============================================================================
// INSTRUCTIONS
// =============================================================================

// InstructionRow is the JSON form of a list entry.
type InstructionRow struct {
	instruction.Instruction
	New bool `json:"new,omitempty"`
}

// InstructionsData is the JSON form of the instructions command.
type InstructionsData struct {
	Status string           `json:"status"`
	Search string           `json:"search,omitempty"`
	Count  int              `json:"count"`
	Items  []InstructionRow `json:"items"`
}

// HandleInstructions handles "traverse instructions [status]".
func HandleInstructions(ctx context.Context, args Args) error {
	return withReviewEnv(ctx, args, func(env *reviewEnv) error {
		return env.instructions(ctx, args)
	})
}

func (env *reviewEnv) instructions(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)
	status, err := parseStatusArg(p.Subcommand())
	if err != nil {
		return err
	}
	search := p.Flag("search")

	items, err := env.backend.Instructions(ctx, status)
	if err != nil {
		return apiError("instructions", "list", err)
	}
	items = instruction.Filter(items, search)

	var seen map[string]bool
	if status == instruction.StatusPending && env.seen != nil {
		if seen, err = env.seen.SeenInstructions(ctx); err != nil {
			env.logger.Warn("failed to read seen instructions", zap.Error(err))
			seen = nil
		}
	}

	rows := make([]InstructionRow, len(items))
	for i, it := range items {
		rows[i] = InstructionRow{Instruction: it, New: seen != nil && !seen[it.ID]}
	}

	if args.JSON {
		return NewJSONResponse("instructions", InstructionsData{
			Status: strings.ToLower(status.String()),
			Search: search,
			Count:  len(rows),
			Items:  rows,
		}).Write(env.out)
	}

	fmt.Fprintln(env.out, TitleStyle.Render(status.Title()))
	if len(rows) == 0 {
		fmt.Fprintln(env.out, DimStyle.Render("No instructions found"))
		return nil
	}
	widths := []int{8, 22, 22, -16, 12, 1}
	fmt.Fprintln(env.out, DimStyle.Render(util.Columns(widths, "ID", "Customer", "Account", "Amount", "Requested", "")))
	fmt.Fprintln(env.out, RenderSeparator(util.StringWidth(util.Columns(widths, "", "", "", "", "", "x"))))
	for _, r := range rows {
		marker := ""
		if r.New {
			marker = infoLabel("*")
		}
		fmt.Fprintln(env.out, util.Columns(widths,
			r.ID,
			r.CustomerName,
			r.AccountName,
			instruction.FormatCurrency(r.CurrencyType, r.Amount),
			instruction.FormatListDate(r.RequestedDate),
			marker,
		))
		if desc := strings.TrimSpace(r.InstructionDescription); desc != "" && !args.Quiet {
			fmt.Fprintln(env.out, "  "+DimStyle.Render(util.TruncateWidth(desc, env.width-4)))
		}
	}
	if !args.Quiet {
		fmt.Fprintf(env.out, "\n%s\n", DimStyle.Render(util.Plural(len(rows), "instruction")))
	}
	return nil
}

// =============================================================================
// SHOW
// =============================================================================

// ShowData is the JSON form of the show command.
type ShowData struct {
	ID        string              `json:"id"`
	Status    string              `json:"status"`
	CanDecide bool                `json:"can_decide"`
	LetterURL string              `json:"letter_url,omitempty"`
	Details   instruction.Details `json:"details"`
}

// HandleShow handles "traverse show <id>".
func HandleShow(ctx context.Context, args Args) error {
	return withReviewEnv(ctx, args, func(env *reviewEnv) error {
		return env.show(ctx, args)
	})
}

func (env *reviewEnv) show(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)
	id := p.Subcommand()
	if id == "" {
		return ErrMissingArgument("id", "traverse show 42 --status pending")
	}
	status, err := parseStatusArg(p.Flag("status"))
	if err != nil {
		return err
	}

	d, err := env.backend.InstructionDetails(ctx, id, status)
	if err != nil {
		return apiError("show", "load details", err)
	}

	if args.JSON {
		return NewJSONResponse("show", ShowData{
			ID:        id,
			Status:    strings.ToLower(status.String()),
			CanDecide: instruction.CanApprove(d, status),
			LetterURL: instruction.LetterURL(d, env.letterBase),
			Details:   d,
		}).Write(env.out)
	}

	md := instruction.Markdown(id, d, status)
	if letter := instruction.LetterURL(d, env.letterBase); letter != "" {
		md += "\nLetter: " + letter + "\n"
	}
	fmt.Fprint(env.out, renderMarkdown(md, env.width))
	return nil
}

// renderMarkdown renders md for the terminal. Plain markdown is returned
// when rendering fails.
func renderMarkdown(md string, width int) string {
	style := "notty"
	if ColorsEnabled() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

// DecisionData is the JSON form of approve and reject.
type DecisionData struct {
	ID       string `json:"id"`
	Outcome  string `json:"outcome"`
	Comments string `json:"comments"`
	Message  string `json:"message"`
}

// HandleDecision handles "traverse approve <id>" and "traverse reject <id>".
func HandleDecision(ctx context.Context, args Args, outcome instruction.Status) error {
	return withReviewEnv(ctx, args, func(env *reviewEnv) error {
		return env.decide(ctx, args, outcome)
	})
}

func (env *reviewEnv) decide(ctx context.Context, args Args, outcome instruction.Status) error {
	command, verb := "approve", "Approve"
	if outcome == instruction.StatusRejected {
		command, verb = "reject", "Reject"
	}

	p := NewArgParser(args.Raw)
	id := p.Subcommand()
	if id == "" {
		return ErrMissingArgument("id", fmt.Sprintf("traverse %s 42 --comments \"...\"", command))
	}
	comments := p.Flag("comments")
	if comments == "" {
		comments = JoinPositionalArgs(p, 1)
	}

	d, err := instruction.NewDecision(id, outcome, comments)
	if errors.Is(err, instruction.ErrCommentsRequired) {
		return NewValidationErrorWithExample("comments", "", "Please enter comments before submitting.",
			fmt.Sprintf("traverse %s %s --comments \"...\"", command, id))
	}
	if err != nil {
		return NewValidationError("decision", id, err.Error())
	}

	action := fmt.Sprintf("%s instruction %s?", verb, id)
	if err := Confirm(env.in, env.out, action, []Detail{{"Comments", comments}}, confirmOptions(p, args, env.interactive)); err != nil {
		return err
	}

	var userID string
	if env.auth != nil {
		if u, uerr := env.auth.CurrentUser(ctx); uerr == nil {
			userID = userLabel(u)
		}
	}

	err = env.backend.UpdateInstruction(ctx, d)
	if env.recorder != nil {
		if aerr := env.recorder.LogDecision("", userID, d, err); aerr != nil {
			env.logger.Error("audit write failed", zap.Error(aerr))
		}
	}
	if env.counter != nil {
		env.counter.ObserveDecision(strings.ToLower(outcome.String()), err)
	}
	if err != nil {
		return apiError(command, "submit", fmt.Errorf("%s: %w", d.FailureMessage(), err))
	}

	return OutputJSON(env.out, args.JSON, command, func() (interface{}, error) {
		if !args.JSON {
			fmt.Fprintf(env.out, "%s %s\n", okLabel("[OK]"), d.SuccessMessage())
		}
		return DecisionData{
			ID:       id,
			Outcome:  strings.ToLower(outcome.String()),
			Comments: comments,
			Message:  d.SuccessMessage(),
		}, nil
	})
}

// =============================================================================
// DASHBOARD
// =============================================================================

// DashboardData is the JSON form of the dashboard command.
type DashboardData struct {
	Account     instruction.Account `json:"account"`
	Year        int                 `json:"year"`
	Approved    int                 `json:"approved"`
	Rejected    int                 `json:"rejected"`
	Credited    float64             `json:"credited"`
	Interest    float64             `json:"interest"`
	Debited     float64             `json:"debited"`
	AccountList []string            `json:"accounts"`
}

// HandleDashboard handles "traverse dashboard".
func HandleDashboard(ctx context.Context, args Args) error {
	return withReviewEnv(ctx, args, func(env *reviewEnv) error {
		return env.dashboard(ctx, args)
	})
}

func (env *reviewEnv) dashboard(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)
	thisYear := env.now().Year()
	year := thisYear
	if v := p.Flag("year"); v != "" {
		y, err := ParseIntWithValidation(v, "year")
		if err != nil {
			return NewValidationErrorWithExample("year", v, err.Error(), "traverse dashboard --year 2024")
		}
		if y > thisYear {
			return NewValidationError("year", v, "cannot be in the future")
		}
		year = y
	}

	accounts, err := env.backend.ExistingAccounts(ctx)
	if err != nil {
		return apiError("dashboard", "list accounts", err)
	}
	if len(accounts) == 0 {
		return NewNotFoundError("account", "any")
	}

	account := accounts[0]
	if want := p.Flag("account"); want != "" {
		found := false
		for _, a := range accounts {
			if a.ID == want || strings.EqualFold(a.AccountName, want) {
				account, found = a, true
				break
			}
		}
		if !found {
			return NewNotFoundError("account", want)
		}
	}

	start, end := api.YearDateRange(year)
	chart, err := env.backend.ChartData(ctx, account.ID, start, end)
	if err != nil {
		return apiError("dashboard", "load chart", err)
	}
	sum := instruction.Totals(chart)

	if args.JSON {
		names := make([]string, len(accounts))
		for i, a := range accounts {
			names[i] = a.ID
		}
		return NewJSONResponse("dashboard", DashboardData{
			Account:     account,
			Year:        year,
			Approved:    sum.Approved,
			Rejected:    sum.Rejected,
			Credited:    sum.Credited,
			Interest:    sum.Interest,
			Debited:     sum.Debited,
			AccountList: names,
		}).Write(env.out)
	}

	fmt.Fprintln(env.out, TitleStyle.Render(fmt.Sprintf("Dashboard - %s (%d)", account.AccountName, year)))
	fmt.Fprintln(env.out, SectionStyle.Render("Instructions"))
	fmt.Fprintln(env.out, RenderLabel("Approved")+okLabel(sum.Approved))
	fmt.Fprintln(env.out, RenderLabel("Rejected")+errorLabel(sum.Rejected))
	fmt.Fprintln(env.out, SectionStyle.Render("Amounts"))
	fmt.Fprintln(env.out, RenderField("Credited", instruction.FormatCurrency("USD", sum.Credited)))
	fmt.Fprintln(env.out, RenderField("Interest", instruction.FormatCurrency("USD", sum.Interest)))
	fmt.Fprintln(env.out, RenderField("Debited", instruction.FormatCurrency("USD", sum.Debited)))
	if len(accounts) > 1 && !args.Quiet {
		fmt.Fprintf(env.out, "\n%s\n", DimStyle.Render(fmt.Sprintf("%d accounts available, choose with --account <id>", len(accounts))))
	}
	return nil
}
