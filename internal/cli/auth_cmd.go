// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Sign-in, sign-out and status commands.
//
// Command: login | logout | status
//
// Examples:
//   traverse login                  Sign in through the browser
//   traverse logout                 Clear stored credentials
//   traverse status --json          Environment and sign-in state

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/traverse-tui/internal/audit"
	"github.com/jeranaias/traverse-tui/internal/auth"
	"github.com/jeranaias/traverse-tui/internal/config"
	"github.com/jeranaias/traverse-tui/internal/session"
)

// Authenticator is the part of auth.Service the commands use.
type Authenticator interface {
	Login(ctx context.Context) (auth.Result, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*auth.UserInfo, error)
}

// AuthRecorder records sign-ins and sign-outs.
type AuthRecorder interface {
	LogAuth(eventType, userID string, authErr error) error
}

// openForCommand opens the runtime for a one-shot command. Logs reach the
// console only with --verbose.
func openForCommand(ctx context.Context, args Args) (*Runtime, error) {
	opts := RuntimeOptions{Env: args.Env, Verbose: args.Verbose}
	if args.Verbose {
		opts.Console = os.Stderr
	}
	return Open(ctx, opts)
}

// userLabel is the identifier written to the audit trail.
func userLabel(u *auth.UserInfo) string {
	if u == nil {
		return ""
	}
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

// UserData is the JSON form of a signed-in user.
type UserData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	JobTitle string `json:"job_title,omitempty"`
	Initials string `json:"initials"`
}

func userData(u *auth.UserInfo) *UserData {
	if u == nil {
		return nil
	}
	return &UserData{
		Name:     u.DisplayName,
		Email:    userLabel(u),
		JobTitle: u.JobTitle,
		Initials: auth.Initials(u.DisplayName),
	}
}

// HandleLogin handles "traverse login".
func HandleLogin(ctx context.Context, args Args) error {
	if err := RequiresTTY("sign in"); err != nil {
		return err
	}
	rt, err := openForCommand(ctx, args)
	if err != nil {
		return err
	}
	defer rt.Close()
	return runLogin(ctx, os.Stdout, rt.Auth, rt.Audit, args)
}

func runLogin(ctx context.Context, w io.Writer, a Authenticator, rec AuthRecorder, args Args) error {
	if !args.JSON && !args.Quiet {
		fmt.Fprintln(w, DimStyle.Render("Opening your browser to sign in with Microsoft..."))
	}

	res, err := a.Login(ctx)
	user := auth.ProfileFromTokens(res.Tokens, res.UserInfo)
	_ = rec.LogAuth(audit.EventLogin, userLabel(user), err)
	if err != nil {
		if errors.Is(err, auth.ErrCancelled) {
			return NewCommandError("login", "sign in", "sign-in was cancelled", err)
		}
		return NewCommandError("login", "sign in", "authentication failed", err)
	}

	return OutputJSON(w, args.JSON, "login", func() (interface{}, error) {
		if !args.JSON {
			name := "unknown user"
			if user != nil {
				name = user.DisplayName
			}
			fmt.Fprintf(w, "%s Signed in as %s\n", okLabel("[OK]"), name)
		}
		return userData(user), nil
	})
}

// HandleLogout handles "traverse logout".
func HandleLogout(ctx context.Context, args Args) error {
	rt, err := openForCommand(ctx, args)
	if err != nil {
		return err
	}
	defer rt.Close()
	return runLogout(ctx, os.Stdout, rt.Auth, rt.Audit, args)
}

func runLogout(ctx context.Context, w io.Writer, a Authenticator, rec AuthRecorder, args Args) error {
	user, _ := a.CurrentUser(ctx)
	err := a.Logout(ctx)
	_ = rec.LogAuth(audit.EventLogout, userLabel(user), err)

	return OutputJSON(w, args.JSON, "logout", func() (interface{}, error) {
		if err != nil {
			// Local credentials are gone even when the provider call fails.
			return nil, NewCommandError("logout", "end session", "identity provider logout failed", err)
		}
		if !args.JSON && !args.Quiet {
			fmt.Fprintf(w, "%s Signed out\n", okLabel("[OK]"))
		}
		return map[string]bool{"signed_out": true}, nil
	})
}

// =============================================================================
// STATUS
// =============================================================================

// StatusData is the JSON form of the status command.
type StatusData struct {
	Environment     string    `json:"environment"`
	APIURL          string    `json:"api_url"`
	BlobURL         string    `json:"blob_url,omitempty"`
	SignedIn        bool      `json:"signed_in"`
	User            *UserData `json:"user,omitempty"`
	IdleTimeoutSecs int       `json:"idle_timeout_secs"`
	WarningLeadSecs int       `json:"warning_lead_secs"`
	Database        string    `json:"database"`
	AuditLog        string    `json:"audit_log,omitempty"`
	MetricsAddr     string    `json:"metrics_addr,omitempty"`
	ConfigFile      string    `json:"config_file,omitempty"`
}

// HandleStatus handles "traverse status".
func HandleStatus(ctx context.Context, args Args) error {
	rt, err := openForCommand(ctx, args)
	if err != nil {
		return err
	}
	defer rt.Close()
	path, _ := config.FilePath()
	return runStatus(ctx, os.Stdout, rt.Config, path, rt.Auth, args)
}

func runStatus(ctx context.Context, w io.Writer, cfg *config.Config, cfgPath string, a Authenticator, args Args) error {
	data := StatusData{
		Environment:     cfg.Environment.Name,
		APIURL:          cfg.Environment.APIURL,
		BlobURL:         cfg.Environment.BlobURL,
		IdleTimeoutSecs: cfg.Session.IdleTimeoutSecs,
		WarningLeadSecs: cfg.Session.WarningLeadSecs,
		Database:        cfg.Storage.DBPath,
		AuditLog:        cfg.Logging.AuditFile,
		MetricsAddr:     cfg.Metrics.ListenAddr,
		ConfigFile:      cfgPath,
	}
	if a.IsAuthenticated(ctx) {
		data.SignedIn = true
		if u, err := a.CurrentUser(ctx); err == nil {
			data.User = userData(u)
		}
	}

	if args.JSON {
		return NewJSONResponse("status", data).Write(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("traverse status"))
	fmt.Fprintln(w, RenderField("Environment", data.Environment))
	fmt.Fprintln(w, RenderField("API", data.APIURL))
	if data.BlobURL != "" {
		fmt.Fprintln(w, RenderField("Letters", data.BlobURL))
	}

	fmt.Fprintln(w, SectionStyle.Render("Authentication"))
	if data.SignedIn {
		fmt.Fprintln(w, RenderLabel("State")+RenderStatus("signed in"))
		if data.User != nil {
			fmt.Fprintln(w, RenderField("User", fmt.Sprintf("%s (%s)", data.User.Name, data.User.Email)))
		}
	} else {
		fmt.Fprintln(w, RenderLabel("State")+RenderStatus("signed out"))
		fmt.Fprintln(w, DimStyle.Render("Run 'traverse login' to sign in."))
	}

	fmt.Fprintln(w, SectionStyle.Render("Session"))
	fmt.Fprintln(w, RenderField("Idle timeout", session.FormatDuration(time.Duration(data.IdleTimeoutSecs)*time.Second)))
	fmt.Fprintln(w, RenderField("Warning lead", session.FormatDuration(time.Duration(data.WarningLeadSecs)*time.Second)))

	fmt.Fprintln(w, SectionStyle.Render("Files"))
	fmt.Fprintln(w, RenderField("Database", data.Database))
	if data.AuditLog != "" {
		fmt.Fprintln(w, RenderField("Audit log", data.AuditLog))
	}
	if data.ConfigFile != "" {
		fmt.Fprintln(w, RenderField("Config", data.ConfigFile))
	}
	if data.MetricsAddr != "" {
		fmt.Fprintln(w, RenderField("Metrics", "http://"+data.MetricsAddr+"/metrics"))
	}
	return nil
}
