// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and top-level handlers for traverse.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdInstructions
	CmdShow
	CmdApprove
	CmdReject
	CmdDashboard
	CmdConfig
	CmdAudit
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	// Env selects an environment preset for this run only.
	Env string

	// Subcommand is the first argument after the command.
	Subcommand string

	// Raw holds the command's arguments, subcommand included.
	Raw []string

	// Unknown is set when the command name was not recognized.
	Unknown string
}

const usageText = `traverse - withdrawal instruction review from the terminal

Usage:
  traverse                          Start the interactive client (default)
  traverse login                    Sign in with your Microsoft account
  traverse logout                   Sign out and clear stored credentials
  traverse status, s                Show sign-in and environment status
  traverse instructions [status]    List instructions (pending|accepted|rejected)
  traverse show <id>                Show an instruction and its approval flow
  traverse approve <id>             Approve a pending instruction
  traverse reject <id>              Reject a pending instruction
  traverse dashboard                Yearly totals for an account
  traverse config [show|path|get|set|env|reset]
  traverse audit                    Show recent audit events
  traverse version                  Show version information
  traverse help                     Show this help

Global Flags:
  --env <name>        Use an environment preset (development, qa)
  --json              Output in JSON format
  -q, --quiet         Minimal output
  -v, --verbose       Verbose output

Command Flags:
  instructions  --search <text>
  show          --status <pending|accepted|rejected|1|2|3>
  approve       --comments <text> [--yes]
  reject        --comments <text> [--yes]
  dashboard     --account <id> --year <yyyy>
  audit         --lines <n> --type <event>
  config reset  [--yes]

Examples:
  traverse instructions pending --search acme
  traverse show 42 --status pending
  traverse approve 42 --comments "Checked against the letter"
  traverse config set session.idle_timeout_secs 300

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "traverse version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv without the program name.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]
	if len(parsed.Raw) > 0 && !strings.HasPrefix(parsed.Raw[0], "-") {
		parsed.Subcommand = parsed.Raw[0]
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsed
	case "login", "signin":
		return CmdLogin, parsed
	case "logout", "signout":
		return CmdLogout, parsed
	case "status", "s":
		return CmdStatus, parsed
	case "instructions", "list", "ls":
		return CmdInstructions, parsed
	case "show":
		return CmdShow, parsed
	case "approve":
		return CmdApprove, parsed
	case "reject":
		return CmdReject, parsed
	case "dashboard":
		return CmdDashboard, parsed
	case "config":
		return CmdConfig, parsed
	case "audit":
		return CmdAudit, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Unknown = cmd
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags and returns the other arguments.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-q" || arg == "--quiet":
			parsed.Quiet = true
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "--json":
			parsed.JSON = true
		case arg == "--env":
			if i+1 < len(argv) {
				i++
				parsed.Env = argv[i]
			}
		case strings.HasPrefix(arg, "--env="):
			parsed.Env = strings.TrimPrefix(arg, "--env=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

// =============================================================================
// SIMPLE HANDLERS
// =============================================================================

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion(os.Stdout)
	return nil
}

// HandleHelp handles the "help" command. An unknown command is reported
// before the usage text.
func HandleHelp(args Args) error {
	if args.Unknown != "" {
		PrintUsage(os.Stderr)
		return NewValidationErrorWithExample("command", args.Unknown, "unknown command", "traverse help")
	}
	PrintUsage(os.Stdout)
	return nil
}
