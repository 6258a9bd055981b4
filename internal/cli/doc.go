// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the commands of traverse.
//
// With no command traverse starts the interactive client (RunTUI). The
// one-shot commands cover the same review workflow for scripting:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdInstructions:
//	    err = cli.HandleInstructions(ctx, args)
//	case cli.CmdApprove:
//	    err = cli.HandleDecision(ctx, args, instruction.StatusAccepted)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - login, logout, status: Microsoft sign-in and environment state
//   - instructions, show: list and inspect withdrawal instructions
//   - approve, reject: submit a decision with comments
//   - dashboard: yearly totals for an account
//   - config: view and edit the configuration file
//   - audit: read the audit trail
//
// Every command supports --json. Errors map to exit codes through
// GetExitCode.
package cli
