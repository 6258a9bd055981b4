// traverse - terminal client for reviewing withdrawal instructions.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/traverse-tui/internal/cli"
	"github.com/jeranaias/traverse-tui/internal/instruction"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cmd, args)
	stop()

	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(ctx context.Context, cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdTUI:
		return cli.RunTUI(ctx, args)
	case cli.CmdLogin:
		return cli.HandleLogin(ctx, args)
	case cli.CmdLogout:
		return cli.HandleLogout(ctx, args)
	case cli.CmdStatus:
		return cli.HandleStatus(ctx, args)
	case cli.CmdInstructions:
		return cli.HandleInstructions(ctx, args)
	case cli.CmdShow:
		return cli.HandleShow(ctx, args)
	case cli.CmdApprove:
		return cli.HandleDecision(ctx, args, instruction.StatusAccepted)
	case cli.CmdReject:
		return cli.HandleDecision(ctx, args, instruction.StatusRejected)
	case cli.CmdDashboard:
		return cli.HandleDashboard(ctx, args)
	case cli.CmdConfig:
		return cli.HandleConfig(args)
	case cli.CmdAudit:
		return cli.HandleAudit(args)
	case cli.CmdVersion:
		return cli.HandleVersion(args)
	default:
		return cli.HandleHelp(args)
	}
}
