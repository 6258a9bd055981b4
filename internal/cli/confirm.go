// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation before decisions and destructive config changes.
//
//  1. --yes proceeds without prompting
//  2. --json requires --yes (no prompts in JSON mode)
//  3. a non-terminal stdin requires --yes
//  4. otherwise the user is asked and must answer y or yes

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotConfirmed is returned when the user declines the prompt.
var ErrNotConfirmed = errors.New("cancelled by user")

// ConfirmOptions describe how the command was invoked.
type ConfirmOptions struct {
	// Yes is set by --yes or -y.
	Yes bool
	// JSON is set by --json.
	JSON bool
	// Interactive reports whether stdin is a terminal.
	Interactive bool
}

// Detail is a labelled line shown above the prompt.
type Detail struct {
	Label string
	Value string
}

// Confirm asks the user to confirm action. It returns nil when confirmed.
func Confirm(in io.Reader, w io.Writer, action string, details []Detail, opts ConfirmOptions) error {
	if opts.Yes {
		return nil
	}
	if opts.JSON || !opts.Interactive {
		return NewValidationErrorWithExample("confirmation", "", action+" needs confirmation",
			"add --yes to proceed without a prompt")
	}

	for _, d := range details {
		fmt.Fprintln(w, RenderField(d.Label, d.Value))
	}
	fmt.Fprintf(w, "%s %s [y/N]: ", warnLabel("?"), action)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(w)
		return ErrNotConfirmed
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return ErrNotConfirmed
}

// confirmOptions reads the confirmation flags of p.
func confirmOptions(p *ArgParser, args Args, interactive bool) ConfirmOptions {
	return ConfirmOptions{
		Yes:         p.BoolFlag("yes") || p.BoolFlag("y"),
		JSON:        args.JSON,
		Interactive: interactive,
	}
}
