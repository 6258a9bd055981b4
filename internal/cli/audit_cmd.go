// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - Audit trail viewer.
//
// Command: audit [--lines N] [--type EVENT]
//
// Examples:
//   traverse audit                        Last 20 events
//   traverse audit --lines 100 --json     Last 100 events as JSON
//   traverse audit --type SESSION_TIMEOUT Only idle logouts

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jeranaias/traverse-tui/internal/audit"
	"github.com/jeranaias/traverse-tui/internal/config"
)

// DefaultAuditLines is how many events the audit command shows by default.
const DefaultAuditLines = 20

// AuditData is the JSON form of the audit command.
type AuditData struct {
	Path   string        `json:"path"`
	Count  int           `json:"count"`
	Events []audit.Event `json:"events"`
}

// HandleAudit handles "traverse audit".
func HandleAudit(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("audit", "load", "configuration could not be read", err)
	}
	if cfg.Logging.AuditFile == "" {
		return NewCommandError("audit", "read", "audit logging is disabled (logging.audit_file is empty)", nil)
	}
	return runAudit(os.Stdout, cfg.Logging.AuditFile, args)
}

func runAudit(w io.Writer, path string, args Args) error {
	p := NewArgParser(args.Raw)
	lines := DefaultAuditLines
	if v := p.Flag("lines"); v != "" {
		n, err := ParseIntWithValidation(v, "lines")
		if err != nil {
			return NewValidationErrorWithExample("lines", v, err.Error(), "traverse audit --lines 50")
		}
		lines = n
	}
	eventType := strings.ToUpper(p.Flag("type"))

	// Filtering happens after the tail so --lines bounds the scan window.
	events, err := audit.ReadRecent(path, lines)
	if errors.Is(err, fs.ErrNotExist) {
		events, err = nil, nil
	}
	if err != nil {
		return NewCommandError("audit", "read", "audit log could not be read", err)
	}
	if eventType != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.EventType == eventType {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if args.JSON {
		if events == nil {
			events = []audit.Event{}
		}
		return NewJSONResponse("audit", AuditData{Path: path, Count: len(events), Events: events}).Write(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("Audit trail"))
	if len(events) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No audit events recorded"))
		return nil
	}
	for i := range events {
		e := &events[i]
		label := okLabel
		if !e.Success {
			label = errorLabel
		}
		fmt.Fprintf(w, "%s %s\n", label("*"), e.ToLogLine())
	}
	if !args.Quiet {
		fmt.Fprintf(w, "\n%s\n", DimStyle.Render("File: "+path))
	}
	return nil
}
