// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display current configuration
//   path                Show configuration file path
//   get <key>           Print one value
//   set <key> <value>   Set a value and save
//   env <name>          Switch the environment preset and save
//   reset               Reset to default configuration (asks first)
//
// Examples:
//   traverse config set session.idle_timeout_secs 300
//   traverse config env qa
//   traverse config get environment.api_url
//
// A running client picks up idle window changes without a restart.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/traverse-tui/internal/config"
)

// configTarget is where the config command reads and writes.
type configTarget struct {
	cfg  *config.Config
	path string
	save func(*config.Config) error

	in          io.Reader
	interactive bool
}

// HandleConfig handles "traverse config".
func HandleConfig(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "load", "configuration could not be read", err)
	}
	path, err := config.FilePath()
	if err != nil {
		return err
	}
	return runConfig(os.Stdout, configTarget{
		cfg:         cfg,
		path:        path,
		save:        config.Save,
		in:          os.Stdin,
		interactive: IsTTY(),
	}, args)
}

func runConfig(w io.Writer, t configTarget, args Args) error {
	p := NewArgParser(args.Raw)
	switch sub := strings.ToLower(p.Subcommand()); sub {
	case "", "show":
		return showConfig(w, t, args)
	case "path":
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": t.path}).Write(w)
		}
		fmt.Fprintln(w, t.path)
		return nil
	case "get":
		return getConfig(w, t, p, args)
	case "set":
		return setConfig(w, t, p, args)
	case "env":
		name := p.Positional(1)
		if name == "" {
			return ErrMissingArgument("name", "traverse config env "+strings.Join(config.PresetNames(), "|"))
		}
		if err := t.cfg.UsePreset(name); err != nil {
			return NewValidationError("environment", name, err.Error())
		}
		return saveConfig(w, t, args, "environment", t.cfg.Environment.Name)
	case "reset":
		if err := Confirm(t.in, w, "Reset the configuration to defaults?", nil, confirmOptions(p, args, t.interactive)); err != nil {
			return err
		}
		t.cfg = config.Default()
		return saveConfig(w, t, args, "config", "defaults")
	default:
		return NewValidationErrorWithExample("subcommand", sub, "unknown config subcommand", "traverse config [show|path|get|set|env|reset]")
	}
}

func showConfig(w io.Writer, t configTarget, args Args) error {
	if args.JSON {
		return NewJSONResponse("config show", map[string]interface{}{
			"path":   t.path,
			"config": t.cfg,
		}).Write(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("traverse configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		if head, _, ok := strings.Cut(key, "."); ok && head != section {
			section = head
			fmt.Fprintln(w, SectionStyle.Render(section))
		}
		v, err := t.cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, RenderLabel(key, 30)+ValueStyle.Render(fmt.Sprint(v)))
	}
	fmt.Fprintf(w, "\n%s\n", DimStyle.Render("File: "+t.path))
	return nil
}

func getConfig(w io.Writer, t configTarget, p *ArgParser, args Args) error {
	key := p.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "traverse config get session.idle_timeout_secs")
	}
	v, err := t.cfg.Get(key)
	if err != nil {
		return NewValidationError("key", key, err.Error())
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": v}).Write(w)
	}
	fmt.Fprintln(w, v)
	return nil
}

func setConfig(w io.Writer, t configTarget, p *ArgParser, args Args) error {
	key, value := p.Positional(1), JoinPositionalArgs(p, 2)
	if key == "" || value == "" {
		return ErrMissingArgument("key and value", "traverse config set session.idle_timeout_secs 300")
	}
	if err := t.cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	return saveConfig(w, t, args, key, value)
}

// saveConfig validates and writes the configuration.
func saveConfig(w io.Writer, t configTarget, args Args, key, value string) error {
	if err := t.cfg.Validate(); err != nil {
		return err
	}
	if err := t.save(t.cfg); err != nil {
		return NewCommandError("config", "save", "configuration could not be written", err)
	}
	if args.JSON {
		return NewJSONResponse("config set", map[string]string{"key": key, "value": value}).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s %s = %s\n", okLabel("[OK]"), key, value)
	}
	return nil
}
