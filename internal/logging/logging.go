// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the application's zap logger: JSON lines to a
// rotating file, optional console output, and secret redaction on every
// entry.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure New.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string

	// File is the log path. Empty disables file output.
	File string

	// Rotation of File.
	Rotation FileWriterConfig

	// Console receives human-readable output. Nil while the TUI owns the
	// terminal.
	Console io.Writer
}

// ParseLevel maps a level name to a zapcore.Level.
func ParseLevel(name string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", name)
	}
	return lvl, nil
}

// New builds a logger from opts. With neither a file nor a console the
// result is a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = lvl
	}

	var cores []zapcore.Core
	if opts.File != "" {
		w, err := NewFileWriter(opts.File, opts.Rotation)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(NewEncoderConfig()), w, level))
	}
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(NewConsoleEncoderConfig()),
			zapcore.AddSync(opts.Console),
			level,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(NewRedactingCore(zapcore.NewTee(cores...)), zap.AddCaller()), nil
}
