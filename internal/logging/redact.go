// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedPlaceholder replaces sensitive field values.
const RedactedPlaceholder = "[REDACTED]"

var secretPatterns = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9\-_.~+/]+=*`), "Bearer [TOKEN_REDACTED]"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{regexp.MustCompile(`(?i)(code_verifier|client_secret|refresh_token|access_token|id_token)=[^&\s]+`), "$1=[REDACTED]"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
}

// sensitiveKeys are field names whose values are always dropped.
var sensitiveKeys = []string{
	"token",
	"authorization",
	"password",
	"secret",
	"verifier",
	"cookie",
}

// Redact masks bearer tokens, JWTs and credential assignments in s.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, sp := range secretPatterns {
		s = sp.pattern.ReplaceAllString(s, sp.replace)
	}
	return s
}

// IsSensitiveField reports whether a field name denotes a credential.
func IsSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func redactField(f zapcore.Field) zapcore.Field {
	if IsSensitiveField(f.Key) {
		return zap.String(f.Key, RedactedPlaceholder)
	}
	switch f.Type {
	case zapcore.StringType:
		if r := Redact(f.String); r != f.String {
			return zap.String(f.Key, r)
		}
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			if msg := err.Error(); Redact(msg) != msg {
				return zap.String(f.Key, Redact(msg))
			}
		}
	}
	return f
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = redactField(f)
	}
	return out
}

// redactingCore scrubs messages and fields before they reach the wrapped core.
type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core so that secrets never reach its output.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return redactingCore{Core: core}
}

func (c redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = Redact(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}
