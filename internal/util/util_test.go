// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.txt")

	require.NoError(t, AtomicWriteFile(path, []byte("hello"), 0644))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	require.NoError(t, AtomicWriteFile(path, []byte("replaced"), 0644))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestAtomicWriteFileWithDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := filepath.Join(t.TempDir(), "secure")
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, AtomicWriteFileWithDir(path, []byte("x = 1"), 0600, 0700))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	di, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), di.Mode().Perm())
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "hello", TruncateWidth("hello", 5))
	assert.Equal(t, "hel...", TruncateWidth("hello world", 6))
	assert.Equal(t, "", TruncateWidth("abc", 0))
	// Each ideograph is two columns wide.
	assert.Equal(t, "日...", TruncateWidth("日本語", 5))
	assert.LessOrEqual(t, StringWidth(TruncateWidth("日本語テキスト", 7)), 7)
}

func TestStringWidth(t *testing.T) {
	assert.Equal(t, 5, StringWidth("hello"))
	assert.Equal(t, 6, StringWidth("日本語"))
	assert.Equal(t, 0, StringWidth(""))
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "   ab", PadLeft("ab", 5))
	assert.Equal(t, "ab...", PadRight("abcdefgh", 5))
	assert.Equal(t, 6, StringWidth(PadRight("日本", 6)))
}

func TestColumns(t *testing.T) {
	line := Columns([]int{6, -8, 4}, "Acme", "1,200.00", "USD")
	assert.Equal(t, "Acme    1,200.00  USD", line)

	// Cells beyond the widths are appended as is.
	assert.Equal(t, "a  rest", Columns([]int{1}, "a", "rest"))

	// Zero-width columns are dropped with their separator.
	assert.Equal(t, "a  c", Columns([]int{1, 0, 1}, "a", "b", "c"))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 notice", Plural(1, "notice"))
	assert.Equal(t, "0 notices", Plural(0, "notice"))
	assert.Equal(t, "3 notices", Plural(3, "notice"))
	assert.Equal(t, "42", IntToString(42))
}
