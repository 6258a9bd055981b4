// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the traverse packages.
//
// String Utilities:
//   - TruncateWidth, StringWidth: column aware truncation and measurement
//   - Plural: "1 item" and "n items"
//   - PadRight, PadLeft, Columns: fixed-width table cells for the CLI and TUI
//
// File Operations:
//   - AtomicWriteFile, AtomicWriteFileWithDir: crash-safe writes with fsync
package util
