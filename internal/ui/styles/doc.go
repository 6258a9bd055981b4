// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the colors and lipgloss styles of the traverse TUI.
//
// All colors are lipgloss.AdaptiveColor values so that light and dark
// terminals both render legibly. Status colors are always paired with an
// ASCII indicator from StatusIndicators.
package styles
