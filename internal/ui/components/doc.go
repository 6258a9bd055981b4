// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the traverse TUI.

# Chrome

Header (header.go) - Product name, current screen, environment badge and avatar.
StatusBar (statusbar.go) - Key hints, status message and the idle countdown.
Spinner (spinner.go) - Loading indicator for backend requests.

# Modals

SessionTimeoutOverlay (session_timeout_overlay.go) - Inactivity warning with the
"Stay Logged In" action, and the session expired notice.
NoticeModal (notice.go) - Queue of acknowledgeable notices such as new pending
instructions and decision results.

All components take a *styles.Theme or use the styles palette directly:

	theme := styles.NewTheme()
	header := components.NewHeader(theme)
	header.SetWidth(80)
	header.SetUser("Ada Lovelace", "AL")
	view := header.View()
*/
package components
