// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/traverse-tui/internal/navigation"
	"github.com/jeranaias/traverse-tui/internal/session"
)

// bridgeBuffer bounds how far the controller and router may run ahead of
// the UI loop before their calls block.
const bridgeBuffer = 64

// Bridge carries session notices and route changes from other goroutines
// into the Bubble Tea loop. It implements session.Notifier and provides a
// navigation.Listener.
//
// Messages are delivered through Wait, the usual "listen for activity"
// command, so the bridge never needs a reference to the tea.Program and
// calls made from inside Update cannot deadlock.
type Bridge struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewBridge creates an open bridge.
func NewBridge() *Bridge {
	return &Bridge{
		ch:   make(chan tea.Msg, bridgeBuffer),
		done: make(chan struct{}),
	}
}

// Notify implements session.Notifier.
func (b *Bridge) Notify(n session.Notice) {
	b.send(NoticeMsg{Notice: n})
}

// RouteChanged is a navigation.Listener.
func (b *Bridge) RouteChanged(e navigation.Entry) {
	b.send(RouteMsg{Entry: e})
}

// Wait returns a command that delivers the next bridged message. The model
// issues it again after handling each one.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close releases any sender blocked on a full buffer. Later sends are
// dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}
