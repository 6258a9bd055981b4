// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package navigation keeps the screen stack of the terminal client.
//
// The Router is the single owner of the stack. Screens call Navigate and
// Back; the session controller calls ResetToLogin when it logs the user out.
// Observers registered with Subscribe learn about every change.
package navigation

import (
	"fmt"
	"sync"
)

// Route names a screen.
type Route string

// Screens of the client.
const (
	Splash            Route = "Splash"
	Login             Route = "Login"
	Welcome           Route = "Welcome"
	Dashboard         Route = "Dashboard"
	Instructions      Route = "Instructions"
	InstructionReview Route = "InstructionReview"
	ApprovalTimeline  Route = "ApprovalTimeline"
)

var known = map[Route]bool{
	Splash:            true,
	Login:             true,
	Welcome:           true,
	Dashboard:         true,
	Instructions:      true,
	InstructionReview: true,
	ApprovalTimeline:  true,
}

// Valid reports whether r is a known screen.
func (r Route) Valid() bool {
	return known[r]
}

// Entry is one frame of the stack.
type Entry struct {
	Route  Route
	Params map[string]string
}

// Param returns a route parameter, or "" when unset.
func (e Entry) Param(key string) string {
	if e.Params == nil {
		return ""
	}
	return e.Params[key]
}

// Listener is called after every stack change with the new top entry.
type Listener func(Entry)

// Router is a goroutine-safe screen stack.
type Router struct {
	mu        sync.Mutex
	stack     []Entry
	listeners map[int]Listener
	nextID    int
}

// NewRouter creates a router whose stack holds only initial.
func NewRouter(initial Route) *Router {
	return &Router{
		stack:     []Entry{{Route: initial}},
		listeners: make(map[int]Listener),
	}
}

// Navigate pushes a screen.
func (r *Router) Navigate(route Route, params map[string]string) error {
	if !route.Valid() {
		return fmt.Errorf("unknown route %q", route)
	}
	r.mu.Lock()
	e := Entry{Route: route, Params: copyParams(params)}
	r.stack = append(r.stack, e)
	r.mu.Unlock()

	r.notify(e)
	return nil
}

// Replace swaps the top screen, used when leaving Splash or Login so that
// Back does not return to them.
func (r *Router) Replace(route Route, params map[string]string) error {
	if !route.Valid() {
		return fmt.Errorf("unknown route %q", route)
	}
	r.mu.Lock()
	e := Entry{Route: route, Params: copyParams(params)}
	r.stack[len(r.stack)-1] = e
	r.mu.Unlock()

	r.notify(e)
	return nil
}

// Back pops the top screen. It reports false at the root.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.stack) <= 1 {
		r.mu.Unlock()
		return false
	}
	r.stack = r.stack[:len(r.stack)-1]
	top := r.stack[len(r.stack)-1]
	r.mu.Unlock()

	r.notify(top)
	return true
}

// ResetToLogin replaces the whole stack with the login screen.
func (r *Router) ResetToLogin() {
	r.mu.Lock()
	r.stack = []Entry{{Route: Login}}
	top := r.stack[0]
	r.mu.Unlock()

	r.notify(top)
}

// Current returns the top of the stack.
func (r *Router) Current() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stack[len(r.stack)-1]
}

// Depth returns the stack size.
func (r *Router) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// Subscribe registers l and returns a function that removes it.
func (r *Router) Subscribe(l Listener) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *Router) notify(e Entry) {
	r.mu.Lock()
	ls := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		ls = append(ls, l)
	}
	r.mu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

func copyParams(p map[string]string) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
