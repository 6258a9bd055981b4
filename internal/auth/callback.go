// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gorilla/mux"
)

// ErrCancelled is returned when the user closes the sign-in page or the
// identity provider reports an error.
var ErrCancelled = errors.New("authentication cancelled")

const callbackPage = `<!doctype html><html><body style="font-family:sans-serif">
<h3>%s</h3><p>You can close this window and return to the terminal.</p></body></html>`

type callbackResult struct {
	code string
	err  error
}

// callbackServer receives the authorization redirect on the loopback
// interface.
type callbackServer struct {
	listener net.Listener
	server   *http.Server
	state    string
	results  chan callbackResult
}

// startCallback listens on 127.0.0.1:port. Port 0 picks a free port.
func startCallback(port int, state string) (*callbackServer, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for redirect: %w", err)
	}

	cb := &callbackServer{
		listener: ln,
		state:    state,
		results:  make(chan callbackResult, 1),
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth", cb.handleAuth).Methods(http.MethodGet)
	r.HandleFunc("/logout", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, callbackPage, "Signed out")
	}).Methods(http.MethodGet)

	cb.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go cb.server.Serve(ln)
	return cb, nil
}

// RedirectURL is the redirect URI registered for this listener.
func (cb *callbackServer) RedirectURL() string {
	return fmt.Sprintf("http://%s/auth", cb.listener.Addr().String())
}

func (cb *callbackServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var res callbackResult
	switch {
	case q.Get("state") != cb.state:
		res.err = errors.New("redirect state mismatch")
	case q.Get("error") != "":
		res.err = fmt.Errorf("%w: %s %s", ErrCancelled, q.Get("error"), q.Get("error_description"))
	case q.Get("code") == "":
		res.err = fmt.Errorf("%w: no authorization code", ErrCancelled)
	default:
		res.code = q.Get("code")
	}

	if res.err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, callbackPage, "Sign-in failed")
	} else {
		fmt.Fprintf(w, callbackPage, "Signed in")
	}

	select {
	case cb.results <- res:
	default:
	}
}

// Wait blocks until the redirect arrives or ctx ends.
func (cb *callbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-cb.results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the listener.
func (cb *callbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return cb.server.Shutdown(ctx)
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
