// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/traverse-tui/internal/storage"
)

const testTenant = "tenant-1"

func signedIDToken(t *testing.T, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	dir := t.TempDir()
	sealer, err := storage.LoadOrCreateSealer(filepath.Join(dir, "storage.key"))
	require.NoError(t, err)
	st, err := storage.Open(context.Background(), filepath.Join(dir, "traverse.db"), sealer)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// identityProvider fakes the authority and Graph endpoints.
type identityProvider struct {
	*httptest.Server
	idToken      string
	logoutStatus int
	logouts      atomic.Int32
	verifier     atomic.Value
}

func newIdentityProvider(t *testing.T, idToken string) *identityProvider {
	idp := &identityProvider{idToken: idToken, logoutStatus: http.StatusOK}

	r := mux.NewRouter()
	r.HandleFunc("/{tenant}/oauth2/v2.0/token", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseForm())
		assert.Equal(t, testTenant, mux.Vars(req)["tenant"])
		assert.Equal(t, "authorization_code", req.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", req.PostForm.Get("code"))
		idp.verifier.Store(req.PostForm.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"id_token":      idp.idToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/{tenant}/oauth2/v2.0/logout", func(w http.ResponseWriter, req *http.Request) {
		idp.logouts.Add(1)
		assert.Contains(t, req.URL.Query().Get("post_logout_redirect_uri"), "/logout")
		w.WriteHeader(idp.logoutStatus)
	})
	r.HandleFunc("/me", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(UserInfo{ID: "u1", DisplayName: "Graph User", Mail: "graph@example.com"})
	})

	idp.Server = httptest.NewServer(r)
	t.Cleanup(idp.Close)
	return idp
}

func newTestService(t *testing.T, idp *identityProvider, store TokenStore) *Service {
	svc := NewService(Settings{
		TenantID:  testTenant,
		ClientID:  "client-1",
		Scope:     "api://client-1/access_as_user",
		Authority: idp.URL,
		GraphURL:  idp.URL + "/me",
	}, store, idp.Client(), nil)

	// Plays the browser: approve and follow the redirect.
	svc.OpenURL = func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.Equal(t, "select_account", q.Get("prompt"))
		assert.Contains(t, q.Get("scope"), "openid profile email")

		redirect := q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state"))
		resp, err := http.Get(redirect)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
	return svc
}

func TestService_LoginStoresTokens(t *testing.T) {
	idToken := signedIDToken(t, Claims{Name: "Dana Ruiz", PreferredUsername: "dana@example.com"})
	idp := newIdentityProvider(t, idToken)
	store := newStore(t)
	svc := newTestService(t, idp, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := svc.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", res.Tokens.AccessToken)
	assert.Equal(t, idToken, res.Tokens.IDToken)
	require.NotNil(t, res.UserInfo)
	assert.Equal(t, "Graph User", res.UserInfo.DisplayName)
	assert.NotEmpty(t, idp.verifier.Load())

	assert.True(t, svc.IsAuthenticated(ctx))
	stored, err := svc.StoredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Tokens, stored)

	// ID token claims take precedence over the Graph profile.
	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dana Ruiz", user.DisplayName)
	assert.Equal(t, "dana@example.com", user.Mail)
}

func TestService_LoginCancelled(t *testing.T) {
	idp := newIdentityProvider(t, "")
	svc := newTestService(t, idp, newStore(t))
	svc.OpenURL = func(authURL string) error {
		u, _ := url.Parse(authURL)
		q := u.Query()
		resp, err := http.Get(q.Get("redirect_uri") + "?error=access_denied&state=" + url.QueryEscape(q.Get("state")))
		if err == nil {
			resp.Body.Close()
		}
		return err
	}

	_, err := svc.Login(context.Background())
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.False(t, svc.IsAuthenticated(context.Background()))
}

func TestService_LoginContextTimeout(t *testing.T) {
	idp := newIdentityProvider(t, "")
	svc := newTestService(t, idp, newStore(t))
	svc.OpenURL = func(string) error { return errors.New("no browser") }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Login(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestService_LogoutClearsLocalFirst(t *testing.T) {
	idp := newIdentityProvider(t, "")
	idp.logoutStatus = http.StatusInternalServerError
	store := newStore(t)
	svc := newTestService(t, idp, store)
	ctx := context.Background()

	require.NoError(t, svc.StoreTokens(ctx, Tokens{AccessToken: "a", RefreshToken: "r", IDToken: "i"}))
	require.NoError(t, store.Set(ctx, KeyUserInfo, `{"displayName":"x"}`))

	err := svc.Logout(ctx)
	assert.Error(t, err, "remote failure is reported")
	assert.Equal(t, int32(1), idp.logouts.Load())

	assert.False(t, svc.IsAuthenticated(ctx))
	for _, key := range credentialKeys {
		_, err := store.Get(ctx, key)
		assert.True(t, errors.Is(err, storage.ErrNotFound), key)
	}
}

func TestService_LogoutUnreachable(t *testing.T) {
	store := newStore(t)
	svc := NewService(Settings{TenantID: testTenant, Authority: "http://127.0.0.1:1"}, store, nil, nil)
	ctx := context.Background()
	require.NoError(t, svc.StoreTokens(ctx, Tokens{AccessToken: "a"}))

	assert.Error(t, svc.Logout(ctx))
	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestService_StoredTokensEmpty(t *testing.T) {
	svc := NewService(Settings{}, newStore(t), nil, nil)
	_, err := svc.StoredTokens(context.Background())
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
	_, err = svc.AccessToken(context.Background())
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
}

func TestDecodeIDToken(t *testing.T) {
	tok := signedIDToken(t, Claims{Name: "Sam Lee", Email: "sam@example.com", JobTitle: "Checker"})
	c := DecodeIDToken(tok)
	assert.Equal(t, "Sam Lee", c.Name)
	assert.Equal(t, "sam@example.com", c.Email)
	assert.Equal(t, "Checker", c.JobTitle)

	assert.Equal(t, Claims{}, DecodeIDToken("not-a-token"))
	assert.Equal(t, Claims{}, DecodeIDToken(""))
}

func TestProfileFromTokens(t *testing.T) {
	graph := &UserInfo{DisplayName: "Graph"}
	assert.Same(t, graph, ProfileFromTokens(Tokens{}, graph))
	assert.Nil(t, ProfileFromTokens(Tokens{IDToken: "bad"}, nil))

	p := ProfileFromTokens(Tokens{IDToken: signedIDToken(t, Claims{Name: "N", PreferredUsername: "n@x"})}, graph)
	assert.Equal(t, "N", p.DisplayName)
	assert.Equal(t, "n@x", p.Mail)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "DR", Initials("dana ruiz"))
	assert.Equal(t, "ÉM", Initials("  élodie   martin "))
	assert.Equal(t, "U", Initials(""))
	assert.Equal(t, "U", Initials("U"))
}
