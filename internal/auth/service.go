// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth signs the user in against Microsoft Entra ID with the
// authorization code flow and PKCE, keeps the resulting tokens in local
// storage, and tears them down on logout.
//
// Logout is fail-open: stored credentials are removed before the identity
// provider is contacted, so a network failure never leaves a usable token
// behind.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jeranaias/traverse-tui/internal/storage"
)

// Storage keys of the credential set.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyIDToken      = "idToken"
	KeyUserInfo     = "userInfo"
)

var credentialKeys = []string{KeyAccessToken, KeyRefreshToken, KeyIDToken, KeyUserInfo}

// Default identity endpoints.
const (
	DefaultAuthority = "https://login.microsoftonline.com"
	DefaultGraphURL  = "https://graph.microsoft.com/v1.0/me"
)

// ErrNotAuthenticated is returned when no access token is stored.
var ErrNotAuthenticated = errors.New("not signed in")

// Settings identify the application registration.
type Settings struct {
	TenantID     string
	ClientID     string
	Scope        string
	RedirectPort int
	// Authority and GraphURL override the public endpoints.
	Authority string
	GraphURL  string
}

func (s Settings) authority() string {
	if s.Authority != "" {
		return strings.TrimSuffix(s.Authority, "/")
	}
	return DefaultAuthority
}

func (s Settings) endpoint(name string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/%s", s.authority(), s.TenantID, name)
}

// TokenStore persists credentials. storage.Store implements it.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetSecret(ctx context.Context, key string) (string, error)
	SetSecret(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Service performs sign-in and sign-out.
type Service struct {
	settings Settings
	store    TokenStore
	client   *http.Client
	logger   *zap.Logger

	// OpenURL shows the sign-in page. It defaults to OpenBrowser.
	OpenURL func(url string) error
}

// NewService creates a Service. A nil client uses a 30 second timeout client.
func NewService(settings Settings, store TokenStore, client *http.Client, logger *zap.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings: settings,
		store:    store,
		client:   client,
		logger:   logger,
		OpenURL:  OpenBrowser,
	}
}

func (s *Service) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: s.settings.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.settings.endpoint("authorize"),
			TokenURL:  s.settings.endpoint("token"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      []string{"openid", "profile", "email", s.settings.Scope},
	}
}

// AuthURL returns the authorization URL for the given state, verifier and
// redirect.
func (s *Service) AuthURL(state, verifier, redirectURL string) string {
	return s.oauthConfig(redirectURL).AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("tenant", s.settings.TenantID),
	)
}

// Login runs the interactive sign-in and stores the tokens. The profile is
// fetched on a best-effort basis; Result.UserInfo is nil when Graph fails.
func (s *Service) Login(ctx context.Context) (Result, error) {
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	cb, err := startCallback(s.settings.RedirectPort, state)
	if err != nil {
		return Result{}, err
	}
	defer cb.Close()

	redirect := cb.RedirectURL()
	authURL := s.AuthURL(state, verifier, redirect)
	s.logger.Info("waiting for sign-in", zap.String("redirect_uri", redirect))
	if err := s.OpenURL(authURL); err != nil {
		s.logger.Warn("failed to open browser", zap.Error(err))
	}

	code, err := cb.Wait(ctx)
	if err != nil {
		return Result{}, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	tok, err := s.oauthConfig(redirect).Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Result{}, fmt.Errorf("token exchange failed: %w", err)
	}

	tokens := Tokens{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if id, ok := tok.Extra("id_token").(string); ok {
		tokens.IDToken = id
	}
	if err := s.StoreTokens(ctx, tokens); err != nil {
		return Result{}, err
	}

	res := Result{Tokens: tokens}
	info, err := s.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		s.logger.Warn("failed to fetch user profile", zap.Error(err))
	} else {
		res.UserInfo = info
		if raw, err := json.Marshal(info); err == nil {
			if err := s.store.Set(ctx, KeyUserInfo, string(raw)); err != nil {
				s.logger.Warn("failed to cache user profile", zap.Error(err))
			}
		}
	}

	s.logger.Info("signed in")
	return res, nil
}

// UserInfo fetches the Graph profile of the token's owner.
func (s *Service) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	graph := s.settings.GraphURL
	if graph == "" {
		graph = DefaultGraphURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graph, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph returned status %d", resp.StatusCode)
	}
	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &info, nil
}

// StoreTokens seals and saves t. Empty optional tokens are stored as empty
// values.
func (s *Service) StoreTokens(ctx context.Context, t Tokens) error {
	for key, v := range map[string]string{
		KeyAccessToken:  t.AccessToken,
		KeyRefreshToken: t.RefreshToken,
		KeyIDToken:      t.IDToken,
	} {
		if err := s.store.SetSecret(ctx, key, v); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}
	return nil
}

// StoredTokens returns the saved credentials, or ErrNotAuthenticated when
// there is no access token.
func (s *Service) StoredTokens(ctx context.Context) (Tokens, error) {
	access, err := s.store.GetSecret(ctx, KeyAccessToken)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && access == "") {
		return Tokens{}, ErrNotAuthenticated
	}
	if err != nil {
		return Tokens{}, err
	}

	t := Tokens{AccessToken: access}
	t.RefreshToken, _ = s.optionalSecret(ctx, KeyRefreshToken)
	t.IDToken, _ = s.optionalSecret(ctx, KeyIDToken)
	return t, nil
}

func (s *Service) optionalSecret(ctx context.Context, key string) (string, error) {
	v, err := s.store.GetSecret(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// AccessToken returns the stored access token. It satisfies the API
// client's token source.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	t, err := s.StoredTokens(ctx)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// IsAuthenticated reports whether an access token is stored.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, err := s.StoredTokens(ctx)
	return err == nil
}

// CurrentUser returns the header profile: ID token claims, then the cached
// Graph profile, then a live Graph call.
func (s *Service) CurrentUser(ctx context.Context) (*UserInfo, error) {
	t, err := s.StoredTokens(ctx)
	if err != nil {
		return nil, err
	}

	var cached *UserInfo
	if raw, err := s.store.Get(ctx, KeyUserInfo); err == nil && raw != "" {
		var info UserInfo
		if json.Unmarshal([]byte(raw), &info) == nil {
			cached = &info
		}
	}
	if p := ProfileFromTokens(t, cached); p != nil {
		return p, nil
	}
	return s.UserInfo(ctx, t.AccessToken)
}

// Logout removes the stored credentials, then ends the session at the
// identity provider. Local state is cleared even when the remote call fails;
// the remote error is still returned.
func (s *Service) Logout(ctx context.Context) error {
	localErr := s.store.Delete(ctx, credentialKeys...)
	if localErr != nil {
		s.logger.Error("failed to clear stored credentials", zap.Error(localErr))
	}

	remoteErr := s.endSession(ctx)
	if remoteErr != nil {
		s.logger.Warn("identity provider logout failed", zap.Error(remoteErr))
	}
	return errors.Join(localErr, remoteErr)
}

// LogoutURL returns the end-session URL with the loopback post-logout
// redirect.
func (s *Service) LogoutURL() string {
	redirect := fmt.Sprintf("http://127.0.0.1:%d/logout", s.settings.RedirectPort)
	return s.settings.endpoint("logout") + "?post_logout_redirect_uri=" + url.QueryEscape(redirect)
}

func (s *Service) endSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.LogoutURL(), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
