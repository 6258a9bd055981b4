// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens are the credentials returned by the identity provider.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
}

// UserInfo is the Microsoft Graph /me profile.
type UserInfo struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	Mail              string   `json:"mail"`
	UserPrincipalName string   `json:"userPrincipalName"`
	JobTitle          string   `json:"jobTitle,omitempty"`
	Department        string   `json:"department,omitempty"`
	MobilePhone       string   `json:"mobilePhone,omitempty"`
	BusinessPhones    []string `json:"businessPhones,omitempty"`
}

// Result is the outcome of a successful Login.
type Result struct {
	Tokens   Tokens
	UserInfo *UserInfo
}

// Claims are the profile claims read from an ID token.
type Claims struct {
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
	jwt.RegisteredClaims
}

// DecodeIDToken reads the claims of idToken without verifying its
// signature; the token came straight from the token endpoint over TLS and is
// only used for display. Malformed tokens decode to empty claims.
func DecodeIDToken(idToken string) Claims {
	var c Claims
	if idToken == "" {
		return c
	}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &c); err != nil {
		return Claims{}
	}
	return c
}

// ProfileFromTokens builds the header profile. ID token claims win when they
// carry a name; otherwise graph is used, which may be nil.
func ProfileFromTokens(t Tokens, graph *UserInfo) *UserInfo {
	c := DecodeIDToken(t.IDToken)
	if c.Name != "" {
		mail := c.Email
		if mail == "" {
			mail = c.PreferredUsername
		}
		return &UserInfo{
			ID:                c.Subject,
			DisplayName:       c.Name,
			Mail:              mail,
			UserPrincipalName: c.PreferredUsername,
			JobTitle:          c.JobTitle,
		}
	}
	return graph
}

// Initials returns the upper-cased first letter of each word of name, or "U"
// for an empty name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}
