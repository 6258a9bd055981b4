// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	sealer, err := LoadOrCreateSealer(filepath.Join(dir, "storage.key"))
	require.NoError(t, err)
	store, err := Open(context.Background(), filepath.Join(dir, "traverse.db"), sealer)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_KeyValue(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "userInfo")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Set(ctx, "userInfo", `{"displayName":"Dana"}`))
	require.NoError(t, s.Set(ctx, "userInfo", `{"displayName":"Dana Ruiz"}`))

	v, err := s.Get(ctx, "userInfo")
	require.NoError(t, err)
	assert.Equal(t, `{"displayName":"Dana Ruiz"}`, v)

	require.NoError(t, s.Delete(ctx, "userInfo", "missing"))
	_, err = s.Get(ctx, "userInfo")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, s.Delete(ctx))
}

func TestStore_Secrets(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetSecret(ctx, "accessToken", "eyJhbGciOi.secret"))

	raw, err := s.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, SealedPrefix))
	assert.NotContains(t, raw, "secret")

	v, err := s.GetSecret(ctx, "accessToken")
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.secret", v)
}

func TestStore_SecretsWithoutSealer(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "plain.db"), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, errors.Is(s.SetSecret(ctx, "k", "v"), ErrNoSealer))
	_, err = s.GetSecret(ctx, "k")
	assert.True(t, errors.Is(err, ErrNoSealer))
}

func TestStore_SeenInstructions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seen, err := s.SeenInstructions(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen)

	require.NoError(t, s.ReplaceSeen(ctx, []string{"1", "2", "2"}))
	require.NoError(t, s.ReplaceSeen(ctx, []string{"2", "3"}))

	seen, err = s.SeenInstructions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2": true, "3": true}, seen)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "traverse.db")

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "environment", "qa"))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, "environment")
	require.NoError(t, err)
	assert.Equal(t, "qa", v)
}

func TestSealer(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "nested", "storage.key")

	a, err := LoadOrCreateSealer(keyPath)
	require.NoError(t, err)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	sealed, err := a.Seal("refresh-token")
	require.NoError(t, err)
	again, err := a.Seal("refresh-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must differ")

	b, err := LoadOrCreateSealer(keyPath)
	require.NoError(t, err)
	plain, err := b.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", plain)

	_, err = b.Open("refresh-token")
	assert.True(t, errors.Is(err, ErrInvalidCiphertext))
	_, err = b.Open(SealedPrefix + "AAAA")
	assert.True(t, errors.Is(err, ErrInvalidCiphertext))

	other, err := NewSealer(make([]byte, 32))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))

	require.NoError(t, os.WriteFile(keyPath, []byte("short"), 0600))
	_, err = LoadOrCreateSealer(keyPath)
	assert.Error(t, err)
}
