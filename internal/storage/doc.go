// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists client state in a local SQLite database.
//
// # Key Types
//
//   - Store: key/value pairs and the set of seen instruction IDs
//   - Sealer: authenticated encryption for values that hold credentials
//
// # Usage
//
//	sealer, err := storage.LoadOrCreateSealer(keyPath)
//	store, err := storage.Open(ctx, dbPath, sealer)
//	defer store.Close()
//
//	err = store.SetSecret(ctx, "accessToken", token)
//	token, err := store.GetSecret(ctx, "accessToken")
//
// # Storage Location
//
// The database lives in ~/.traverse/traverse.db and the sealing key in
// ~/.traverse/storage.key (mode 0600). The schema is applied from embedded
// migrations when the store is opened.
package storage
