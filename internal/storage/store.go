// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// ErrNoSealer is returned by the secret accessors of a store opened without
// a Sealer.
var ErrNoSealer = errors.New("store has no sealer")

// =============================================================================
// STORE
// =============================================================================

// Store is the client's local database.
type Store struct {
	db     *sql.DB
	sealer *Sealer
}

// Open migrates and opens the database at path. sealer may be nil, in which
// case the secret accessors fail.
func Open(ctx context.Context, path string, sealer *Sealer) (*Store, error) {
	if err := migrateUp(ctx, path); err != nil {
		return nil, err
	}
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, sealer: sealer}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the plain value of key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Set stores a plain value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.put(ctx, key, value, false)
}

// SetSecret seals value before storing it.
func (s *Store) SetSecret(ctx context.Context, key, value string) error {
	if s.sealer == nil {
		return ErrNoSealer
	}
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return err
	}
	return s.put(ctx, key, sealed, true)
}

// GetSecret returns the unsealed value of key.
func (s *Store) GetSecret(ctx context.Context, key string) (string, error) {
	if s.sealer == nil {
		return "", ErrNoSealer
	}
	v, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return s.sealer.Open(v)
}

func (s *Store) put(ctx context.Context, key, value string, sealed bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, sealed, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, sealed = excluded.sealed, updated_at = CURRENT_TIMESTAMP`,
		key, value, sealed)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// =============================================================================
// SEEN INSTRUCTIONS
// =============================================================================

// SeenInstructions returns the set of pending instruction IDs already
// announced to the user.
func (s *Store) SeenInstructions(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT instruction_id FROM seen_instructions`)
	if err != nil {
		return nil, fmt.Errorf("failed to read seen instructions: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seen[id] = true
	}
	return seen, rows.Err()
}

// ReplaceSeen makes ids the complete set of seen instructions.
func (s *Store) ReplaceSeen(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_instructions`); err != nil {
		return fmt.Errorf("failed to clear seen instructions: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO seen_instructions (instruction_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("failed to record %s: %w", id, err)
		}
	}
	return tx.Commit()
}
