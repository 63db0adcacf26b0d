// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

package session

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/samber/oops"
	// Register the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps the key space in a single-table SQLite database.
type SQLiteBackend struct {
	db        *sql.DB
	writeLock sync.Mutex // sqlite does not support concurrent writers
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend opens (or creates) the database at path and ensures the
// kv table exists. Use ":memory:" for an ephemeral database.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("SESSION_SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	// A single connection keeps ":memory:" databases alive and serializes access.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("SESSION_SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close() //nolint:errcheck // schema error takes precedence
		return nil, oops.Code("SESSION_SQLITE_SCHEMA_FAILED").With("path", path).Wrap(err)
	}

	return &SQLiteBackend{db: db}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}

// GetAll implements Backend.
func (b *SQLiteBackend) GetAll(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	//nolint:gosec // placeholders only, values are bound
	rows, err := b.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (`+placeholders(len(keys))+`)`,
		toArgs(keys)...)
	if err != nil {
		return nil, oops.Code("SESSION_SQLITE_READ_FAILED").With("keys", keys).Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, oops.Code("SESSION_SQLITE_READ_FAILED").With("operation", "scan").Wrap(err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("SESSION_SQLITE_READ_FAILED").With("operation", "iterate").Wrap(err)
	}
	return out, nil
}

// SetAll implements Backend in one transaction.
func (b *SQLiteBackend) SetAll(ctx context.Context, values map[string]string) (err error) {
	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("SESSION_SQLITE_WRITE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // original error takes precedence
		}
	}()

	for k, v := range values {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			k, v,
		); err != nil {
			return oops.Code("SESSION_SQLITE_WRITE_FAILED").With("key", k).Wrap(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return oops.Code("SESSION_SQLITE_WRITE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}

// Delete implements Backend.
func (b *SQLiteBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	//nolint:gosec // placeholders only, values are bound
	if _, err := b.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key IN (`+placeholders(len(keys))+`)`,
		toArgs(keys)...,
	); err != nil {
		return oops.Code("SESSION_SQLITE_DELETE_FAILED").With("keys", keys).Wrap(err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return oops.Code("SESSION_SQLITE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
