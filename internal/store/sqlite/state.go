// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package sqlite implements the plugin state store on a single SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inkpress-dev/inkpress/internal/store"
	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// Compile-time interface check.
var _ store.PluginStateStore = (*StateStore)(nil)

// StateStore implements store.PluginStateStore backed by SQLite.
type StateStore struct {
	db *sql.DB
}

// NewStateStore opens (or creates) the database at dbPath and initialises
// the plugin_state table.
func NewStateStore(dbPath string) (*StateStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure, "opening plugin state db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure, "pinging plugin state db")
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure, "migrating plugin state db")
	}

	return &StateStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS plugin_state (
	plugin_id  TEXT PRIMARY KEY,
	enabled    INTEGER NOT NULL DEFAULT 1,
	settings   TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// Get returns the persisted state for pluginID.
func (s *StateStore) Get(ctx context.Context, pluginID string) (*store.PluginState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT plugin_id, enabled, settings, updated_at FROM plugin_state WHERE plugin_id = ?`,
		pluginID)

	state, err := scanState(row)
	if err == sql.ErrNoRows {
		return nil, inkerr.Errorf(inkerr.CodeStoreStateNotFound,
			"no state for plugin %q", pluginID)
	}
	if err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure,
			"reading plugin state", inkerr.FieldPlugin(pluginID))
	}

	return state, nil
}

// Put inserts or replaces the state row for state.PluginID.
func (s *StateStore) Put(ctx context.Context, state *store.PluginState) error {
	if state == nil || state.PluginID == "" {
		return inkerr.New(inkerr.CodeStoreInvalidInput, "plugin state needs a plugin id")
	}

	settings, err := json.Marshal(state.Settings)
	if err != nil {
		return inkerr.Wrap(err, inkerr.CodeStoreInvalidInput,
			"encoding plugin settings", inkerr.FieldPlugin(state.PluginID))
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO plugin_state (plugin_id, enabled, settings, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(plugin_id) DO UPDATE SET
	enabled    = excluded.enabled,
	settings   = excluded.settings,
	updated_at = excluded.updated_at`,
		state.PluginID, boolToInt(state.Enabled), string(settings),
		updatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure,
			"writing plugin state", inkerr.FieldPlugin(state.PluginID))
	}

	return nil
}

// SetEnabled flips enablement, creating a default row when none exists.
func (s *StateStore) SetEnabled(ctx context.Context, pluginID string, enabled bool) error {
	if pluginID == "" {
		return inkerr.New(inkerr.CodeStoreInvalidInput, "plugin id must not be empty")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO plugin_state (plugin_id, enabled, settings, updated_at)
VALUES (?, ?, '{}', ?)
ON CONFLICT(plugin_id) DO UPDATE SET
	enabled    = excluded.enabled,
	updated_at = excluded.updated_at`,
		pluginID, boolToInt(enabled), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure,
			"updating plugin enablement", inkerr.FieldPlugin(pluginID))
	}

	return nil
}

// List returns all persisted states ordered by plugin id.
func (s *StateStore) List(ctx context.Context) ([]*store.PluginState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT plugin_id, enabled, settings, updated_at FROM plugin_state ORDER BY plugin_id`)
	if err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure, "listing plugin state")
	}
	defer func() { _ = rows.Close() }()

	var states []*store.PluginState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure, "scanning plugin state")
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeStoreDatabaseFailure, "iterating plugin state")
	}

	return states, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (*store.PluginState, error) {
	var (
		state     store.PluginState
		enabled   int
		settings  string
		updatedAt string
	)

	if err := row.Scan(&state.PluginID, &enabled, &settings, &updatedAt); err != nil {
		return nil, err
	}

	state.Enabled = enabled != 0
	if settings != "" && settings != "{}" {
		if err := json.Unmarshal([]byte(settings), &state.Settings); err != nil {
			return nil, err
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		state.UpdatedAt = ts
	}

	return &state, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
