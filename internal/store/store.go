// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package store defines persistence interfaces for the plugin core.
package store

import (
	"context"
	"time"
)

// PluginState is the persisted runtime state of a plugin: whether the
// dispatcher should invoke its handlers, and its admin-edited settings.
type PluginState struct {
	PluginID  string         `json:"plugin_id"`
	Enabled   bool           `json:"enabled"`
	Settings  map[string]any `json:"settings,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PluginStateStore persists PluginState across host restarts.
type PluginStateStore interface {
	// Get returns the state for pluginID, or a not_found error when the
	// plugin has never been seen.
	Get(ctx context.Context, pluginID string) (*PluginState, error)

	// Put inserts or replaces the state for state.PluginID.
	Put(ctx context.Context, state *PluginState) error

	// SetEnabled flips enablement, creating a default state row for
	// plugins that have none yet.
	SetEnabled(ctx context.Context, pluginID string, enabled bool) error

	// List returns all known states ordered by plugin id.
	List(ctx context.Context) ([]*PluginState, error)

	// Close releases the backing resources.
	Close() error
}
