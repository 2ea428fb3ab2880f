// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	hookreg "github.com/inkpress-dev/inkpress/internal/hook"
	"github.com/inkpress-dev/inkpress/internal/hook/dispatch"
	"github.com/inkpress-dev/inkpress/internal/hook/sandbox"
	"github.com/inkpress-dev/inkpress/internal/hook/wasm"
	"github.com/inkpress-dev/inkpress/internal/store"
	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
	"github.com/inkpress-dev/inkpress/pkg/hook"
)

// Loaded is a discovered plugin with its validation findings.
type Loaded struct {
	Manifest *Manifest
	Dir      string
	WasmPath string
	Warnings []hook.ValidationWarning
	Enabled  bool
}

// Manager discovers plugins on disk, validates their hook bindings, and
// registers their handlers with the dispatcher.
type Manager struct {
	pluginsDir string
	registry   *hookreg.Registry
	dispatcher *dispatch.Dispatcher
	states     store.PluginStateStore
	runner     *sandbox.Runner

	mu      sync.RWMutex
	plugins map[string]*Loaded
}

// NewManager wires a Manager. states may be nil, in which case enablement
// is in-memory only.
func NewManager(pluginsDir string, registry *hookreg.Registry, dispatcher *dispatch.Dispatcher, states store.PluginStateStore, runner *sandbox.Runner) *Manager {
	return &Manager{
		pluginsDir: pluginsDir,
		registry:   registry,
		dispatcher: dispatcher,
		states:     states,
		runner:     runner,
		plugins:    make(map[string]*Loaded),
	}
}

// Discover walks the plugins directory, loads every valid plugin.yaml,
// and registers the plugin's handlers. Validation findings are warnings:
// a plugin with unknown hooks or a broken module still loads, degraded.
// Registration order inside a plugin follows the manifest; across plugins
// it follows directory name order, which os.ReadDir guarantees stable.
func (m *Manager) Discover(ctx context.Context) error {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return inkerr.Wrap(err, inkerr.CodePluginDiscoveryFailure, "reading plugins directory")
	}

	inspector := wasm.NewInspector()
	defer func() { _ = inspector.Close(ctx) }()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.pluginsDir, entry.Name())
		manifestPath := filepath.Join(dir, "plugin.yaml")

		data, err := os.ReadFile(manifestPath)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("skipping plugin: cannot read manifest",
					"path", manifestPath, "error", err)
			}
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping plugin: invalid manifest",
				"path", manifestPath, "error", err)
			continue
		}

		m.load(ctx, inspector, manifest, dir)
	}

	return nil
}

func (m *Manager) load(ctx context.Context, inspector *wasm.Inspector, manifest *Manifest, dir string) {
	wasmPath := filepath.Join(dir, manifest.Module)

	warnings := hookreg.ValidatePluginHooks(m.registry, manifest.ID,
		manifest.BackendHookNames(), manifest.FrontendHookNames())
	warnings = append(warnings, m.inspectModule(ctx, inspector, manifest, wasmPath)...)

	for _, w := range warnings {
		slog.Warn("plugin hook validation warning",
			"plugin_id", w.PluginID, "hook_name", w.HookName, "reason", string(w.Reason))
	}

	enabled := m.seedState(ctx, manifest.ID)
	m.dispatcher.SetEnabled(manifest.ID, enabled)

	for _, binding := range manifest.Bindings() {
		handler := dispatch.NewSandboxedHandler(m.runner, wasmPath, binding.ExportName())
		m.dispatcher.Register(binding.Hook, manifest.ID, handler)
	}

	m.mu.Lock()
	m.plugins[manifest.ID] = &Loaded{
		Manifest: manifest,
		Dir:      dir,
		WasmPath: wasmPath,
		Warnings: warnings,
		Enabled:  enabled,
	}
	m.mu.Unlock()

	slog.Info("plugin loaded",
		"plugin_id", manifest.ID,
		"version", manifest.Version,
		"hooks", len(manifest.BackendHooks)+len(manifest.FrontendHooks),
		"warnings", len(warnings),
		"enabled", enabled)
}

// inspectModule compiles the plugin's module (never executing it) and
// checks the export surface against the manifest's bindings.
func (m *Manager) inspectModule(ctx context.Context, inspector *wasm.Inspector, manifest *Manifest, wasmPath string) []hook.ValidationWarning {
	data, err := os.ReadFile(wasmPath)
	if err != nil {
		slog.Warn("plugin module unreadable; handlers will fail at dispatch",
			"plugin_id", manifest.ID, "path", wasmPath, "error", err)
		return nil
	}

	info, err := inspector.Inspect(ctx, data)
	if err != nil {
		slog.Warn("plugin module does not compile; handlers will fail at dispatch",
			"plugin_id", manifest.ID, "path", wasmPath, "error", err)
		return nil
	}

	var warnings []hook.ValidationWarning
	bindings := manifest.Bindings()
	for _, binding := range bindings {
		if !info.HasExport(binding.ExportName()) {
			warnings = append(warnings, hook.ValidationWarning{
				PluginID: manifest.ID,
				HookName: binding.Hook,
				Reason:   hook.ReasonMissingExport,
			})
		}
	}
	if len(bindings) > 0 && !info.HasMemory() {
		warnings = append(warnings, hook.ValidationWarning{
			PluginID: manifest.ID,
			HookName: bindings[0].Hook,
			Reason:   hook.ReasonNoMemory,
		})
	}

	return warnings
}

// seedState reads persisted enablement for a plugin, creating a default
// enabled row for plugins seen for the first time. Loading fails open:
// store trouble means the plugin runs enabled.
func (m *Manager) seedState(ctx context.Context, pluginID string) bool {
	if m.states == nil {
		return true
	}

	state, err := m.states.Get(ctx, pluginID)
	if err == nil {
		return state.Enabled
	}

	if !inkerr.IsNotFound(err) {
		slog.Warn("reading plugin state failed; defaulting to enabled",
			"plugin_id", pluginID, "error", err)
		return true
	}

	initial := &store.PluginState{
		PluginID:  pluginID,
		Enabled:   true,
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.states.Put(ctx, initial); err != nil {
		slog.Warn("persisting initial plugin state failed",
			"plugin_id", pluginID, "error", err)
	}

	return true
}

// Get returns a loaded plugin by id.
func (m *Manager) Get(pluginID string) (*Loaded, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loaded, ok := m.plugins[pluginID]
	if !ok {
		return nil, inkerr.Errorf(inkerr.CodePluginNotFound, "plugin %q not found", pluginID)
	}

	return loaded, nil
}

// List returns all loaded plugins ordered by id.
func (m *Manager) List() []*Loaded {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Loaded, 0, len(m.plugins))
	for _, loaded := range m.plugins {
		list = append(list, loaded)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Manifest.ID < list[j].Manifest.ID
	})

	return list
}

// SetEnabled persists and applies a plugin's enablement. The dispatcher
// state flips only after the store write succeeds.
func (m *Manager) SetEnabled(ctx context.Context, pluginID string, enabled bool) error {
	m.mu.Lock()
	loaded, ok := m.plugins[pluginID]
	m.mu.Unlock()
	if !ok {
		return inkerr.Errorf(inkerr.CodePluginNotFound, "plugin %q not found", pluginID)
	}

	if m.states != nil {
		if err := m.states.SetEnabled(ctx, pluginID, enabled); err != nil {
			return err
		}
	}

	m.dispatcher.SetEnabled(pluginID, enabled)

	m.mu.Lock()
	loaded.Enabled = enabled
	m.mu.Unlock()

	return nil
}
