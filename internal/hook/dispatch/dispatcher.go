// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package dispatch is the runtime hook event bus: it holds, per hook name,
// the ordered list of plugin handlers and implements the filter-pipe and
// action-fanout trigger semantics with per-handler failure isolation.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	hookreg "github.com/inkpress-dev/inkpress/internal/hook"
	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
	"github.com/inkpress-dev/inkpress/pkg/hook"
)

// registration pairs a handler with the plugin that owns it.
type registration struct {
	pluginID string
	handler  Handler
}

// Dispatcher routes Trigger calls to registered handlers. The registry is
// read-only; handler lists and plugin enablement are the only mutable
// state, guarded by a reader-writer lock so concurrent triggers proceed
// in parallel while rare admin writes are exclusive.
type Dispatcher struct {
	registry *hookreg.Registry

	mu       sync.RWMutex
	handlers map[string][]registration
	disabled map[string]bool
}

// New creates a Dispatcher over the given registry.
func New(registry *hookreg.Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		handlers: make(map[string][]registration),
		disabled: make(map[string]bool),
	}
}

// Register appends a handler for hookName owned by pluginID. Registration
// order is the sole determinant of filter-pipe order; later handlers
// observe earlier handlers' output.
func (d *Dispatcher) Register(hookName, pluginID string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[hookName] = append(d.handlers[hookName], registration{
		pluginID: pluginID,
		handler:  h,
	})
}

// SetEnabled flips a plugin's enablement. Disabled plugins are skipped
// entirely at trigger time, not merely muted. Plugins never mentioned
// here are enabled.
func (d *Dispatcher) SetEnabled(pluginID string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if enabled {
		delete(d.disabled, pluginID)
	} else {
		d.disabled[pluginID] = true
	}
}

// Enabled reports a plugin's current enablement.
func (d *Dispatcher) Enabled(pluginID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.disabled[pluginID]
}

// HandlerCount returns how many handlers are registered for hookName,
// enabled or not.
func (d *Dispatcher) HandlerCount(hookName string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[hookName])
}

// Trigger dispatches name to its enabled handlers and returns the
// resulting payload. It never returns an error: every handler failure is
// logged with attribution and absorbed, and the caller always gets the
// best payload available — the original one if nothing succeeded.
//
// Filter hooks (and unknown names, which dispatch permissively) pipe each
// handler's output into the next handler. Action hooks fan out the
// original payload to every handler and discard return values.
func (d *Dispatcher) Trigger(ctx context.Context, name string, payload json.RawMessage) json.RawMessage {
	regs := d.snapshot(name)
	if len(regs) == 0 {
		return payload
	}

	hookType := hook.TypeFilter
	if def, ok := d.registry.Get(name); ok {
		hookType = def.HookType
	}

	if hookType == hook.TypeAction {
		d.fanOut(ctx, name, payload, regs)
		return payload
	}

	return d.pipe(ctx, name, payload, regs)
}

// snapshot copies the enabled registrations for name under the read lock
// so handler execution happens without holding it.
func (d *Dispatcher) snapshot(name string) []registration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	all := d.handlers[name]
	regs := make([]registration, 0, len(all))
	for _, reg := range all {
		if d.disabled[reg.pluginID] {
			continue
		}
		regs = append(regs, reg)
	}
	return regs
}

func (d *Dispatcher) pipe(ctx context.Context, name string, payload json.RawMessage, regs []registration) json.RawMessage {
	current := payload
	for _, reg := range regs {
		out, err := reg.handler.Invoke(ctx, current)
		if err != nil {
			logHandlerFailure(name, reg, err)
			continue
		}
		current = out
	}
	return current
}

func (d *Dispatcher) fanOut(ctx context.Context, name string, payload json.RawMessage, regs []registration) {
	for _, reg := range regs {
		if _, err := reg.handler.Invoke(ctx, payload); err != nil {
			logHandlerFailure(name, reg, err)
		}
	}
}

func logHandlerFailure(name string, reg registration, err error) {
	slog.Warn("hook handler failed",
		"plugin_id", reg.pluginID,
		"hook_name", name,
		"handler_kind", reg.handler.Kind(),
		"reason", string(inkerr.CodeOf(err)),
		"error", err)
}
