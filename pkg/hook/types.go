// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package hook provides the public types of the Inkpress hook system:
// hook definitions as they appear in the embedded catalog, and the
// validation warnings produced when a plugin's declared hook bindings
// are checked against it. These types are consumed by the plugin
// manager and by the offline documentation generator.
package hook

// Type distinguishes filter hooks (handlers transform and return the
// payload) from action hooks (handlers run for side effects only).
type Type string

const (
	TypeFilter Type = "filter"
	TypeAction Type = "action"
)

// Scope declares where in the request pipeline a hook fires.
type Scope string

const (
	ScopeBackend  Scope = "backend"
	ScopeFrontend Scope = "frontend"
	ScopeBoth     Scope = "both"
)

// Includes reports whether a definition with this scope covers the
// given declaration scope. ScopeBoth covers everything.
func (s Scope) Includes(other Scope) bool {
	return s == ScopeBoth || s == other
}

// Definition describes a single named extension point. The set of
// definitions is closed: plugins bind handlers to existing names and
// cannot register new ones. Immutable after registry load.
type Definition struct {
	Name           string `yaml:"name"`
	HookType       Type   `yaml:"hook_type"`
	Description    string `yaml:"description"`
	TriggerPoint   string `yaml:"trigger_point"`
	InputSchema    any    `yaml:"input_schema"`
	OutputSchema   any    `yaml:"output_schema,omitempty"`
	Scope          Scope  `yaml:"scope"`
	AvailableSince string `yaml:"available_since"`
}

// WarningReason classifies a hook validation warning.
type WarningReason string

const (
	// ReasonUnknownHook means the declared name is not in the registry.
	ReasonUnknownHook WarningReason = "unknown_hook"
	// ReasonScopeMismatch means the name exists but its registry scope
	// excludes the list it was declared under.
	ReasonScopeMismatch WarningReason = "scope_mismatch"
	// ReasonMissingExport means the plugin's module does not export the
	// function bound to the hook.
	ReasonMissingExport WarningReason = "missing_export"
	// ReasonNoMemory means the plugin's module exports no linear memory,
	// so the data-passing convention cannot be used.
	ReasonNoMemory WarningReason = "no_memory"
)

// ValidationWarning is a non-fatal finding about a plugin's hook
// bindings. Warnings never block loading; a plugin referencing a hook
// from a newer host version still loads, degraded.
type ValidationWarning struct {
	PluginID string        `json:"plugin_id"`
	HookName string        `json:"hook_name"`
	Reason   WarningReason `json:"reason"`
}
