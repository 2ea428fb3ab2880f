// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package hook holds the immutable hook registry built from the embedded
// definition catalog, plus validation of plugin hook declarations against it.
package hook

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
	"github.com/inkpress-dev/inkpress/pkg/hook"
)

//go:embed definitions.yaml
var definitionsYAML []byte

// document is the on-disk shape of the embedded catalog.
type document struct {
	Version string            `yaml:"version"`
	Hooks   []hook.Definition `yaml:"hooks"`
}

// Registry is the closed catalog of every hook name the host will ever
// fire. Built once at startup, read-only afterwards, safe for concurrent
// use without locking.
type Registry struct {
	version string
	hooks   []hook.Definition
	index   map[string]int
}

// Load parses the embedded definition document and builds the registry.
// Malformed embedded data is a build defect; callers treat a non-nil
// error as startup-fatal.
func Load() (*Registry, error) {
	return loadFrom(definitionsYAML)
}

// MustLoad is Load for wiring paths where the registry is a precondition
// of everything else. Panics on malformed embedded data.
func MustLoad() *Registry {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return r
}

func loadFrom(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeHookRegistryLoadInvalid,
			"parsing hook definition document")
	}

	if doc.Version == "" {
		return nil, inkerr.New(inkerr.CodeHookRegistryLoadInvalid,
			"hook definition document has no version")
	}
	if len(doc.Hooks) == 0 {
		return nil, inkerr.New(inkerr.CodeHookRegistryLoadInvalid,
			"hook definition document has no hooks")
	}

	index := make(map[string]int, len(doc.Hooks))
	for i, def := range doc.Hooks {
		if def.Name == "" {
			return nil, inkerr.Errorf(inkerr.CodeHookRegistryLoadInvalid,
				"hook definition at position %d has no name", i)
		}
		if def.HookType != hook.TypeFilter && def.HookType != hook.TypeAction {
			return nil, inkerr.Errorf(inkerr.CodeHookRegistryLoadInvalid,
				"hook %q has invalid hook_type %q", def.Name, def.HookType)
		}
		switch def.Scope {
		case hook.ScopeBackend, hook.ScopeFrontend, hook.ScopeBoth:
		default:
			return nil, inkerr.Errorf(inkerr.CodeHookRegistryLoadInvalid,
				"hook %q has invalid scope %q", def.Name, def.Scope)
		}
		if _, dup := index[def.Name]; dup {
			return nil, inkerr.Errorf(inkerr.CodeHookRegistryLoadInvalid,
				"duplicate hook name %q", def.Name)
		}
		index[def.Name] = i
	}

	return &Registry{
		version: doc.Version,
		hooks:   doc.Hooks,
		index:   index,
	}, nil
}

// Version returns the catalog version string.
func (r *Registry) Version() string {
	return r.version
}

// Get returns the definition for name, if present.
func (r *Registry) Get(name string) (hook.Definition, bool) {
	i, ok := r.index[name]
	if !ok {
		return hook.Definition{}, false
	}
	return r.hooks[i], true
}

// Contains reports whether name is a registered hook.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// AllNames returns every hook name in document order.
func (r *Registry) AllNames() []string {
	names := make([]string, len(r.hooks))
	for i, def := range r.hooks {
		names[i] = def.Name
	}
	return names
}

// All returns every definition in document order. The returned slice is a
// copy; the registry stays immutable.
func (r *Registry) All() []hook.Definition {
	out := make([]hook.Definition, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// ByScope returns all definitions whose scope equals the given scope or Both.
func (r *Registry) ByScope(scope hook.Scope) []hook.Definition {
	var out []hook.Definition
	for _, def := range r.hooks {
		if def.Scope.Includes(scope) {
			out = append(out, def)
		}
	}
	return out
}
