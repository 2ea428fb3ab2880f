// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package wasm provides compile-only inspection of plugin modules at load
// time. Untrusted code is never executed here — modules are compiled so
// their export surface can be checked against a plugin's declared hook
// bindings, producing warnings before the first dispatch ever happens.
// Execution always goes through the sandbox worker.
package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// Inspector wraps a wazero runtime used purely for compilation.
type Inspector struct {
	runtime wazero.Runtime
}

// NewInspector creates an Inspector. Close it when discovery is done.
func NewInspector() *Inspector {
	return &Inspector{
		runtime: wazero.NewRuntime(context.Background()),
	}
}

// Close releases the underlying runtime and its compilation caches.
func (i *Inspector) Close(ctx context.Context) error {
	return i.runtime.Close(ctx)
}

// ModuleInfo is the export surface of a compiled module.
type ModuleInfo struct {
	functions map[string]bool
	hasMemory bool
}

// Inspect compiles wasmBytes and reports its export surface. A module
// that fails to compile is reported as an error; the caller treats it as
// a warning, not a load failure.
func (i *Inspector) Inspect(ctx context.Context, wasmBytes []byte) (*ModuleInfo, error) {
	compiled, err := i.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeHookInspectInvalidModule,
			"compiling plugin module")
	}
	defer func() { _ = compiled.Close(ctx) }()

	info := &ModuleInfo{
		functions: make(map[string]bool),
	}
	for name := range compiled.ExportedFunctions() {
		info.functions[name] = true
	}
	info.hasMemory = len(compiled.ExportedMemories()) > 0

	return info, nil
}

// HasExport reports whether the module exports a function with this name.
func (m *ModuleInfo) HasExport(name string) bool {
	return m.functions[name]
}

// HasMemory reports whether the module exports a linear memory, which the
// data-passing convention requires.
func (m *ModuleInfo) HasMemory() bool {
	return m.hasMemory
}

// HasAllocate reports whether the module supports the data-passing
// convention at all.
func (m *ModuleInfo) HasAllocate() bool {
	return m.functions["allocate"]
}
