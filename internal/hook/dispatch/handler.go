// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkpress-dev/inkpress/internal/hook/sandbox"
	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// Handler is the one capability the dispatcher needs from a hook handler,
// regardless of whether it runs in-process or in a sandbox worker. The set
// of implementations is closed (NativeHandler, SandboxedHandler) so the
// dispatcher's failure isolation stays uniform across kinds.
type Handler interface {
	// Invoke runs the handler against payload and returns the replacement
	// payload. For filter hooks the result feeds the next handler; for
	// action hooks it is discarded.
	Invoke(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

	// Kind names the handler variant for log attribution.
	Kind() string
}

// NativeFunc is the signature of an in-process hook handler.
type NativeFunc func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)

// NativeHandler runs a compiled-in handler function. Panics in the
// function are converted to errors so a broken builtin gets the same
// isolation as a broken plugin.
type NativeHandler struct {
	fn NativeFunc
}

// NewNativeHandler wraps fn as a Handler.
func NewNativeHandler(fn NativeFunc) *NativeHandler {
	return &NativeHandler{fn: fn}
}

func (h *NativeHandler) Kind() string { return "native" }

func (h *NativeHandler) Invoke(ctx context.Context, payload json.RawMessage) (out json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = inkerr.New(inkerr.CodeHookDispatchFailure,
				fmt.Sprintf("handler panic: %v", r))
		}
	}()

	return h.fn(ctx, payload)
}

// SandboxedHandler runs a plugin's module export through the sandbox
// worker protocol, one fresh process per invocation.
type SandboxedHandler struct {
	runner   *sandbox.Runner
	wasmPath string
	funcName string
}

// NewSandboxedHandler binds a module export to the given runner.
func NewSandboxedHandler(runner *sandbox.Runner, wasmPath, funcName string) *SandboxedHandler {
	return &SandboxedHandler{
		runner:   runner,
		wasmPath: wasmPath,
		funcName: funcName,
	}
}

func (h *SandboxedHandler) Kind() string { return "sandboxed" }

// Invoke runs the export. An empty worker output means "no modification"
// by convention and echoes the input payload; non-empty output must be
// valid JSON to enter the filter pipe.
func (h *SandboxedHandler) Invoke(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	out, err := h.runner.Invoke(ctx, h.wasmPath, h.funcName, payload)
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return payload, nil
	}

	if !json.Valid(out) {
		return nil, inkerr.New(inkerr.CodeSandboxProtocolInvalid,
			"module produced non-JSON output")
	}

	return json.RawMessage(out), nil
}
