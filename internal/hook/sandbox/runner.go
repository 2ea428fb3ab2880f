// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package sandbox is the host side of the hook sandbox protocol. It spawns
// one worker subprocess per invocation, exchanges a single JSON request and
// response over the worker's pipes, and enforces the wall-clock timeout the
// worker's fuel budget cannot provide. The worker and the host share no
// state except the bytes on the pipe; any worker failure, from a module
// trap to a SIGKILL, surfaces here as an ordinary error.
package sandbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// DefaultTimeout bounds a single worker invocation in wall-clock time.
// Fuel bounds instructions, not time; a worker stuck without consuming
// fuel is killed when this expires.
const DefaultTimeout = 10 * time.Second

// waitDelay bounds how long Wait may block on the worker's pipes after
// the process is gone. A killed worker can leave descendants holding the
// inherited pipe ends open.
const waitDelay = time.Second

// errWorkerTimeout marks a cancellation caused by the runner's own
// wall-clock budget, as opposed to a deadline the caller already carried.
var errWorkerTimeout = errors.New("worker wall-clock budget exhausted")

// request and response mirror the worker's wire types. They are declared
// here rather than imported so the host binary never links the bytecode
// runtime.
type request struct {
	WasmPath string `json:"wasm_path"`
	FuncName string `json:"func_name"`
	Input    string `json:"input"`
}

type response struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner spawns hook worker subprocesses. Safe for concurrent use; each
// invocation is an independent process.
type Runner struct {
	workerPath string
	timeout    time.Duration
	bubblewrap bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides the wall-clock timeout for worker invocations.
// Non-positive values fall back to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBubblewrap wraps the worker command in bwrap on Linux for an extra
// filesystem and namespace boundary around the already-isolated process.
func WithBubblewrap(enabled bool) Option {
	return func(r *Runner) {
		r.bubblewrap = enabled
	}
}

// NewRunner creates a Runner that spawns the worker binary at workerPath.
func NewRunner(workerPath string, opts ...Option) (*Runner, error) {
	if strings.TrimSpace(workerPath) == "" {
		return nil, inkerr.New(inkerr.CodeSandboxPathInvalid,
			"worker path must not be empty")
	}

	r := &Runner{
		workerPath: workerPath,
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}

	return r, nil
}

// Invoke executes funcName from the module at wasmPath in a fresh worker
// process, passing input through the protocol, and returns the output
// bytes. An empty output means the module made no modification.
func (r *Runner) Invoke(ctx context.Context, wasmPath, funcName string, input []byte) ([]byte, error) {
	invocationID := uuid.NewString()

	ctx, cancel := context.WithTimeoutCause(ctx, r.timeout, errWorkerTimeout)
	defer cancel()

	argv, err := r.command(wasmPath)
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(request{
		WasmPath: wasmPath,
		FuncName: funcName,
		Input:    base64.StdEncoding.EncodeToString(input),
	})
	if err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeSandboxSpawnFailure,
			"encoding worker request", inkerr.FieldInvocation(invocationID))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(reqBody)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	slog.Debug("spawning hook worker",
		"invocation_id", invocationID,
		"wasm_path", wasmPath,
		"func_name", funcName)

	runErr := cmd.Run()

	if errors.Is(context.Cause(ctx), errWorkerTimeout) {
		return nil, inkerr.New(inkerr.CodeSandboxTimeout,
			"worker exceeded wall-clock timeout",
			inkerr.FieldInvocation(invocationID),
			inkerr.Field("timeout", r.timeout.String()))
	}
	if runErr != nil {
		return nil, inkerr.Wrap(runErr, inkerr.CodeSandboxSpawnFailure,
			"running hook worker",
			inkerr.FieldInvocation(invocationID),
			inkerr.Field("stderr", truncate(stderr.String(), 512)))
	}

	return parseResponse(stdout.Bytes(), invocationID)
}

func parseResponse(out []byte, invocationID string) ([]byte, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, inkerr.New(inkerr.CodeSandboxProtocolInvalid,
			"worker produced no response", inkerr.FieldInvocation(invocationID))
	}
	if !utf8.Valid(trimmed) {
		return nil, inkerr.New(inkerr.CodeSandboxProtocolInvalid,
			"worker produced non-UTF8 output", inkerr.FieldInvocation(invocationID))
	}

	var resp response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeSandboxProtocolInvalid,
			"parsing worker response", inkerr.FieldInvocation(invocationID))
	}

	if !resp.Success {
		return nil, inkerr.New(inkerr.CodeSandboxExecFailure, resp.Error,
			inkerr.FieldInvocation(invocationID))
	}

	output, err := base64.StdEncoding.DecodeString(resp.Output)
	if err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeSandboxProtocolInvalid,
			"decoding worker output", inkerr.FieldInvocation(invocationID))
	}

	return output, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
