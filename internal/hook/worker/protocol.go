// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package worker implements the sandbox worker side of the hook sandbox
// protocol: one JSON request on stdin, one fuel-metered execution of an
// untrusted module export, one JSON line on stdout, exit. No invocation
// state survives the process; every failure mode the module can produce
// becomes either a structured error response or an OS-level process exit
// the host observes as a closed pipe.
//
// Aside from the bytecode runtime the worker depends only on the standard
// library; even base64 is implemented locally so the protocol dialect is
// pinned by this package, not by a library.
package worker

import (
	"encoding/json"
	"fmt"
	"io"
)

// Request is the single JSON document the host writes to the worker.
type Request struct {
	WasmPath string `json:"wasm_path"`
	FuncName string `json:"func_name"`
	Input    string `json:"input"`
}

// Response is the single JSON line the worker writes back.
type Response struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Run services exactly one request read from stdin and writes exactly one
// response line to stdout. Protocol- and sandbox-level failures are
// reported inside the response; the returned error is only non-nil when
// the response itself cannot be written.
func Run(stdin io.Reader, stdout io.Writer) error {
	return run(stdin, stdout, DefaultFuel)
}

func run(stdin io.Reader, stdout io.Writer, fuel uint64) error {
	resp := serve(stdin, fuel)

	enc := json.NewEncoder(stdout)
	return enc.Encode(resp)
}

func serve(stdin io.Reader, fuel uint64) Response {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return failure(fmt.Sprintf("Failed to read input: %v", err))
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return failure(fmt.Sprintf("Invalid JSON input: %v", err))
	}

	if req.WasmPath == "" {
		return failure("Missing 'wasm_path' field")
	}
	if req.FuncName == "" {
		return failure("Missing 'func_name' field")
	}

	input, err := b64Decode(req.Input)
	if err != nil {
		return failure(fmt.Sprintf("Invalid base64 input: %v", err))
	}

	output, err := execute(req.WasmPath, req.FuncName, input, fuel)
	if err != nil {
		return failure(err.Error())
	}

	return Response{Success: true, Output: b64Encode(output)}
}

func failure(msg string) Response {
	return Response{Success: false, Error: msg}
}
