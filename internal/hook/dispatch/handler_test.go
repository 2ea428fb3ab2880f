// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package dispatch_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress-dev/inkpress/internal/hook/dispatch"
	"github.com/inkpress-dev/inkpress/internal/hook/sandbox"
	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// scriptedRunner builds a sandbox.Runner over a shell script faking the
// worker's single-response protocol.
func scriptedRunner(t *testing.T, script string) *sandbox.Runner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hookworker")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))

	r, err := sandbox.NewRunner(path)
	require.NoError(t, err)
	return r
}

func TestNativeHandler_Kind(t *testing.T) {
	h := dispatch.NewNativeHandler(func(_ context.Context, p json.RawMessage) (json.RawMessage, error) {
		return p, nil
	})
	assert.Equal(t, "native", h.Kind())
}

func TestSandboxedHandler_EmptyOutputEchoesPayload(t *testing.T) {
	// No "output" field in the response: the module made no modification.
	runner := scriptedRunner(t, `cat > /dev/null; echo '{"success":true}'`)
	h := dispatch.NewSandboxedHandler(runner, "/plugins/demo/plugin.wasm", "hook_main")

	payload := json.RawMessage(`{"title":"unchanged"}`)
	out, err := h.Invoke(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
	assert.Equal(t, "sandboxed", h.Kind())
}

func TestSandboxedHandler_ReplacesPayload(t *testing.T) {
	// base64(`{"title":"rewritten"}`)
	runner := scriptedRunner(t,
		`cat > /dev/null; echo '{"success":true,"output":"eyJ0aXRsZSI6InJld3JpdHRlbiJ9"}'`)
	h := dispatch.NewSandboxedHandler(runner, "/plugins/demo/plugin.wasm", "hook_main")

	out, err := h.Invoke(context.Background(), json.RawMessage(`{"title":"old"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"rewritten"}`, string(out))
}

func TestSandboxedHandler_RejectsNonJSONOutput(t *testing.T) {
	// base64("not json at all")
	runner := scriptedRunner(t,
		`cat > /dev/null; echo '{"success":true,"output":"bm90IGpzb24gYXQgYWxs"}'`)
	h := dispatch.NewSandboxedHandler(runner, "/plugins/demo/plugin.wasm", "hook_main")

	_, err := h.Invoke(context.Background(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, inkerr.HasCode(err, inkerr.CodeSandboxProtocolInvalid))
}
