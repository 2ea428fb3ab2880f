// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// setTestCoreEnv points the global config at throwaway locations so
// commands that wire the full core never touch the working directory.
func setTestCoreEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	pluginsDir := filepath.Join(dir, "plugins")
	require.NoError(t, os.MkdirAll(pluginsDir, 0o755))
	t.Setenv("INKPRESS_PLUGINS_DIR", pluginsDir)
	t.Setenv("INKPRESS_PLUGINS_DB_PATH", filepath.Join(dir, "state.db"))
	return pluginsDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "inkpress")
	assert.Contains(t, out, "hooks")
	assert.Contains(t, out, "plugin")
	assert.Contains(t, out, "version")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "inkpress dev")
}

func TestHooksListCommand(t *testing.T) {
	out, err := execute(t, "hooks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "article_before_create")
	assert.Contains(t, out, "frontend_head")
}

func TestHooksListCommand_ScopeFilter(t *testing.T) {
	out, err := execute(t, "hooks", "list", "--scope", "frontend")
	require.NoError(t, err)
	assert.Contains(t, out, "frontend_head")
	assert.NotContains(t, out, "article_before_create")
}

func TestHooksDocsCommand(t *testing.T) {
	out, err := execute(t, "hooks", "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "# Inkpress hook catalog")
	assert.Contains(t, out, "## article")
	assert.Contains(t, out, "### `article_before_create`")
	assert.Contains(t, out, "- Type: filter")
}

func TestHooksFireCommand_RejectsBadPayload(t *testing.T) {
	setTestCoreEnv(t)
	_, err := execute(t, "hooks", "fire", "excerpt_generate", "--payload", "not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid JSON")
}

func TestHooksFireCommand_RunsBuiltins(t *testing.T) {
	setTestCoreEnv(t)
	out, err := execute(t, "hooks", "fire", "excerpt_generate",
		"--payload", `{"content":"hello fire"}`)
	require.NoError(t, err)
	assert.Equal(t, "hello fire", gjson.Get(out, "excerpt").String())
}

func TestHooksFireCommand_PayloadFile(t *testing.T) {
	setTestCoreEnv(t)
	path := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"content":"from a file"}`), 0o644))

	out, err := execute(t, "hooks", "fire", "excerpt_generate", "--payload-file", path)
	require.NoError(t, err)
	assert.Equal(t, "from a file", gjson.Get(out, "excerpt").String())
}

func TestPluginListCommand_Empty(t *testing.T) {
	setTestCoreEnv(t)
	out, err := execute(t, "plugin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No plugins discovered")
}

func TestPluginListCommand_ShowsDiscovered(t *testing.T) {
	pluginsDir := setTestCoreEnv(t)
	dir := filepath.Join(pluginsDir, "demo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.yaml"), []byte(`
id: demo
name: Demo
version: 1.0.0
module: plugin.wasm
backend_hooks:
  - hook: article_before_create
`), 0o644))

	out, err := execute(t, "plugin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "1.0.0")
}

func TestPluginEnableCommand_UnknownPlugin(t *testing.T) {
	setTestCoreEnv(t)
	_, err := execute(t, "plugin", "enable", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPluginDisableCommand(t *testing.T) {
	pluginsDir := setTestCoreEnv(t)
	dir := filepath.Join(pluginsDir, "demo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.yaml"), []byte(`
id: demo
name: Demo
version: 1.0.0
module: plugin.wasm
backend_hooks:
  - hook: article_before_create
`), 0o644))

	out, err := execute(t, "plugin", "disable", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, `Plugin "demo" disabled`)

	out, err = execute(t, "plugin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "false")
}

func TestRootCommand_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins: [unclosed"), 0o644))

	_, err := execute(t, "--config", path, "hooks", "list")
	require.Error(t, err)
}
