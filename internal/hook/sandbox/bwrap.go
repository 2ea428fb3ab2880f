// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package sandbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

var (
	bwrapPath = "bwrap"

	// targetOS allows tests to override the OS for cross-platform testing.
	targetOS = runtime.GOOS

	// checkDirExists allows tests to stub filesystem existence checks.
	checkDirExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
)

// dangerousPathChars matches characters that enable bwrap argument
// confusion: quotes, parens, backslash, semicolons, control chars.
var dangerousPathChars = regexp.MustCompile(`["\\();\x00-\x1f]`)

func init() {
	if p, err := exec.LookPath("bwrap"); err == nil {
		bwrapPath = p
	}
}

// validatePath rejects paths containing characters that could be used for
// argument injection, plus leading dashes that bwrap would parse as flags.
func validatePath(path string) error {
	if path == "" {
		return inkerr.New(inkerr.CodeSandboxPathInvalid, "path must not be empty")
	}
	if strings.HasPrefix(path, "-") {
		return inkerr.Errorf(inkerr.CodeSandboxPathInvalid,
			"invalid path %q: must not start with dash", path)
	}
	if dangerousPathChars.MatchString(path) {
		return inkerr.Errorf(inkerr.CodeSandboxPathInvalid,
			"invalid path %q: contains disallowed characters", path)
	}
	return nil
}

// command builds the argv for one worker invocation, wrapping the worker in
// bubblewrap when enabled. The wasm module's directory is the only
// non-system path mounted into the sandbox, read-only.
func (r *Runner) command(wasmPath string) ([]string, error) {
	if err := validatePath(r.workerPath); err != nil {
		return nil, err
	}
	if err := validatePath(wasmPath); err != nil {
		return nil, err
	}

	if !r.bubblewrap {
		return []string{r.workerPath}, nil
	}

	if targetOS != "linux" {
		return nil, inkerr.Errorf(inkerr.CodeSandboxUnsupported,
			"bubblewrap hardening not supported on %s", targetOS)
	}

	moduleDir := filepath.Dir(wasmPath)

	args := []string{
		bwrapPath,
		"--ro-bind", "/usr", "/usr",
		"--ro-bind", "/lib", "/lib",
	}

	// Only mount /lib64 if it exists (absent on Alpine/musl systems).
	if checkDirExists("/lib64") {
		args = append(args, "--ro-bind", "/lib64", "/lib64")
	}

	args = append(args,
		"--ro-bind", "/bin", "/bin",
		"--ro-bind", r.workerPath, r.workerPath,
		"--ro-bind", moduleDir, moduleDir,
		"--proc", "/proc",
		"--dev", "/dev",
		"--tmpfs", "/tmp",
		"--unshare-all",
		"--die-with-parent",
		"--",
		r.workerPath,
	)

	return args, nil
}
