// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Command hookworker executes one untrusted plugin module export in
// complete process isolation: it reads a single JSON request on stdin,
// runs the export under a fuel budget, writes a single JSON line to
// stdout, and exits. It is spawned fresh for every sandboxed hook
// invocation and never accepts a second request.
package main

import (
	"os"

	"github.com/inkpress-dev/inkpress/internal/hook/worker"
)

func main() {
	if err := worker.Run(os.Stdin, os.Stdout); err != nil {
		os.Exit(1)
	}
}
