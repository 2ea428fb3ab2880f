// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package worker

// Test fixtures are tiny wasm modules assembled byte by byte so the tests
// stay self-contained — no checked-in binaries, no toolchain dependency.
// Only the handful of opcodes the sandbox ABI exercises are used.

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// uleb encodes an unsigned LEB128 value.
func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// sleb encodes a signed LEB128 value (for i32.const immediates).
func sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

// vec prefixes a concatenation of items with their count.
func vec(items ...[]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func exportEntry(name string, kind byte, index uint32) []byte {
	out := uleb(uint32(len(name)))
	out = append(out, name...)
	out = append(out, kind)
	return append(out, uleb(index)...)
}

func funcBody(localsDecl, code []byte) []byte {
	body := append(append([]byte{}, localsDecl...), code...)
	return append(uleb(uint32(len(body))), body...)
}

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const (
	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Store  = 0x36
	opI32Const  = 0x41
	opI32Add    = 0x6a
	opCall      = 0x10
	opLoop      = 0x03
	opBr        = 0x0c
	opEnd       = 0x0b
)

// typeI32ToI32 is (i32) -> i32, typeI32I32ToI32 is (i32, i32) -> i32,
// typeVoidToI32 is () -> i32.
var (
	typeI32ToI32    = []byte{0x60, 0x01, 0x7f, 0x01, 0x7f}
	typeI32I32ToI32 = []byte{0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f}
	typeVoidToI32   = []byte{0x60, 0x00, 0x01, 0x7f}
)

// memorySection declares one memory with min 1 page (64 KiB), no max.
var memorySection = section(5, vec([]byte{0x00, 0x01}))

// bumpAllocatorBody implements allocate(len) -> ptr against a mutable
// global bump pointer at global 0: returns the old value and advances it.
func bumpAllocatorBody() []byte {
	return funcBody(
		vec(cat(uleb(1), []byte{0x7f})), // one extra i32 local
		[]byte{
			opGlobalGet, 0x00,
			opLocalSet, 0x01,
			opGlobalGet, 0x00,
			opLocalGet, 0x00,
			opI32Add,
			opGlobalSet, 0x00,
			opLocalGet, 0x01,
			opEnd,
		},
	)
}

// heapGlobal declares global 0: mutable i32 initialised to 1024.
var heapGlobal = section(6, vec(cat(
	[]byte{0x7f, 0x01, opI32Const}, sleb(1024), []byte{opEnd},
)))

// buildEchoModule assembles a module implementing the full data-passing
// convention: allocate is a bump allocator, and hook_main copies its
// input region into a fresh allocation behind a 4-byte LE length prefix.
func buildEchoModule() []byte {
	// hook_main(ptr, len) -> out: out = allocate(len + 4);
	// store32(out, len); memory.copy(out + 4, ptr, len); return out.
	hookMain := funcBody(
		vec(cat(uleb(1), []byte{0x7f})), // local 2: out
		[]byte{
			opLocalGet, 0x01,
			opI32Const, 0x04,
			opI32Add,
			opCall, 0x00,
			opLocalSet, 0x02,
			opLocalGet, 0x02,
			opLocalGet, 0x01,
			opI32Store, 0x02, 0x00,
			opLocalGet, 0x02,
			opI32Const, 0x04,
			opI32Add,
			opLocalGet, 0x00,
			opLocalGet, 0x01,
			0xfc, 0x0a, 0x00, 0x00, // memory.copy
			opLocalGet, 0x02,
			opEnd,
		},
	)

	return cat(
		wasmHeader,
		section(1, vec(typeI32ToI32, typeI32I32ToI32)),
		section(3, vec([]byte{0x00}, []byte{0x01})),
		memorySection,
		heapGlobal,
		section(7, vec(
			exportEntry("memory", 0x02, 0),
			exportEntry("allocate", 0x00, 0),
			exportEntry("hook_main", 0x00, 1),
		)),
		section(10, vec(bumpAllocatorBody(), hookMain)),
	)
}

// buildNoopModule assembles a data-passing module whose hook_main always
// returns 0, the convention's "no modification" signal.
func buildNoopModule() []byte {
	hookMain := funcBody(
		vec(),
		[]byte{opI32Const, 0x00, opEnd},
	)

	return cat(
		wasmHeader,
		section(1, vec(typeI32ToI32, typeI32I32ToI32)),
		section(3, vec([]byte{0x00}, []byte{0x01})),
		memorySection,
		heapGlobal,
		section(7, vec(
			exportEntry("memory", 0x02, 0),
			exportEntry("allocate", 0x00, 0),
			exportEntry("hook_main", 0x00, 1),
		)),
		section(10, vec(bumpAllocatorBody(), hookMain)),
	)
}

// buildBadAllocModule assembles a module whose allocate returns a pointer
// far past the end of its single memory page.
func buildBadAllocModule() []byte {
	badAlloc := funcBody(
		vec(),
		cat([]byte{opI32Const}, sleb(0x00ffffff), []byte{opEnd}),
	)
	hookMain := funcBody(
		vec(),
		[]byte{opI32Const, 0x00, opEnd},
	)

	return cat(
		wasmHeader,
		section(1, vec(typeI32ToI32, typeI32I32ToI32)),
		section(3, vec([]byte{0x00}, []byte{0x01})),
		memorySection,
		section(7, vec(
			exportEntry("memory", 0x02, 0),
			exportEntry("allocate", 0x00, 0),
			exportEntry("hook_main", 0x00, 1),
		)),
		section(10, vec(badAlloc, hookMain)),
	)
}

// buildSpinModule assembles a fallback-convention module whose only
// export spins forever, so only fuel exhaustion can stop it.
func buildSpinModule() []byte {
	spin := funcBody(
		vec(),
		[]byte{
			opLoop, 0x40,
			opBr, 0x00,
			opEnd,
			opI32Const, 0x00,
			opEnd,
		},
	)

	return cat(
		wasmHeader,
		section(1, vec(typeVoidToI32)),
		section(3, vec([]byte{0x00})),
		memorySection,
		section(7, vec(
			exportEntry("memory", 0x02, 0),
			exportEntry("spin", 0x00, 0),
		)),
		section(10, vec(spin)),
	)
}

// buildFallbackModule assembles a module with a memory export but no
// allocate, so only the () -> i32 side-effect convention applies.
func buildFallbackModule() []byte {
	run := funcBody(
		vec(),
		[]byte{opI32Const, 0x00, opEnd},
	)

	return cat(
		wasmHeader,
		section(1, vec(typeVoidToI32)),
		section(3, vec([]byte{0x00})),
		memorySection,
		section(7, vec(
			exportEntry("memory", 0x02, 0),
			exportEntry("run", 0x00, 0),
		)),
		section(10, vec(run)),
	)
}

// buildNoMemoryModule assembles a module exporting a function but no
// linear memory.
func buildNoMemoryModule() []byte {
	noop := funcBody(
		vec(),
		[]byte{opI32Const, 0x00, opEnd},
	)

	return cat(
		wasmHeader,
		section(1, vec(typeVoidToI32)),
		section(3, vec([]byte{0x00})),
		section(7, vec(
			exportEntry("run", 0x00, 0),
		)),
		section(10, vec(noop)),
	)
}

// writeModule drops module bytes into a temp file and returns its path.
func writeModule(t *testing.T, module []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.wasm")
	require.NoError(t, os.WriteFile(path, module, 0o644))
	return path
}
