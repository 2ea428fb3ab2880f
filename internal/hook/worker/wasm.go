// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package worker

import (
	"encoding/binary"
	"fmt"

	wasmtime "github.com/bytecodealliance/wasmtime-go/v25"
)

// DefaultFuel is the per-invocation CPU budget in abstract instruction
// units. Fuel bounds instructions consumed, not wall-clock time; the host
// side layers its own subprocess timeout on top.
const DefaultFuel = 1_000_000

// execute compiles the module at wasmPath in a fuel-metered engine and
// invokes funcName once with the given input bytes.
//
// Two calling conventions are tried in order. If the module exports
// allocate(len i32) -> i32, the data-passing convention applies: input is
// copied into linear memory at the returned pointer and funcName is called
// as (ptr, len) -> result_ptr, where a non-zero result points at a 4-byte
// little-endian length prefix followed by the output bytes. Without
// allocate, funcName is called as () -> i32 for side effects only.
//
// Every pointer/length pair coming back from the module is treated as
// untrusted: bounds are checked against the current memory size before any
// read or write, and an out-of-bounds result yields empty output rather
// than a read.
func execute(wasmPath, funcName string, input []byte, fuel uint64) ([]byte, error) {
	cfg := wasmtime.NewConfig()
	cfg.SetConsumeFuel(true)

	engine := wasmtime.NewEngineWithConfig(cfg)
	store := wasmtime.NewStore(engine)
	if err := store.SetFuel(fuel); err != nil {
		return nil, fmt.Errorf("Failed to set fuel budget: %v", err)
	}

	module, err := wasmtime.NewModuleFromFile(engine, wasmPath)
	if err != nil {
		return nil, fmt.Errorf("Failed to load WASM module: %v", err)
	}

	instance, err := wasmtime.NewInstance(store, module, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to instantiate WASM module: %v", err)
	}

	memExport := instance.GetExport(store, "memory")
	if memExport == nil || memExport.Memory() == nil {
		return nil, fmt.Errorf("Module does not export memory")
	}
	memory := memExport.Memory()

	fn := instance.GetFunc(store, funcName)
	if fn == nil {
		return nil, fmt.Errorf("Function '%s' not found in module", funcName)
	}

	if alloc := instance.GetFunc(store, "allocate"); alloc != nil {
		return callDataPassing(store, memory, alloc, fn, input)
	}

	// Fallback convention: () -> i32, side effects only.
	if _, err := fn.Call(store); err != nil {
		return nil, fmt.Errorf("Function execution failed: %v", err)
	}
	return nil, nil
}

func callDataPassing(store *wasmtime.Store, memory *wasmtime.Memory, alloc, fn *wasmtime.Func, input []byte) ([]byte, error) {
	allocRet, err := alloc.Call(store, int32(len(input)))
	if err != nil {
		return nil, fmt.Errorf("Allocation failed: %v", err)
	}

	ptr, ok := allocRet.(int32)
	if !ok {
		return nil, fmt.Errorf("allocate returned a non-i32 value")
	}
	if ptr < 0 || uint64(ptr)+uint64(len(input)) > uint64(memory.DataSize(store)) {
		return nil, fmt.Errorf("allocate returned out-of-bounds pointer %d for %d bytes", ptr, len(input))
	}

	copy(memory.UnsafeData(store)[ptr:int(ptr)+len(input)], input)

	callRet, err := fn.Call(store, ptr, int32(len(input)))
	if err != nil {
		return nil, fmt.Errorf("Function execution failed: %v", err)
	}

	resultPtr, ok := callRet.(int32)
	if !ok {
		return nil, fmt.Errorf("function returned a non-i32 value")
	}

	// Zero means "no modification" by convention.
	if resultPtr <= 0 {
		return nil, nil
	}

	// The call may have grown memory; re-fetch size and data.
	size := uint64(memory.DataSize(store))
	data := memory.UnsafeData(store)

	if uint64(resultPtr)+4 > size {
		return nil, nil
	}
	resultLen := binary.LittleEndian.Uint32(data[resultPtr : resultPtr+4])
	if uint64(resultPtr)+4+uint64(resultLen) > size {
		return nil, nil
	}

	out := make([]byte, resultLen)
	copy(out, data[uint32(resultPtr)+4:uint32(resultPtr)+4+resultLen])
	return out, nil
}
