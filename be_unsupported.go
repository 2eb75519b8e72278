//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// The oto beeper hands float32 sample buffers to the device as raw
// little-endian bytes via unsafe.Pointer reinterpretation.
var _ = "Cosmac Engine requires a little-endian architecture" + 1
