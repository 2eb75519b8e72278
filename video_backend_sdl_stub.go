//go:build !sdl || headless

// video_backend_sdl_stub.go - placeholder when built without -tags sdl

package main

func NewSDLIO(config IOConfig) (MachineIO, error) {
	return nil, &IOError{
		Operation: "backend creation",
		Details:   "built without SDL support (rebuild with -tags sdl)",
	}
}
