//go:build headless

// video_backend_ebiten_headless.go - windowless stand-in for the Ebiten frontend

package main

// NewEbitenIO in headless builds hands back the offscreen frontend so
// code selecting IO_BACKEND_EBITEN still runs without a window system.
func NewEbitenIO(config IOConfig) (*HeadlessIO, error) {
	return NewHeadlessIO(config)
}
