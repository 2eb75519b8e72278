// machine_io.go - Frontend interface consumed by the CHIP-8 engine

package main

import (
	"fmt"
)

// IOError provides detailed error context for frontend operations
type IOError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("io %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("io %s failed: %s", e.Operation, e.Details)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IOConfig carries the frontend-independent presentation settings.
type IOConfig struct {
	Title  string
	Scale  int    // integer pixel scaling factor for windowed frontends
	Beeper Beeper // sound cue sink; never nil (use the null beeper to mute)
}

// MachineIO is the boundary the engine talks to: framebuffer, keypad and
// sound cue. PollKeys returns the 16-key snapshot plus whether the
// frontend has delivered a quit signal (window close, Escape, Ctrl-C).
// Quit is sticky: once delivered it stays set.
type MachineIO interface {
	// Lifecycle management
	Start() error
	Stop() error
	IsStarted() bool

	// Engine-facing operations
	Clear()
	DrawSprite(x, y uint8, rows []byte) bool
	PollKeys() ([16]bool, bool)
	Beep()

	// Framebuffer access for screenshots, scripting and tests
	Display() *Display
}

// Control events a frontend may raise outside the CHIP-8 keypad.
const (
	CONTROL_PAUSE = iota
	CONTROL_RESET
)

// ControlCapable is an optional frontend interface for machine control
// keys (pause, reset). Frontends without such keys simply don't
// implement it.
type ControlCapable interface {
	SetControlHandler(handler func(event int))
}

// KeySettable is an optional frontend interface for injecting keypad
// state, implemented by the headless frontend for scripts and tests.
type KeySettable interface {
	SetKey(key uint8, down bool)
	SetQuit()
}

// Predefined frontend backend types
const (
	IO_BACKEND_EBITEN   = iota // windowed, pure Go
	IO_BACKEND_TERMINAL        // ANSI rendering on a raw-mode TTY
	IO_BACKEND_SDL             // requires building with -tags sdl
	IO_BACKEND_HEADLESS        // offscreen, for scripts and CI
)

// NewMachineIO creates a frontend instance using the specified backend.
func NewMachineIO(backend int, config IOConfig) (MachineIO, error) {
	if config.Beeper == nil {
		config.Beeper = NewNullBeeper()
	}
	if config.Scale <= 0 {
		config.Scale = DEFAULT_DISPLAY_SCALE
	}
	switch backend {
	case IO_BACKEND_EBITEN:
		return NewEbitenIO(config)
	case IO_BACKEND_TERMINAL:
		return NewTerminalIO(config)
	case IO_BACKEND_SDL:
		return NewSDLIO(config)
	case IO_BACKEND_HEADLESS:
		return NewHeadlessIO(config)
	}
	return nil, &IOError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}

const DEFAULT_DISPLAY_SCALE = 10
