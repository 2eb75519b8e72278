// video_backend_headless.go - Offscreen frontend for scripts, CI and tests

package main

import (
	"sync"
)

// HeadlessIO renders nowhere and takes keypad state by injection instead
// of from real input hardware. It backs -backend headless runs (script
// automation) and the test rigs.
type HeadlessIO struct {
	display *Display
	beeper  Beeper

	mutex   sync.Mutex
	keys    [16]bool
	quit    bool
	started bool
}

func NewHeadlessIO(config IOConfig) (*HeadlessIO, error) {
	beeper := config.Beeper
	if beeper == nil {
		beeper = NewNullBeeper()
	}
	return &HeadlessIO{
		display: NewDisplay(),
		beeper:  beeper,
	}, nil
}

func (h *HeadlessIO) Start() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.started = true
	return nil
}

func (h *HeadlessIO) Stop() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.started = false
	return nil
}

func (h *HeadlessIO) IsStarted() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.started
}

func (h *HeadlessIO) Clear() {
	h.display.Clear()
}

func (h *HeadlessIO) DrawSprite(x, y uint8, rows []byte) bool {
	return h.display.DrawSprite(x, y, rows)
}

func (h *HeadlessIO) PollKeys() ([16]bool, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.keys, h.quit
}

func (h *HeadlessIO) Beep() {
	h.beeper.Beep()
}

func (h *HeadlessIO) Display() *Display {
	return h.display
}

// SetKey injects keypad state, pressing or releasing one key.
func (h *HeadlessIO) SetKey(key uint8, down bool) {
	if key > 0xF {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.keys[key] = down
}

// SetQuit delivers the external quit signal. Like the windowed
// frontends, quit is sticky.
func (h *HeadlessIO) SetQuit() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.quit = true
}
