//go:build !windows

// video_backend_terminal.go - ANSI half-block frontend on a raw-mode TTY

package main

import (
	"bytes"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"
)

const (
	TERMINAL_FRAME_INTERVAL = 33 * time.Millisecond

	// Raw terminals report key repeats, never releases, so a key counts
	// as held for a short window after each byte arrives.
	TERMINAL_KEY_HOLD = 200 * time.Millisecond
)

// terminalKeymap mirrors the windowed layout: 1234 / QWER / ASDF / ZXCV.
var terminalKeymap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// TerminalIO renders the framebuffer with Unicode half-blocks, two pixel
// rows per text row, at a fixed repaint interval. Input comes from raw
// non-blocking stdin reads.
type TerminalIO struct {
	display *Display
	beeper  Beeper

	fd          int
	oldState    *term.State
	nonblockSet bool

	stateMutex     sync.Mutex
	keyDeadline    [16]time.Time
	paused         bool
	controlHandler func(event int)

	quit    atomic.Bool
	started atomic.Bool

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewTerminalIO(config IOConfig) (*TerminalIO, error) {
	beeper := config.Beeper
	if beeper == nil {
		beeper = NewNullBeeper()
	}
	return &TerminalIO{
		display: NewDisplay(),
		beeper:  beeper,
		stopCh:  make(chan struct{}),
	}, nil
}

func (t *TerminalIO) Start() error {
	if t.started.Load() {
		return nil
	}

	t.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(t.fd) {
		return &IOError{Operation: "start", Details: "stdin is not a terminal"}
	}

	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		return &IOError{Operation: "start", Details: "failed to set raw mode", Err: err}
	}
	t.oldState = oldState

	// Non-blocking reads let the input goroutine observe stopCh instead
	// of sitting in a blocked read until the next keypress.
	if err := syscall.SetNonblock(t.fd, true); err != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
		return &IOError{Operation: "start", Details: "failed to set nonblocking stdin", Err: err}
	}
	t.nonblockSet = true

	os.Stdout.WriteString("\x1b[2J\x1b[?25l")
	t.started.Store(true)

	t.wg.Add(2)
	go t.inputLoop()
	go t.renderLoop()
	return nil
}

func (t *TerminalIO) Stop() error {
	if !t.started.Load() {
		return nil
	}
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	t.wg.Wait()

	if t.nonblockSet {
		_ = syscall.SetNonblock(t.fd, false)
		t.nonblockSet = false
	}
	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
	os.Stdout.WriteString("\x1b[0m\x1b[?25h\r\n")
	t.started.Store(false)
	return nil
}

func (t *TerminalIO) IsStarted() bool {
	return t.started.Load()
}

func (t *TerminalIO) Clear() {
	t.display.Clear()
}

func (t *TerminalIO) DrawSprite(x, y uint8, rows []byte) bool {
	return t.display.DrawSprite(x, y, rows)
}

func (t *TerminalIO) PollKeys() ([16]bool, bool) {
	var keys [16]bool
	now := time.Now()
	t.stateMutex.Lock()
	for k, deadline := range t.keyDeadline {
		keys[k] = now.Before(deadline)
	}
	t.stateMutex.Unlock()
	return keys, t.quit.Load()
}

func (t *TerminalIO) Beep() {
	t.beeper.Beep()
}

func (t *TerminalIO) Display() *Display {
	return t.display
}

func (t *TerminalIO) SetControlHandler(handler func(event int)) {
	t.stateMutex.Lock()
	t.controlHandler = handler
	t.stateMutex.Unlock()
}

func (t *TerminalIO) control(event int) {
	t.stateMutex.Lock()
	handler := t.controlHandler
	t.stateMutex.Unlock()
	if handler != nil {
		handler(event)
	}
}

func (t *TerminalIO) inputLoop() {
	defer t.wg.Done()
	buf := make([]byte, 1)

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, err := syscall.Read(t.fd, buf)
		if n > 0 {
			t.handleByte(buf[0])
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (t *TerminalIO) handleByte(b byte) {
	switch b {
	case 0x1B, 0x03: // Escape, Ctrl-C
		t.quit.Store(true)
		return
	case 'p', 'P':
		t.stateMutex.Lock()
		t.paused = !t.paused
		t.stateMutex.Unlock()
		t.control(CONTROL_PAUSE)
		return
	case 0x12: // Ctrl-R
		t.control(CONTROL_RESET)
		return
	}

	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	pad, ok := terminalKeymap[b]
	if !ok {
		return
	}
	t.stateMutex.Lock()
	t.keyDeadline[pad] = time.Now().Add(TERMINAL_KEY_HOLD)
	t.stateMutex.Unlock()
}

func (t *TerminalIO) renderLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(TERMINAL_FRAME_INTERVAL)
	defer ticker.Stop()

	var frame bytes.Buffer
	var pixels [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool
	rendered := false
	lastGeneration := uint64(0)
	lastPaused := false

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
		}

		generation := t.display.Generation()
		t.stateMutex.Lock()
		paused := t.paused
		t.stateMutex.Unlock()
		if rendered && generation == lastGeneration && paused == lastPaused {
			continue
		}
		rendered = true
		lastGeneration = generation
		lastPaused = paused

		t.display.CopyPixels(&pixels)
		t.renderFrame(&frame, &pixels, paused)
	}
}

func (t *TerminalIO) renderFrame(frame *bytes.Buffer, pixels *[DISPLAY_HEIGHT][DISPLAY_WIDTH]bool, paused bool) {
	frame.Reset()
	frame.WriteString("\x1b[H\x1b[38;2;232;244;232m\x1b[48;2;16;20;16m")
	for y := 0; y < DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			top := pixels[y][x]
			bottom := pixels[y+1][x]
			switch {
			case top && bottom:
				frame.WriteRune('█')
			case top:
				frame.WriteRune('▀')
			case bottom:
				frame.WriteRune('▄')
			default:
				frame.WriteByte(' ')
			}
		}
		frame.WriteString("\r\n")
	}
	frame.WriteString("\x1b[0m\x1b[2mESC quit   P pause   ^R reset\x1b[0m")
	if paused {
		frame.WriteString("   \x1b[7m PAUSED \x1b[0m")
	}
	frame.WriteString("\x1b[0K")
	_, _ = os.Stdout.Write(frame.Bytes())
}
