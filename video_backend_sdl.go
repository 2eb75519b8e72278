//go:build sdl && !headless

// video_backend_sdl.go - SDL2 windowed frontend, selected with -tags sdl

package main

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

const SDL_FRAME_INTERVAL = 16 * time.Millisecond

// sdlKeymap lays the CHIP-8 keypad over 1234 / QWER / ASDF / ZXCV,
// matching the other frontends.
var sdlKeymap = map[sdl.Scancode]uint8{
	sdl.SCANCODE_1: 0x1, sdl.SCANCODE_2: 0x2, sdl.SCANCODE_3: 0x3, sdl.SCANCODE_4: 0xC,
	sdl.SCANCODE_Q: 0x4, sdl.SCANCODE_W: 0x5, sdl.SCANCODE_E: 0x6, sdl.SCANCODE_R: 0xD,
	sdl.SCANCODE_A: 0x7, sdl.SCANCODE_S: 0x8, sdl.SCANCODE_D: 0x9, sdl.SCANCODE_F: 0xE,
	sdl.SCANCODE_Z: 0xA, sdl.SCANCODE_X: 0x0, sdl.SCANCODE_C: 0xB, sdl.SCANCODE_V: 0xF,
}

// SDLIO runs every SDL call on one locked OS thread inside runLoop. The
// engine-facing methods only touch the shared Display and key state.
type SDLIO struct {
	display *Display
	beeper  Beeper
	title   string
	scale   int

	window *sdl.Window // SDL thread only

	stateMutex     sync.Mutex
	keys           [16]bool
	paused         bool
	controlHandler func(event int)

	quit    atomic.Bool
	started atomic.Bool

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewSDLIO(config IOConfig) (*SDLIO, error) {
	beeper := config.Beeper
	if beeper == nil {
		beeper = NewNullBeeper()
	}
	scale := config.Scale
	if scale <= 0 {
		scale = DEFAULT_DISPLAY_SCALE
	}
	return &SDLIO{
		display: NewDisplay(),
		beeper:  beeper,
		title:   config.Title,
		scale:   scale,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

func (s *SDLIO) Start() error {
	if s.started.Load() {
		return nil
	}
	initErr := make(chan error, 1)
	go s.runLoop(initErr)
	if err := <-initErr; err != nil {
		return err
	}
	s.started.Store(true)
	return nil
}

func (s *SDLIO) Stop() error {
	if !s.started.Load() {
		return nil
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.done
	s.started.Store(false)
	return nil
}

func (s *SDLIO) IsStarted() bool {
	return s.started.Load()
}

func (s *SDLIO) Clear() {
	s.display.Clear()
}

func (s *SDLIO) DrawSprite(x, y uint8, rows []byte) bool {
	return s.display.DrawSprite(x, y, rows)
}

func (s *SDLIO) PollKeys() ([16]bool, bool) {
	s.stateMutex.Lock()
	keys := s.keys
	s.stateMutex.Unlock()
	return keys, s.quit.Load()
}

func (s *SDLIO) Beep() {
	s.beeper.Beep()
}

func (s *SDLIO) Display() *Display {
	return s.display
}

func (s *SDLIO) SetControlHandler(handler func(event int)) {
	s.stateMutex.Lock()
	s.controlHandler = handler
	s.stateMutex.Unlock()
}

func (s *SDLIO) control(event int) {
	s.stateMutex.Lock()
	handler := s.controlHandler
	s.stateMutex.Unlock()
	if handler != nil {
		handler(event)
	}
}

// runLoop owns window, renderer and the event pump. SDL requires all of
// these to stay on the thread that initialised them.
func (s *SDLIO) runLoop(initErr chan<- error) {
	runtime.LockOSThread()
	defer close(s.done)

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		initErr <- &IOError{Operation: "start", Details: "SDL init failed", Err: err}
		return
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(s.title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(DISPLAY_WIDTH*s.scale), int32(DISPLAY_HEIGHT*s.scale), sdl.WINDOW_SHOWN)
	if err != nil {
		initErr <- &IOError{Operation: "start", Details: "window creation failed", Err: err}
		return
	}
	defer window.Destroy()
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		initErr <- &IOError{Operation: "start", Details: "renderer creation failed", Err: err}
		return
	}
	defer renderer.Destroy()

	initErr <- nil

	ticker := time.NewTicker(SDL_FRAME_INTERVAL)
	defer ticker.Stop()

	var pixels [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		s.pumpEvents()
		s.display.CopyPixels(&pixels)
		s.drawFrame(renderer, &pixels)
	}
}

func (s *SDLIO) pumpEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			s.quit.Store(true)
		case *sdl.KeyboardEvent:
			s.handleKey(ev)
		}
	}
}

func (s *SDLIO) handleKey(ev *sdl.KeyboardEvent) {
	down := ev.GetType() == sdl.KEYDOWN

	switch ev.Keysym.Scancode {
	case sdl.SCANCODE_ESCAPE:
		if down {
			s.quit.Store(true)
		}
		return
	case sdl.SCANCODE_F1:
		if down && ev.Repeat == 0 {
			s.stateMutex.Lock()
			s.paused = !s.paused
			paused := s.paused
			s.stateMutex.Unlock()
			if paused {
				s.window.SetTitle(s.title + " [paused]")
			} else {
				s.window.SetTitle(s.title)
			}
			s.control(CONTROL_PAUSE)
		}
		return
	case sdl.SCANCODE_F2:
		if down && ev.Repeat == 0 {
			s.control(CONTROL_RESET)
		}
		return
	}

	pad, ok := sdlKeymap[ev.Keysym.Scancode]
	if !ok {
		return
	}
	s.stateMutex.Lock()
	s.keys[pad] = down
	s.stateMutex.Unlock()
}

func (s *SDLIO) drawFrame(renderer *sdl.Renderer, pixels *[DISPLAY_HEIGHT][DISPLAY_WIDTH]bool) {
	renderer.SetDrawColor(displayOff.R, displayOff.G, displayOff.B, 0xFF)
	renderer.Clear()

	renderer.SetDrawColor(displayOn.R, displayOn.G, displayOn.B, 0xFF)
	size := int32(s.scale)
	for y := 0; y < DISPLAY_HEIGHT; y++ {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			if !pixels[y][x] {
				continue
			}
			renderer.FillRect(&sdl.Rect{X: int32(x) * size, Y: int32(y) * size, W: size, H: size})
		}
	}

	renderer.Present()
}
