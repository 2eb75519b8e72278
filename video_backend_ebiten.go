//go:build !headless

// video_backend_ebiten.go - Ebiten windowed frontend

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
)

// ebitenKeymap lays the CHIP-8 keypad over the left hand of a QWERTY
// keyboard, the conventional arrangement:
//
//	1 2 3 4        1 2 3 C
//	Q W E R   ->   4 5 6 D
//	A S D F        7 8 9 E
//	Z X C V        A 0 B F
var ebitenKeymap = map[ebiten.Key]uint8{
	ebiten.KeyDigit1: 0x1, ebiten.KeyDigit2: 0x2, ebiten.KeyDigit3: 0x3, ebiten.KeyDigit4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

type EbitenIO struct {
	display *Display
	beeper  Beeper

	title  string
	scale  int
	width  int
	height int

	frameImage  *ebiten.Image
	frameBuffer []byte

	stateMutex     sync.Mutex
	keys           [16]bool
	paused         bool
	fullscreen     bool
	controlHandler func(event int)

	quit    atomic.Bool
	running atomic.Bool

	clipboardOnce sync.Once
	clipboardOK   bool

	vsyncChan chan struct{}
	done      chan struct{}
}

func NewEbitenIO(config IOConfig) (*EbitenIO, error) {
	beeper := config.Beeper
	if beeper == nil {
		beeper = NewNullBeeper()
	}
	scale := config.Scale
	if scale <= 0 {
		scale = DEFAULT_DISPLAY_SCALE
	}

	return &EbitenIO{
		display:     NewDisplay(),
		beeper:      beeper,
		title:       config.Title,
		scale:       scale,
		width:       DISPLAY_WIDTH * scale,
		height:      DISPLAY_HEIGHT * scale,
		frameBuffer: make([]byte, DISPLAY_WIDTH*DISPLAY_HEIGHT*4),
		vsyncChan:   make(chan struct{}, 1),
		done:        make(chan struct{}),
	}, nil
}

func (e *EbitenIO) Start() error {
	if e.running.Load() {
		return nil
	}
	e.running.Store(true)

	ebiten.SetWindowSize(e.width, e.height)
	ebiten.SetWindowTitle(e.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	go func() {
		// However the window loop ends, the machine must see quit.
		defer e.quit.Store(true)
		defer e.running.Store(false)
		defer close(e.done)
		if err := ebiten.RunGame(e); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	// Wait for the first Draw call so the window exists before the CPU
	// starts blitting.
	select {
	case <-e.vsyncChan:
		return nil
	case <-e.done:
		return &IOError{Operation: "start", Details: "display initialisation failed"}
	}
}

func (e *EbitenIO) Stop() error {
	e.running.Store(false)
	return nil
}

func (e *EbitenIO) IsStarted() bool {
	return e.running.Load()
}

// Done is closed once the window loop has torn down.
func (e *EbitenIO) Done() <-chan struct{} {
	return e.done
}

func (e *EbitenIO) Clear() {
	e.display.Clear()
}

func (e *EbitenIO) DrawSprite(x, y uint8, rows []byte) bool {
	return e.display.DrawSprite(x, y, rows)
}

func (e *EbitenIO) PollKeys() ([16]bool, bool) {
	e.stateMutex.Lock()
	keys := e.keys
	e.stateMutex.Unlock()
	return keys, e.quit.Load()
}

func (e *EbitenIO) Beep() {
	e.beeper.Beep()
}

func (e *EbitenIO) Display() *Display {
	return e.display
}

func (e *EbitenIO) SetControlHandler(handler func(event int)) {
	e.stateMutex.Lock()
	e.controlHandler = handler
	e.stateMutex.Unlock()
}

func (e *EbitenIO) control(event int) {
	e.stateMutex.Lock()
	handler := e.controlHandler
	e.stateMutex.Unlock()
	if handler != nil {
		handler(event)
	}
}

// Update runs on the ebiten game loop. It owns hotkeys and the keypad
// scan; the CPU only ever sees the scanned snapshot through PollKeys.
func (e *EbitenIO) Update() error {
	if ebiten.IsWindowBeingClosed() {
		e.quit.Store(true)
		return ebiten.Termination
	}
	if !e.running.Load() {
		e.quit.Store(true)
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		e.quit.Store(true)
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		e.stateMutex.Lock()
		e.paused = !e.paused
		e.stateMutex.Unlock()
		e.control(CONTROL_PAUSE)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		e.control(CONTROL_RESET)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		e.stateMutex.Lock()
		e.fullscreen = !e.fullscreen
		fullscreen := e.fullscreen
		e.stateMutex.Unlock()
		ebiten.SetFullscreen(fullscreen)
		if !fullscreen {
			ebiten.SetWindowSize(e.width, e.height)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		e.copyScreenshot()
	}

	e.stateMutex.Lock()
	for key, pad := range ebitenKeymap {
		e.keys[pad] = ebiten.IsKeyPressed(key)
	}
	e.stateMutex.Unlock()
	return nil
}

func (e *EbitenIO) Draw(screen *ebiten.Image) {
	if e.frameImage == nil {
		e.frameImage = ebiten.NewImage(DISPLAY_WIDTH, DISPLAY_HEIGHT)
	}

	e.display.RenderRGBA(e.frameBuffer)
	e.frameImage.WritePixels(e.frameBuffer)

	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterNearest}
	op.GeoM.Scale(float64(e.scale), float64(e.scale))
	screen.DrawImage(e.frameImage, op)

	e.drawOverlay(screen)

	select {
	case e.vsyncChan <- struct{}{}:
	default:
	}
}

func (e *EbitenIO) Layout(_, _ int) (int, int) {
	return e.width, e.height
}

func (e *EbitenIO) drawOverlay(screen *ebiten.Image) {
	e.stateMutex.Lock()
	paused := e.paused
	e.stateMutex.Unlock()

	legendColor := color.RGBA{160, 160, 160, 255}
	legend := "F1 Pause  F2 Reset  F11 Fullscreen  F12 Screenshot  Esc Quit"
	legendOpts := &ebiten.DrawImageOptions{}
	legendOpts.GeoM.Translate(6, float64(e.height-6))
	legendOpts.ColorScale.ScaleWithColor(legendColor)
	text.DrawWithOptions(screen, legend, basicfont.Face7x13, legendOpts)

	if paused {
		const pausedScale = 3.0
		msg := "PAUSED"
		msgW := float64(text.BoundString(basicfont.Face7x13, msg).Dx()) * pausedScale
		pausedOpts := &ebiten.DrawImageOptions{}
		pausedOpts.GeoM.Scale(pausedScale, pausedScale)
		pausedOpts.GeoM.Translate((float64(e.width)-msgW)/2, float64(e.height)/2)
		pausedOpts.ColorScale.ScaleWithColor(color.RGBA{255, 255, 255, 255})
		text.DrawWithOptions(screen, msg, basicfont.Face7x13, pausedOpts)
	}
}

// copyScreenshot upscales the framebuffer and pushes it to the system
// clipboard as a PNG.
func (e *EbitenIO) copyScreenshot() {
	e.clipboardOnce.Do(func() {
		e.clipboardOK = clipboard.Init() == nil
	})
	if !e.clipboardOK {
		return
	}

	snap := e.display.Snapshot()
	big := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	xdraw.NearestNeighbor.Scale(big, big.Bounds(), snap, snap.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, big); err != nil {
		return
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
}
