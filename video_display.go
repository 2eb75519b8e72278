// video_display.go - Shared 64x32 monochrome framebuffer for all frontends

package main

import (
	"image"
	"image/color"
	"sync"
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
)

var (
	displayOn  = color.RGBA{R: 0xE8, G: 0xF4, B: 0xE8, A: 0xFF} // lit pixel, slightly warm white
	displayOff = color.RGBA{R: 0x10, G: 0x14, B: 0x10, A: 0xFF}
)

// Display is the CHIP-8 framebuffer. The CPU goroutine blits into it and
// a frontend render loop reads it back, so access goes through a RWMutex.
// Every frontend wraps exactly one Display.
type Display struct {
	mutex      sync.RWMutex
	pixels     [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool
	generation uint64
}

func NewDisplay() *Display {
	return &Display{}
}

// Clear blanks the framebuffer.
func (d *Display) Clear() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.pixels = [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool{}
	d.generation++
}

// DrawSprite XOR-blits rows at (x, y), one byte per 8-pixel row with bit 7
// leftmost. Both axes wrap modulo the screen size. Returns true when any
// previously lit pixel was toggled off by this blit.
func (d *Display) DrawSprite(x, y uint8, rows []byte) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	collision := false
	for r, row := range rows {
		py := (int(y) + r) % DISPLAY_HEIGHT
		for bit := 0; bit < 8; bit++ {
			if row&(0x80>>bit) == 0 {
				continue
			}
			px := (int(x) + bit) % DISPLAY_WIDTH
			if d.pixels[py][px] {
				collision = true
			}
			d.pixels[py][px] = !d.pixels[py][px]
		}
	}
	d.generation++
	return collision
}

// Pixel reports the state of one pixel. Out-of-range coordinates read as
// unlit.
func (d *Display) Pixel(x, y int) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	if x < 0 || x >= DISPLAY_WIDTH || y < 0 || y >= DISPLAY_HEIGHT {
		return false
	}
	return d.pixels[y][x]
}

// CopyPixels copies the whole pixel grid into dst under a single lock,
// for render loops that walk every pixel per frame.
func (d *Display) CopyPixels(dst *[DISPLAY_HEIGHT][DISPLAY_WIDTH]bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	*dst = d.pixels
}

// Generation returns a counter bumped on every mutation. Render loops use
// it to skip repainting unchanged frames.
func (d *Display) Generation() uint64 {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.generation
}

// RenderRGBA fills dst with the frame as RGBA bytes, row-major. dst must
// hold DISPLAY_WIDTH*DISPLAY_HEIGHT*4 bytes.
func (d *Display) RenderRGBA(dst []byte) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	i := 0
	for y := 0; y < DISPLAY_HEIGHT; y++ {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			c := displayOff
			if d.pixels[y][x] {
				c = displayOn
			}
			dst[i] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
			i += 4
		}
	}
}

// Snapshot returns the frame as an image at native 64x32 resolution.
func (d *Display) Snapshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, DISPLAY_WIDTH, DISPLAY_HEIGHT))
	d.RenderRGBA(img.Pix)
	return img
}
