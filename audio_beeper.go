// audio_beeper.go - Beep cue interface and square wave tone source

package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	BEEP_SAMPLE_RATE = 44100
	BEEP_FREQUENCY   = 660.0 // Hz
	BEEP_VOLUME      = 0.25

	// BEEP_GATE is how long one Beep keeps the tone open. It comfortably
	// outlasts one loop iteration, so a sound timer that keeps firing
	// produces one continuous tone instead of a stutter.
	BEEP_GATE = 50 * time.Millisecond
)

// AudioError provides detailed error context for audio operations
type AudioError struct {
	Operation string
	Details   string
	Err       error
}

func (e *AudioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("audio %s failed: %s", e.Operation, e.Details)
}

func (e *AudioError) Unwrap() error {
	return e.Err
}

// Beeper is the sound cue sink. Beep is fire-and-forget and safe to call
// from the CPU goroutine.
type Beeper interface {
	Start() error
	Stop() error
	Beep()
	Close() error
}

// Predefined audio backend types
const (
	AUDIO_BACKEND_OTO  = iota // portable, pure Go
	AUDIO_BACKEND_ALSA        // direct libasound, requires -tags alsa
	AUDIO_BACKEND_NULL
)

// NewBeeper creates a beeper using the specified backend.
func NewBeeper(backend int) (Beeper, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return NewOtoBeeper(BEEP_SAMPLE_RATE)
	case AUDIO_BACKEND_ALSA:
		return NewAlsaBeeper(BEEP_SAMPLE_RATE)
	case AUDIO_BACKEND_NULL:
		return NewNullBeeper(), nil
	}
	return nil, &AudioError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}

// NullBeeper swallows every cue. Used by -mute and by frontends running
// without an audio device.
type NullBeeper struct{}

func NewNullBeeper() *NullBeeper   { return &NullBeeper{} }
func (b *NullBeeper) Start() error { return nil }
func (b *NullBeeper) Stop() error  { return nil }
func (b *NullBeeper) Beep()        {}
func (b *NullBeeper) Close() error { return nil }

// toneSource generates a gated square wave as mono float32 samples. The
// audio backend pulls from it on its own goroutine; Beep re-arms the gate
// from the CPU goroutine, so the deadline is atomic.
type toneSource struct {
	sampleRate int
	phase      float64
	gateUntil  atomic.Int64 // unix nanoseconds
}

func newToneSource(sampleRate int) *toneSource {
	return &toneSource{sampleRate: sampleRate}
}

func (s *toneSource) arm() {
	s.gateUntil.Store(time.Now().Add(BEEP_GATE).UnixNano())
}

func (s *toneSource) gateOpen() bool {
	return time.Now().UnixNano() < s.gateUntil.Load()
}

// fill writes one sample per buf element, silence while the gate is
// closed. Phase advances only while the gate is open, keeping the tone
// edge-aligned across calls.
func (s *toneSource) fill(buf []float32) {
	if !s.gateOpen() {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	step := BEEP_FREQUENCY / float64(s.sampleRate)
	for i := range buf {
		if s.phase < 0.5 {
			buf[i] = BEEP_VOLUME
		} else {
			buf[i] = -BEEP_VOLUME
		}
		s.phase += step
		if s.phase >= 1 {
			s.phase -= 1
		}
	}
}
