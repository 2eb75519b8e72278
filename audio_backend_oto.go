//go:build !headless

// audio_backend_oto.go - OTO v3 beeper backend

package main

import (
	"sync"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

type OtoBeeper struct {
	ctx       *oto.Context
	player    *oto.Player
	source    *toneSource
	sampleBuf []float32 // pre-allocated pull buffer
	started   bool
	mutex     sync.Mutex // only for setup/control operations
}

func NewOtoBeeper(sampleRate int) (*OtoBeeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   10 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, &AudioError{Operation: "context creation", Details: "oto init", Err: err}
	}
	<-ready

	b := &OtoBeeper{
		ctx:       ctx,
		source:    newToneSource(sampleRate),
		sampleBuf: make([]float32, 4096),
	}
	b.player = ctx.NewPlayer(b)
	return b, nil
}

// Read pulls samples from the tone source. Called by oto on its own
// goroutine; the hot path takes no lock.
func (b *OtoBeeper) Read(p []byte) (n int, err error) {
	numSamples := len(p) / 4
	if numSamples == 0 {
		return 0, nil
	}
	if len(b.sampleBuf) < numSamples {
		b.sampleBuf = make([]float32, numSamples)
	}
	samples := b.sampleBuf[:numSamples]

	b.source.fill(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:numSamples*4])
	return numSamples * 4, nil
}

func (b *OtoBeeper) Start() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.started && b.player != nil {
		b.player.Play()
		b.started = true
	}
	return nil
}

func (b *OtoBeeper) Stop() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.started && b.player != nil {
		b.player.Pause()
		b.started = false
	}
	return nil
}

func (b *OtoBeeper) Beep() {
	b.source.arm()
}

func (b *OtoBeeper) Close() error {
	_ = b.Stop()
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player != nil {
		if err := b.player.Close(); err != nil {
			return &AudioError{Operation: "close", Details: "oto player", Err: err}
		}
		b.player = nil
	}
	return nil
}

func (b *OtoBeeper) IsStarted() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.started
}
