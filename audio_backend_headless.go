//go:build headless

// audio_backend_headless.go - Beeper stand-in for builds without audio

package main

type OtoBeeper struct {
	source  *toneSource
	started bool
}

func NewOtoBeeper(sampleRate int) (*OtoBeeper, error) {
	return &OtoBeeper{source: newToneSource(sampleRate)}, nil
}

func (b *OtoBeeper) Start() error {
	b.started = true
	return nil
}

func (b *OtoBeeper) Stop() error {
	b.started = false
	return nil
}

func (b *OtoBeeper) Beep() {
	b.source.arm()
}

func (b *OtoBeeper) Close() error {
	b.started = false
	return nil
}

func (b *OtoBeeper) IsStarted() bool {
	return b.started
}
