//go:build !alsa || !linux || headless

// audio_backend_alsa_stub.go - AlsaBeeper stand-in for builds without ALSA

package main

func NewAlsaBeeper(sampleRate int) (*AlsaBeeper, error) {
	return nil, &AudioError{
		Operation: "backend creation",
		Details:   "built without ALSA support (rebuild with -tags alsa)",
	}
}

// AlsaBeeper without the alsa build tag only exists so the factory
// compiles; NewAlsaBeeper never returns one.
type AlsaBeeper struct{}

func (b *AlsaBeeper) Start() error { return nil }
func (b *AlsaBeeper) Stop() error  { return nil }
func (b *AlsaBeeper) Beep()        {}
func (b *AlsaBeeper) Close() error { return nil }
