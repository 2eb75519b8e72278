// audio_beeper_test.go - gated square wave and beeper factory

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneSource_SilentWhileGateClosed(t *testing.T) {
	src := newToneSource(BEEP_SAMPLE_RATE)

	buf := make([]float32, 64)
	for i := range buf {
		buf[i] = 1 // stale data must be overwritten with silence
	}
	src.fill(buf)

	for i, s := range buf {
		require.Equal(t, float32(0), s, "sample %d", i)
	}
}

func TestToneSource_SquareWaveWhileArmed(t *testing.T) {
	src := newToneSource(BEEP_SAMPLE_RATE)
	src.arm()

	// Longer than one wave period at BEEP_FREQUENCY, so both half cycles
	// appear.
	buf := make([]float32, 256)
	src.fill(buf)

	assert.Equal(t, float32(BEEP_VOLUME), buf[0], "tone starts on the high half cycle")
	high, low := 0, 0
	for i, s := range buf {
		switch s {
		case BEEP_VOLUME:
			high++
		case -BEEP_VOLUME:
			low++
		default:
			t.Fatalf("sample %d = %v, want ±%v", i, s, float32(BEEP_VOLUME))
		}
	}
	assert.Greater(t, high, 0)
	assert.Greater(t, low, 0)
}

func TestToneSource_GateExpires(t *testing.T) {
	src := newToneSource(BEEP_SAMPLE_RATE)
	src.arm()
	require.True(t, src.gateOpen())

	time.Sleep(BEEP_GATE + 20*time.Millisecond)
	require.False(t, src.gateOpen())

	buf := make([]float32, 16)
	buf[0] = 1
	src.fill(buf)
	assert.Equal(t, float32(0), buf[0])
}

func TestToneSource_RearmReopensGate(t *testing.T) {
	src := newToneSource(BEEP_SAMPLE_RATE)
	src.arm()
	time.Sleep(BEEP_GATE + 20*time.Millisecond)
	require.False(t, src.gateOpen())

	src.arm()
	assert.True(t, src.gateOpen())
}

func TestNullBeeper_AllOperationsSucceed(t *testing.T) {
	b := NewNullBeeper()
	assert.NoError(t, b.Start())
	b.Beep()
	assert.NoError(t, b.Stop())
	assert.NoError(t, b.Close())
}

func TestNewBeeper_NullBackend(t *testing.T) {
	b, err := NewBeeper(AUDIO_BACKEND_NULL)
	require.NoError(t, err)
	_, ok := b.(*NullBeeper)
	assert.True(t, ok)
}

func TestNewBeeper_UnknownBackend(t *testing.T) {
	_, err := NewBeeper(99)
	require.Error(t, err)

	var audioErr *AudioError
	require.ErrorAs(t, err, &audioErr)
	assert.Equal(t, "backend creation", audioErr.Operation)
}
