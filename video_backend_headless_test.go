// video_backend_headless_test.go - offscreen frontend behaviour

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlessIO_Lifecycle(t *testing.T) {
	machineIO := newTestIO(t)
	require.False(t, machineIO.IsStarted())

	require.NoError(t, machineIO.Start())
	assert.True(t, machineIO.IsStarted())

	require.NoError(t, machineIO.Stop())
	assert.False(t, machineIO.IsStarted())
}

func TestHeadlessIO_KeyInjection(t *testing.T) {
	machineIO := newTestIO(t)

	machineIO.SetKey(0x4, true)
	keys, quit := machineIO.PollKeys()
	assert.True(t, keys[0x4])
	assert.False(t, quit)

	machineIO.SetKey(0x4, false)
	keys, _ = machineIO.PollKeys()
	assert.False(t, keys[0x4])
}

func TestHeadlessIO_IgnoresOutOfRangeKey(t *testing.T) {
	machineIO := newTestIO(t)

	machineIO.SetKey(0x10, true)
	keys, _ := machineIO.PollKeys()
	assert.Equal(t, [16]bool{}, keys)
}

func TestHeadlessIO_QuitIsSticky(t *testing.T) {
	machineIO := newTestIO(t)

	machineIO.SetQuit()
	_, quit := machineIO.PollKeys()
	require.True(t, quit)

	_, quit = machineIO.PollKeys()
	assert.True(t, quit, "quit must stay set once delivered")
}

func TestHeadlessIO_DrawAndClearReachDisplay(t *testing.T) {
	machineIO := newTestIO(t)

	collision := machineIO.DrawSprite(2, 3, []byte{0x80})
	assert.False(t, collision)
	assert.True(t, machineIO.Display().Pixel(2, 3))

	machineIO.Clear()
	assert.False(t, machineIO.Display().Pixel(2, 3))
}

// beepFunc adapts a function to the Beeper interface.
type beepFunc func()

func (f beepFunc) Start() error { return nil }
func (f beepFunc) Stop() error  { return nil }
func (f beepFunc) Beep()        { f() }
func (f beepFunc) Close() error { return nil }

func TestHeadlessIO_BeepForwardsToBeeper(t *testing.T) {
	counted := 0
	machineIO, err := NewHeadlessIO(IOConfig{Beeper: beepFunc(func() { counted++ })})
	require.NoError(t, err)

	machineIO.Beep()
	machineIO.Beep()
	assert.Equal(t, 2, counted)
}

func TestNewMachineIO_UnknownBackend(t *testing.T) {
	_, err := NewMachineIO(99, IOConfig{})
	require.Error(t, err)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "backend creation", ioErr.Operation)
}

func TestNewMachineIO_HeadlessDefaults(t *testing.T) {
	machineIO, err := NewMachineIO(IO_BACKEND_HEADLESS, IOConfig{})
	require.NoError(t, err)
	require.NotNil(t, machineIO.Display())

	// A nil beeper falls back to the null beeper rather than panicking.
	machineIO.Beep()
}
