// cpu_chip8_runner_test.go - fetch-decode-execute loop behaviour

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) (*Chip8Runner, *HeadlessIO) {
	t.Helper()
	machineIO := newTestIO(t)
	runner := NewChip8Runner(machineIO, log.NewTestLogger(t), Chip8Config{})
	return runner, machineIO
}

// countingIO wraps the headless frontend to count beeper pulses.
type countingIO struct {
	*HeadlessIO
	beeps int
}

func (c *countingIO) Beep() {
	c.beeps++
}

func TestChip8Runner_StepNRunsProgram(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{
		0x60, 0x05, // LD V0, 0x05
		0x61, 0x03, // LD V1, 0x03
		0x80, 0x14, // ADD V0, V1
	})

	require.Equal(t, 3, runner.StepN(3))

	cpu := runner.CPU()
	assert.Equal(t, uint8(8), cpu.V[0x0])
	assert.Equal(t, uint8(0), cpu.V[0xF])
	assert.Equal(t, uint16(0x206), cpu.PC)

	halted, _ := runner.Halted()
	assert.False(t, halted)
}

func TestChip8Runner_HaltsOnDecodeFailure(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0xFF, 0xFF})

	require.Equal(t, 0, runner.StepN(5))

	halted, reason := runner.Halted()
	require.True(t, halted)
	assert.Equal(t, "illegal opcode 0xFFFF", reason)

	var decodeErr *DecodeError
	require.ErrorAs(t, runner.HaltErr(), &decodeErr)
	assert.Equal(t, uint8(0xFF), decodeErr.Hi)
	assert.Equal(t, uint8(0xFF), decodeErr.Lo)
}

func TestChip8Runner_ProgramExit(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0x00, 0xEE}) // RET with empty stack

	runner.RunToHalt()

	halted, reason := runner.Halted()
	require.True(t, halted)
	assert.Equal(t, "program exit", reason)
	assert.NoError(t, runner.HaltErr())
}

func TestChip8Runner_QuitRequested(t *testing.T) {
	runner, machineIO := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0x60, 0x05})
	machineIO.SetQuit()

	require.Equal(t, 0, runner.StepN(1))

	halted, reason := runner.Halted()
	require.True(t, halted)
	assert.Equal(t, "quit requested", reason)
	assert.NoError(t, runner.HaltErr())
	assert.Equal(t, uint8(0), runner.CPU().V[0x0], "no instruction may run after quit")
}

func TestChip8Runner_FetchOutsideProgramSpace(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.CPU().PC = MAX_ADDRESS // a two-byte fetch cannot fit here

	require.Equal(t, 0, runner.StepN(1))

	halted, reason := runner.Halted()
	require.True(t, halted)
	assert.Equal(t, "instruction fetch outside program space at 0xFFF", reason)
}

func TestChip8Runner_ExecutionFaultRecorded(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0x21, 0x00}) // CALL into interpreter space

	runner.RunToHalt()

	halted, reason := runner.Halted()
	require.True(t, halted)
	assert.Equal(t, "call target 0x100 outside program space", reason)

	var fault *ExecutionFault
	require.ErrorAs(t, runner.HaltErr(), &fault)
	assert.Equal(t, uint16(0x200), fault.PC)
	assert.Equal(t, reason, fault.Reason)
}

func TestChip8Runner_SoundTimerTicksAndBeeps(t *testing.T) {
	machineIO := newTestIO(t)
	counting := &countingIO{HeadlessIO: machineIO}
	runner := NewChip8Runner(counting, log.NewTestLogger(t), Chip8Config{})
	runner.CPU().LoadMemory([]uint8{
		0x60, 0x03, // LD V0, 3
		0xF0, 0x18, // LD ST, V0
		0x00, 0x00, // SYS, ignored
		0x00, 0x00,
		0x00, 0x00,
	})

	require.Equal(t, 5, runner.StepN(5))

	// The timer is armed at 3 and ticks at the end of that iteration and
	// the two after it, beeping each time.
	assert.Equal(t, 3, counting.beeps)
	assert.Equal(t, uint8(0), runner.CPU().SoundTimer())
}

func TestChip8Runner_PauseStopsExecution(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0x60, 0x05})

	runner.HandleControl(CONTROL_PAUSE)
	require.Equal(t, 3, runner.StepN(3), "paused iterations still run")
	assert.Equal(t, uint8(0), runner.CPU().V[0x0])
	assert.Equal(t, uint16(0x200), runner.CPU().PC)

	runner.HandleControl(CONTROL_PAUSE)
	require.Equal(t, 1, runner.StepN(1))
	assert.Equal(t, uint8(5), runner.CPU().V[0x0])
}

func TestChip8Runner_QuitLandsWhilePaused(t *testing.T) {
	runner, machineIO := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0x60, 0x05})

	runner.HandleControl(CONTROL_PAUSE)
	machineIO.SetQuit()

	require.Equal(t, 0, runner.StepN(1))
	_, reason := runner.Halted()
	assert.Equal(t, "quit requested", reason)
}

// LD Vx, K blocks until a key arrives. Press one from another goroutine
// while the instruction is already waiting and the loop must pick it up.
func TestChip8Runner_KeyWaitSeesKeyPressedMidWait(t *testing.T) {
	runner, machineIO := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0xF0, 0x0A}) // LD V0, K

	done := make(chan int, 1)
	go func() {
		done <- runner.StepN(1)
	}()

	time.Sleep(20 * time.Millisecond)
	machineIO.SetKey(0x7, true)

	select {
	case taken := <-done:
		require.Equal(t, 1, taken)
	case <-time.After(5 * time.Second):
		t.Fatal("key wait never observed the key press")
	}
	assert.Equal(t, uint8(0x7), runner.CPU().V[0x0])
}

func TestChip8Runner_ResetRestoresPowerOnState(t *testing.T) {
	runner, machineIO := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{
		0x60, 0x05, // LD V0, 5
		0x61, 0x07, // LD V1, 7
	})

	require.Equal(t, 2, runner.StepN(2))
	require.Equal(t, uint8(7), runner.CPU().V[0x1])
	machineIO.DrawSprite(0, 0, []byte{0xFF})

	runner.Reset()
	require.Equal(t, 1, runner.StepN(1))

	// The reset lands before the fetch, so the first instruction has
	// already run again.
	cpu := runner.CPU()
	assert.Equal(t, uint8(5), cpu.V[0x0])
	assert.Equal(t, uint8(0), cpu.V[0x1])
	assert.Equal(t, uint16(0x202), cpu.PC)
	assert.False(t, machineIO.Display().Pixel(0, 0), "reset must clear the display")
}

func TestChip8Runner_ExecuteClosesDone(t *testing.T) {
	runner, machineIO := newTestRunner(t)
	runner.CPU().LoadMemory([]uint8{0x60, 0x05})
	machineIO.SetQuit()

	go runner.Execute()
	<-runner.Done()

	assert.False(t, runner.Running())
	halted, reason := runner.Halted()
	require.True(t, halted)
	assert.Equal(t, "quit requested", reason)
}

func TestChip8Runner_LoadProgram(t *testing.T) {
	runner, _ := newTestRunner(t)

	path := filepath.Join(t.TempDir(), "program.ch8")
	rom := []byte{0x60, 0x2A, 0x12, 0x00}
	require.NoError(t, os.WriteFile(path, rom, 0o644))

	require.NoError(t, runner.LoadProgram(path))

	cpu := runner.CPU()
	assert.Equal(t, uint16(PROGRAM_START), cpu.PC)
	for i, b := range rom {
		assert.Equal(t, b, cpu.Peek(PROGRAM_START+uint16(i)))
	}
}

func TestChip8Runner_LoadProgramMissingFile(t *testing.T) {
	runner, _ := newTestRunner(t)

	err := runner.LoadProgram(filepath.Join(t.TempDir(), "nope.ch8"))
	require.Error(t, err)

	var romErr *RomError
	require.True(t, errors.As(err, &romErr))
	assert.Equal(t, RomNotFound, romErr.Kind)
}
