// cpu_chip8_runner.go - Program loading and the fetch-decode-execute loop

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// DEFAULT_PACE_DELAY is the end-of-iteration sleep. It paces execution to
// a playable speed; it is not a calibrated 60 Hz timer.
const DEFAULT_PACE_DELAY = 5 * time.Millisecond

type Chip8Config struct {
	PaceDelay time.Duration // sleep between paced iterations, 0 runs unpaced
	Trace     bool          // log every executed instruction
}

// Chip8Runner owns the CPU, drives the fetch-decode-execute loop against
// a frontend and reports how the machine halted. Execute runs on its own
// goroutine; control events (pause, reset) arrive from the frontend
// goroutine through atomics and are applied by the loop itself, so all
// CPU state mutation stays single-threaded.
type Chip8Runner struct {
	cpu    *CPU
	io     MachineIO
	logger *log.Logger

	paceDelay time.Duration
	trace     bool

	running      atomic.Bool
	paused       atomic.Bool
	resetPending atomic.Bool

	mutex      sync.Mutex
	halted     bool
	haltReason string
	haltErr    error

	done chan struct{}
}

func NewChip8Runner(io MachineIO, logger *log.Logger, config Chip8Config) *Chip8Runner {
	return &Chip8Runner{
		cpu:       NewCPU(),
		io:        io,
		logger:    logger,
		paceDelay: config.PaceDelay,
		trace:     config.Trace,
		done:      make(chan struct{}),
	}
}

// LoadProgram reads a ROM file and places it at PROGRAM_START.
func (r *Chip8Runner) LoadProgram(filename string) error {
	rom, err := LoadROM(filename)
	if err != nil {
		return err
	}

	r.cpu.LoadMemory(rom)
	r.cpu.Reset()
	r.logger.Info("program loaded",
		log.String("file", filename),
		log.String("size", fmt.Sprintf("%d bytes", len(rom))))
	return nil
}

func (r *Chip8Runner) Reset() {
	r.resetPending.Store(true)
}

func (r *Chip8Runner) CPU() *CPU {
	return r.cpu
}

func (r *Chip8Runner) Running() bool {
	return r.running.Load()
}

// Done is closed once Execute returns.
func (r *Chip8Runner) Done() <-chan struct{} {
	return r.done
}

// Halted reports whether the loop has stopped and why. haltErr is non-nil
// only for decode failures and execution faults; a clean program exit or
// an external quit is not an error.
func (r *Chip8Runner) Halted() (bool, string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.halted, r.haltReason
}

func (r *Chip8Runner) HaltErr() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.haltErr
}

// HandleControl receives machine control events from the frontend.
func (r *Chip8Runner) HandleControl(event int) {
	switch event {
	case CONTROL_PAUSE:
		paused := !r.paused.Load()
		r.paused.Store(paused)
		if paused {
			r.logger.Info("machine paused")
		} else {
			r.logger.Info("machine resumed")
		}
	case CONTROL_RESET:
		r.resetPending.Store(true)
	}
}

// Execute runs the machine until it halts, pacing each iteration.
func (r *Chip8Runner) Execute() {
	r.running.Store(true)
	defer r.running.Store(false)
	defer close(r.done)

	for r.step() {
		time.Sleep(r.paceDelay)
	}

	r.reportHalt()
}

// StepN runs up to n unpaced loop iterations, stopping early on halt.
// Used by the script host. Returns the number of iterations taken.
func (r *Chip8Runner) StepN(n int) int {
	for i := 0; i < n; i++ {
		if !r.step() {
			return i
		}
	}
	return n
}

// RunToHalt runs unpaced until the machine halts.
func (r *Chip8Runner) RunToHalt() {
	for r.step() {
	}
	r.reportHalt()
}

// step performs one loop iteration: poll, fetch, decode, advance,
// execute, tick timers. Returns false once the machine has halted.
func (r *Chip8Runner) step() bool {
	if r.resetPending.CompareAndSwap(true, false) {
		r.cpu.Reset()
		r.io.Clear()
		r.logger.Info("machine reset")
	}

	if r.paused.Load() {
		// Paused iterations keep polling so quit still lands, but do not
		// fetch and do not tick timers.
		_, quit := r.io.PollKeys()
		if quit {
			return r.halt("quit requested", nil)
		}
		return true
	}

	_, quit := r.io.PollKeys()
	if quit {
		return r.halt("quit requested", nil)
	}

	pc := r.cpu.PC
	if !validPC(pc) || pc == MAX_ADDRESS {
		return r.halt(fmt.Sprintf("instruction fetch outside program space at 0x%03X", pc), nil)
	}
	hi, lo := r.cpu.Peek(pc), r.cpu.Peek(pc+1)

	in, err := Decode(hi, lo)
	if err != nil {
		r.logger.Error("decode failure",
			log.String("pc", fmt.Sprintf("0x%03X", pc)),
			log.Err(err))
		return r.halt(err.Error(), err)
	}

	// Advance past this instruction before executing, so CALL pushes and
	// skips reason about the address of the next instruction.
	r.cpu.PC = pc + 2

	if r.trace {
		r.logger.Debug("exec",
			log.String("pc", fmt.Sprintf("0x%03X", pc)),
			log.String("opcode", fmt.Sprintf("0x%02X%02X", hi, lo)),
			log.String("instr", in.String()))
	}

	switch res := r.cpu.Execute(in, r.io); res.Status {
	case ExecFault:
		fault := &ExecutionFault{PC: pc, Instr: in, Reason: res.Reason}
		r.logger.Error("execution fault", log.Err(fault))
		return r.halt(res.Reason, fault)
	case ExecExit:
		return r.halt("program exit", nil)
	case ExecQuit:
		return r.halt("quit requested", nil)
	}

	if r.cpu.delayTimer > 0 {
		r.cpu.delayTimer--
	}
	if r.cpu.soundTimer > 0 {
		r.cpu.soundTimer--
		r.io.Beep()
	}

	return true
}

// halt records the stop reason. Always returns false so step call sites
// can return it directly.
func (r *Chip8Runner) halt(reason string, err error) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if !r.halted {
		r.halted = true
		r.haltReason = reason
		r.haltErr = err
	}
	return false
}

func (r *Chip8Runner) reportHalt() {
	halted, reason := r.Halted()
	if !halted {
		return
	}
	r.logger.Info("machine halted",
		log.String("reason", reason),
		log.String("pc", fmt.Sprintf("0x%03X", r.cpu.PC)))
}
