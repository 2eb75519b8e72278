// cpu_chip8.go - CHIP-8 CPU state, built-in font and address validation

package main

import (
	"math/rand/v2"
)

const (
	MEMORY_SIZE   = 0x1000 // 4KB address space
	MAX_ADDRESS   = 0xFFF
	PROGRAM_START = 0x200 // programs load here; below is interpreter space
	STACK_DEPTH   = 16
	NUM_REGISTERS = 16

	FONT_START      = 0x000
	FONT_GLYPH_SIZE = 5 // bytes per hex digit glyph
)

// chip8Font is the built-in hex digit font, 5 bytes per glyph for 0-F.
// Written once into memory at FONT_START when the CPU is created and
// never touched again.
var chip8Font = [80]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// CPU holds the complete CHIP-8 machine state. It owns no I/O; the
// executor receives the frontend per call and the runner drives the
// fetch-decode-execute loop. All mutation happens on the single CPU
// goroutine, so the state carries no locking.
type CPU struct {
	V  [NUM_REGISTERS]uint8
	I  uint16
	PC uint16

	memory [MEMORY_SIZE]uint8
	stack  [STACK_DEPTH]uint16
	sp     uint8 // counts used slots; 0 means empty

	delayTimer uint8
	soundTimer uint8

	// randByte feeds RND. Swappable so tests can pin the source.
	randByte func() uint8
}

func NewCPU() *CPU {
	cpu := &CPU{
		randByte: func() uint8 { return uint8(rand.IntN(256)) },
	}
	copy(cpu.memory[FONT_START:], chip8Font[:])
	cpu.Reset()
	return cpu
}

// Reset returns the machine to its power-on register state. Memory is
// deliberately left alone: the font lives below PROGRAM_START and a
// loaded ROM stays resident so the program can be restarted in place.
func (c *CPU) Reset() {
	c.V = [NUM_REGISTERS]uint8{}
	c.I = 0
	c.PC = PROGRAM_START
	c.stack = [STACK_DEPTH]uint16{}
	c.sp = 0
	c.delayTimer = 0
	c.soundTimer = 0
}

// LoadMemory copies a program image into memory at PROGRAM_START. The
// caller is responsible for size checking (see LoadROM).
func (c *CPU) LoadMemory(program []uint8) {
	copy(c.memory[PROGRAM_START:], program)
}

func (c *CPU) DelayTimer() uint8 { return c.delayTimer }
func (c *CPU) SoundTimer() uint8 { return c.soundTimer }

// Peek reads a memory byte without side effects. Out-of-range reads
// return 0; callers that care validate first.
func (c *CPU) Peek(addr uint16) uint8 {
	if addr > MAX_ADDRESS {
		return 0
	}
	return c.memory[addr]
}

// Poke writes a memory byte. Out-of-range writes are dropped.
func (c *CPU) Poke(addr uint16, value uint8) {
	if addr > MAX_ADDRESS {
		return
	}
	c.memory[addr] = value
}

// validAddr reports whether a is inside the 4KB address space.
func validAddr(a uint16) bool {
	return a <= MAX_ADDRESS
}

// validPC reports whether a is a legal program counter value. Jumping
// into the font/interpreter area below PROGRAM_START is rejected.
func validPC(a uint16) bool {
	return a >= PROGRAM_START && a <= MAX_ADDRESS
}

// validReg reports whether r names one of the 16 V registers.
func validReg(r uint8) bool {
	return r < NUM_REGISTERS
}
