// cpu_chip8_exec.go - CHIP-8 per-opcode execution semantics

package main

import (
	"fmt"
	"time"
)

// keyWaitPollInterval paces the LD Vx, K spin so the wait stays
// cooperative instead of burning a core.
const keyWaitPollInterval = time.Millisecond

// ExecStatus classifies the outcome of executing one instruction.
type ExecStatus int

const (
	ExecContinue ExecStatus = iota // state mutated, keep running
	ExecFault                      // invariant violated, halt with Reason
	ExecExit                       // clean halt: RET with an empty stack
	ExecQuit                       // frontend delivered quit during a blocking wait
)

// ExecResult threads control from the opcode handlers back to the loop.
type ExecResult struct {
	Status ExecStatus
	Reason string
}

func execOK() ExecResult   { return ExecResult{Status: ExecContinue} }
func execExit() ExecResult { return ExecResult{Status: ExecExit} }
func execQuit() ExecResult { return ExecResult{Status: ExecQuit} }

func execFailf(format string, args ...any) ExecResult {
	return ExecResult{Status: ExecFault, Reason: fmt.Sprintf(format, args...)}
}

// ExecutionFault is the error form of a Fail result, carrying the
// instruction and the pc it executed at for diagnostics.
type ExecutionFault struct {
	PC     uint16
	Instr  Instruction
	Reason string
}

func (e *ExecutionFault) Error() string {
	return fmt.Sprintf("fault at 0x%03X executing %s: %s", e.PC, e.Instr, e.Reason)
}

// Execute runs one decoded instruction against the CPU state. The loop
// has already advanced PC past this instruction, so handlers that push
// or skip reason about the address of the next instruction. io is only
// touched by the opcodes that talk to the frontend.
func (c *CPU) Execute(in Instruction, io MachineIO) ExecResult {
	switch in.Op {
	case OpSys:
		// Legacy machine-code call. Accepted and ignored.
		return execOK()
	case OpCls:
		io.Clear()
		return execOK()
	case OpRet:
		return c.execRet()
	case OpJp:
		return c.execJp(in.Addr)
	case OpCall:
		return c.execCall(in.Addr)
	case OpSeV:
		return c.execSkipIf(in.X, func(vx uint8) bool { return vx == in.KK })
	case OpSneV:
		return c.execSkipIf(in.X, func(vx uint8) bool { return vx != in.KK })
	case OpSe:
		return c.execSkipIfXY(in.X, in.Y, func(vx, vy uint8) bool { return vx == vy })
	case OpSne:
		return c.execSkipIfXY(in.X, in.Y, func(vx, vy uint8) bool { return vx != vy })
	case OpLdV:
		return c.execLdV(in.X, in.KK)
	case OpAddV:
		return c.execAddV(in.X, in.KK)
	case OpLd:
		return c.execALU(in.X, in.Y, func(_, vy uint8) uint8 { return vy })
	case OpOr:
		return c.execALU(in.X, in.Y, func(vx, vy uint8) uint8 { return vx | vy })
	case OpAnd:
		return c.execALU(in.X, in.Y, func(vx, vy uint8) uint8 { return vx & vy })
	case OpXor:
		return c.execALU(in.X, in.Y, func(vx, vy uint8) uint8 { return vx ^ vy })
	case OpAdd:
		return c.execAdd(in.X, in.Y)
	case OpSub:
		return c.execSub(in.X, in.Y)
	case OpSubn:
		// SUBN is SUB with the operands reversed.
		return c.execSub(in.Y, in.X)
	case OpShr:
		return c.execShr(in.X)
	case OpShl:
		return c.execShl(in.X)
	case OpLdI:
		// The index register may legally point past program space; all
		// later uses are bounds-checked at access time.
		c.I = in.Addr
		return execOK()
	case OpJpV0:
		return c.execJpV0(in.Addr)
	case OpRnd:
		return c.execRnd(in.X, in.KK)
	case OpDrw:
		return c.execDrw(in.X, in.Y, in.N, io)
	case OpSkp:
		return c.execSkp(in.X, io, true)
	case OpSknp:
		return c.execSkp(in.X, io, false)
	case OpLdDt:
		return c.execLdDt(in.X)
	case OpLdK:
		return c.execLdK(in.X, io)
	case OpLdTd:
		return c.execLdTd(in.X)
	case OpLdSt:
		return c.execLdSt(in.X)
	case OpAddI:
		return c.execAddI(in.X)
	case OpLdS:
		return c.execLdS(in.X)
	case OpLdBCD:
		return c.execLdBCD(in.X)
	case OpLdVM:
		return c.execLdVM(in.X)
	case OpLdMV:
		return c.execLdMV(in.X)
	}
	return execFailf("unhandled opcode kind %d", in.Op)
}

func (c *CPU) execRet() ExecResult {
	if c.sp == 0 {
		// Returning past the root of the call stack is the defined
		// program exit, not a fault.
		return execExit()
	}
	c.sp--
	addr := c.stack[c.sp]
	if !validPC(addr) {
		return execFailf("return address 0x%03X outside program space", addr)
	}
	c.PC = addr
	return execOK()
}

func (c *CPU) execJp(addr uint16) ExecResult {
	if !validPC(addr) {
		return execFailf("jump target 0x%03X outside program space", addr)
	}
	c.PC = addr
	return execOK()
}

func (c *CPU) execCall(addr uint16) ExecResult {
	if c.sp == STACK_DEPTH {
		return execFailf("Stack overflow")
	}
	if !validPC(addr) {
		return execFailf("call target 0x%03X outside program space", addr)
	}
	// PC already points at the instruction after the CALL.
	c.stack[c.sp] = c.PC
	c.sp++
	c.PC = addr
	return execOK()
}

func (c *CPU) execJpV0(addr uint16) ExecResult {
	target := addr + uint16(c.V[0x0])
	if !validPC(target) {
		return execFailf("jump target 0x%03X outside program space", target)
	}
	c.PC = target
	return execOK()
}

func (c *CPU) execSkipIf(x uint8, pred func(vx uint8) bool) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if pred(c.V[x]) {
		c.PC += 2
	}
	return execOK()
}

func (c *CPU) execSkipIfXY(x, y uint8, pred func(vx, vy uint8) bool) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if !validReg(y) {
		return execFailf("invalid register V%X", y)
	}
	if pred(c.V[x], c.V[y]) {
		c.PC += 2
	}
	return execOK()
}

func (c *CPU) execLdV(x, kk uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	c.V[x] = kk
	return execOK()
}

func (c *CPU) execAddV(x, kk uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	// Wrapping byte add. Unlike ADD Vx, Vy this never touches VF.
	c.V[x] += kk
	return execOK()
}

func (c *CPU) execALU(x, y uint8, op func(vx, vy uint8) uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if !validReg(y) {
		return execFailf("invalid register V%X", y)
	}
	c.V[x] = op(c.V[x], c.V[y])
	return execOK()
}

func (c *CPU) execAdd(x, y uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if !validReg(y) {
		return execFailf("invalid register V%X", y)
	}
	sum := uint16(c.V[x]) + uint16(c.V[y])
	c.V[x] = uint8(sum)
	// Flag write comes last so ADD VF, Vy leaves the carry in VF.
	if sum > 0xFF {
		c.V[0xF] = 1
	} else {
		c.V[0xF] = 0
	}
	return execOK()
}

func (c *CPU) execSub(x, y uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if !validReg(y) {
		return execFailf("invalid register V%X", y)
	}
	noBorrow := c.V[x] > c.V[y]
	c.V[x] -= c.V[y]
	if noBorrow {
		c.V[0xF] = 1
	} else {
		c.V[0xF] = 0
	}
	return execOK()
}

func (c *CPU) execShr(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	bit := c.V[x] & 0x01
	c.V[x] >>= 1
	c.V[0xF] = bit
	return execOK()
}

func (c *CPU) execShl(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	bit := c.V[x] >> 7
	c.V[x] <<= 1
	c.V[0xF] = bit
	return execOK()
}

func (c *CPU) execRnd(x, kk uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	c.V[x] = c.randByte() & kk
	return execOK()
}

func (c *CPU) execDrw(x, y, n uint8, io MachineIO) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if !validReg(y) {
		return execFailf("invalid register V%X", y)
	}
	end := uint32(c.I) + uint32(n)
	if end > MEMORY_SIZE {
		return execFailf("sprite read past end of memory: I=0x%03X n=%d", c.I, n)
	}
	collision := io.DrawSprite(c.V[x], c.V[y], c.memory[c.I:end])
	if collision {
		c.V[0xF] = 1
	} else {
		c.V[0xF] = 0
	}
	return execOK()
}

func (c *CPU) execSkp(x uint8, io MachineIO, wantPressed bool) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	key := c.V[x]
	if key > 0xF {
		return execFailf("invalid key %d in V%X", key, x)
	}
	keys, quit := io.PollKeys()
	if quit {
		return execQuit()
	}
	if keys[key] == wantPressed {
		c.PC += 2
	}
	return execOK()
}

func (c *CPU) execLdDt(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	c.V[x] = c.delayTimer
	return execOK()
}

// execLdK spins on the frontend until a key is down, then records the
// lowest-numbered pressed key. The spin sleeps between polls and bails
// out the moment the frontend delivers quit, so a blocked program still
// closes promptly. Timers do not tick while the wait blocks.
func (c *CPU) execLdK(x uint8, io MachineIO) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	for {
		keys, quit := io.PollKeys()
		if quit {
			return execQuit()
		}
		for k := uint8(0); k < 16; k++ {
			if keys[k] {
				c.V[x] = k
				return execOK()
			}
		}
		time.Sleep(keyWaitPollInterval)
	}
}

func (c *CPU) execLdTd(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	c.delayTimer = c.V[x]
	return execOK()
}

func (c *CPU) execLdSt(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	c.soundTimer = c.V[x]
	return execOK()
}

func (c *CPU) execAddI(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	// 16-bit wrapping add, no overflow flag.
	c.I += uint16(c.V[x])
	return execOK()
}

func (c *CPU) execLdS(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	c.I = uint16(c.V[x]) * FONT_GLYPH_SIZE
	return execOK()
}

func (c *CPU) execLdBCD(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if uint32(c.I)+2 > MAX_ADDRESS {
		return execFailf("BCD write past end of memory: I=0x%03X", c.I)
	}
	v := c.V[x]
	c.memory[c.I] = v / 100
	c.memory[c.I+1] = (v / 10) % 10
	c.memory[c.I+2] = v % 10
	return execOK()
}

func (c *CPU) execLdVM(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if uint32(c.I)+uint32(x) > MAX_ADDRESS {
		return execFailf("register dump past end of memory: I=0x%03X x=%d", c.I, x)
	}
	copy(c.memory[c.I:], c.V[:x+1])
	return execOK()
}

func (c *CPU) execLdMV(x uint8) ExecResult {
	if !validReg(x) {
		return execFailf("invalid register V%X", x)
	}
	if uint32(c.I)+uint32(x) > MAX_ADDRESS {
		return execFailf("register load past end of memory: I=0x%03X x=%d", c.I, x)
	}
	copy(c.V[:x+1], c.memory[c.I:uint32(c.I)+uint32(x)+1])
	return execOK()
}
