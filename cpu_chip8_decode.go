// cpu_chip8_decode.go - CHIP-8 opcode decoder and instruction model

package main

import (
	"fmt"
)

// Opcode identifies one of the decoded CHIP-8 instruction kinds.
type Opcode uint8

const (
	OpSys Opcode = iota // 0nnn, legacy machine-code call, no-op
	OpCls               // 00E0
	OpRet               // 00EE
	OpJp                // 1nnn
	OpCall              // 2nnn
	OpSeV               // 3xkk
	OpSneV              // 4xkk
	OpSe                // 5xy0
	OpLdV               // 6xkk
	OpAddV              // 7xkk
	OpLd                // 8xy0
	OpOr                // 8xy1
	OpAnd               // 8xy2
	OpXor               // 8xy3
	OpAdd               // 8xy4
	OpSub               // 8xy5
	OpShr               // 8xy6
	OpSubn              // 8xy7
	OpShl               // 8xyE
	OpSne               // 9xy0
	OpLdI               // Annn
	OpJpV0              // Bnnn
	OpRnd               // Cxkk
	OpDrw               // Dxyn
	OpSkp               // Ex9E
	OpSknp              // ExA1
	OpLdDt              // Fx07
	OpLdK               // Fx0A
	OpLdTd              // Fx15
	OpLdSt              // Fx18
	OpAddI              // Fx1E
	OpLdS               // Fx29
	OpLdBCD             // Fx33
	OpLdVM              // Fx55
	OpLdMV              // Fx65
)

// Instruction is a fully decoded opcode. It is a pure value: produced once
// per fetch, consumed once by the executor, never mutated. Only the operand
// fields relevant to Op are meaningful; the rest stay zero.
type Instruction struct {
	Op   Opcode
	X    uint8  // first register operand
	Y    uint8  // second register operand
	N    uint8  // low nibble operand (sprite height)
	KK   uint8  // byte immediate
	Addr uint16 // 12-bit address operand
}

// DecodeError reports a bit pattern that matches no instruction. It keeps
// the raw bytes for diagnostics.
type DecodeError struct {
	Hi, Lo uint8
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("illegal opcode 0x%02X%02X", e.Hi, e.Lo)
}

// Decode maps a 2-byte big-endian opcode to its Instruction. It is total
// and deterministic over all 65536 bit patterns: every input yields either
// an Instruction or a *DecodeError, with no side effects either way.
func Decode(hi, lo uint8) (Instruction, error) {
	var (
		x    = hi & 0x0F
		y    = lo >> 4
		n    = lo & 0x0F
		addr = uint16(hi&0x0F)<<8 | uint16(lo)
	)

	switch hi >> 4 {
	case 0x0:
		switch addr {
		case 0x0E0:
			return Instruction{Op: OpCls}, nil
		case 0x0EE:
			return Instruction{Op: OpRet}, nil
		default:
			// Catch-all legacy opcode. Never a decode failure.
			return Instruction{Op: OpSys, Addr: addr}, nil
		}
	case 0x1:
		return Instruction{Op: OpJp, Addr: addr}, nil
	case 0x2:
		return Instruction{Op: OpCall, Addr: addr}, nil
	case 0x3:
		return Instruction{Op: OpSeV, X: x, KK: lo}, nil
	case 0x4:
		return Instruction{Op: OpSneV, X: x, KK: lo}, nil
	case 0x5:
		if n != 0x0 {
			return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
		}
		return Instruction{Op: OpSe, X: x, Y: y}, nil
	case 0x6:
		return Instruction{Op: OpLdV, X: x, KK: lo}, nil
	case 0x7:
		return Instruction{Op: OpAddV, X: x, KK: lo}, nil
	case 0x8:
		// The low nibble selects the ALU operation. Shr and Shl consume a y
		// nibble from the encoding but execution ignores it.
		switch n {
		case 0x0:
			return Instruction{Op: OpLd, X: x, Y: y}, nil
		case 0x1:
			return Instruction{Op: OpOr, X: x, Y: y}, nil
		case 0x2:
			return Instruction{Op: OpAnd, X: x, Y: y}, nil
		case 0x3:
			return Instruction{Op: OpXor, X: x, Y: y}, nil
		case 0x4:
			return Instruction{Op: OpAdd, X: x, Y: y}, nil
		case 0x5:
			return Instruction{Op: OpSub, X: x, Y: y}, nil
		case 0x6:
			return Instruction{Op: OpShr, X: x}, nil
		case 0x7:
			return Instruction{Op: OpSubn, X: x, Y: y}, nil
		case 0xE:
			return Instruction{Op: OpShl, X: x}, nil
		default:
			return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
		}
	case 0x9:
		// Unlike group 5, the trailing nibble is ignored.
		return Instruction{Op: OpSne, X: x, Y: y}, nil
	case 0xA:
		return Instruction{Op: OpLdI, Addr: addr}, nil
	case 0xB:
		return Instruction{Op: OpJpV0, Addr: addr}, nil
	case 0xC:
		return Instruction{Op: OpRnd, X: x, KK: lo}, nil
	case 0xD:
		return Instruction{Op: OpDrw, X: x, Y: y, N: n}, nil
	case 0xE:
		switch lo {
		case 0x9E:
			return Instruction{Op: OpSkp, X: x}, nil
		case 0xA1:
			return Instruction{Op: OpSknp, X: x}, nil
		default:
			return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
		}
	case 0xF:
		switch lo {
		case 0x07:
			return Instruction{Op: OpLdDt, X: x}, nil
		case 0x0A:
			return Instruction{Op: OpLdK, X: x}, nil
		case 0x15:
			return Instruction{Op: OpLdTd, X: x}, nil
		case 0x18:
			return Instruction{Op: OpLdSt, X: x}, nil
		case 0x1E:
			return Instruction{Op: OpAddI, X: x}, nil
		case 0x29:
			return Instruction{Op: OpLdS, X: x}, nil
		case 0x33:
			return Instruction{Op: OpLdBCD, X: x}, nil
		case 0x55:
			return Instruction{Op: OpLdVM, X: x}, nil
		case 0x65:
			return Instruction{Op: OpLdMV, X: x}, nil
		default:
			return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
		}
	}
	return Instruction{}, &DecodeError{Hi: hi, Lo: lo}
}

// String renders the instruction in the conventional CHIP-8 assembly form.
// Used by the execution trace and by fault diagnostics.
func (in Instruction) String() string {
	switch in.Op {
	case OpSys:
		return fmt.Sprintf("SYS 0x%03X", in.Addr)
	case OpCls:
		return "CLS"
	case OpRet:
		return "RET"
	case OpJp:
		return fmt.Sprintf("JP 0x%03X", in.Addr)
	case OpCall:
		return fmt.Sprintf("CALL 0x%03X", in.Addr)
	case OpSeV:
		return fmt.Sprintf("SE V%X, 0x%02X", in.X, in.KK)
	case OpSneV:
		return fmt.Sprintf("SNE V%X, 0x%02X", in.X, in.KK)
	case OpSe:
		return fmt.Sprintf("SE V%X, V%X", in.X, in.Y)
	case OpLdV:
		return fmt.Sprintf("LD V%X, 0x%02X", in.X, in.KK)
	case OpAddV:
		return fmt.Sprintf("ADD V%X, 0x%02X", in.X, in.KK)
	case OpLd:
		return fmt.Sprintf("LD V%X, V%X", in.X, in.Y)
	case OpOr:
		return fmt.Sprintf("OR V%X, V%X", in.X, in.Y)
	case OpAnd:
		return fmt.Sprintf("AND V%X, V%X", in.X, in.Y)
	case OpXor:
		return fmt.Sprintf("XOR V%X, V%X", in.X, in.Y)
	case OpAdd:
		return fmt.Sprintf("ADD V%X, V%X", in.X, in.Y)
	case OpSub:
		return fmt.Sprintf("SUB V%X, V%X", in.X, in.Y)
	case OpShr:
		return fmt.Sprintf("SHR V%X", in.X)
	case OpSubn:
		return fmt.Sprintf("SUBN V%X, V%X", in.X, in.Y)
	case OpShl:
		return fmt.Sprintf("SHL V%X", in.X)
	case OpSne:
		return fmt.Sprintf("SNE V%X, V%X", in.X, in.Y)
	case OpLdI:
		return fmt.Sprintf("LD I, 0x%03X", in.Addr)
	case OpJpV0:
		return fmt.Sprintf("JP V0, 0x%03X", in.Addr)
	case OpRnd:
		return fmt.Sprintf("RND V%X, 0x%02X", in.X, in.KK)
	case OpDrw:
		return fmt.Sprintf("DRW V%X, V%X, %d", in.X, in.Y, in.N)
	case OpSkp:
		return fmt.Sprintf("SKP V%X", in.X)
	case OpSknp:
		return fmt.Sprintf("SKNP V%X", in.X)
	case OpLdDt:
		return fmt.Sprintf("LD V%X, DT", in.X)
	case OpLdK:
		return fmt.Sprintf("LD V%X, K", in.X)
	case OpLdTd:
		return fmt.Sprintf("LD DT, V%X", in.X)
	case OpLdSt:
		return fmt.Sprintf("LD ST, V%X", in.X)
	case OpAddI:
		return fmt.Sprintf("ADD I, V%X", in.X)
	case OpLdS:
		return fmt.Sprintf("LD F, V%X", in.X)
	case OpLdBCD:
		return fmt.Sprintf("LD B, V%X", in.X)
	case OpLdVM:
		return fmt.Sprintf("LD [I], V%X", in.X)
	case OpLdMV:
		return fmt.Sprintf("LD V%X, [I]", in.X)
	}
	return fmt.Sprintf("Opcode(%d)", in.Op)
}
