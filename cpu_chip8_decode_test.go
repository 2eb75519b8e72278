// cpu_chip8_decode_test.go - decoder behaviour over the full opcode space

package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode_Totality sweeps every 16-bit pattern: each one must decode
// to exactly one instruction or one DecodeError, identically on repeat
// calls, and failures must carry the raw bytes.
func TestDecode_Totality(t *testing.T) {
	for code := 0; code <= 0xFFFF; code++ {
		hi, lo := uint8(code>>8), uint8(code&0xFF)

		in1, err1 := Decode(hi, lo)
		in2, err2 := Decode(hi, lo)
		require.Equal(t, in1, in2, "opcode 0x%04X not deterministic", code)
		require.Equal(t, err1, err2, "opcode 0x%04X not deterministic", code)

		if err1 == nil {
			continue
		}
		var decodeErr *DecodeError
		require.ErrorAs(t, err1, &decodeErr, "opcode 0x%04X", code)
		require.Equal(t, hi, decodeErr.Hi, "opcode 0x%04X", code)
		require.Equal(t, lo, decodeErr.Lo, "opcode 0x%04X", code)
	}
}

var decodeFixtures = []struct {
	hi, lo uint8
	want   Instruction
}{
	{0x00, 0xE0, Instruction{Op: OpCls}},
	{0x00, 0xEE, Instruction{Op: OpRet}},
	{0x01, 0x23, Instruction{Op: OpSys, Addr: 0x123}},
	{0x12, 0x34, Instruction{Op: OpJp, Addr: 0x234}},
	{0x23, 0x45, Instruction{Op: OpCall, Addr: 0x345}},
	{0x3A, 0x12, Instruction{Op: OpSeV, X: 0xA, KK: 0x12}},
	{0x4B, 0x34, Instruction{Op: OpSneV, X: 0xB, KK: 0x34}},
	{0x51, 0x20, Instruction{Op: OpSe, X: 0x1, Y: 0x2}},
	{0x6A, 0x07, Instruction{Op: OpLdV, X: 0xA, KK: 0x07}},
	{0x7F, 0xFF, Instruction{Op: OpAddV, X: 0xF, KK: 0xFF}},
	{0x8A, 0xB0, Instruction{Op: OpLd, X: 0xA, Y: 0xB}},
	{0x8A, 0xB1, Instruction{Op: OpOr, X: 0xA, Y: 0xB}},
	{0x8A, 0xB2, Instruction{Op: OpAnd, X: 0xA, Y: 0xB}},
	{0x8A, 0xB3, Instruction{Op: OpXor, X: 0xA, Y: 0xB}},
	{0x8A, 0xB4, Instruction{Op: OpAdd, X: 0xA, Y: 0xB}},
	{0x8A, 0xB5, Instruction{Op: OpSub, X: 0xA, Y: 0xB}},
	{0x8A, 0xB6, Instruction{Op: OpShr, X: 0xA}},
	{0x8A, 0xB7, Instruction{Op: OpSubn, X: 0xA, Y: 0xB}},
	{0x8A, 0xBE, Instruction{Op: OpShl, X: 0xA}},
	{0x9A, 0xB0, Instruction{Op: OpSne, X: 0xA, Y: 0xB}},
	{0x91, 0x2F, Instruction{Op: OpSne, X: 0x1, Y: 0x2}},
	{0xA1, 0x23, Instruction{Op: OpLdI, Addr: 0x123}},
	{0xB1, 0x23, Instruction{Op: OpJpV0, Addr: 0x123}},
	{0xC4, 0x55, Instruction{Op: OpRnd, X: 0x4, KK: 0x55}},
	{0xD1, 0x2F, Instruction{Op: OpDrw, X: 0x1, Y: 0x2, N: 0xF}},
	{0xE2, 0x9E, Instruction{Op: OpSkp, X: 0x2}},
	{0xE3, 0xA1, Instruction{Op: OpSknp, X: 0x3}},
	{0xF1, 0x07, Instruction{Op: OpLdDt, X: 0x1}},
	{0xF2, 0x0A, Instruction{Op: OpLdK, X: 0x2}},
	{0xF3, 0x15, Instruction{Op: OpLdTd, X: 0x3}},
	{0xF4, 0x18, Instruction{Op: OpLdSt, X: 0x4}},
	{0xF5, 0x1E, Instruction{Op: OpAddI, X: 0x5}},
	{0xF6, 0x29, Instruction{Op: OpLdS, X: 0x6}},
	{0xF7, 0x33, Instruction{Op: OpLdBCD, X: 0x7}},
	{0xF8, 0x55, Instruction{Op: OpLdVM, X: 0x8}},
	{0xF9, 0x65, Instruction{Op: OpLdMV, X: 0x9}},
}

func TestDecode_Fixtures(t *testing.T) {
	for _, test := range decodeFixtures {
		t.Run(fmt.Sprintf("opcode[%02X%02X]", test.hi, test.lo), func(t *testing.T) {
			in, err := Decode(test.hi, test.lo)
			require.NoError(t, err)
			assert.Equal(t, test.want, in)
		})
	}
}

var decodeIllegal = []struct {
	hi, lo uint8
}{
	{0x51, 0x21}, // group 5 with nonzero trailing nibble
	{0x5F, 0xFF},
	{0x8A, 0xB8}, // group 8 selector gap between 7 and E
	{0x8A, 0xB9},
	{0x8A, 0xBF},
	{0xE0, 0x9D},
	{0xE0, 0xA2},
	{0xE0, 0x00},
	{0xEF, 0xFF},
	{0xF0, 0x00},
	{0xF0, 0x08},
	{0xF0, 0x30},
	{0xF0, 0x66},
	{0xFF, 0xFF},
}

func TestDecode_IllegalPatterns(t *testing.T) {
	for _, test := range decodeIllegal {
		t.Run(fmt.Sprintf("opcode[%02X%02X]", test.hi, test.lo), func(t *testing.T) {
			_, err := Decode(test.hi, test.lo)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t,
				fmt.Sprintf("illegal opcode 0x%02X%02X", test.hi, test.lo),
				decodeErr.Error())
		})
	}
}

// Group 0 is a catch-all: everything that is not CLS or RET decodes as a
// legacy SYS, never as a failure.
func TestDecode_Group0CatchAll(t *testing.T) {
	for _, addr := range []uint16{0x000, 0x0E1, 0x0ED, 0x123, 0xFFF} {
		in, err := Decode(uint8(addr>>8), uint8(addr&0xFF))
		if err != nil {
			t.Fatalf("0x0%03X: unexpected decode failure: %v", addr, err)
		}
		if in.Op != OpSys || in.Addr != addr {
			t.Fatalf("0x0%03X: expected SYS with addr 0x%03X, got %+v", addr, addr, in)
		}
	}
}

// Only group 5 constrains the trailing nibble: 9xyN decodes as
// SNE Vx, Vy for every N.
func TestDecode_SneIgnoresTrailingNibble(t *testing.T) {
	for n := uint8(0); n <= 0xF; n++ {
		in, err := Decode(0x93, 0x70|n)
		if err != nil {
			t.Fatalf("0x937%X: unexpected decode failure: %v", n, err)
		}
		if in.Op != OpSne || in.X != 0x3 || in.Y != 0x7 {
			t.Fatalf("0x937%X: expected SNE V3, V7, got %+v", n, in)
		}
	}
}

func TestInstruction_String(t *testing.T) {
	tests := []struct {
		hi, lo uint8
		want   string
	}{
		{0x00, 0xE0, "CLS"},
		{0x00, 0xEE, "RET"},
		{0x01, 0x23, "SYS 0x123"},
		{0x12, 0x34, "JP 0x234"},
		{0x6A, 0x07, "LD VA, 0x07"},
		{0x8A, 0xB4, "ADD VA, VB"},
		{0x8A, 0xB6, "SHR VA"},
		{0xD1, 0x2F, "DRW V1, V2, 15"},
		{0xE2, 0x9E, "SKP V2"},
		{0xF6, 0x29, "LD F, V6"},
		{0xF7, 0x33, "LD B, V7"},
		{0xF8, 0x55, "LD [I], V8"},
		{0xF9, 0x65, "LD V9, [I]"},
	}
	for _, test := range tests {
		in, err := Decode(test.hi, test.lo)
		require.NoError(t, err)
		assert.Equal(t, test.want, in.String())
	}
}
