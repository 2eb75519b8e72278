// script_host.go - Lua automation bound to an offscreen machine

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ScriptError wraps a Lua failure with the script path.
type ScriptError struct {
	Path string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ScriptHost runs Lua scripts against the machine: regression checks,
// input replay and framebuffer inspection without opening a window. The
// script drives execution itself through chip8.step and chip8.run, so
// the host never races the script over CPU state.
type ScriptHost struct {
	runner *Chip8Runner
	io     MachineIO
}

func NewScriptHost(runner *Chip8Runner, io MachineIO) *ScriptHost {
	return &ScriptHost{runner: runner, io: io}
}

// RunFile executes one Lua script with the chip8 table in scope.
func (h *ScriptHost) RunFile(path string) error {
	L := lua.NewState()
	defer L.Close()

	h.register(L)
	if err := L.DoFile(path); err != nil {
		return &ScriptError{Path: path, Err: err}
	}
	return nil
}

func (h *ScriptHost) register(L *lua.LState) {
	cpu := h.runner.CPU()
	keypad, _ := h.io.(KeySettable)

	checkReg := func(L *lua.LState, arg int) int {
		idx := L.CheckInt(arg)
		if idx < 0 || idx >= NUM_REGISTERS {
			L.ArgError(arg, "register index out of range")
		}
		return idx
	}
	checkAddr := func(L *lua.LState, arg int) uint16 {
		addr := L.CheckInt(arg)
		if addr < 0 || addr > MAX_ADDRESS {
			L.ArgError(arg, "address out of range")
		}
		return uint16(addr)
	}
	checkByte := func(L *lua.LState, arg int) uint8 {
		value := L.CheckInt(arg)
		if value < 0 || value > 0xFF {
			L.ArgError(arg, "byte value out of range")
		}
		return uint8(value)
	}
	checkKey := func(L *lua.LState, arg int) uint8 {
		key := L.CheckInt(arg)
		if key < 0 || key > 0xF {
			L.ArgError(arg, "keypad key out of range")
		}
		return uint8(key)
	}
	needKeypad := func(L *lua.LState) KeySettable {
		if keypad == nil {
			L.RaiseError("frontend does not support key injection")
		}
		return keypad
	}

	exports := map[string]lua.LGFunction{
		"step": func(L *lua.LState) int {
			n := L.OptInt(1, 1)
			if n < 1 {
				L.ArgError(1, "step count must be positive")
			}
			L.Push(lua.LNumber(h.runner.StepN(n)))
			return 1
		},
		"run": func(L *lua.LState) int {
			h.runner.RunToHalt()
			_, reason := h.runner.Halted()
			L.Push(lua.LString(reason))
			return 1
		},
		"reset": func(L *lua.LState) int {
			h.runner.Reset()
			return 0
		},
		"halted": func(L *lua.LState) int {
			halted, _ := h.runner.Halted()
			L.Push(lua.LBool(halted))
			return 1
		},
		"halt_reason": func(L *lua.LState) int {
			_, reason := h.runner.Halted()
			L.Push(lua.LString(reason))
			return 1
		},
		"v": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.V[checkReg(L, 1)]))
			return 1
		},
		"set_v": func(L *lua.LState) int {
			idx := checkReg(L, 1)
			cpu.V[idx] = checkByte(L, 2)
			return 0
		},
		"i": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.I))
			return 1
		},
		"pc": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.PC))
			return 1
		},
		"sp": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.sp))
			return 1
		},
		"dt": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.DelayTimer()))
			return 1
		},
		"st": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.SoundTimer()))
			return 1
		},
		"peek": func(L *lua.LState) int {
			L.Push(lua.LNumber(cpu.Peek(checkAddr(L, 1))))
			return 1
		},
		"poke": func(L *lua.LState) int {
			addr := checkAddr(L, 1)
			cpu.Poke(addr, checkByte(L, 2))
			return 0
		},
		"press": func(L *lua.LState) int {
			needKeypad(L).SetKey(checkKey(L, 1), true)
			return 0
		},
		"release": func(L *lua.LState) int {
			needKeypad(L).SetKey(checkKey(L, 1), false)
			return 0
		},
		"quit": func(L *lua.LState) int {
			needKeypad(L).SetQuit()
			return 0
		},
		"pixel": func(L *lua.LState) int {
			x := L.CheckInt(1)
			y := L.CheckInt(2)
			L.Push(lua.LBool(h.io.Display().Pixel(x, y)))
			return 1
		},
	}

	mod := L.SetFuncs(L.NewTable(), exports)
	L.SetGlobal("chip8", mod)
}
