//go:build windows

// video_backend_terminal_windows.go - the ANSI frontend needs a POSIX tty

package main

func NewTerminalIO(config IOConfig) (MachineIO, error) {
	return nil, &IOError{
		Operation: "backend creation",
		Details:   "terminal frontend is not supported on Windows",
	}
}
