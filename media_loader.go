// media_loader.go - ROM file loading

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// MAX_ROM_SIZE is the largest ROM that fits between PROGRAM_START and
// the end of the address space.
const MAX_ROM_SIZE = MEMORY_SIZE - PROGRAM_START

type RomErrorKind int

const (
	RomNotFound RomErrorKind = iota
	RomIOError
	RomTooLarge
)

func (k RomErrorKind) String() string {
	switch k {
	case RomNotFound:
		return "not found"
	case RomIOError:
		return "io error"
	case RomTooLarge:
		return "too large"
	}
	return fmt.Sprintf("RomErrorKind(%d)", int(k))
}

// RomError reports why a ROM could not be loaded.
type RomError struct {
	Path string
	Kind RomErrorKind
	Err  error
}

func (e *RomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rom %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("rom %s: %s", e.Path, e.Kind)
}

func (e *RomError) Unwrap() error {
	return e.Err
}

// LoadROM reads a ROM file and checks that it fits in program space.
// The caller copies the returned bytes to PROGRAM_START.
func LoadROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := RomIOError
		if errors.Is(err, fs.ErrNotExist) {
			kind = RomNotFound
		}
		return nil, &RomError{Path: path, Kind: kind, Err: err}
	}
	if len(data) > MAX_ROM_SIZE {
		return nil, &RomError{
			Path: path,
			Kind: RomTooLarge,
			Err:  fmt.Errorf("%d bytes exceeds %d byte program space", len(data), MAX_ROM_SIZE),
		}
	}
	return data, nil
}
