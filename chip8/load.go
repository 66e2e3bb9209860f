package chip8

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

/// IsSource returns true if the file name looks like assembly source
/// rather than a binary ROM.
///
func IsSource(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".asm", ".s", ".c8s":
		return true
	}

	return false
}

/// ReadSource reads and assembles a source file.
///
func ReadSource(fs afero.Fs, name string) (*Assembly, error) {
	src, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	asm, err := Assemble(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return asm, nil
}

/// LoadFile reads a program from fs. Source files are assembled first,
/// anything else is treated as a ROM image.
///
func LoadFile(fs afero.Fs, name string) ([]byte, error) {
	if IsSource(name) {
		asm, err := ReadSource(fs, name)
		if err != nil {
			return nil, err
		}

		return asm.ROM, nil
	}

	program, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}

	if len(program) > MemorySize-ProgramStart {
		return nil, fmt.Errorf("%s: %w", name, ErrProgramTooLarge)
	}

	return program, nil
}
