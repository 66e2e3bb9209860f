package chip8

import (
	"fmt"
	"sort"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

/// Disassemble a CHIP-8 instruction into assembler syntax. Words that
/// aren't instructions return ErrInvalidOpcode.
///
func Disassemble(inst uint16) (string, error) {
	return disassemble(inst, func(a uint16) string {
		return fmt.Sprint(a)
	})
}

/// Standard returns true if the instruction is part of the original
/// CHIP-8 instruction set (as opposed to the comparison extensions).
///
func Standard(inst uint16) bool {
	// the extensions share the 9 nibble with sne vx, vy
	if inst&0xF000 == 0x9000 && inst&0xF != 0 {
		return false
	}

	for _, op := range chip8.Opcodes[int(inst>>12)] {
		if op.Info.Mask&inst == op.Info.Value && op.Instruction != nil {
			return true
		}
	}

	return false
}

/// Listing disassembles an entire ROM into source that assembles back
/// to the same bytes. Jump, call and ldi targets inside the ROM are
/// given labels. Words the assembler can't express are written as
/// comments, so only a ROM made entirely of assemblable instructions
/// round-trips.
///
func Listing(rom []byte) string {
	words := len(rom) / 2
	end := ProgramStart + words*2

	labels := make(map[uint16]string)
	for _, a := range Labels(rom) {
		labels[a] = fmt.Sprintf("L%03X", a)
	}

	name := func(a uint16) string {
		if l, ok := labels[a]; ok {
			return "." + l
		}

		return fmt.Sprint(a)
	}

	var sb strings.Builder

	for i := 0; i < words; i++ {
		a := uint16(ProgramStart + i*2)
		inst := uint16(rom[i*2])<<8 | uint16(rom[i*2+1])

		if l, ok := labels[a]; ok {
			fmt.Fprintf(&sb, ".%s\n", l)
		}

		s, err := disassemble(inst, name)
		switch {
		case err != nil:
			fmt.Fprintf(&sb, "    ; %04X - %04X %s\n", a, inst, err)
		case !assemblable(inst):
			fmt.Fprintf(&sb, "    ; %-18s ; %04X - %04X no mnemonic\n", s, a, inst)
		case !Standard(inst):
			fmt.Fprintf(&sb, "    %-20s ; %04X - %04X non-standard\n", s, a, inst)
		default:
			fmt.Fprintf(&sb, "    %-20s ; %04X - %04X\n", s, a, inst)
		}
	}

	// trailing odd byte
	if len(rom)&1 == 1 {
		fmt.Fprintf(&sb, "    ; %04X - %02X\n", end, rom[len(rom)-1])
	}

	return sb.String()
}

/// Labels returns the sorted addresses inside the ROM that are jumped
/// to, called or loaded into I.
///
func Labels(rom []byte) []uint16 {
	end := ProgramStart + len(rom)/2*2

	seen := make(map[uint16]bool)
	for i := 0; i+1 < len(rom); i += 2 {
		inst := uint16(rom[i])<<8 | uint16(rom[i+1])

		if a, ok := target(inst); ok && int(a) >= ProgramStart && int(a) < end && a&1 == 0 {
			seen[a] = true
		}
	}

	addrs := make([]uint16, 0, len(seen))
	for a := range seen {
		addrs = append(addrs, a)
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	return addrs
}

// the assembler has no or/and/xor, shifts ignore vy, and sprites are
// at most 10 rows
func assemblable(inst uint16) bool {
	switch {
	case inst&0xF00F == 0x8006, inst&0xF00F == 0x800E:
		return inst&0xF0 == 0
	case inst&0xF000 == 0x8000:
		return inst&0xF < 1 || inst&0xF > 3
	case inst&0xF000 == 0xD000:
		return inst&0xF <= 10
	}

	return true
}

// address operand of the instructions that take one
func target(inst uint16) (uint16, bool) {
	switch inst & 0xF000 {
	case 0x1000, 0x2000, 0xA000, 0xB000:
		return inst & 0xFFF, true
	}

	return 0, false
}

func disassemble(inst uint16, addr func(uint16) string) (string, error) {
	// 12-bit literal address
	a := inst & 0xFFF

	// byte and nibble literals
	b := byte(inst & 0xFF)
	n := byte(inst & 0xF)

	// vx and vy registers
	x := inst >> 8 & 0xF
	y := inst >> 4 & 0xF

	switch {
	case inst == 0x00E0:
		return "cls", nil
	case inst == 0x00EE:
		return "ret", nil
	case inst&0xF000 == 0x1000:
		return "jp " + addr(a), nil
	case inst&0xF000 == 0x2000:
		return "call " + addr(a), nil
	case inst&0xF000 == 0x3000:
		return fmt.Sprintf("se v%d, %d", x, b), nil
	case inst&0xF000 == 0x4000:
		return fmt.Sprintf("sne v%d, %d", x, b), nil
	case inst&0xF00F == 0x5000:
		return fmt.Sprintf("se v%d, v%d", x, y), nil
	case inst&0xF000 == 0x6000:
		return fmt.Sprintf("ld v%d, %d", x, b), nil
	case inst&0xF000 == 0x7000:
		return fmt.Sprintf("add v%d, %d", x, b), nil
	case inst&0xF00F == 0x8000:
		return fmt.Sprintf("ld v%d, v%d", x, y), nil
	case inst&0xF00F == 0x8001:
		return fmt.Sprintf("or v%d, v%d", x, y), nil
	case inst&0xF00F == 0x8002:
		return fmt.Sprintf("and v%d, v%d", x, y), nil
	case inst&0xF00F == 0x8003:
		return fmt.Sprintf("xor v%d, v%d", x, y), nil
	case inst&0xF00F == 0x8004:
		return fmt.Sprintf("add v%d, v%d", x, y), nil
	case inst&0xF00F == 0x8005:
		return fmt.Sprintf("sub v%d, v%d", x, y), nil
	case inst&0xF00F == 0x8006:
		return fmt.Sprintf("shr v%d", x), nil
	case inst&0xF00F == 0x8007:
		return fmt.Sprintf("subn v%d, v%d", x, y), nil
	case inst&0xF00F == 0x800E:
		return fmt.Sprintf("shl v%d", x), nil
	case inst&0xF00F == 0x9000:
		return fmt.Sprintf("sne v%d, v%d", x, y), nil
	case inst&0xF00F == 0x9001:
		return fmt.Sprintf("gt v%d, v%d", x, y), nil
	case inst&0xF00F == 0x9002:
		return fmt.Sprintf("gte v%d, v%d", x, y), nil
	case inst&0xF00F == 0x9003:
		return fmt.Sprintf("lt v%d, v%d", x, y), nil
	case inst&0xF00F == 0x9004:
		return fmt.Sprintf("lte v%d, v%d", x, y), nil
	case inst&0xF000 == 0xA000:
		return "ldi " + addr(a), nil
	case inst&0xF000 == 0xB000:
		return "jp v0, " + addr(a), nil
	case inst&0xF000 == 0xC000:
		return fmt.Sprintf("rnd v%d, %d", x, b), nil
	case inst&0xF000 == 0xD000:
		return fmt.Sprintf("drw v%d, v%d, %d", x, y, n), nil
	case inst&0xF0FF == 0xE09E:
		return fmt.Sprintf("skp v%d", x), nil
	case inst&0xF0FF == 0xE0A1:
		return fmt.Sprintf("sknp v%d", x), nil
	case inst&0xF0FF == 0xF007:
		return fmt.Sprintf("ld v%d, dt", x), nil
	case inst&0xF0FF == 0xF00A:
		return fmt.Sprintf("getkey v%d", x), nil
	case inst&0xF0FF == 0xF015:
		return fmt.Sprintf("ld dt, v%d", x), nil
	case inst&0xF0FF == 0xF018:
		return fmt.Sprintf("ld st, v%d", x), nil
	case inst&0xF0FF == 0xF01E:
		return fmt.Sprintf("addi v%d", x), nil
	case inst&0xF0FF == 0xF029:
		return fmt.Sprintf("ldsprt v%d", x), nil
	case inst&0xF0FF == 0xF033:
		return fmt.Sprintf("ldbcd v%d", x), nil
	case inst&0xF0FF == 0xF055:
		return fmt.Sprintf("dumpreg v%d", x), nil
	case inst&0xF0FF == 0xF065:
		return fmt.Sprintf("ldreg v%d", x), nil
	}

	return "", ErrInvalidOpcode
}
