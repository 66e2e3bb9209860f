package chip8

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// assemble src, load it and execute n instructions
func run(t *testing.T, src string, n int) *VM {
	t.Helper()

	asm, err := Assemble([]byte(src))
	assert.NoError(t, err)

	vm, err := LoadROM(asm.ROM, nil, nil)
	assert.NoError(t, err)

	vm.Rand = rand.New(rand.NewSource(1))

	for i := 0; i < n; i++ {
		assert.NoError(t, vm.Step())
	}

	return vm
}

func TestNew(t *testing.T) {
	vm := New(nil, nil)

	assert.Equal(t, uint16(ProgramStart), vm.PC)
	assert.Equal(t, uint8(0), vm.SP)
	assert.Equal(t, uint16(0), vm.I)
	assert.Equal(t, [16]byte{}, vm.V)
	assert.Equal(t, byte(0), vm.DT)
	assert.Equal(t, byte(0), vm.ST)
	assert.Equal(t, Font[:], vm.Memory[:len(Font)])
	assert.NotNil(t, vm.Display)
	assert.NotNil(t, vm.Input)
	assert.Nil(t, vm.Halted())
}

func TestLoad(t *testing.T) {
	vm := New(nil, nil)

	assert.NoError(t, vm.Load([]byte{0x12, 0x34, 0x56}))
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x00}, vm.Memory[0x200:0x204])

	// a smaller program replaces the previous one entirely
	assert.NoError(t, vm.Load([]byte{0xAB}))
	assert.Equal(t, []byte{0xAB, 0x00, 0x00}, vm.Memory[0x200:0x203])

	// the whole program area may be used
	assert.NoError(t, vm.Load(make([]byte, MemorySize-ProgramStart)))

	err := vm.Load(make([]byte, MemorySize-ProgramStart+1))
	assert.True(t, errors.Is(err, ErrProgramTooLarge))

	_, err = LoadROM(make([]byte, 0x1000), nil, nil)
	assert.True(t, errors.Is(err, ErrProgramTooLarge))
}

func TestArithmeticFlags(t *testing.T) {
	tests := []struct {
		name string
		src  string
		vx   byte
		vf   byte
	}{
		{"add carry", "ld v0, 250\nld v1, 10\nadd v0, v1", 4, 1},
		{"add no carry", "ld v0, 10\nld v1, 10\nadd v0, v1", 20, 0},
		{"sub borrow", "ld v0, 10\nld v1, 250\nsub v0, v1", 16, 0},
		{"sub no borrow", "ld v0, 250\nld v1, 10\nsub v0, v1", 240, 1},
		{"sub equal", "ld v0, 7\nld v1, 7\nsub v0, v1", 0, 0},
		{"subn no borrow", "ld v0, 10\nld v1, 250\nsubn v0, v1", 240, 1},
		{"subn borrow", "ld v0, 250\nld v1, 10\nsubn v0, v1", 16, 0},
		{"shr odd", "ld v0, 5\nld v1, 0\nshr v0", 2, 1},
		{"shr even", "ld v0, 4\nld v1, 0\nshr v0", 2, 0},
		{"shl high bit", "ld v0, 129\nld v1, 0\nshl v0", 2, 1},
		{"shl low bits", "ld v0, 65\nld v1, 0\nshl v0", 130, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := run(t, tt.src, 3)
			assert.Equal(t, tt.vx, vm.V[0])
			assert.Equal(t, tt.vf, vm.V[0xF])
		})
	}
}

func TestAddImmediateLeavesFlag(t *testing.T) {
	vm := run(t, "ld v15, 9\nld v0, 250\nadd v0, 10", 3)
	assert.Equal(t, byte(4), vm.V[0])
	assert.Equal(t, byte(9), vm.V[0xF])
}

func TestFlagWinsOverResult(t *testing.T) {
	vm := run(t, "ld v15, 200\nld v1, 100\nadd v15, v1", 3)
	assert.Equal(t, byte(1), vm.V[0xF])

	vm = run(t, "ld v15, 6\nshr v15", 2)
	assert.Equal(t, byte(0), vm.V[0xF])
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		op string
		vf [3]byte // 5 vs 3, 3 vs 3, 3 vs 5
	}{
		{"gt", [3]byte{1, 0, 0}},
		{"gte", [3]byte{1, 1, 0}},
		{"lt", [3]byte{0, 0, 1}},
		{"lte", [3]byte{0, 1, 1}},
	}

	pairs := [3][2]string{{"5", "3"}, {"3", "3"}, {"3", "5"}}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			for i, p := range pairs {
				vm := run(t, "ld v1, "+p[0]+"\nld v2, "+p[1]+"\n"+tt.op+" v1, v2", 3)
				assert.Equal(t, tt.vf[i], vm.V[0xF])
				assert.Equal(t, uint16(0x206), vm.PC)
			}
		})
	}
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name string
		src  string
		pc   uint16
	}{
		{"se byte taken", "ld v0, 5\nld v1, 5\nse v0, 5", 0x208},
		{"se byte not taken", "ld v0, 5\nld v1, 5\nse v0, 6", 0x206},
		{"sne byte taken", "ld v0, 5\nld v1, 5\nsne v0, 6", 0x208},
		{"sne byte not taken", "ld v0, 5\nld v1, 5\nsne v0, 5", 0x206},
		{"se reg taken", "ld v0, 5\nld v1, 5\nse v0, v1", 0x208},
		{"se reg not taken", "ld v0, 5\nld v1, 6\nse v0, v1", 0x206},
		{"sne reg taken", "ld v0, 5\nld v1, 6\nsne v0, v1", 0x208},
		{"sne reg not taken", "ld v0, 5\nld v1, 5\nsne v0, v1", 0x206},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := run(t, tt.src, 3)
			assert.Equal(t, tt.pc, vm.PC)
		})
	}
}

func TestKeySkips(t *testing.T) {
	asm, err := Assemble([]byte("ld v0, 7\nskp v0\ncls\nsknp v0\ncls\ncls"))
	assert.NoError(t, err)

	keys := NewKeypad()
	vm, err := LoadROM(asm.ROM, nil, keys)
	assert.NoError(t, err)

	keys.PressKey(7)

	assert.NoError(t, vm.Step())
	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(0x206), vm.PC)

	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(0x208), vm.PC)
}

func TestJumps(t *testing.T) {
	vm := run(t, "jp .next\ncls\n.next\nld v0, 4\njp v0, 520", 3)
	assert.Equal(t, uint16(524), vm.PC)
}

func TestCallAndReturn(t *testing.T) {
	vm := run(t, "call .sub\ncls\n.sub\nret", 1)
	assert.Equal(t, uint16(0x204), vm.PC)
	assert.Equal(t, uint8(1), vm.SP)
	assert.Equal(t, uint16(0x202), vm.Stack[0])

	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(0x202), vm.PC)
	assert.Equal(t, uint8(0), vm.SP)
}

func TestStackOverflow(t *testing.T) {
	vm := run(t, ".loop\ncall .loop", StackSize)
	assert.Equal(t, uint8(StackSize), vm.SP)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
}

func TestStackUnderflow(t *testing.T) {
	vm := run(t, "ret", 0)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))

	var execErr *ExecError
	assert.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0x200), execErr.PC)
	assert.Equal(t, uint16(0x00EE), execErr.Opcode)
	assert.ErrorContains(t, err, "0200 - 00EE: stack underflow")

	// the machine stays halted
	err = vm.Step()
	assert.True(t, errors.Is(err, ErrHalted))
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.NotNil(t, vm.Halted())

	// until it is reset
	vm.Reset()
	assert.Nil(t, vm.Halted())
}

func TestInvalidOpcodes(t *testing.T) {
	for _, op := range []uint16{0x0123, 0x0000, 0x5121, 0x8128, 0x812F, 0x9125, 0xE1FF, 0xF1FF} {
		vm, err := LoadROM([]byte{byte(op >> 8), byte(op)}, nil, nil)
		assert.NoError(t, err)

		err = vm.Step()
		assert.True(t, errors.Is(err, ErrInvalidOpcode), "opcode %04X", op)
	}
}

func TestAddressRange(t *testing.T) {
	// the last byte of memory is addressable
	vm := run(t, "ldi 4095\nldreg v0", 2)
	assert.Equal(t, byte(0), vm.V[0])

	vm = run(t, "ldi 4095\ndumpreg v1", 1)
	err := vm.Step()
	assert.True(t, errors.Is(err, ErrAddressRange))

	vm = run(t, "ldi 4094\nldbcd v0", 1)
	err = vm.Step()
	assert.True(t, errors.Is(err, ErrAddressRange))

	vm = run(t, "jp 4095", 1)
	err = vm.Step()
	assert.True(t, errors.Is(err, ErrAddressRange))
}

func TestLoadI(t *testing.T) {
	vm := run(t, "ldi 768\nld v2, 4\naddi v2", 3)
	assert.Equal(t, uint16(772), vm.I)

	vm = run(t, "ld v3, 11\nldsprt v3", 2)
	assert.Equal(t, uint16(55), vm.I)
}

func TestBCD(t *testing.T) {
	tests := []struct {
		n      string
		digits []byte
	}{
		{"157", []byte{1, 5, 7}},
		{"0", []byte{0, 0, 0}},
		{"9", []byte{0, 0, 9}},
		{"42", []byte{0, 4, 2}},
		{"255", []byte{2, 5, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.n, func(t *testing.T) {
			vm := run(t, "ld v4, "+tt.n+"\nldi 768\nldbcd v4", 3)
			assert.Equal(t, tt.digits, vm.Memory[768:771])
		})
	}
}

func TestDumpAndLoadRegisters(t *testing.T) {
	src := `
		ld v0, 1
		ld v1, 2
		ld v2, 3
		ld v3, 4
		ld v4, 99
		ldi 800
		dumpreg v3
		ld v0, 0
		ld v1, 0
		ld v2, 0
		ld v3, 0
		ld v4, 0
		ldreg v3
	`

	vm := run(t, src, 7)
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, vm.Memory[800:805])

	for i := 0; i < 6; i++ {
		assert.NoError(t, vm.Step())
	}

	assert.Equal(t, []byte{1, 2, 3, 4, 0}, vm.V[:5])
	assert.Equal(t, uint16(800), vm.I)
}

func TestDraw(t *testing.T) {
	screen := NewScreen()

	asm, err := Assemble([]byte("ld v0, 0\nldsprt v0\ndrw v1, v1, 5\ndrw v1, v1, 5"))
	assert.NoError(t, err)

	vm, err := LoadROM(asm.ROM, screen, nil)
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.NoError(t, vm.Step())
	}

	// the zero glyph has 14 pixels
	assert.Equal(t, 14, screen.Lit())
	assert.Equal(t, byte(0), vm.V[0xF])
	assert.True(t, screen.Pixel(0, 0))
	assert.False(t, screen.Pixel(1, 1))

	// drawing it again erases it
	assert.NoError(t, vm.Step())
	assert.Equal(t, 0, screen.Lit())
	assert.Equal(t, byte(1), vm.V[0xF])
}

func TestDrawWraps(t *testing.T) {
	screen := NewScreen()

	asm, err := Assemble([]byte("ld v0, 62\nld v1, 31\nld v2, 0\nldsprt v2\ndrw v0, v1, 5"))
	assert.NoError(t, err)

	vm, err := LoadROM(asm.ROM, screen, nil)
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.NoError(t, vm.Step())
	}

	// top row of the glyph is on the last scan line
	assert.True(t, screen.Pixel(62, 31))
	assert.True(t, screen.Pixel(63, 31))
	assert.True(t, screen.Pixel(0, 31))
	assert.True(t, screen.Pixel(1, 31))

	// the rest wraps to the top
	assert.True(t, screen.Pixel(62, 0))
	assert.False(t, screen.Pixel(63, 0))
	assert.False(t, screen.Pixel(0, 0))
	assert.True(t, screen.Pixel(1, 0))
	assert.Equal(t, 14, screen.Lit())
}

func TestClear(t *testing.T) {
	screen := NewScreen()

	asm, err := Assemble([]byte("ldsprt v0\ndrw v0, v0, 5\ncls"))
	assert.NoError(t, err)

	vm, err := LoadROM(asm.ROM, screen, nil)
	assert.NoError(t, err)

	assert.NoError(t, vm.Step())
	assert.NoError(t, vm.Step())
	assert.True(t, screen.Lit() > 0)

	assert.NoError(t, vm.Step())
	assert.Equal(t, 0, screen.Lit())
}

func TestRandom(t *testing.T) {
	vm := run(t, "rnd v0, 0\nrnd v1, 15", 2)
	assert.Equal(t, byte(0), vm.V[0])
	assert.True(t, vm.V[1] <= 15)
}

func TestTimers(t *testing.T) {
	src := `
		ld v0, 3
		ld dt, v0
		cls
		ld v1, dt
	`

	vm := run(t, src, 2)
	assert.Equal(t, byte(3), vm.DT)

	// counts down before each instruction executes
	assert.NoError(t, vm.Step())
	assert.Equal(t, byte(2), vm.DT)

	assert.NoError(t, vm.Step())
	assert.Equal(t, byte(1), vm.V[1])
}

func TestSound(t *testing.T) {
	vm := run(t, "ld v0, 2\nld st, v0\ncls\ncls", 2)
	assert.True(t, vm.Sound())

	assert.NoError(t, vm.Step())
	assert.True(t, vm.Sound())

	assert.NoError(t, vm.Step())
	assert.False(t, vm.Sound())
}

func TestWaitForKey(t *testing.T) {
	asm, err := Assemble([]byte("getkey v3"))
	assert.NoError(t, err)

	keys := NewKeypad()
	vm, err := LoadROM(asm.ROM, nil, keys)
	assert.NoError(t, err)

	// no key event, the instruction repeats
	assert.NoError(t, vm.Step())
	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(0x200), vm.PC)

	keys.PressKey(0xA)

	assert.NoError(t, vm.Step())
	assert.Equal(t, byte(0xA), vm.V[3])
	assert.Equal(t, uint16(0x202), vm.PC)
}

func TestWaitForKeyIgnoresEarlierPress(t *testing.T) {
	asm, err := Assemble([]byte(".loop\nadd v0, 1\nse v0, 200\njp .loop\ngetkey v2\ncls"))
	assert.NoError(t, err)

	keys := NewKeypad()
	vm, err := LoadROM(asm.ROM, nil, keys)
	assert.NoError(t, err)

	// pressed and released long before the key wait
	keys.PressKey(7)
	keys.ReleaseKey(7)

	for vm.PC != 0x206 {
		assert.NoError(t, vm.Step())
	}

	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(0x206), vm.PC)
	assert.Equal(t, byte(0), vm.V[2])

	keys.PressKey(5)

	assert.NoError(t, vm.Step())
	assert.Equal(t, byte(5), vm.V[2])
	assert.Equal(t, uint16(0x208), vm.PC)
}

func TestReset(t *testing.T) {
	vm := run(t, "ld v0, 9\nldi 768\nldbcd v0\ncall 512", 4)
	assert.Equal(t, byte(9), vm.Memory[770])
	assert.Equal(t, int64(4), vm.Cycles)

	vm.Reset()

	assert.Equal(t, byte(0), vm.Memory[770])
	assert.Equal(t, uint16(ProgramStart), vm.PC)
	assert.Equal(t, uint8(0), vm.SP)
	assert.Equal(t, byte(0), vm.V[0])
	assert.Equal(t, int64(0), vm.Cycles)

	// the program survives
	assert.Equal(t, []byte{0x60, 0x09}, vm.Memory[0x200:0x202])
}
