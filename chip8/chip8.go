package chip8

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	/// ProgramStart is where programs are loaded and execution begins.
	///
	ProgramStart = 0x200

	/// MemorySize is the size of the address space.
	///
	MemorySize = 0x1000

	/// StackSize is how many return addresses the stack holds.
	///
	StackSize = 16
)

/// Display is the pixel surface sprites are drawn to. Coordinates are
/// always within Width x Height.
///
type Display interface {
	Clear()
	Pixel(x, y int) bool
	SetPixel(x, y int, on bool)
}

/// Input is the 16-key pad. PollKey returns the next pending key press
/// event, if there is one, and never blocks.
///
type Input interface {
	KeyDown(key byte) bool
	PollKey() (byte, bool)
}

/// VM is the CHIP-8 virtual machine.
///
type VM struct {
	/// ROM is the pristine memory image (font and program) that Memory
	/// is restored from on Reset.
	///
	ROM [MemorySize]byte

	/// Memory addressable by CHIP-8. The first 512 bytes are reserved,
	/// and hold the font sprites.
	///
	Memory [MemorySize]byte

	/// PC is the program counter. All programs begin at 0x200.
	///
	PC uint16

	/// SP is the number of return addresses on the stack.
	///
	SP uint8

	/// Stack of return addresses.
	///
	Stack [StackSize]uint16

	/// I is the address register.
	///
	I uint16

	/// V are the 16 virtual registers. VF doubles as the carry, borrow
	/// and collision flag.
	///
	V [16]byte

	/// DT and ST are the delay and sound timers. Both count down once
	/// per executed instruction.
	///
	DT byte
	ST byte

	/// Cycles is how many instructions have been executed.
	///
	Cycles int64

	/// Display and Input surfaces.
	///
	Display Display
	Input   Input

	/// Rand is the source for the RND instruction.
	///
	Rand *rand.Rand

	// set once the machine has halted
	halt error
}

/// New returns a powered-on virtual machine with no program loaded. A nil
/// display or input is replaced with a Screen or Keypad.
///
func New(display Display, input Input) *VM {
	if display == nil {
		display = NewScreen()
	}
	if input == nil {
		input = NewKeypad()
	}

	vm := &VM{
		Display: display,
		Input:   input,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// the font is the only thing in memory at power-on
	copy(vm.ROM[:], Font[:])

	vm.Reset()

	return vm
}

/// LoadROM creates a new virtual machine and loads program into it.
///
func LoadROM(program []byte, display Display, input Input) (*VM, error) {
	vm := New(display, input)

	if err := vm.Load(program); err != nil {
		return nil, err
	}

	return vm, nil
}

/// Load copies program into memory at ProgramStart and resets the
/// machine.
///
func (vm *VM) Load(program []byte) error {
	if len(program) > MemorySize-ProgramStart {
		return fmt.Errorf("%w: %d bytes", ErrProgramTooLarge, len(program))
	}

	// clear any previous program
	for i := ProgramStart; i < MemorySize; i++ {
		vm.ROM[i] = 0
	}

	copy(vm.ROM[ProgramStart:], program)

	vm.Reset()

	return nil
}

/// Reset the virtual machine memory and registers.
///
func (vm *VM) Reset() {
	vm.Memory = vm.ROM

	// reset program counter and stack
	vm.PC = ProgramStart
	vm.SP = 0
	vm.Stack = [StackSize]uint16{}

	// reset address and virtual registers
	vm.I = 0
	vm.V = [16]byte{}

	// reset timers and cycles executed
	vm.DT = 0
	vm.ST = 0
	vm.Cycles = 0

	vm.Display.Clear()

	vm.halt = nil
}

/// Halted returns the error that halted the machine, or nil.
///
func (vm *VM) Halted() error {
	return vm.halt
}

/// Sound is true while the sound timer is running.
///
func (vm *VM) Sound() bool {
	return vm.ST > 0
}

/// Step the virtual machine a single instruction. Any error halts the
/// machine; stepping a halted machine returns ErrHalted.
///
func (vm *VM) Step() error {
	if vm.halt != nil {
		return fmt.Errorf("%w: %w", ErrHalted, vm.halt)
	}

	pc := vm.PC

	// the whole instruction must be addressable
	if int(pc) > MemorySize-2 {
		return vm.fault(pc, 0, ErrAddressRange)
	}

	// fetch the next instruction
	inst := vm.fetch()

	// timers count down once per instruction
	vm.tick()

	if err := vm.execute(inst); err != nil {
		return vm.fault(pc, inst, err)
	}

	// increment the cycle count
	vm.Cycles++

	return nil
}

/// Halt the machine with an error.
///
func (vm *VM) fault(pc, inst uint16, err error) error {
	vm.halt = &ExecError{PC: pc, Opcode: inst, Err: err}

	return vm.halt
}

/// Fetch the next 16-bit instruction and advance the program counter.
///
func (vm *VM) fetch() uint16 {
	i := vm.PC

	vm.PC += 2

	return uint16(vm.Memory[i])<<8 | uint16(vm.Memory[i+1])
}

/// Count the timers down.
///
func (vm *VM) tick() {
	if vm.DT > 0 {
		vm.DT--
	}
	if vm.ST > 0 {
		vm.ST--
	}
}

/// Decode and execute an instruction. PC already points past it.
///
func (vm *VM) execute(inst uint16) error {
	// 12-bit address operand
	a := inst & 0xFFF

	// byte and nibble operands
	b := byte(inst & 0xFF)
	n := byte(inst & 0xF)

	// x and y register operands
	x := inst >> 8 & 0xF
	y := inst >> 4 & 0xF

	// instruction decoding
	switch {
	case inst == 0x00E0:
		vm.cls()
	case inst == 0x00EE:
		return vm.ret()
	case inst&0xF000 == 0x1000:
		vm.jump(a)
	case inst&0xF000 == 0x2000:
		return vm.call(a)
	case inst&0xF000 == 0x3000:
		vm.skipIf(vm.V[x] == b)
	case inst&0xF000 == 0x4000:
		vm.skipIf(vm.V[x] != b)
	case inst&0xF00F == 0x5000:
		vm.skipIf(vm.V[x] == vm.V[y])
	case inst&0xF000 == 0x6000:
		vm.V[x] = b
	case inst&0xF000 == 0x7000:
		vm.V[x] += b
	case inst&0xF00F == 0x8000:
		vm.V[x] = vm.V[y]
	case inst&0xF00F == 0x8001:
		vm.V[x] |= vm.V[y]
	case inst&0xF00F == 0x8002:
		vm.V[x] &= vm.V[y]
	case inst&0xF00F == 0x8003:
		vm.V[x] ^= vm.V[y]
	case inst&0xF00F == 0x8004:
		vm.addXY(x, y)
	case inst&0xF00F == 0x8005:
		vm.subXY(x, y)
	case inst&0xF00F == 0x8006:
		vm.shr(x)
	case inst&0xF00F == 0x8007:
		vm.subYX(x, y)
	case inst&0xF00F == 0x800E:
		vm.shl(x)
	case inst&0xF00F == 0x9000:
		vm.skipIf(vm.V[x] != vm.V[y])
	case inst&0xF00F == 0x9001:
		vm.flag(vm.V[x] > vm.V[y])
	case inst&0xF00F == 0x9002:
		vm.flag(vm.V[x] >= vm.V[y])
	case inst&0xF00F == 0x9003:
		vm.flag(vm.V[x] < vm.V[y])
	case inst&0xF00F == 0x9004:
		vm.flag(vm.V[x] <= vm.V[y])
	case inst&0xF000 == 0xA000:
		vm.I = a
	case inst&0xF000 == 0xB000:
		vm.jump(a + uint16(vm.V[0]))
	case inst&0xF000 == 0xC000:
		vm.V[x] = byte(vm.Rand.Intn(0x100)) & b
	case inst&0xF000 == 0xD000:
		return vm.drw(x, y, n)
	case inst&0xF0FF == 0xE09E:
		vm.skipIf(vm.Input.KeyDown(vm.V[x]))
	case inst&0xF0FF == 0xE0A1:
		vm.skipIf(!vm.Input.KeyDown(vm.V[x]))
	case inst&0xF0FF == 0xF007:
		vm.V[x] = vm.DT
	case inst&0xF0FF == 0xF00A:
		vm.loadXK(x)
	case inst&0xF0FF == 0xF015:
		vm.DT = vm.V[x]
	case inst&0xF0FF == 0xF018:
		vm.ST = vm.V[x]
	case inst&0xF0FF == 0xF01E:
		vm.I += uint16(vm.V[x])
	case inst&0xF0FF == 0xF029:
		vm.I = uint16(vm.V[x]&0xF) * FontSize
	case inst&0xF0FF == 0xF033:
		return vm.loadB(x)
	case inst&0xF0FF == 0xF055:
		return vm.saveRegs(x)
	case inst&0xF0FF == 0xF065:
		return vm.loadRegs(x)
	default:
		return ErrInvalidOpcode
	}

	return nil
}

/// Clear the display.
///
func (vm *VM) cls() {
	vm.Display.Clear()
}

/// call a subroutine at address.
///
func (vm *VM) call(address uint16) error {
	if vm.SP == StackSize {
		return ErrStackOverflow
	}

	// push the return address
	vm.Stack[vm.SP] = vm.PC
	vm.SP++

	vm.PC = address

	return nil
}

/// return from subroutine.
///
func (vm *VM) ret() error {
	if vm.SP == 0 {
		return ErrStackUnderflow
	}

	vm.SP--
	vm.PC = vm.Stack[vm.SP]

	return nil
}

/// jump to address.
///
func (vm *VM) jump(address uint16) {
	vm.PC = address
}

/// skip the next instruction if cond is true.
///
func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.PC += 2
	}
}

/// set vf to 1 if cond is true, otherwise 0.
///
func (vm *VM) flag(cond bool) {
	if cond {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}
}

/// add vy to vx and set carry.
///
func (vm *VM) addXY(x, y uint16) {
	sum := uint16(vm.V[x]) + uint16(vm.V[y])

	vm.V[x] = byte(sum)
	vm.flag(sum > 0xFF)
}

/// subtract vy from vx, set carry if no borrow.
///
func (vm *VM) subXY(x, y uint16) {
	vx, vy := vm.V[x], vm.V[y]

	vm.V[x] = vx - vy
	vm.flag(vx > vy)
}

/// subtract vx from vy and store in vx, set carry if no borrow.
///
func (vm *VM) subYX(x, y uint16) {
	vx, vy := vm.V[x], vm.V[y]

	vm.V[x] = vy - vx
	vm.flag(vy > vx)
}

/// shr vx 1 bit, set carry to LSB of vx before shift.
///
func (vm *VM) shr(x uint16) {
	carry := vm.V[x] & 1

	vm.V[x] >>= 1
	vm.V[0xF] = carry
}

/// shl vx 1 bit, set carry to MSB of vx before shift.
///
func (vm *VM) shl(x uint16) {
	carry := vm.V[x] >> 7

	vm.V[x] <<= 1
	vm.V[0xF] = carry
}

/// load vx with the next key hit. Until one arrives the instruction
/// is executed again.
///
func (vm *VM) loadXK(x uint16) {
	key, ok := vm.Input.PollKey()
	if !ok {
		vm.PC -= 2
		return
	}

	vm.V[x] = key
}

/// memory returns n bytes of memory starting at I.
///
func (vm *VM) memory(n uint16) ([]byte, error) {
	if int(vm.I)+int(n) > MemorySize {
		return nil, ErrAddressRange
	}

	return vm.Memory[vm.I : vm.I+n], nil
}

/// draw a sprite at I to the display at vx, vy.
///
func (vm *VM) drw(x, y uint16, n byte) error {
	sprite, err := vm.memory(uint16(n))
	if err != nil {
		return err
	}

	collision := false

	// origin, wrapping coordinates
	ox := int(vm.V[x])
	oy := int(vm.V[y])

	for row, s := range sprite {
		py := (oy + row) % Height

		for col := 0; col < 8; col++ {
			if s&(0x80>>col) == 0 {
				continue
			}

			px := (ox + col) % Width

			// xor the pixel, turning a lit pixel off is a collision
			if vm.Display.Pixel(px, py) {
				vm.Display.SetPixel(px, py, false)
				collision = true
			} else {
				vm.Display.SetPixel(px, py, true)
			}
		}
	}

	vm.flag(collision)

	return nil
}

/// load address with BCD of vx.
///
func (vm *VM) loadB(x uint16) error {
	mem, err := vm.memory(3)
	if err != nil {
		return err
	}

	n := uint16(vm.V[x])
	b := uint16(0)

	// double dabble: perform 8 shifts
	for i := uint(0); i < 8; i++ {
		if b&0xF >= 5 {
			b += 3
		}
		if b>>4&0xF >= 5 {
			b += 3 << 4
		}
		if b>>8&0xF >= 5 {
			b += 3 << 8
		}

		// apply shift, pull next bit
		b = b<<1 | n>>(7-i)&1
	}

	mem[0] = byte(b>>8) & 0xF
	mem[1] = byte(b>>4) & 0xF
	mem[2] = byte(b) & 0xF

	return nil
}

/// save registers v0..vx to I.
///
func (vm *VM) saveRegs(x uint16) error {
	mem, err := vm.memory(x + 1)
	if err != nil {
		return err
	}

	copy(mem, vm.V[:x+1])

	return nil
}

/// load registers v0..vx from I.
///
func (vm *VM) loadRegs(x uint16) error {
	mem, err := vm.memory(x + 1)
	if err != nil {
		return err
	}

	copy(vm.V[:x+1], mem)

	return nil
}
