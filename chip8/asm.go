/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package chip8

import (
	"strconv"
)

/// Assembly is a completely assembled source file.
///
type Assembly struct {
	/// ROM is the final, assembled bytes to load at ProgramStart.
	///
	ROM []byte

	/// Labels maps each label to the byte offset of the instruction
	/// that follows it, relative to the start of the program.
	///
	Labels map[string]int

	/// Instructions are the structured records built by the first pass,
	/// one per opcode in ROM.
	///
	Instructions []Instruction
}

/// Instruction is a mnemonic and the operand tokens that follow it.
///
type Instruction struct {
	Mnemonic string
	Operands []Token
	Line     int
}

/// Operand classes accepted by the first pass.
///
type operandClass uint

const (
	opRegister operandClass = 1 << iota
	opNumber
	opLabel
	opTimer

	// addresses may be literal or label references
	opAddress = opNumber | opLabel
)

/// Every mnemonic and the operand forms it accepts. Forms are tried in
/// order and the first that matches is used.
///
var syntax = map[string][][]operandClass{
	"cls":     {{}},
	"ret":     {{}},
	"jp":      {{opAddress}, {opRegister, opAddress}},
	"call":    {{opAddress}},
	"se":      {{opRegister, opRegister | opNumber}},
	"sne":     {{opRegister, opRegister | opNumber}},
	"gt":      {{opRegister, opRegister}},
	"gte":     {{opRegister, opRegister}},
	"lt":      {{opRegister, opRegister}},
	"lte":     {{opRegister, opRegister}},
	"ld":      {{opRegister | opTimer, opRegister | opNumber | opTimer}},
	"ldi":     {{opAddress}},
	"ldsprt":  {{opRegister}},
	"ldbcd":   {{opRegister}},
	"dumpreg": {{opRegister}},
	"ldreg":   {{opRegister}},
	"getkey":  {{opRegister}},
	"add":     {{opRegister, opRegister | opNumber}},
	"addi":    {{opRegister}},
	"sub":     {{opRegister, opRegister}},
	"subn":    {{opRegister, opRegister}},
	"shr":     {{opRegister}},
	"shl":     {{opRegister}},
	"rnd":     {{opRegister, opNumber}},
	"drw":     {{opRegister, opRegister, opNumber}},
	"skp":     {{opRegister}},
	"sknp":    {{opRegister}},
}

/// Instructions taking a single vx operand.
///
var unaryOpcodes = map[string]uint16{
	"ldsprt":  0xF029,
	"ldbcd":   0xF033,
	"dumpreg": 0xF055,
	"ldreg":   0xF065,
	"getkey":  0xF00A,
	"addi":    0xF01E,
	"shr":     0x8006,
	"shl":     0x800E,
	"skp":     0xE09E,
	"sknp":    0xE0A1,
}

/// Instructions taking only vx, vy operands.
///
var binaryOpcodes = map[string]uint16{
	"gt":   0x9001,
	"gte":  0x9002,
	"lt":   0x9003,
	"lte":  0x9004,
	"sub":  0x8005,
	"subn": 0x8007,
}

/// Assemble CHIP-8 source code. On failure no assembly is returned and
/// the error is an *AsmError.
///
func Assemble(program []byte) (out *Assembly, err error) {
	out = &Assembly{
		ROM:    make([]byte, 0, 0x100),
		Labels: make(map[string]int),
	}

	// assembly errors are raised as panics, anything else is a bug
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*AsmError)
			if !ok {
				panic(r)
			}

			out, err = nil, e
		}
	}()

	// collect labels and instructions, then encode
	out.structure(Tokenize(program))
	out.encode()

	return out, nil
}

/// Address returns the absolute address of a label.
///
func (a *Assembly) Address(label string) (uint16, bool) {
	offset, ok := a.Labels[label]
	if !ok {
		return 0, false
	}

	return uint16(offset + ProgramStart), true
}

/// fail aborts assembly at a token.
///
func fail(t Token, err error) {
	panic(&AsmError{Line: t.Line, Token: t.String(), Err: err})
}

/// classify returns the operand class of a token (0 if it can't be one).
///
func classify(t Token) operandClass {
	switch t.Kind {
	case TokenLabel:
		return opLabel
	case TokenNumber:
		return opNumber
	}

	if t.Text == "dt" || t.Text == "st" {
		return opTimer
	}

	// register names are validated when encoded
	if len(t.Text) > 1 && t.Text[0] == 'v' {
		return opRegister
	}

	return 0
}

/// First pass: build instruction records and the label table.
///
func (a *Assembly) structure(tokens []Token) {
	offset := 0

	for pos := 0; pos < len(tokens); {
		t := tokens[pos]

		// labels mark the next instruction, and take no space
		if t.Kind == TokenLabel {
			if _, exists := a.Labels[t.Text]; exists {
				fail(t, ErrDuplicateLabel)
			}

			a.Labels[t.Text] = offset
			pos++

			continue
		}

		forms, ok := syntax[t.Text]
		if t.Kind != TokenIdent || !ok {
			fail(t, ErrUnknownInstruction)
		}

		ops := matchOperands(t, tokens[pos+1:], forms)

		a.Instructions = append(a.Instructions, Instruction{
			Mnemonic: t.Text,
			Operands: ops,
			Line:     t.Line,
		})

		// every instruction is exactly one opcode
		pos += 1 + len(ops)
		offset += 2
	}
}

/// Pick the first operand form matching the tokens following a
/// mnemonic. When nothing matches, the form that matched the most
/// operands decides what is reported.
///
func matchOperands(mnemonic Token, tokens []Token, forms [][]operandClass) []Token {
	best := 0

	for _, form := range forms {
		n := 0
		for n < len(form) && n < len(tokens) && classify(tokens[n])&form[n] != 0 {
			n++
		}

		if n == len(form) {
			return tokens[:n]
		}

		if n > best {
			best = n
		}
	}

	// ran out of tokens, or the next one doesn't fit
	if best >= len(tokens) {
		fail(mnemonic, ErrMissingOperand)
	}

	fail(tokens[best], ErrUnexpectedToken)

	return nil
}

/// Second pass: encode every instruction record.
///
func (a *Assembly) encode() {
	for _, ins := range a.Instructions {
		op := a.encodeInstruction(ins)

		// opcodes are stored msb first
		a.ROM = append(a.ROM, byte(op>>8), byte(op&0xFF))
	}
}

/// Encode a single instruction record into an opcode.
///
func (a *Assembly) encodeInstruction(ins Instruction) uint16 {
	ops := ins.Operands

	if op, ok := unaryOpcodes[ins.Mnemonic]; ok {
		return op | register(ops[0])<<8
	}

	if op, ok := binaryOpcodes[ins.Mnemonic]; ok {
		return op | register(ops[0])<<8 | register(ops[1])<<4
	}

	switch ins.Mnemonic {
	case "cls":
		return 0x00E0
	case "ret":
		return 0x00EE
	case "jp":
		if len(ops) == 2 {
			if register(ops[0]) != 0 {
				fail(ops[0], ErrUnexpectedToken)
			}

			return 0xB000 | a.address(ops[1])
		}

		return 0x1000 | a.address(ops[0])
	case "call":
		return 0x2000 | a.address(ops[0])
	case "se":
		return skipOpcode(ops, 0x3000, 0x5000)
	case "sne":
		return skipOpcode(ops, 0x4000, 0x9000)
	case "add":
		if classify(ops[1]) == opNumber {
			return 0x7000 | register(ops[0])<<8 | immediate(ops[1], 0xFF)
		}

		return 0x8004 | register(ops[0])<<8 | register(ops[1])<<4
	case "ld":
		return encodeLoad(ops[0], ops[1])
	case "ldi":
		return 0xA000 | a.address(ops[0])
	case "rnd":
		return 0xC000 | register(ops[0])<<8 | immediate(ops[1], 0xFF)
	case "drw":
		return 0xD000 | register(ops[0])<<8 | register(ops[1])<<4 | immediate(ops[2], 10)
	}

	// the first pass only accepts known mnemonics
	panic("unhandled mnemonic: " + ins.Mnemonic)
}

/// Encode se/sne, which compare vx with either a byte or vy.
///
func skipOpcode(ops []Token, byteOp, regOp uint16) uint16 {
	x := register(ops[0])

	if classify(ops[1]) == opNumber {
		return byteOp | x<<8 | immediate(ops[1], 0xFF)
	}

	return regOp | x<<8 | register(ops[1])<<4
}

/// Encode the ld forms: vx <- kk, vx <- vy, vx <- dt, dt <- vx, st <- vx.
///
func encodeLoad(dst, src Token) uint16 {
	switch classify(dst) {
	case opRegister:
		x := register(dst) << 8

		switch {
		case classify(src) == opNumber:
			return 0x6000 | x | immediate(src, 0xFF)
		case classify(src) == opRegister:
			return 0x8000 | x | register(src)<<4
		case src.Text == "dt":
			return 0xF007 | x
		}
	case opTimer:
		if classify(src) == opRegister {
			if dst.Text == "dt" {
				return 0xF015 | register(src)<<8
			}

			return 0xF018 | register(src)<<8
		}
	}

	fail(src, ErrUnexpectedToken)

	return 0
}

/// Parse a vN register operand into its index.
///
func register(t Token) uint16 {
	n, err := strconv.ParseUint(t.Text[1:], 10, 8)
	if err != nil || n > 0xF {
		fail(t, ErrInvalidRegister)
	}

	return uint16(n)
}

/// Parse a decimal operand no larger than max.
///
func immediate(t Token, max uint64) uint16 {
	n, err := strconv.ParseUint(t.Text, 10, 16)
	if err != nil || n > max {
		fail(t, ErrImmediateOutOfRange)
	}

	return uint16(n)
}

/// Resolve a 12-bit address operand: a literal or a label reference.
///
func (a *Assembly) address(t Token) uint16 {
	if t.Kind != TokenLabel {
		return immediate(t, 0xFFF)
	}

	address, ok := a.Address(t.Text)
	if !ok {
		fail(t, ErrUndefinedLabel)
	}

	if address > 0xFFF {
		fail(t, ErrImmediateOutOfRange)
	}

	return address
}
