package chip8

import (
	"errors"
	"fmt"
)

/// Assembler failures. Every one of them aborts assembly.
///
var (
	ErrDuplicateLabel      = errors.New("duplicate label")
	ErrUndefinedLabel      = errors.New("undefined label")
	ErrUnknownInstruction  = errors.New("unknown instruction")
	ErrUnexpectedToken     = errors.New("unexpected token")
	ErrMissingOperand      = errors.New("missing operand")
	ErrInvalidRegister     = errors.New("invalid register")
	ErrImmediateOutOfRange = errors.New("immediate out of range")
)

/// Interpreter failures. Every one of them halts the virtual machine.
///
var (
	ErrInvalidOpcode   = errors.New("invalid opcode")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrAddressRange    = errors.New("address out of range")
	ErrProgramTooLarge = errors.New("program too large to fit in memory")
	ErrHalted          = errors.New("machine halted")
)

/// AsmError is returned by Assemble. It identifies the source line and
/// the token that caused assembly to fail.
///
type AsmError struct {
	Line  int
	Token string
	Err   error
}

func (e *AsmError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("line %d - %s", e.Line, e.Err)
	}

	return fmt.Sprintf("line %d - %s: %s", e.Line, e.Err, e.Token)
}

func (e *AsmError) Unwrap() error {
	return e.Err
}

/// ExecError is returned by Step when the machine halts. PC is the
/// address of the instruction that failed.
///
type ExecError struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%04X - %04X: %s", e.PC, e.Opcode, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
