package cpu

import (
	"github.com/ezrec/uvm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrPcEnd      = translate.Error("pc at end of code")
	ErrStackEmpty = translate.Error("stack underflow")
	ErrStackValue = translate.Error("stack value out of range")

	// Assembler errors
	ErrEquateSyntax    = translate.Error(".equ syntax")
	ErrEquateDuplicate = translate.Error(".equ duplicated")
	ErrOpcodeExtraArgs = translate.Error("excessive arguments")
)

// ErrOpcode tags an execution failure with the instruction that caused it.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode %v", Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrSyntax locates a parse failure in the assembly source.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrEncode locates an encoding failure in the assembly source.
type ErrEncode struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrEncode) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrEncode) Unwrap() error {
	return err.Err
}

// ErrMnemonic is an unrecognized instruction name.
type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("unknown mnemonic '%v'", string(err))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrOperandMissing is an instruction that requires an operand, without one.
type ErrOperandMissing Mnemonic

func (err ErrOperandMissing) Error() string {
	return f("%v requires an operand", Mnemonic(err).String())
}

// ErrRange is an operand outside the legal interval of its instruction.
type ErrRange struct {
	Mnemonic Mnemonic
	Value    int
	Min      int
	Max      int
}

func (err *ErrRange) Error() string {
	return f("%v operand %v outside %v..%v", err.Mnemonic.String(), err.Value, err.Min, err.Max)
}

// ErrTruncated is an instruction cut short by the end of the code.
type ErrTruncated struct {
	Mnemonic Mnemonic
	Pc       int
	Need     int
	Have     int
}

func (err *ErrTruncated) Error() string {
	return f("%04x: %v truncated, needs %d bytes, %d remain", err.Pc, err.Mnemonic.String(), err.Need, err.Have)
}

// ErrUnknownOpcode is an undefined instruction class.
type ErrUnknownOpcode struct {
	Class int
	Pc    int
}

func (err *ErrUnknownOpcode) Error() string {
	return f("%04x: unknown opcode class %d", err.Pc, err.Class)
}

// ErrOutOfBounds is a data memory access outside of memory.
type ErrOutOfBounds struct {
	Address int
	Size    int
}

func (err *ErrOutOfBounds) Error() string {
	return f("address %v outside memory of %v cells", err.Address, err.Size)
}
