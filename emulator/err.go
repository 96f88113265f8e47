package emulator

import (
	"github.com/ezrec/uvm/translate"
)

var f = translate.From

var (
	ErrLimit = translate.Error("instruction limit reached")
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Index  int // Instructions completed before the fault.
	Pc     int
	LineNo int // Source line, or 0 if unknown.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d (pc %04x, instruction %d): %v", err.LineNo, err.Pc, err.Index, err.Err)
	}
	return f("pc %04x, instruction %d: %v", err.Pc, err.Index, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
