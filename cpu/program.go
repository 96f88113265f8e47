package cpu

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Opcode is an assembled instruction with its source location.
type Opcode struct {
	LineNo int      // Source line, or 0 if disassembled.
	Pc     int      // Byte offset in the program image.
	Words  []string // Source words.
	Code   Code     // Intermediate form.
}

// Program is an ordered, read-only list of assembled instructions.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the instruction covering a program counter.
type Debug struct {
	*Opcode
	Index int // Byte index of pc within the instruction.
}

func (prog *Program) Debug(pc int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if pc >= op.Pc && pc < op.Pc+op.Code.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  pc - op.Pc,
			}
			break
		}
	}

	return
}

// Size returns the size of the program image in bytes.
func (prog *Program) Size() (size int) {
	for _, op := range prog.Opcodes {
		size += op.Code.Size()
	}
	return
}

// Binary returns the program image: each instruction's encoding, in
// order, with no header or padding.
func (prog *Program) Binary() (bin []byte, err error) {
	bin = make([]byte, 0, prog.Size())
	for _, op := range prog.Opcodes {
		bin, err = op.Code.AppendBinary(bin)
		if err != nil {
			err = &ErrEncode{LineNo: op.LineNo, Line: strings.Join(op.Words, " "), Err: err}
			return
		}
	}

	return
}

// Codes iterates over the program counter and code of each instruction.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(pc int, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Pc, op.Code) {
				return
			}
		}
	}
}

// Listing writes one line per instruction: program counter, encoded
// bytes, class A, operand B, size, and source line.
func (prog *Program) Listing(w io.Writer) (err error) {
	for _, op := range prog.Opcodes {
		var raw []byte
		raw, err = op.Code.MarshalBinary()
		if err != nil {
			return
		}
		hex := make([]string, len(raw))
		for n, b := range raw {
			hex[n] = fmt.Sprintf("%02X", b)
		}
		format, _ := op.Code.Mnemonic.Format()
		operand := "-"
		if format.Operand {
			operand = fmt.Sprintf("%d", op.Code.Operand)
		}
		_, err = fmt.Fprintf(w, "%04x  %-11s  %-10v A=%d B=%-8s size=%d",
			op.Pc, strings.Join(hex, " "), op.Code.Mnemonic, op.Code.Class(), operand, op.Code.Size())
		if err != nil {
			return
		}
		if op.LineNo > 0 {
			_, err = fmt.Fprintf(w, "  ; line %d", op.LineNo)
			if err != nil {
				return
			}
		}
		_, err = fmt.Fprintln(w)
		if err != nil {
			return
		}
	}

	return
}

// Disassemble decodes a complete program image.
func Disassemble(bin []byte) (prog *Program, err error) {
	prog = &Program{}

	for pc := 0; pc < len(bin); {
		var code Code
		code, err = Decode(bin, pc)
		if err != nil {
			prog = nil
			return
		}
		prog.Opcodes = append(prog.Opcodes, Opcode{
			Pc:    pc,
			Words: strings.Fields(code.String()),
			Code:  code,
		})
		pc += code.Size()
	}

	return
}
