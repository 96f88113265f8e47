package cpu

import (
	"fmt"
	"strings"
)

// Mnemonic is an instruction class. Its value is the 3-bit class code
// stored in the top bits of the first instruction byte.
type Mnemonic int

//go:generate go tool stringer -linecomment -type=Mnemonic
const (
	STORE_MEM  = Mnemonic(1) // STORE_MEM
	LOAD_CONST = Mnemonic(2) // LOAD_CONST
	LOAD_MEM   = Mnemonic(3) // LOAD_MEM
	ROL        = Mnemonic(4) // ROL
)

// CLASS_BITS is the width of the class field.
const CLASS_BITS = 3

// FieldKind identifies the source of a run of bits in an encoded instruction.
type FieldKind int

const (
	FIELD_CLASS   = FieldKind(0) // Class code.
	FIELD_OPERAND = FieldKind(1) // Next most significant operand bits.
	FIELD_PAD     = FieldKind(2) // Zero padding.
)

// Field is a run of bits in an encoded instruction, MSB first.
type Field struct {
	Kind  FieldKind
	Width int
}

// Format describes the encoding of an instruction class.
type Format struct {
	Size    int     // Encoded size in bytes.
	Operand bool    // Set if the instruction takes an operand.
	Signed  bool    // Operand is stored in two's complement.
	Width   int     // Operand width in bits.
	Min     int     // Smallest legal operand.
	Max     int     // Largest legal operand.
	Layout  []Field // Bit layout, from the MSB of the first byte.
}

// formats is the single table shared by the encoder, decoder, and the
// assembler's predefined limits.
var formats = map[Mnemonic]Format{
	STORE_MEM: {
		Size: 2, Operand: true, Signed: true, Width: 13, Min: -4096, Max: 4095,
		Layout: []Field{{FIELD_CLASS, CLASS_BITS}, {FIELD_OPERAND, 13}},
	},
	LOAD_CONST: {
		Size: 2, Operand: true, Width: 10, Min: 0, Max: 1023,
		Layout: []Field{{FIELD_CLASS, CLASS_BITS}, {FIELD_OPERAND, 5}, {FIELD_PAD, 3}, {FIELD_OPERAND, 5}},
	},
	LOAD_MEM: {
		Size: 4, Operand: true, Width: 24, Min: 0, Max: 1<<24 - 1,
		Layout: []Field{{FIELD_CLASS, CLASS_BITS}, {FIELD_OPERAND, 24}, {FIELD_PAD, 5}},
	},
	ROL: {
		Size: 1,
		Layout: []Field{{FIELD_CLASS, CLASS_BITS}, {FIELD_PAD, 5}},
	},
}

// mnemonicMap maps upper case source names to mnemonics.
var mnemonicMap = map[string]Mnemonic{}

func init() {
	for mnemonic := range formats {
		mnemonicMap[mnemonic.String()] = mnemonic
	}
}

// Mnemonics returns all instruction classes, in class code order.
func Mnemonics() []Mnemonic {
	return []Mnemonic{STORE_MEM, LOAD_CONST, LOAD_MEM, ROL}
}

// ParseMnemonic finds a mnemonic by name, ignoring case.
func ParseMnemonic(word string) (mnemonic Mnemonic, ok bool) {
	mnemonic, ok = mnemonicMap[strings.ToUpper(word)]
	return
}

// Valid returns true if the mnemonic is a known instruction class.
func (mnemonic Mnemonic) Valid() bool {
	_, ok := formats[mnemonic]
	return ok
}

// Format returns the encoding of the instruction class.
func (mnemonic Mnemonic) Format() (format Format, ok bool) {
	format, ok = formats[mnemonic]
	return
}

// Statement is a parsed source instruction, before encoding.
type Statement struct {
	LineNo     int      // 1-based source line.
	Line       string   // Source text, comment stripped.
	Words      []string // Source words, after equate substitution.
	Mnemonic   Mnemonic // Instruction class.
	Operand    int      // Operand, when HasOperand is set.
	HasOperand bool     // Set if an operand was supplied.
}

// Code is an instruction in intermediate form: class A and operand B.
type Code struct {
	Mnemonic Mnemonic
	Operand  int
}

// Encode validates a statement and converts it to intermediate form.
func Encode(stmt Statement) (code Code, err error) {
	format, ok := stmt.Mnemonic.Format()
	if !ok {
		err = ErrMnemonic(stmt.Mnemonic.String())
		return
	}

	code.Mnemonic = stmt.Mnemonic
	if !format.Operand {
		return
	}

	if !stmt.HasOperand {
		err = ErrOperandMissing(stmt.Mnemonic)
		return
	}

	code.Operand = stmt.Operand
	err = code.Validate()

	return
}

// Class returns the 3-bit class code (A).
func (code Code) Class() uint8 {
	return uint8(code.Mnemonic)
}

// Size returns the encoded size in bytes, or 0 for an unknown class.
func (code Code) Size() int {
	format, _ := code.Mnemonic.Format()
	return format.Size
}

// Validate checks the class and operand range.
func (code Code) Validate() (err error) {
	format, ok := code.Mnemonic.Format()
	if !ok {
		err = &ErrUnknownOpcode{Class: int(code.Mnemonic)}
		return
	}

	if !format.Operand {
		if code.Operand != 0 {
			err = &ErrRange{Mnemonic: code.Mnemonic, Value: code.Operand}
		}
		return
	}

	if code.Operand < format.Min || code.Operand > format.Max {
		err = &ErrRange{Mnemonic: code.Mnemonic, Value: code.Operand, Min: format.Min, Max: format.Max}
		return
	}

	return
}

// AppendBinary appends the packed encoding of the instruction to buf.
func (code Code) AppendBinary(buf []byte) ([]byte, error) {
	err := code.Validate()
	if err != nil {
		return buf, err
	}

	format, _ := code.Mnemonic.Format()

	// Two's complement, truncated to the operand width.
	operand := uint64(int64(code.Operand)) & (1<<format.Width - 1)

	bw := newBitWriter(buf)
	remain := format.Width
	for _, field := range format.Layout {
		switch field.Kind {
		case FIELD_CLASS:
			bw.Write(uint64(code.Mnemonic), field.Width)
		case FIELD_OPERAND:
			remain -= field.Width
			bw.Write(operand>>remain, field.Width)
		case FIELD_PAD:
			bw.Write(0, field.Width)
		}
	}

	return bw.Bytes(), nil
}

// MarshalBinary returns the packed encoding of the instruction.
func (code Code) MarshalBinary() ([]byte, error) {
	return code.AppendBinary(make([]byte, 0, 4))
}

// Decode recovers the instruction at pc in bin.
// The next instruction starts at pc + code.Size().
// Returns ErrPcEnd if pc is at or past the end of bin.
func Decode(bin []byte, pc int) (code Code, err error) {
	if pc < 0 || pc >= len(bin) {
		err = ErrPcEnd
		return
	}

	class := int(bin[pc] >> (8 - CLASS_BITS))
	mnemonic := Mnemonic(class)
	format, ok := mnemonic.Format()
	if !ok {
		err = &ErrUnknownOpcode{Class: class, Pc: pc}
		return
	}

	if len(bin)-pc < format.Size {
		err = &ErrTruncated{Mnemonic: mnemonic, Pc: pc, Need: format.Size, Have: len(bin) - pc}
		return
	}

	br := newBitReader(bin[pc : pc+format.Size])
	var operand uint64
	for _, field := range format.Layout {
		value := br.Read(field.Width)
		if field.Kind == FIELD_OPERAND {
			operand = (operand << field.Width) | value
		}
	}

	code.Mnemonic = mnemonic
	code.Operand = int(operand)
	if format.Signed && operand >= 1<<(format.Width-1) {
		code.Operand -= 1 << format.Width
	}

	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	format, ok := code.Mnemonic.Format()
	if ok && !format.Operand {
		return code.Mnemonic.String()
	}

	return fmt.Sprintf("%v %d", code.Mnemonic, code.Operand)
}
