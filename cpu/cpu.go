package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/bits"
	"slices"
	"strings"
)

// Cpu is the simulation context for the stack machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory *Memory // Data memory.
	Code   []byte  // Code memory. Not modified after Load.
	Stack  Stack   // Operand stack.
	Pc     int     // Byte offset of the next instruction in Code.

	Count int // Instructions executed since reset.
}

// NewCpu creates a new CPU with a specifically sized data memory.
func NewCpu(size uint) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(size),
	}

	return
}

// Defines returns the assembler equates describing this CPU.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%d", cpu.Memory.Size()),
	})
}

// Load copies a program image into code memory.
func (cpu *Cpu) Load(code []byte) {
	cpu.Code = slices.Clone(code)
}

// Reset the CPU state.
// - Zeroes data memory, then applies the initial image.
// - Clears the stack.
// - Zeros the instruction counter and program counter.
func (cpu *Cpu) Reset(image Image) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset, %d byte program, %d preset cells", len(cpu.Code), len(image))
	}

	cpu.Stack.Reset()
	cpu.Pc = 0
	cpu.Count = 0

	err = cpu.Memory.Reset(image)

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%6s: %04x\n", "pc", cpu.Pc)
	fmt.Fprintf(&sb, "%6s: %d\n", "count", cpu.Count)

	top, ok := cpu.Stack.Peek()
	if ok {
		fmt.Fprintf(&sb, "%6s: %d (depth %d)\n", "stack", top, cpu.Stack.Len())
	} else {
		fmt.Fprintf(&sb, "%6s: ----\n", "stack")
	}

	return sb.String()
}

// MemorySize returns the number of data memory cells.
func (cpu *Cpu) MemorySize() int {
	return cpu.Memory.Size()
}

// Cells iterates over the non-zero data memory cells in [start, end].
func (cpu *Cpu) Cells(start, end int) iter.Seq2[int, uint8] {
	return cpu.Memory.Cells(start, end)
}

// StackValues returns the stack contents, bottom to top.
func (cpu *Cpu) StackValues() []int {
	return cpu.Stack.Values()
}

// FetchCode decodes the instruction at the program counter.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	return Decode(cpu.Code, cpu.Pc)
}

// Tick executes a single fetch-decode-execute cycle.
// On error the program counter is left at the failing instruction.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	cpu.Pc += code.Size()
	cpu.Count++

	return
}

// Execute executes a single decoded instruction.
// A failing instruction leaves the stack and memory unchanged.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%04x: %v", cpu.Pc, code)
	}

	switch code.Mnemonic {
	case LOAD_CONST:
		err = cpu.Stack.Push(code.Operand)
	case LOAD_MEM:
		var value uint8
		value, err = cpu.Memory.Read(code.Operand)
		if err != nil {
			return
		}
		err = cpu.Stack.Push(int(value))
	case STORE_MEM:
		value, ok := cpu.Stack.Peek()
		if !ok {
			err = ErrStackEmpty
			return
		}
		err = cpu.Memory.Write(int(value)+code.Operand, uint8(value))
		if err != nil {
			return
		}
		cpu.Stack.Pop()
	case ROL:
		datum, ok := cpu.Stack.PeekAt(0)
		if !ok {
			err = ErrStackEmpty
			return
		}
		address, ok := cpu.Stack.PeekAt(1)
		if !ok {
			err = ErrStackEmpty
			return
		}
		var count uint8
		count, err = cpu.Memory.Read(int(address))
		if err != nil {
			return
		}
		cpu.Stack.Pop()
		cpu.Stack.Pop()
		err = cpu.Stack.Push(int(Rotate(uint8(datum), int(count))))
	default:
		err = &ErrUnknownOpcode{Class: int(code.Mnemonic), Pc: cpu.Pc}
	}

	return
}

// Rotate rotates an 8-bit value left by count modulo 8.
func Rotate(value uint8, count int) uint8 {
	return bits.RotateLeft8(value, count&7)
}
