// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator drives a UVM program from reset to halt.
package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/internal"
	"github.com/ezrec/uvm/io"
)

var _emulator_defines = map[string]string{
	"STACK_MIN": "-32768",
	"STACK_MAX": "32767",
}

// Emulator state. CPU + program image.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.
	Rom      io.Rom       // Program image executed by the CPU.

	Limit int // Maximum instructions per run, or 0 for no limit.
}

// NewEmulator creates a new emulator with size cells of data memory.
func NewEmulator(size uint) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(size),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines, in name order.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Sorted2(internal.Concat2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	))
}

// Assembler returns an assembler predefined for this emulator.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// LoadProgram loads an assembled program, keeping its listing.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	bin, err := prog.Binary()
	if err != nil {
		return
	}

	emu.Program = prog
	emu.Rom.Data = bin

	return
}

// LoadRom loads a bare program image. No listing is available, so
// runtime errors carry no line numbers.
func (emu *Emulator) LoadRom(rom *io.Rom) {
	emu.Program = &cpu.Program{}
	emu.Rom.Data = rom.Bytes()
}

// Reset the machine: load code, zero memory, apply image, clear stack.
func (emu *Emulator) Reset(image cpu.Image) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Load(emu.Rom.Data)
	err = emu.Cpu.Reset(image)

	return
}

// Ticks returns the instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Count
}

// Code returns the instruction at the program counter, decoded from code
// memory, so it is available with or without a listing.
func (emu *Emulator) Code() (code cpu.Code, err error) {
	code, err = emu.Cpu.FetchCode()
	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
// done is set when the program counter reaches the end of the code.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	defer func() {
		if err != nil {
			err = &ErrRuntime{
				Index:  emu.Cpu.Count,
				Pc:     emu.Cpu.Pc,
				LineNo: emu.LineNo(),
				Err:    err,
			}
		}
	}()

	if emu.Cpu.Pc >= len(emu.Cpu.Code) {
		done = true
		return
	}

	if emu.Limit > 0 && emu.Cpu.Count >= emu.Limit {
		err = ErrLimit
		return
	}

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrPcEnd) {
		err = nil
		done = true
		return
	}

	return
}

// Run ticks until the program ends, or fails.
func (emu *Emulator) Run() (err error) {
	for {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			break
		}
	}

	if emu.Verbose {
		log.Printf("emulator: %d instructions, stack depth %d", emu.Cpu.Count, emu.Cpu.Stack.Len())
	}

	return
}

// Snapshot captures data memory in [start, end] and the stack.
func (emu *Emulator) Snapshot(start, end int) (snap *io.Snapshot, err error) {
	snap, err = io.NewSnapshot(emu.Cpu, start, end)
	return
}

// String returns the current emulator state as a string.
func (emu *Emulator) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%6s: %d\n", "line", emu.LineNo())
	code, err := emu.Code()
	if err != nil {
		fmt.Fprintf(&sb, "%6s: %v\n", "code", err)
	} else {
		fmt.Fprintf(&sb, "%6s: %v\n", "code", code)
	}
	sb.WriteString(emu.Cpu.String())

	return sb.String()
}
