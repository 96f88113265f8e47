package emulator

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/uvm/config"
	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/io"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)

	assert.False(emu.Verbose)
	assert.Equal(cpu.MEMORY_SIZE, emu.Cpu.MemorySize())
	assert.Equal(0, emu.Limit)

	keys := []string{}
	for key := range emu.Defines() {
		keys = append(keys, key)
	}
	assert.Equal([]string{"MEMORY_SIZE", "STACK_MAX", "STACK_MIN"}, keys)
}

func doAssemble(emu *Emulator, program []string, t *testing.T) (prog *cpu.Program) {
	asm := emu.Assembler()
	prog, err := asm.Assemble(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	err = emu.LoadProgram(prog)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestEmulator_Single(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)

	program := []string{
		"LOAD_CONST 200",
		"LOAD_MEM 100",
		"ROL",
		"STORE_MEM $(300 - 3)",
	}
	prog := doAssemble(emu, program, t)

	err := emu.Reset(cpu.Image{100: 129, 200: 1})
	assert.NoError(err)

	for _, op := range prog.Opcodes {
		here := program[op.LineNo-1]
		assert.Equal(op.LineNo, emu.LineNo(), here)
		assert.Equal(op.Pc, emu.Cpu.Pc, here)
		code, err := emu.Code()
		assert.NoError(err, here)
		assert.Equal(op.Code, code, here)

		done, err := emu.Tick()
		if err != nil {
			t.Log(emu.String())
			t.Fatalf("%v", err)
		}
		assert.False(done, here)
	}

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(4, emu.Ticks())

	done, err = emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(4, emu.Ticks())

	value, _ := emu.Cpu.Memory.Read(300)
	assert.Equal(uint8(3), value)
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)

	program := []string{
		".equ VALUES 100",
		".equ COUNTS 200",
		"LOAD_CONST $(COUNTS + 0)",
		"LOAD_MEM $(VALUES + 0)",
		"ROL",
		"STORE_MEM $(300 - 3)",
		"LOAD_CONST $(COUNTS + 1)",
		"LOAD_MEM $(VALUES + 1)",
		"ROL",
		"STORE_MEM $(301 - 51)",
		"LOAD_CONST $(COUNTS + 2)",
		"LOAD_MEM $(VALUES + 2)",
		"ROL",
		"STORE_MEM $(302 - 85)",
		"LOAD_CONST $(COUNTS + 3)",
		"LOAD_MEM $(VALUES + 3)",
		"ROL",
		"STORE_MEM $(303 - 240)",
		"LOAD_CONST $(COUNTS + 4)",
		"LOAD_MEM $(VALUES + 4)",
		"ROL",
		"STORE_MEM $(304 - 240)",
		"LOAD_CONST 42",
	}
	doAssemble(emu, program, t)

	image := cpu.Image{
		100: 129, 101: 204, 102: 170, 103: 240, 104: 15,
		200: 1, 201: 2, 202: 3, 203: 0, 204: 4,
	}

	// Runs are repeatable after a reset.
	for range 2 {
		assert.NoError(emu.Reset(image))
		assert.NoError(emu.Run())
		assert.Equal(21, emu.Ticks())

		snap, err := emu.Snapshot(300, 304)
		assert.NoError(err)
		assert.Equal(io.Metadata{
			StartAddress:    300,
			EndAddress:      304,
			TotalMemorySize: cpu.MEMORY_SIZE,
			StackSize:       1,
		}, snap.Metadata)
		assert.Equal(map[string]int{"300": 3, "301": 51, "302": 85, "303": 240, "304": 240}, snap.Memory)
		assert.Equal([]int{42}, snap.Stack)
	}
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(256)

	program := []string{
		"LOAD_CONST 1",
		"; comment",
		"STORE_MEM 0",
		"LOAD_MEM 256",
		"LOAD_CONST 2",
	}
	doAssemble(emu, program, t)

	assert.NoError(emu.Reset(nil))
	err := emu.Run()

	var rerr *ErrRuntime
	if assert.True(errors.As(err, &rerr)) {
		assert.Equal(4, rerr.LineNo)
		assert.Equal(4, rerr.Pc)
		assert.Equal(2, rerr.Index)
		assert.Contains(rerr.Error(), "line 4")
	}
	var oob *cpu.ErrOutOfBounds
	assert.True(errors.As(err, &oob))
	assert.Empty(emu.Cpu.StackValues())
}

func TestEmulator_Underflow(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)
	doAssemble(emu, []string{"LOAD_CONST 7", "ROL"}, t)

	assert.NoError(emu.Reset(nil))
	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrStackEmpty)
	assert.Equal([]int{7}, emu.Cpu.StackValues())
}

func TestEmulator_Rom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)
	emu.LoadRom(&io.Rom{Data: []byte{0x4A, 0x17, 0x40, 0x00, 0xE0}})

	assert.NoError(emu.Reset(nil))
	err := emu.Run()

	var rerr *ErrRuntime
	if assert.True(errors.As(err, &rerr)) {
		assert.Equal(0, rerr.LineNo)
		assert.Equal(4, rerr.Pc)
		assert.Equal(2, rerr.Index)
		assert.NotContains(rerr.Error(), "line")
	}
	var uerr *cpu.ErrUnknownOpcode
	assert.True(errors.As(err, &uerr))
	assert.Equal([]int{343, 0}, emu.Cpu.StackValues())

	_, err = emu.Code()
	assert.True(errors.As(err, &uerr))
	assert.Contains(emu.String(), "unknown opcode class 7")
}

func TestEmulator_CodeWithoutListing(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)
	emu.LoadRom(&io.Rom{Data: []byte{0x4A, 0x17, 0x80}})
	assert.NoError(emu.Reset(nil))

	code, err := emu.Code()
	assert.NoError(err)
	assert.Equal(cpu.Code{Mnemonic: cpu.LOAD_CONST, Operand: 343}, code)
	assert.Contains(emu.String(), "LOAD_CONST 343")

	_, err = emu.Tick()
	assert.NoError(err)
	code, err = emu.Code()
	assert.NoError(err)
	assert.Equal(cpu.Code{Mnemonic: cpu.ROL}, code)
	assert.Equal(0, emu.LineNo())

	_, err = emu.Tick()
	assert.ErrorIs(err, cpu.ErrStackEmpty)
	assert.Contains(emu.String(), "ROL")

	emu.Cpu.Pc = 3
	_, err = emu.Code()
	assert.ErrorIs(err, cpu.ErrPcEnd)
}

func TestEmulator_Truncated(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)
	emu.LoadRom(&io.Rom{Data: []byte{0x4A, 0x17, 0x60, 0x00}})

	assert.NoError(emu.Reset(nil))
	err := emu.Run()
	var terr *cpu.ErrTruncated
	assert.True(errors.As(err, &terr))
}

func TestEmulator_Limit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(cpu.MEMORY_SIZE)
	doAssemble(emu, []string{"LOAD_CONST 1", "LOAD_CONST 2", "LOAD_CONST 3"}, t)

	emu.Limit = 2
	assert.NoError(emu.Reset(nil))
	err := emu.Run()
	assert.ErrorIs(err, ErrLimit)
	assert.Equal(2, emu.Ticks())

	emu.Limit = 3
	assert.NoError(emu.Reset(nil))
	assert.NoError(emu.Run())
	assert.Equal([]int{1, 2, 3}, emu.Cpu.StackValues())
}

func TestEmulator_Empty(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(16)
	assert.NoError(emu.Reset(cpu.Image{3: 9}))
	assert.NoError(emu.Run())
	assert.Equal(0, emu.Ticks())

	snap, err := emu.Snapshot(0, 100)
	assert.NoError(err)
	assert.Equal(map[string]int{"3": 9}, snap.Memory)
	assert.Equal(16, snap.Metadata.TotalMemorySize)
	assert.Equal(100, snap.Metadata.EndAddress)

	_, err = emu.Snapshot(10, 5)
	assert.ErrorIs(err, io.ErrSnapshotRange)
}

func TestEmulator_BadImage(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(16)
	err := emu.Reset(cpu.Image{16: 1})
	var oob *cpu.ErrOutOfBounds
	assert.True(errors.As(err, &oob))
}

func TestEmulator_Example(t *testing.T) {
	assert := assert.New(t)

	conf, err := config.Load("../examples/vector_rol.toml")
	if err != nil {
		t.Fatal(err)
	}
	image, err := conf.Image()
	assert.NoError(err)

	emu := NewEmulator(uint(conf.Machine.MemorySize))
	emu.Limit = conf.Machine.Limit

	inf, err := os.Open("../examples/vector_rol.asm")
	if err != nil {
		t.Fatal(err)
	}
	defer inf.Close()

	prog, err := emu.Assembler().Assemble(inf)
	if err != nil {
		t.Fatal(err)
	}
	assert.NoError(emu.LoadProgram(prog))

	assert.NoError(emu.Reset(image))
	assert.NoError(emu.Run())

	snap, err := emu.Snapshot(conf.Snapshot.Start, conf.Snapshot.End)
	assert.NoError(err)
	for address, value := range map[int]int{300: 3, 301: 51, 302: 85, 303: 240, 304: 240} {
		assert.Equal(value, snap.Memory[strconv.Itoa(address)], "mem[%d]", address)
	}
	assert.Empty(snap.Stack)
	assert.Equal(14, len(snap.Memory))
}
