// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/ezrec/uvm/config"
	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/emulator"
	"github.com/ezrec/uvm/internal"
	"github.com/ezrec/uvm/io"
)

const usage = `usage:
  %[1]v assemble [-config FILE] [-t] [-v] INPUT.asm OUTPUT.bin
  %[1]v run [-config FILE] [-start N] [-end N] [-limit N] [-format json|cbor] [-v] INPUT.bin OUTPUT
  %[1]v disasm INPUT.bin
`

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		atexit.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "assemble", "asm":
		doAssemble(args)
	case "run":
		doRun(args)
	case "disasm":
		doDisasm(args)
	case "help", "-h", "-help", "--help":
		fmt.Fprintf(os.Stdout, usage, os.Args[0])
	default:
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		atexit.Fatalf("%v: unknown command '%v'", os.Args[0], cmd)
	}

	atexit.Exit(0)
}

// loadConfig loads path, or the defaults.
func loadConfig(path string) *config.Config {
	conf, err := config.Load(path)
	if err != nil {
		atexit.Fatal(err)
	}

	return conf
}

// createOutput creates an output file that is discarded unless committed.
func createOutput(path string) *io.AtomicFile {
	ouf, err := io.CreateAtomic(path)
	if err != nil {
		atexit.Fatalf("%v: %v", path, err)
	}
	atexit.Register(func() {
		ouf.Abort()
	})

	return ouf
}

func doAssemble(args []string) {
	var confPath string
	var listing bool
	var verbose bool

	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	fs.StringVar(&confPath, "config", "", "TOML configuration file")
	fs.BoolVar(&listing, "t", false, "Print the assembled listing")
	fs.BoolVar(&verbose, "v", false, "Verbose mode")
	fs.Parse(args)

	if fs.NArg() != 2 {
		atexit.Fatalf("assemble: expected INPUT and OUTPUT, got: %v", strings.Join(fs.Args(), " "))
	}
	input, output := fs.Arg(0), fs.Arg(1)

	conf := loadConfig(confPath)
	emu := emulator.NewEmulator(uint(conf.Machine.MemorySize))
	emu.Verbose = verbose
	asm := emu.Assembler()

	inf, err := os.Open(input)
	if err != nil {
		atexit.Fatal(err)
	}
	defer inf.Close()

	prog, err := asm.Assemble(inf)
	if err != nil {
		atexit.Fatalf("%v: %v", input, err)
	}

	bin, err := prog.Binary()
	if err != nil {
		atexit.Fatalf("%v: %v", input, err)
	}
	rom := &io.Rom{Data: bin}

	if listing {
		err = prog.Listing(os.Stdout)
		if err != nil {
			atexit.Fatal(err)
		}
	}

	ouf := createOutput(output)
	_, err = rom.WriteTo(ouf)
	if err != nil {
		atexit.Fatalf("%v: %v", output, err)
	}
	err = ouf.Commit()
	if err != nil {
		atexit.Fatalf("%v: %v", output, err)
	}

	if verbose || listing {
		log.Printf("%v: %d instructions, %d bytes", output, len(prog.Opcodes), rom.Size())
	}
}

func doRun(args []string) {
	var confPath string
	var start, end, limit int
	var format string
	var verbose bool

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.StringVar(&confPath, "config", "", "TOML configuration file")
	fs.IntVar(&start, "start", 0, "First snapshot address (default from config, or 0)")
	fs.IntVar(&end, "end", 1000, "Last snapshot address (default from config, or 1000)")
	fs.IntVar(&limit, "limit", 0, "Maximum instructions to execute, 0 for no limit")
	fs.StringVar(&format, "format", "", "Snapshot format: json or cbor (default by extension)")
	fs.BoolVar(&verbose, "v", false, "Verbose mode")
	fs.Parse(args)

	if fs.NArg() != 2 {
		atexit.Fatalf("run: expected INPUT and OUTPUT, got: %v", strings.Join(fs.Args(), " "))
	}
	input, output := fs.Arg(0), fs.Arg(1)

	conf := loadConfig(confPath)

	// Explicit flags override the configuration.
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "start":
			conf.Snapshot.Start = start
		case "end":
			conf.Snapshot.End = end
		case "limit":
			conf.Machine.Limit = limit
		case "format":
			conf.Snapshot.Format = format
		}
	})
	err := conf.Validate()
	if err != nil {
		atexit.Fatal(err)
	}

	snapFormat, err := conf.SnapshotFormat(output)
	if err != nil {
		atexit.Fatal(err)
	}

	image, err := conf.Image()
	if err != nil {
		atexit.Fatal(err)
	}

	rom, err := io.LoadRom(input)
	if err != nil {
		atexit.Fatal(err)
	}
	if verbose {
		log.Printf("%v: %d byte program", input, rom.Size())
	}

	emu := emulator.NewEmulator(uint(conf.Machine.MemorySize))
	emu.Verbose = verbose
	emu.Limit = conf.Machine.Limit
	emu.LoadRom(rom)

	err = emu.Reset(image)
	if err != nil {
		atexit.Fatalf("%v: %v", input, err)
	}

	err = emu.Run()
	if err != nil {
		if verbose {
			log.Print(emu.String())
		}
		atexit.Fatalf("%v: %v", input, err)
	}

	snap, err := emu.Snapshot(conf.Snapshot.Start, conf.Snapshot.End)
	if err != nil {
		atexit.Fatal(err)
	}

	ouf := createOutput(output)
	err = snap.Write(ouf, snapFormat)
	if err != nil {
		atexit.Fatalf("%v: %v", output, err)
	}
	err = ouf.Commit()
	if err != nil {
		atexit.Fatalf("%v: %v", output, err)
	}

	if verbose {
		log.Printf("%v: %d instructions, stack %v", input, emu.Ticks(), snap.Stack)
		for address, value := range internal.Sorted2(snap.Cells()) {
			log.Printf("mem[%d] = %d", address, value)
		}
	}
}

func doDisasm(args []string) {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		atexit.Fatalf("disasm: expected INPUT, got: %v", strings.Join(fs.Args(), " "))
	}
	input := fs.Arg(0)

	rom, err := io.LoadRom(input)
	if err != nil {
		atexit.Fatal(err)
	}

	prog, err := cpu.Disassemble(rom.Data)
	if err != nil {
		atexit.Fatalf("%v: %v", input, err)
	}

	err = prog.Listing(os.Stdout)
	if err != nil {
		atexit.Fatal(err)
	}
}
