package io

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("io: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Format is a snapshot file encoding.
type Format string

const (
	FORMAT_JSON = Format("json")
	FORMAT_CBOR = Format("cbor")
)

// ParseFormat converts a format name, case insensitive.
func ParseFormat(name string) (format Format, err error) {
	switch Format(strings.ToLower(name)) {
	case FORMAT_JSON:
		format = FORMAT_JSON
	case FORMAT_CBOR:
		format = FORMAT_CBOR
	default:
		err = ErrFormat(name)
	}
	return
}

// FormatOf picks a format from a file name extension, defaulting to JSON.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FORMAT_CBOR
	}
	return FORMAT_JSON
}

// State is the machine state a snapshot is taken from.
type State interface {
	MemorySize() int
	Cells(start, end int) iter.Seq2[int, uint8] // Non-zero cells, clipped to memory.
	StackValues() []int                         // Bottom to top.
}

// Metadata describes the snapshot range and machine.
type Metadata struct {
	StartAddress    int `json:"start_address" cbor:"start_address"`
	EndAddress      int `json:"end_address" cbor:"end_address"`
	TotalMemorySize int `json:"total_memory_size" cbor:"total_memory_size"`
	StackSize       int `json:"stack_size" cbor:"stack_size"`
}

// Snapshot is a sparse dump of data memory and the operand stack.
// Cells absent from Memory are zero.
type Snapshot struct {
	Metadata Metadata       `json:"metadata" cbor:"metadata"`
	Memory   map[string]int `json:"memory" cbor:"memory"`
	Stack    []int          `json:"stack" cbor:"stack"`
}

// NewSnapshot captures the non-zero cells of state in [start, end], and
// the whole stack. An end past the memory is clipped for the scan, but
// recorded as given.
func NewSnapshot(state State, start, end int) (snap *Snapshot, err error) {
	if start < 0 || end < start {
		err = &ErrRange{Start: start, End: end}
		return
	}

	stack := state.StackValues()
	if stack == nil {
		stack = []int{}
	}

	snap = &Snapshot{
		Metadata: Metadata{
			StartAddress:    start,
			EndAddress:      end,
			TotalMemorySize: state.MemorySize(),
			StackSize:       len(stack),
		},
		Memory: map[string]int{},
		Stack:  stack,
	}

	for address, value := range state.Cells(start, end) {
		snap.Memory[strconv.Itoa(address)] = int(value)
	}

	return
}

// Cells iterates over the recorded cells as integer addresses.
// Keys that are not decimal addresses are skipped.
func (snap *Snapshot) Cells() iter.Seq2[int, int] {
	return func(yield func(address int, value int) bool) {
		for key, value := range snap.Memory {
			address, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			if !yield(address, value) {
				return
			}
		}
	}
}

// Write encodes the snapshot. JSON output is indented.
func (snap *Snapshot) Write(w io.Writer, format Format) (err error) {
	switch format {
	case FORMAT_JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(snap)
	case FORMAT_CBOR:
		var data []byte
		data, err = cborEncMode.Marshal(snap)
		if err != nil {
			return
		}
		_, err = w.Write(data)
	default:
		err = ErrFormat(format)
	}

	return
}

// ReadSnapshot decodes a snapshot written by Write.
func ReadSnapshot(r io.Reader, format Format) (snap *Snapshot, err error) {
	snap = &Snapshot{}

	switch format {
	case FORMAT_JSON:
		err = json.NewDecoder(r).Decode(snap)
	case FORMAT_CBOR:
		err = cbor.NewDecoder(r).Decode(snap)
	default:
		err = ErrFormat(format)
	}

	if err != nil {
		snap = nil
	}

	return
}
