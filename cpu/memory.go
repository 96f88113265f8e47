package cpu

import (
	"iter"
)

const (
	MEMORY_SIZE     = 65536   // Default data memory size, in cells.
	MEMORY_SIZE_MAX = 1 << 24 // Largest useful memory: the LOAD_MEM address space.
)

// Image is an initial data memory image, address to cell value.
type Image map[int]uint8

// Memory is the byte addressed data memory.
type Memory struct {
	Data []uint8
}

// NewMemory creates a zeroed memory of size cells.
func NewMemory(size uint) *Memory {
	return &Memory{Data: make([]uint8, size)}
}

// Size returns the number of cells.
func (mem *Memory) Size() int {
	return len(mem.Data)
}

func (mem *Memory) check(address int) (err error) {
	if address < 0 || address >= len(mem.Data) {
		err = &ErrOutOfBounds{Address: address, Size: len(mem.Data)}
	}
	return
}

// Read returns the cell at address.
func (mem *Memory) Read(address int) (value uint8, err error) {
	err = mem.check(address)
	if err != nil {
		return
	}

	value = mem.Data[address]
	return
}

// Write sets the cell at address.
func (mem *Memory) Write(address int, value uint8) (err error) {
	err = mem.check(address)
	if err != nil {
		return
	}

	mem.Data[address] = value
	return
}

// Reset zeroes memory, then applies image.
// Memory is left zeroed if any image address is out of bounds.
func (mem *Memory) Reset(image Image) (err error) {
	clear(mem.Data)

	for address := range image {
		err = mem.check(address)
		if err != nil {
			return
		}
	}

	for address, value := range image {
		mem.Data[address] = value
	}

	return
}

// Cells iterates over the non-zero cells in [start, end], in address order.
// The range is clipped to the memory.
func (mem *Memory) Cells(start, end int) iter.Seq2[int, uint8] {
	return func(yield func(address int, value uint8) bool) {
		last := min(end, len(mem.Data)-1)
		for address := max(start, 0); address <= last; address++ {
			value := mem.Data[address]
			if value == 0 {
				continue
			}
			if !yield(address, value) {
				return
			}
		}
	}
}
