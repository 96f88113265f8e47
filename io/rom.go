package io

import (
	"io"
	"os"
	"slices"
)

// Rom is a program image: the concatenated instruction encodings, with
// no header or padding.
type Rom struct {
	Data []byte
}

// ReadRom reads a complete program image.
func ReadRom(r io.Reader) (rom *Rom, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	rom = &Rom{Data: data}
	return
}

// LoadRom reads a program image from a file.
func LoadRom(path string) (rom *Rom, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	rom, err = ReadRom(inf)

	return
}

// Size returns the size of the image in bytes.
func (rom *Rom) Size() int {
	return len(rom.Data)
}

// Bytes returns a copy of the image.
func (rom *Rom) Bytes() []byte {
	return slices.Clone(rom.Data)
}

// WriteTo writes the image, as-is.
func (rom *Rom) WriteTo(w io.Writer) (n int64, err error) {
	wrote, err := w.Write(rom.Data)
	n = int64(wrote)
	return
}
