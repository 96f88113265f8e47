package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitWriter(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name   string
		fields [][2]uint64 // value, width
		bin    []byte
	}{
		{"empty", nil, nil},
		{"one bit", [][2]uint64{{1, 1}}, []byte{0x80}},
		{"class and pad", [][2]uint64{{4, 3}, {0, 5}}, []byte{0x80}},
		{"straddle", [][2]uint64{{0b011, 3}, {0x1ff, 9}}, []byte{0x7f, 0xf0}},
		{"truncates value", [][2]uint64{{0xff, 4}}, []byte{0xf0}},
	}

	for _, entry := range table {
		bw := newBitWriter(nil)
		for _, field := range entry.fields {
			bw.Write(field[0], int(field[1]))
		}
		assert.Equal(entry.bin, bw.Bytes(), entry.name)
	}
}

func TestBitWriter_Append(t *testing.T) {
	assert := assert.New(t)

	bw := newBitWriter([]byte{0xaa})
	bw.Write(0b101, 3)
	assert.Equal([]byte{0xaa, 0xa0}, bw.Bytes())
}

func TestBitReader(t *testing.T) {
	assert := assert.New(t)

	br := newBitReader([]byte{0x7f, 0xf0})
	assert.Equal(uint64(0b011), br.Read(3))
	assert.Equal(uint64(0x1ff), br.Read(9))
	assert.Equal(uint64(0), br.Read(4))

	// Past the end reads zero.
	assert.Equal(uint64(0), br.Read(8))
}
