package cpu

// bitWriter appends bit fields to a byte slice, MSB first.
type bitWriter struct {
	buf []byte
	pos int // Bit position, relative to the start of buf.
}

func newBitWriter(buf []byte) *bitWriter {
	return &bitWriter{buf: buf, pos: len(buf) * 8}
}

// Write appends the low width bits of value, most significant first.
func (bw *bitWriter) Write(value uint64, width int) {
	for n := width - 1; n >= 0; n-- {
		index := bw.pos / 8
		if index == len(bw.buf) {
			bw.buf = append(bw.buf, 0)
		}
		if ((value >> n) & 1) == 1 {
			bw.buf[index] |= 0x80 >> (bw.pos % 8)
		}
		bw.pos++
	}
}

// Bytes returns the buffer, including any partially written byte.
func (bw *bitWriter) Bytes() []byte {
	return bw.buf
}

// bitReader reads bit fields from a byte slice, MSB first.
type bitReader struct {
	buf []byte
	pos int
}

func newBitReader(buf []byte) *bitReader {
	return &bitReader{buf: buf}
}

// Read returns the next width bits. Bits past the end of the buffer read as zero.
func (br *bitReader) Read(width int) (value uint64) {
	for range width {
		value <<= 1
		index := br.pos / 8
		if index < len(br.buf) && (br.buf[index]&(0x80>>(br.pos%8))) != 0 {
			value |= 1
		}
		br.pos++
	}
	return
}
