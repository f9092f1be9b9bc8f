package bitbuf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LengthPrefix is a reserved length prefix to be committed to the buffer
// later via Writer.WriteLengthPrefix.
type LengthPrefix struct {
	start int
	pos   int
}

// Writer is a buffer which supports bit-based serialization of data.
//
// Quantities of multiple bytes (except byte slices) are always written in
// little-endian byte ordering. Individual bit writing starts with the LSB
// of the byte, working towards the MSB.
//
// Write operations never fail; the backing buffer grows as needed.
type Writer struct {
	bytes  []byte
	bitLen int
}

// NewWriter creates a new, empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Len returns the number of bits in the buffer.
func (w *Writer) Len() int {
	return w.bitLen
}

// IsEmpty indicates whether the buffer is empty.
func (w *Writer) IsEmpty() bool {
	return w.bitLen == 0
}

// Bytes returns a view of the buffer's storage as a byte slice.
//
// Trailing bits of a partial byte read as zero.
func (w *Writer) Bytes() []byte {
	return w.bytes[:(w.bitLen+7)/8]
}

// grow extends the backing storage so that n more bits fit.
func (w *Writer) grow(n int) {
	need := (w.bitLen + n + 7) / 8
	for len(w.bytes) < need {
		w.bytes = append(w.bytes, 0)
	}
}

// WriteBit writes a single bit to the buffer.
func (w *Writer) WriteBit(b bool) {
	w.grow(1)
	if b {
		w.bytes[w.bitLen>>3] |= 1 << (w.bitLen & 7)
	}
	w.bitLen++
}

// WriteBits writes the n least significant bits of v to the buffer,
// LSB-first.
//
// n must not exceed 64; larger requests are a caller contract violation.
func (w *Writer) WriteBits(v uint64, n int) {
	if n < 0 || n > 64 {
		panic(fmt.Sprintf("bitbuf: invalid bit count %d", n))
	}

	w.grow(n)
	for i := 0; i < n; i++ {
		if v>>i&1 == 1 {
			off := w.bitLen + i
			w.bytes[off>>3] |= 1 << (off & 7)
		}
	}
	w.bitLen += n
}

// realignToByte pads the buffer with zero bits up to the next full byte
// boundary.
func (w *Writer) realignToByte() {
	if pad := w.bitLen & 7; pad != 0 {
		w.grow(8 - pad)
		w.bitLen += 8 - pad
	}
}

// WriteBytes writes the bytes in buf to the buffer.
//
// This will force-align the buffer to full byte boundaries before writing,
// effectively filling remaining bits with zeroes.
func (w *Writer) WriteBytes(buf []byte) {
	w.realignToByte()
	w.grow(len(buf) * 8)
	copy(w.bytes[w.bitLen>>3:], buf)
	w.bitLen += len(buf) * 8
}

// ReserveLengthPrefix reserves a 32 bit length prefix in the buffer.
//
// After calling this method, the bits written to the buffer are counted
// until Writer.WriteLengthPrefix commits them. Padding bits inserted for
// the prefix itself count towards the final length value.
func (w *Writer) ReserveLengthPrefix() LengthPrefix {
	start := w.bitLen
	w.realignToByte()

	pos := w.bitLen
	w.grow(32)
	w.bitLen += 32

	return LengthPrefix{start: start, pos: pos}
}

// WriteLengthPrefix applies a previously reserved LengthPrefix by storing
// the amount of bits written since the reservation.
func (w *Writer) WriteLengthPrefix(prefix LengthPrefix) {
	// The reservation realigned to a byte boundary first, so the patch
	// position is always byte-aligned.
	binary.LittleEndian.PutUint32(w.bytes[prefix.pos>>3:], uint32(w.bitLen-prefix.start))
}

// WriteBool writes a bool value to the buffer.
//
// Booleans are represented as single bits and do not force a realign to
// full byte boundaries.
func (w *Writer) WriteBool(v bool) {
	w.WriteBit(v)
}

// WriteUint8 writes a uint8 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteUint8(v uint8) {
	w.realignToByte()
	w.WriteBits(uint64(v), 8)
}

// WriteInt8 writes an int8 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

// WriteUint16 writes a uint16 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteUint16(v uint16) {
	w.realignToByte()
	w.WriteBits(uint64(v), 16)
}

// WriteInt16 writes an int16 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

// WriteUint32 writes a uint32 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteUint32(v uint32) {
	w.realignToByte()
	w.WriteBits(uint64(v), 32)
}

// WriteInt32 writes an int32 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 writes a uint64 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteUint64(v uint64) {
	w.realignToByte()
	w.WriteBits(v, 64)
}

// WriteInt64 writes an int64 value to the buffer, forcing byte realignment first.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteFloat32 writes the IEEE 754 bits of a float32 value to the buffer,
// forcing byte realignment first.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes the IEEE 754 bits of a float64 value to the buffer,
// forcing byte realignment first.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}
