// Package bitbuf provides buffers for bit-level serialization and
// deserialization of data.
//
// All operations read and write data from the LSB of a byte towards the
// MSB. The exception are whole units of bytes, which use proper
// little-endian ordering.
package bitbuf

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrPrematureEOF gets returned when fewer bits remain in the buffer than requested.
	ErrPrematureEOF = errors.New("premature EOF while trying to read data")
	// ErrCapacityExceeded gets returned when the requested bit count overflows the target type.
	ErrCapacityExceeded = errors.New("requested bits overflow capacity of target type")
)

// Reader is a buffer which supports bit-based deserialization of data.
//
// Quantities of multiple bytes (except byte slices) are always read in
// little-endian byte ordering. Individual bit reading starts with the LSB
// of the byte, working towards the MSB.
//
// The Reader borrows the supplied bytes without copying; callers must keep
// the memory alive and unmodified for the lifetime of the read pass.
type Reader struct {
	bytes []byte

	// readOffset is the read position in bits from the start of the buffer.
	readOffset int
	size       int
}

// NewReader creates a new reader over the given byte slice.
func NewReader(buf []byte) *Reader {
	return &Reader{
		bytes: buf,
		size:  len(buf) * 8,
	}
}

// Len returns the number of bits remaining in the buffer.
func (r *Reader) Len() int {
	return r.size - r.readOffset
}

// IsEmpty indicates whether the buffer is exhausted.
func (r *Reader) IsEmpty() bool {
	return r.Len() == 0
}

// Pos returns the current read position in bits from the start of the
// buffer.
func (r *Reader) Pos() int {
	return r.readOffset
}

// ReadBit reads a single bit from the buffer, if possible.
func (r *Reader) ReadBit() (bool, error) {
	if r.readOffset >= r.size {
		return false, errors.WithStack(ErrPrematureEOF)
	}

	bit := r.bytes[r.readOffset>>3]>>(r.readOffset&7)&1 == 1
	r.readOffset++

	return bit, nil
}

// ReadBits reads a given number of bits from the buffer into an integer,
// if possible.
//
// Bits are loaded LSB-first, so the first bit read becomes the least
// significant bit of the result.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, errors.Wrapf(ErrCapacityExceeded, "%d bits requested", n)
	}
	if n > r.Len() {
		return 0, errors.WithStack(ErrPrematureEOF)
	}

	var v uint64
	for i := 0; i < n; i++ {
		off := r.readOffset + i
		bit := uint64(r.bytes[off>>3]>>(off&7)) & 1
		v |= bit << i
	}
	r.readOffset += n

	return v, nil
}

// Skip advances the read position by n bits without interpreting them.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Len() {
		return errors.WithStack(ErrPrematureEOF)
	}
	r.readOffset += n

	return nil
}

// realignToByte advances the read position to the next full byte boundary,
// discarding any pending bits until then.
func (r *Reader) realignToByte() {
	if pad := r.readOffset & 7; pad != 0 {
		r.readOffset += 8 - pad
	}
}

// ReadBytes reads n bytes from the buffer, if possible.
//
// This will force-align the buffer to full byte boundaries before reading,
// effectively discarding the remaining bits until then. The returned slice
// aliases the reader's backing storage.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	r.realignToByte()
	if n*8 > r.Len() {
		return nil, errors.WithStack(ErrPrematureEOF)
	}

	start := r.readOffset >> 3
	r.readOffset += n * 8

	return r.bytes[start : start+n], nil
}

// ReadBool reads a bool value from the buffer, if possible.
//
// Booleans are represented as individual bits and do not force a realign
// to full byte boundaries.
func (r *Reader) ReadBool() (bool, error) {
	return r.ReadBit()
}

// ReadUint8 reads a uint8 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadUint8() (uint8, error) {
	r.realignToByte()
	v, err := r.ReadBits(8)

	return uint8(v), err
}

// ReadInt8 reads an int8 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()

	return int8(v), err
}

// ReadUint16 reads a uint16 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadUint16() (uint16, error) {
	r.realignToByte()
	v, err := r.ReadBits(16)

	return uint16(v), err
}

// ReadInt16 reads an int16 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()

	return int16(v), err
}

// ReadUint32 reads a uint32 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadUint32() (uint32, error) {
	r.realignToByte()
	v, err := r.ReadBits(32)

	return uint32(v), err
}

// ReadInt32 reads an int32 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()

	return int32(v), err
}

// ReadUint64 reads a uint64 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadUint64() (uint64, error) {
	r.realignToByte()

	return r.ReadBits(64)
}

// ReadInt64 reads an int64 value from the buffer, forcing byte realignment first.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()

	return int64(v), err
}

// ReadFloat32 reads a float32 value from the buffer, forcing byte realignment first.
//
// The value is reconstructed from its IEEE 754 bit representation.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()

	return math.Float32frombits(v), err
}

// ReadFloat64 reads a float64 value from the buffer, forcing byte realignment first.
//
// The value is reconstructed from its IEEE 754 bit representation.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()

	return math.Float64frombits(v), err
}
