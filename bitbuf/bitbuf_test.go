package bitbuf_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlake/oprop/bitbuf"
)

func TestReadBits(t *testing.T) {
	r := bitbuf.NewReader([]byte{0xB4})

	low, err := r.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4), low)

	high, err := r.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xB), high)

	assert.True(t, r.IsEmpty())
}

func TestReadBitOrder(t *testing.T) {
	r := bitbuf.NewReader([]byte{0b101})

	for _, want := range []bool{true, false, true} {
		bit, err := r.ReadBit()
		require.NoError(t, err)
		assert.Equal(t, want, bit)
	}
}

func TestWriteBitsRoundTrip(t *testing.T) {
	w := bitbuf.NewWriter()
	w.WriteBits(0x2A, 6)
	w.WriteUint16(0xBEEF)
	assert.Equal(t, 24, w.Len())

	r := bitbuf.NewReader(w.Bytes())

	v, err := r.ReadBits(6)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2A), v)

	// The u16 was written after a realign; its padding bits read as zero.
	u, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u)
}

func TestBoolDoesNotRealign(t *testing.T) {
	w := bitbuf.NewWriter()
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteBool(true)
	assert.Equal(t, 3, w.Len())

	r := bitbuf.NewReader(w.Bytes())
	for _, want := range []bool{true, false, true} {
		bit, err := r.ReadBool()
		require.NoError(t, err)
		assert.Equal(t, want, bit)
	}
}

func TestBytesRealign(t *testing.T) {
	w := bitbuf.NewWriter()
	w.WriteBit(true)
	w.WriteBytes([]byte{0xAA, 0xBB})
	assert.Equal(t, 24, w.Len())
	assert.Equal(t, []byte{0x01, 0xAA, 0xBB}, w.Bytes())

	r := bitbuf.NewReader(w.Bytes())
	bit, err := r.ReadBit()
	require.NoError(t, err)
	assert.True(t, bit)

	// Reading bytes discards the pending bits of the partial byte.
	buf, err := r.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, buf)
}

func TestScalarRoundTrip(t *testing.T) {
	w := bitbuf.NewWriter()
	w.WriteInt8(-5)
	w.WriteUint16(0x1234)
	w.WriteInt32(-123456)
	w.WriteUint64(0xDEADBEEFCAFEBABE)
	w.WriteFloat32(1.5)
	w.WriteFloat64(-2.25)

	r := bitbuf.NewReader(w.Bytes())

	i8, err := r.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-5), i8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-123456), i32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEFCAFEBABE), u64)

	f32, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)

	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, -2.25, f64)
}

func TestPrematureEOF(t *testing.T) {
	r := bitbuf.NewReader([]byte{0xFF})

	_, err := r.ReadUint16()
	assert.True(t, errors.Is(err, bitbuf.ErrPrematureEOF))

	_, err = bitbuf.NewReader(nil).ReadBit()
	assert.True(t, errors.Is(err, bitbuf.ErrPrematureEOF))
}

func TestCapacityExceeded(t *testing.T) {
	r := bitbuf.NewReader(make([]byte, 16))

	_, err := r.ReadBits(65)
	assert.True(t, errors.Is(err, bitbuf.ErrCapacityExceeded))
}

func TestSkip(t *testing.T) {
	r := bitbuf.NewReader([]byte{0x80})
	require.NoError(t, r.Skip(7))

	bit, err := r.ReadBit()
	require.NoError(t, err)
	assert.True(t, bit)

	assert.True(t, errors.Is(r.Skip(1), bitbuf.ErrPrematureEOF))
}

func TestLengthPrefix(t *testing.T) {
	w := bitbuf.NewWriter()
	w.WriteBit(true)

	// The prefix counts from before its own alignment padding and
	// includes its own 32 bits.
	prefix := w.ReserveLengthPrefix()
	w.WriteUint32(7)
	w.WriteLengthPrefix(prefix)

	r := bitbuf.NewReader(w.Bytes())

	bit, err := r.ReadBit()
	require.NoError(t, err)
	assert.True(t, bit)

	length, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(71), length)

	v, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
}

func TestLengthPrefixEmptyBody(t *testing.T) {
	w := bitbuf.NewWriter()
	prefix := w.ReserveLengthPrefix()
	w.WriteLengthPrefix(prefix)

	r := bitbuf.NewReader(w.Bytes())
	length, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(32), length)
}
