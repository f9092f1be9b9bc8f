package serde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlake/oprop/bitbuf"
)

func TestCompactLengthPrefixBoundaries(t *testing.T) {
	tests := []struct {
		length int
		large  bool
	}{
		{0, false},
		{1, false},
		{127, false},
		{128, true},
		{1<<31 - 1, true},
	}

	config := Config{Flags: CompactLengthPrefixes}
	for _, tt := range tests {
		s := NewSerializer(config, nil)
		s.writeSeqLen(tt.length)

		r := bitbuf.NewReader(s.writer.Bytes())
		selector, err := r.ReadBit()
		require.NoError(t, err)
		assert.Equal(t, tt.large, selector, "selector bit for %d", tt.length)

		d := NewDeserializer(config, nil)
		d.reader = bitbuf.NewReader(s.writer.Bytes())

		decoded, err := d.readSeqLen()
		require.NoError(t, err)
		assert.Equal(t, tt.length, decoded)
	}
}

func TestCompactLengthPrefixDisabled(t *testing.T) {
	s := NewSerializer(Config{}, nil)
	s.writeStrLen(300)
	s.writeSeqLen(70000)

	d := NewDeserializer(Config{}, nil)
	d.reader = bitbuf.NewReader(s.writer.Bytes())

	strLen, err := d.readStrLen()
	require.NoError(t, err)
	assert.Equal(t, 300, strLen)

	seqLen, err := d.readSeqLen()
	require.NoError(t, err)
	assert.Equal(t, 70000, seqLen)
}
