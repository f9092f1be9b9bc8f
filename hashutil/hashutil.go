// Package hashutil implements the dictionary hash functions used for
// wire-level type and property identity.
package hashutil

// StringID produces the dictionary hash of data.
func StringID(data string) uint32 {
	return StringIDBuilder{}.FeedString(data).Finish()
}

// ByteStringID produces the dictionary hash of data.
func ByteStringID(data []byte) uint32 {
	return StringIDBuilder{}.Feed(data).Finish()
}

// StringIDBuilder incrementally hashes substrings into a single dictionary
// hash. Feeding the same bytes in any segmentation yields the same result.
type StringIDBuilder struct {
	state     int32
	processed uint32
}

// Feed hashes data into the state and returns the advanced builder.
func (b StringIDBuilder) Feed(data []byte) StringIDBuilder {
	for i := 0; i < len(data); i++ {
		c := int32(data[i]) - 32
		shift := (b.processed + uint32(i)) * 5 % 32

		b.state ^= c << shift
		if shift > 24 {
			// The value straddles the word boundary, fold the upper part back in.
			b.state ^= c >> (32 - shift)
		}
	}
	b.processed += uint32(len(data))

	return b
}

// FeedString hashes data into the state and returns the advanced builder.
func (b StringIDBuilder) FeedString(data string) StringIDBuilder {
	for i := 0; i < len(data); i++ {
		c := int32(data[i]) - 32
		shift := (b.processed + uint32(i)) * 5 % 32

		b.state ^= c << shift
		if shift > 24 {
			b.state ^= c >> (32 - shift)
		}
	}
	b.processed += uint32(len(data))

	return b
}

// Finish returns the final hash value.
func (b StringIDBuilder) Finish() uint32 {
	if b.state < 0 {
		return uint32(-b.state)
	}

	return uint32(b.state)
}

// DJB2 implements the djb2 hash function with the most significant bit
// stripped from the result.
func DJB2(input string) uint32 {
	state := uint32(5381)
	for i := 0; i < len(input); i++ {
		// state * 33 + input[i]
		state = (state << 5) + state + uint32(input[i])
	}

	return state & (1<<31 - 1)
}
