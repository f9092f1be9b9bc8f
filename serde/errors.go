package serde

import (
	"github.com/pkg/errors"
)

var (
	// ErrEmptyObject gets returned by Deserialize when the payload
	// carries a null type tag.
	ErrEmptyObject = errors.New("received empty object")
	// ErrUnexpectedProperty gets returned when a deep-mode property hash
	// does not match the expected property.
	ErrUnexpectedProperty = errors.New("unexpected property hash")
	// ErrSizeMismatch gets returned when a deep-mode length prefix does
	// not match the bits actually consumed.
	ErrSizeMismatch = errors.New("size mismatch for serialized object")
	// ErrTrailingData gets returned when a deep-mode object declares more
	// bits than its properties consumed.
	ErrTrailingData = errors.New("serialized object was not fully consumed")
	// ErrBudgetUnderflow gets returned when the sum of deep-mode property
	// sizes exceeds the declared object size.
	ErrBudgetUnderflow = errors.New("object size does not cover property sizes")
	// ErrRecursionLimit gets returned when the nested class-entry budget
	// of a deserialization pass is exhausted.
	ErrRecursionLimit = errors.New("recursion limit exhausted")
	// ErrDecompressionFailed gets returned when the zlib stream of a
	// compressed payload cannot be decoded.
	ErrDecompressionFailed = errors.New("decompression failed")
	// ErrDecompressedSizeMismatch gets returned when the decompressed
	// payload does not match its declared size.
	ErrDecompressedSizeMismatch = errors.New("size mismatch between compressed and decompressed data")
	// ErrInvalidUTF8 gets returned when a decoded string is not valid
	// UTF-8.
	ErrInvalidUTF8 = errors.New("string data is not valid UTF-8")
)
