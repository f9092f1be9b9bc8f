package object

import (
	"reflect"
	"unicode/utf16"
)

var (
	rawStringType     = reflect.TypeOf(RawString(nil))
	rawWideStringType = reflect.TypeOf(RawWideString(nil))
)

// RawString is a byte-backed narrow string. Unlike Go strings it carries
// arbitrary bytes and is not validated as UTF-8 on decode.
type RawString []byte

// String renders the bytes lossily, replacing invalid UTF-8 sequences.
func (s RawString) String() string {
	return string(s)
}

// RawWideString is a UTF-16 code unit backed wide string. Unpaired
// surrogates survive the wire untouched and render as replacement
// characters.
type RawWideString []uint16

// NewRawWideString encodes a Go string into UTF-16 code units.
func NewRawWideString(s string) RawWideString {
	return utf16.Encode([]rune(s))
}

// String decodes the code units lossily.
func (s RawWideString) String() string {
	return string(utf16.Decode(s))
}
