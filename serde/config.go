// Package serde implements the binary serializer and deserializer for
// ObjectProperty values: a Config-driven walk over the reflection tree
// that encodes values through the bit codec in either shallow or deep
// framing, with optional zlib compression of the final payload.
package serde

import (
	"strings"

	"github.com/mirrorlake/oprop/object"
)

// SerializerFlags is the bitmask of optional wire-format behaviors.
type SerializerFlags uint8

const (
	// StatefulFlags carries the active flags in the payload itself.
	StatefulFlags SerializerFlags = 1 << iota
	// CompactLengthPrefixes encodes length fields with one selector bit
	// followed by either 7 or 31 value bits.
	CompactLengthPrefixes
	// HumanReadableEnums encodes enum variants as length-prefixed name
	// strings instead of raw u32 values.
	HumanReadableEnums
	// Compress wraps the finished payload in a zlib envelope.
	Compress
	// ForbidDeltaEncode excludes DELTA_ENCODE properties from the masked
	// shallow walk.
	ForbidDeltaEncode
)

// knownFlags masks the bits with assigned meaning; stateful payloads may
// carry garbage in the remaining bits.
const knownFlags = StatefulFlags | CompactLengthPrefixes | HumanReadableEnums | Compress | ForbidDeltaEncode

var serializerFlagNames = []struct {
	name string
	flag SerializerFlags
}{
	{"STATEFUL_FLAGS", StatefulFlags},
	{"COMPACT_LENGTH_PREFIXES", CompactLengthPrefixes},
	{"HUMAN_READABLE_ENUMS", HumanReadableEnums},
	{"COMPRESS", Compress},
	{"FORBID_DELTA_ENCODE", ForbidDeltaEncode},
}

// HasBits checks whether all bits of other are set in the mask.
func (f SerializerFlags) HasBits(other SerializerFlags) bool {
	return f&other == other
}

// String renders the mask as a "|"-joined list of flag names.
func (f SerializerFlags) String() string {
	if f == 0 {
		return "0"
	}

	var parts []string
	for _, entry := range serializerFlagNames {
		if f.HasBits(entry.flag) {
			parts = append(parts, entry.name)
		}
	}

	return strings.Join(parts, "|")
}

// Config drives one serialization or deserialization pass.
//
// A Config value is copied into the pass; mutating it afterwards has no
// effect on a running pass.
type Config struct {
	// Flags selects the optional wire-format behaviors.
	Flags SerializerFlags
	// PropertyMask filters the properties written in shallow mode: a
	// property participates when its flags are a superset of the mask.
	// Deep mode ignores the mask.
	PropertyMask object.PropertyFlags
	// Shallow selects the flat field stream without per-property framing.
	// When false, every property is wrapped in length/hash records.
	Shallow bool
	// RecursionLimit bounds the nested class entries of one pass. It is a
	// call-depth budget, not a bound on total object graph size.
	RecursionLimit uint8
}

// DefaultConfig returns the canonical config: shallow mode, transmit
// masking, no optional flags.
func DefaultConfig() Config {
	return Config{
		Flags:          0,
		PropertyMask:   object.FlagTransmit | object.FlagPrivilegedTransmit,
		Shallow:        true,
		RecursionLimit: 127,
	}
}
