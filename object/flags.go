package object

import (
	"strings"

	"github.com/pkg/errors"
)

// PropertyFlags is the configuration bitmask for properties.
type PropertyFlags uint32

const (
	FlagSave               PropertyFlags = 1 << 0
	FlagCopy               PropertyFlags = 1 << 1
	FlagPublic             PropertyFlags = 1 << 2
	FlagTransmit           PropertyFlags = 1 << 3
	FlagPrivilegedTransmit PropertyFlags = 1 << 4
	FlagPersist            PropertyFlags = 1 << 5
	FlagDeprecated         PropertyFlags = 1 << 6
	FlagNoScript           PropertyFlags = 1 << 7
	FlagDeltaEncode        PropertyFlags = 1 << 8
	FlagBlob               PropertyFlags = 1 << 9

	FlagNoEdit       PropertyFlags = 1 << 16
	FlagFilename     PropertyFlags = 1 << 17
	FlagColor        PropertyFlags = 1 << 18
	FlagBits         PropertyFlags = 1 << 20
	FlagEnum         PropertyFlags = 1 << 21
	FlagLocalized    PropertyFlags = 1 << 22
	FlagStringKey    PropertyFlags = 1 << 23
	FlagObjectID     PropertyFlags = 1 << 24
	FlagReferenceID  PropertyFlags = 1 << 25
	FlagObjectName   PropertyFlags = 1 << 27
	FlagHasBaseclass PropertyFlags = 1 << 28
)

var flagNames = []struct {
	name string
	flag PropertyFlags
}{
	{"SAVE", FlagSave},
	{"COPY", FlagCopy},
	{"PUBLIC", FlagPublic},
	{"TRANSMIT", FlagTransmit},
	{"PRIVILEGED_TRANSMIT", FlagPrivilegedTransmit},
	{"PERSIST", FlagPersist},
	{"DEPRECATED", FlagDeprecated},
	{"NOSCRIPT", FlagNoScript},
	{"DELTA_ENCODE", FlagDeltaEncode},
	{"BLOB", FlagBlob},
	{"NOEDIT", FlagNoEdit},
	{"FILENAME", FlagFilename},
	{"COLOR", FlagColor},
	{"BITS", FlagBits},
	{"ENUM", FlagEnum},
	{"LOCALIZED", FlagLocalized},
	{"STRING_KEY", FlagStringKey},
	{"OBJECT_ID", FlagObjectID},
	{"REFERENCE_ID", FlagReferenceID},
	{"OBJECT_NAME", FlagObjectName},
	{"HAS_BASECLASS", FlagHasBaseclass},
}

// ErrUnknownFlag gets returned when a flags tag names an undefined flag.
var ErrUnknownFlag = errors.New("unknown property flag")

// HasBits checks whether all bits of other are set in the mask.
func (f PropertyFlags) HasBits(other PropertyFlags) bool {
	return f&other == other
}

// HasAny checks whether any bit of other is set in the mask.
func (f PropertyFlags) HasAny(other PropertyFlags) bool {
	return f&other != 0
}

// String renders the mask as a "|"-joined list of flag names.
func (f PropertyFlags) String() string {
	if f == 0 {
		return "0"
	}

	var parts []string
	for _, entry := range flagNames {
		if f.HasBits(entry.flag) {
			parts = append(parts, entry.name)
		}
	}

	return strings.Join(parts, "|")
}

// ParsePropertyFlags parses a "|"-joined list of flag names as used in
// `flags` struct tags. The empty string parses to an empty mask.
func ParsePropertyFlags(s string) (PropertyFlags, error) {
	var flags PropertyFlags
	if s == "" {
		return flags, nil
	}

outer:
	for _, token := range strings.Split(s, "|") {
		token = strings.TrimSpace(token)
		for _, entry := range flagNames {
			if entry.name == token {
				flags |= entry.flag
				continue outer
			}
		}

		return 0, errors.Wrapf(ErrUnknownFlag, "%q", token)
	}

	return flags, nil
}
