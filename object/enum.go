package object

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidEnumVariant gets returned when an enum value or name does not
// match any declared variant.
var ErrInvalidEnumVariant = errors.New("invalid enum variant")

// Variant is one declared option of an Enum.
type Variant struct {
	Name  string
	Value uint32
}

// Enum is the capability contract for enumerated property types.
//
// Implementations are named integer types that declare their variants in
// declaration order. Bit-flag enums use the same contract; whether an enum
// property is treated as a bitmask is decided by the FlagBits property
// flag, not by the type.
type Enum interface {
	// EnumName returns the declared name of the enum type, without any
	// "enum " prefix.
	EnumName() string
	// Variants returns the declared options in declaration order.
	Variants() []Variant
	// EnumValue returns the current raw value.
	EnumValue() uint32
	// SetEnumValue replaces the current raw value.
	SetEnumValue(v uint32)
}

// VariantName returns the declared name for the enum's current value.
func VariantName(e Enum) (string, bool) {
	value := e.EnumValue()
	for _, variant := range e.Variants() {
		if variant.Value == value {
			return variant.Name, true
		}
	}

	return "", false
}

// SetVariantByName updates the enum to the variant with the given name.
func SetVariantByName(e Enum, name string) error {
	for _, variant := range e.Variants() {
		if variant.Name == name {
			e.SetEnumValue(variant.Value)

			return nil
		}
	}

	return errors.Wrapf(ErrInvalidEnumVariant, "%s has no variant %q", e.EnumName(), name)
}

// ValidateVariantValue checks v against the enum's declared variants
// without updating it. For bit-flag enums (bits true) v must be a union
// of declared bits; otherwise it must match one variant exactly.
func ValidateVariantValue(e Enum, v uint32, bits bool) error {
	if bits {
		var declared uint32
		for _, variant := range e.Variants() {
			declared |= variant.Value
		}
		if undeclared := v &^ declared; undeclared != 0 {
			return errors.Wrapf(ErrInvalidEnumVariant, "%s has no variants for bits %#x", e.EnumName(), undeclared)
		}

		return nil
	}

	for _, variant := range e.Variants() {
		if variant.Value == v {
			return nil
		}
	}

	return errors.Wrapf(ErrInvalidEnumVariant, "%s has no variant with value %d", e.EnumName(), v)
}

// SetVariantValue updates the enum to v after validating it with
// ValidateVariantValue. Invalid values reject the update and leave the
// enum untouched.
func SetVariantValue(e Enum, v uint32, bits bool) error {
	if err := ValidateVariantValue(e, v, bits); err != nil {
		return err
	}

	e.SetEnumValue(v)

	return nil
}

// JoinBits renders a bit-flag enum's value as its set variants in
// declaration order, joined by " | ". An empty mask renders as "".
func JoinBits(e Enum) string {
	value := e.EnumValue()

	var parts []string
	for _, variant := range e.Variants() {
		if variant.Value != 0 && value&variant.Value == variant.Value {
			parts = append(parts, variant.Name)
		}
	}

	return strings.Join(parts, " | ")
}

// ParseBits updates a bit-flag enum from a " | "-joined variant list as
// produced by JoinBits. Any unknown token rejects the whole update and
// leaves the enum untouched.
func ParseBits(e Enum, s string) error {
	var value uint32

	if s != "" {
	outer:
		for _, token := range strings.Split(s, "|") {
			token = strings.TrimSpace(token)
			for _, variant := range e.Variants() {
				if variant.Name == token {
					value |= variant.Value
					continue outer
				}
			}

			return errors.Wrapf(ErrInvalidEnumVariant, "%s has no variant %q", e.EnumName(), token)
		}
	}

	e.SetEnumValue(value)

	return nil
}
