package object

import (
	"reflect"

	"github.com/pkg/errors"
)

// ErrUnknownProperty gets returned when looking up a property that is not
// part of a class.
var ErrUnknownProperty = errors.New("unknown property")

// PropertyList is the reflected description of a PropertyClass type: its
// type identity, an optional base class slot, and the serializable
// properties in declaration order.
//
// Lists are built once per type and cached; they are immutable after
// construction and safe for concurrent use.
type PropertyList struct {
	info  *TypeInfo
	rtype reflect.Type

	base       *Property
	properties []Property
}

// Info returns the TypeInfo describing the class.
func (l *PropertyList) Info() *TypeInfo {
	return l.info
}

// Name returns the registered name of the class.
func (l *PropertyList) Name() string {
	return l.info.Name()
}

// Hash returns the identity hash of the class name.
func (l *PropertyList) Hash() uint32 {
	return l.info.Hash()
}

// Type returns the reflect type of the class struct.
func (l *PropertyList) Type() reflect.Type {
	return l.rtype
}

// NumProperties returns the number of serializable properties, not
// counting the base class slot.
func (l *PropertyList) NumProperties() int {
	return len(l.properties)
}

// Base returns an access token for the base class slot, or an invalid
// token when the class has no base.
func (l *PropertyList) Base() PropertyAccess {
	if l.base == nil {
		return PropertyAccess{}
	}

	return l.base.makeAccess(l.rtype)
}

// HasBase indicates whether the class embeds a base class.
func (l *PropertyList) HasBase() bool {
	return l.base != nil
}

// Property returns an access token for the property with the given name.
func (l *PropertyList) Property(name string) (PropertyAccess, error) {
	for i := range l.properties {
		if l.properties[i].name == name {
			return l.properties[i].makeAccess(l.rtype), nil
		}
	}

	return PropertyAccess{}, errors.Wrapf(ErrUnknownProperty, "no property %q in class %s", name, l.Name())
}

// PropertyForHash returns an access token for the property with the given
// dictionary hash.
func (l *PropertyList) PropertyForHash(hash uint32) (PropertyAccess, error) {
	for i := range l.properties {
		if l.properties[i].hash == hash {
			return l.properties[i].makeAccess(l.rtype), nil
		}
	}

	return PropertyAccess{}, errors.Wrapf(ErrUnknownProperty, "no property with hash %d in class %s", hash, l.Name())
}

// PropertyAt returns an access token for the property at the given
// declaration index.
func (l *PropertyList) PropertyAt(i int) PropertyAccess {
	return l.properties[i].makeAccess(l.rtype)
}

// Properties returns access tokens for all serializable properties in
// declaration order.
func (l *PropertyList) Properties() []PropertyAccess {
	accessors := make([]PropertyAccess, len(l.properties))
	for i := range l.properties {
		accessors[i] = l.properties[i].makeAccess(l.rtype)
	}

	return accessors
}

// MakeDefault returns a new zero-valued instance of the class.
func (l *PropertyList) MakeDefault() PropertyClass {
	return reflect.New(l.rtype).Interface().(PropertyClass)
}

// BaseValue returns the addressable value of obj's base class slot, or
// false when the class has no base or obj is a foreign instance.
func (l *PropertyList) BaseValue(obj PropertyClass) (reflect.Value, bool) {
	if l.base == nil {
		return reflect.Value{}, false
	}

	return l.base.makeAccess(l.rtype).Field(obj)
}

// BaseList returns the PropertyList of the base class, or nil when the
// class has no base.
func (l *PropertyList) BaseList() *PropertyList {
	if l.base == nil {
		return nil
	}

	baseList, _ := l.base.info.Class()

	return baseList
}
