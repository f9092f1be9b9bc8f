package object

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/mirrorlake/oprop/hashutil"
)

// ErrValueMismatch gets returned when assigning a value of the wrong
// dynamic type to a property.
var ErrValueMismatch = errors.New("value type does not match property type")

// Property describes one reflected field of a class.
//
// Properties expose their unique name in the class compound, type
// information for their storage type, and an individual set of
// PropertyFlags. Field access goes through reflect field indices resolved
// at list construction time; there is no offset arithmetic.
type Property struct {
	name  string
	hash  uint32
	flags PropertyFlags

	info   *TypeInfo
	index  int
	isBase bool
}

func newProperty(name string, flags PropertyFlags, info *TypeInfo, index int, isBase bool) Property {
	return Property{
		name:  name,
		hash:  hashutil.DJB2(name) + info.Hash(),
		flags: flags,

		info:   info,
		index:  index,
		isBase: isBase,
	}
}

// Name returns the name of the property.
func (p *Property) Name() string {
	return p.name
}

// Hash returns the dictionary hash of the property.
//
// The value uniquely references a property within its own class; it is not
// globally unique.
func (p *Property) Hash() uint32 {
	return p.hash
}

// Flags returns the PropertyFlags for the property.
func (p *Property) Flags() PropertyFlags {
	return p.flags
}

// Info returns the TypeInfo for the property's type.
func (p *Property) Info() *TypeInfo {
	return p.info
}

// IsBase indicates whether this property is the base class slot of its
// containing type.
func (p *Property) IsBase() bool {
	return p.isBase
}

func (p *Property) makeAccess(parent reflect.Type) PropertyAccess {
	return PropertyAccess{prop: p, parent: parent}
}

// PropertyAccess is a token that grants access to a Property only through
// instances of the class that actually contains it. Resolving the token
// against any other class fails closed.
type PropertyAccess struct {
	prop   *Property
	parent reflect.Type
}

// Valid indicates whether the token refers to a property at all.
func (a PropertyAccess) Valid() bool {
	return a.prop != nil
}

// Name returns the name of the property.
func (a PropertyAccess) Name() string {
	return a.prop.Name()
}

// Hash returns the dictionary hash of the property.
func (a PropertyAccess) Hash() uint32 {
	return a.prop.Hash()
}

// Flags returns the PropertyFlags for the property.
func (a PropertyAccess) Flags() PropertyFlags {
	return a.prop.Flags()
}

// Info returns the TypeInfo for the property's type.
func (a PropertyAccess) Info() *TypeInfo {
	return a.prop.Info()
}

// IsBase indicates whether this property is the base class slot.
func (a PropertyAccess) IsBase() bool {
	return a.prop.IsBase()
}

// Field resolves the token against obj and returns the addressable field
// value. It returns false when obj is not an instance of the class this
// token was obtained from.
func (a PropertyAccess) Field(obj PropertyClass) (reflect.Value, bool) {
	t, ok := structType(obj)
	if !ok || t != a.parent {
		return reflect.Value{}, false
	}

	return reflect.ValueOf(obj).Elem().Field(a.prop.index), true
}

// Get returns the property's value for obj, failing closed on a foreign
// class instance.
func (a PropertyAccess) Get(obj PropertyClass) (interface{}, bool) {
	field, ok := a.Field(obj)
	if !ok {
		return nil, false
	}

	return field.Interface(), true
}

// Set assigns v to the property on obj. It fails when the token does not
// belong to obj's class or when the dynamic type of v mismatches.
func (a PropertyAccess) Set(obj PropertyClass, v interface{}) error {
	field, ok := a.Field(obj)
	if !ok {
		return errors.Wrapf(ErrValueMismatch, "property %q is not part of %T", a.prop.name, obj)
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != field.Type() {
		return errors.Wrapf(ErrValueMismatch, "cannot assign %T to property %q", v, a.prop.name)
	}
	field.Set(rv)

	return nil
}
