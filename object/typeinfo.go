package object

import (
	"reflect"

	"github.com/mirrorlake/oprop/hashutil"
)

// ValueInfo is the type information for leaf types.
//
// Leaf types are those that are not PropertyClasses and therefore do not
// provide nested access to children. The identity type is used for runtime
// checks only; wire correctness relies on the name hash.
type ValueInfo struct {
	name  string
	hash  uint32
	rtype reflect.Type
}

// NewValueInfo creates new metadata for the given name and Go type.
func NewValueInfo(name string, rtype reflect.Type) ValueInfo {
	return ValueInfo{
		name:  name,
		hash:  hashutil.StringID(name),
		rtype: rtype,
	}
}

// Name returns the name of the type.
func (v ValueInfo) Name() string {
	return v.name
}

// Hash returns the dictionary hash of the type's name.
func (v ValueInfo) Hash() uint32 {
	return v.hash
}

// Type returns the Go type backing the reflected type.
func (v ValueInfo) Type() reflect.Type {
	return v.rtype
}

// Is checks whether the given Go type matches the reflected type.
func (v ValueInfo) Is(t reflect.Type) bool {
	return v.rtype == t
}

// TypeInfo describes a reflected type: either a Class backed by a
// PropertyList, or a Leaf backed by plain ValueInfo.
type TypeInfo struct {
	value ValueInfo
	class *PropertyList
}

// LeafInfo creates type information for a leaf type.
func LeafInfo(name string, rtype reflect.Type) *TypeInfo {
	return &TypeInfo{value: NewValueInfo(name, rtype)}
}

func classInfo(value ValueInfo, list *PropertyList) *TypeInfo {
	return &TypeInfo{value: value, class: list}
}

// Name returns the name of the type.
func (t *TypeInfo) Name() string {
	return t.value.Name()
}

// Hash returns the dictionary hash of the type's name.
func (t *TypeInfo) Hash() uint32 {
	return t.value.Hash()
}

// Type returns the Go type backing the reflected type.
func (t *TypeInfo) Type() reflect.Type {
	return t.value.Type()
}

// Class returns the PropertyList when the described type is a class.
func (t *TypeInfo) Class() (*PropertyList, bool) {
	return t.class, t.class != nil
}

// IsClass indicates whether the described type is a class.
func (t *TypeInfo) IsClass() bool {
	return t.class != nil
}
