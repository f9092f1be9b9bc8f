// Package object implements the ObjectProperty reflection model: property
// classes with emulated single inheritance, flag-annotated property lists,
// container and enum contracts, and the type registry that maps wire-level
// type identity to constructible types.
package object

import (
	"reflect"
)

// PropertyClass is implemented by every reflected class type.
//
// Implementations are plain structs used through pointers. A class emulates
// single inheritance by embedding its base class struct; properties are
// declared with `oprop` struct tags and optional `flags` tags:
//
//	type Unit struct {
//		Core
//		Name string `oprop:"m_name" flags:"TRANSMIT|SAVE"`
//	}
//
// The only required method returns the canonical class name that wire-level
// type identity is hashed from.
type PropertyClass interface {
	// ObjectName returns the canonical class name, e.g. "class Unit".
	ObjectName() string
}

// PreSaver is implemented by classes that want to run custom logic before
// they are serialized. Hooks are advisory and cannot fail the operation.
type PreSaver interface {
	OnPreSave()
}

// PostSaver is implemented by classes that want to run custom logic after
// they were serialized.
type PostSaver interface {
	OnPostSave()
}

// PreLoader is implemented by classes that want to run custom logic before
// they are deserialized.
type PreLoader interface {
	OnPreLoad()
}

// PostLoader is implemented by classes that want to run custom logic after
// they were deserialized.
type PostLoader interface {
	OnPostLoad()
}

// structType resolves the underlying struct type of a class instance.
func structType(obj PropertyClass) (reflect.Type, bool) {
	t := reflect.TypeOf(obj)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, false
	}

	return t.Elem(), true
}

// Base returns the embedded base object of obj as a polymorphic class
// reference, if one exists.
func Base(obj PropertyClass) (PropertyClass, bool) {
	list, err := ListFor(obj)
	if err != nil {
		return nil, false
	}

	field, ok := list.BaseValue(obj)
	if !ok {
		return nil, false
	}
	base, ok := field.Addr().Interface().(PropertyClass)

	return base, ok
}

// BaseAs recursively searches the emulated inheritance chain of obj for a
// class of type T and returns it, if found.
func BaseAs[T any](obj PropertyClass) (*T, bool) {
	want := reflect.TypeOf((*T)(nil)).Elem()

	for obj != nil {
		rv := reflect.ValueOf(obj)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return nil, false
		}
		if rv.Type().Elem() == want {
			return rv.Interface().(*T), true
		}

		base, ok := Base(obj)
		if !ok {
			return nil, false
		}
		obj = base
	}

	return nil, false
}

// DerivesFrom reports whether the base chain of obj includes the given
// struct type, counting obj's own type.
func DerivesFrom(obj PropertyClass, want reflect.Type) bool {
	for obj != nil {
		t, ok := structType(obj)
		if !ok {
			return false
		}
		if t == want {
			return true
		}

		base, ok := Base(obj)
		if !ok {
			return false
		}
		obj = base
	}

	return false
}
