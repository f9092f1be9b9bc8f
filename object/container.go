package object

import (
	"fmt"
	"reflect"
)

// Container is the capability contract for dynamically sized property
// containers. Element access goes through reflect values so that the
// serializer can walk arbitrary element types without generics at the
// call site.
type Container interface {
	// ContainerLen returns the current number of elements.
	ContainerLen() int
	// ContainerAt returns the addressable element at index i.
	ContainerAt(i int) reflect.Value
	// ContainerResize resizes the container to n zero-valued elements.
	ContainerResize(n int)
	// ContainerReserve grows the capacity for at least n additional
	// elements without changing the length.
	ContainerReserve(n int)
	// ContainerElemType returns the element type.
	ContainerElemType() reflect.Type
}

// Vector is an ordered, growable property container backed by a slice.
//
// The zero value is an empty vector ready for use.
type Vector[T any] struct {
	items []T
}

// NewVector creates a vector holding the given elements.
func NewVector[T any](items ...T) *Vector[T] {
	return &Vector[T]{items: items}
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int {
	return len(v.items)
}

// At returns the element at index i.
func (v *Vector[T]) At(i int) T {
	return v.items[i]
}

// Mut returns a pointer to the element at index i for in-place updates.
func (v *Vector[T]) Mut(i int) *T {
	return &v.items[i]
}

// Push appends an element to the end of the vector.
func (v *Vector[T]) Push(item T) {
	v.items = append(v.items, item)
}

// Pop removes and returns the last element. It reports false on an empty
// vector.
func (v *Vector[T]) Pop() (T, bool) {
	if len(v.items) == 0 {
		var zero T

		return zero, false
	}

	item := v.items[len(v.items)-1]
	v.items = v.items[:len(v.items)-1]

	return item, true
}

// Reserve grows the capacity to hold at least n additional elements
// without changing the length.
func (v *Vector[T]) Reserve(n int) {
	if cap(v.items)-len(v.items) >= n {
		return
	}

	items := make([]T, len(v.items), len(v.items)+n)
	copy(items, v.items)
	v.items = items
}

// Clear removes all elements.
func (v *Vector[T]) Clear() {
	v.items = v.items[:0]
}

// Iter returns a forward-only iterator over the vector, starting at the
// first element.
func (v *Vector[T]) Iter() *VectorIter[T] {
	return &VectorIter[T]{vector: v}
}

// Values returns the backing slice of the vector.
func (v *Vector[T]) Values() []T {
	return v.items
}

// ContainerLen implements Container.
func (v *Vector[T]) ContainerLen() int {
	return len(v.items)
}

// ContainerAt implements Container.
func (v *Vector[T]) ContainerAt(i int) reflect.Value {
	return reflect.ValueOf(&v.items[i]).Elem()
}

// ContainerResize implements Container.
func (v *Vector[T]) ContainerResize(n int) {
	v.items = make([]T, n)
}

// ContainerReserve implements Container.
func (v *Vector[T]) ContainerReserve(n int) {
	v.Reserve(n)
}

// ContainerElemType implements Container.
func (v *Vector[T]) ContainerElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (v *Vector[T]) propertyTypeName() (string, error) {
	elemName, err := typeNameForType(v.ContainerElemType())
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("class std::vector<%s>", elemName), nil
}

// VectorIter iterates a vector front to back. It borrows the vector; the
// vector must not be resized while iteration is in progress.
type VectorIter[T any] struct {
	vector *Vector[T]
	next   int
}

// Next returns the next element, reporting false once the iterator is
// exhausted.
func (it *VectorIter[T]) Next() (T, bool) {
	if it.next >= len(it.vector.items) {
		var zero T

		return zero, false
	}

	item := it.vector.items[it.next]
	it.next++

	return item, true
}

// Restart rewinds the iterator to the first element.
func (it *VectorIter[T]) Restart() {
	it.next = 0
}
