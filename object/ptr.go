package object

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"go.uber.org/atomic"
)

// ErrClassMismatch gets returned when assigning an object to a pointer
// whose pointee class is not part of the object's base chain.
var ErrClassMismatch = errors.New("object does not derive from pointee class")

// ClassPointer is the capability contract for polymorphic pointer
// properties. Pointees are stored dynamically: any class whose base chain
// includes the declared pointee class is accepted.
type ClassPointer interface {
	// PointerClass returns the current pointee, or false when null.
	PointerClass() (PropertyClass, bool)
	// SetPointerClass replaces the pointee. A nil argument clears the
	// pointer.
	SetPointerClass(obj PropertyClass) error
	// PointerElemType returns the declared pointee struct type.
	PointerElemType() reflect.Type
}

func checkPointee(obj PropertyClass, elem reflect.Type) error {
	if obj == nil {
		return nil
	}
	if !DerivesFrom(obj, elem) {
		return errors.Wrapf(ErrClassMismatch, "%T does not derive from %s", obj, elem)
	}

	return nil
}

// Ptr is a uniquely owning, nullable pointer to any class deriving
// from T. The zero value is a null pointer.
type Ptr[T any] struct {
	obj PropertyClass
}

// NewPtr creates a pointer holding obj.
func NewPtr[T any](obj PropertyClass) (*Ptr[T], error) {
	p := &Ptr[T]{}
	if err := p.SetPointerClass(obj); err != nil {
		return nil, err
	}

	return p, nil
}

// IsNull indicates whether the pointer holds no object.
func (p *Ptr[T]) IsNull() bool {
	return p.obj == nil
}

// Get returns the pointee as its declared class T.
func (p *Ptr[T]) Get() (*T, bool) {
	if p.obj == nil {
		return nil, false
	}

	return BaseAs[T](p.obj)
}

// PointerClass implements ClassPointer.
func (p *Ptr[T]) PointerClass() (PropertyClass, bool) {
	return p.obj, p.obj != nil
}

// SetPointerClass implements ClassPointer.
func (p *Ptr[T]) SetPointerClass(obj PropertyClass) error {
	if err := checkPointee(obj, p.PointerElemType()); err != nil {
		return err
	}
	p.obj = obj

	return nil
}

// PointerElemType implements ClassPointer.
func (p *Ptr[T]) PointerElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (p *Ptr[T]) propertyTypeName() (string, error) {
	elemName, err := typeNameForType(p.PointerElemType())
	if err != nil {
		return "", err
	}

	return elemName + "*", nil
}

// sharedState is the control block shared between all strong and weak
// references to one pointee.
type sharedState struct {
	obj    PropertyClass
	strong atomic.Int32
}

// SharedPtr is a reference-counted, clonable pointer to any class deriving
// from T. The zero value is a null pointer.
type SharedPtr[T any] struct {
	state *sharedState
}

// NewSharedPtr creates a counted pointer holding obj with one strong
// reference.
func NewSharedPtr[T any](obj PropertyClass) (*SharedPtr[T], error) {
	p := &SharedPtr[T]{}
	if err := p.SetPointerClass(obj); err != nil {
		return nil, err
	}

	return p, nil
}

// IsNull indicates whether the pointer holds no object.
func (p *SharedPtr[T]) IsNull() bool {
	return p.state == nil || p.state.obj == nil
}

// Get returns the pointee as its declared class T.
func (p *SharedPtr[T]) Get() (*T, bool) {
	if p.IsNull() {
		return nil, false
	}

	return BaseAs[T](p.state.obj)
}

// StrongCount returns the current number of strong references.
func (p *SharedPtr[T]) StrongCount() int32 {
	if p.state == nil {
		return 0
	}

	return p.state.strong.Load()
}

// Clone returns a new strong reference to the same pointee.
func (p *SharedPtr[T]) Clone() *SharedPtr[T] {
	if p.state != nil {
		p.state.strong.Inc()
	}

	return &SharedPtr[T]{state: p.state}
}

// Release drops this strong reference. When the last strong reference is
// released the pointee is dropped and outstanding weak references expire.
func (p *SharedPtr[T]) Release() {
	if p.state == nil {
		return
	}
	if p.state.strong.Dec() == 0 {
		p.state.obj = nil
	}
	p.state = nil
}

// Downgrade returns a non-owning weak reference to the pointee.
func (p *SharedPtr[T]) Downgrade() *WeakPtr[T] {
	return &WeakPtr[T]{state: p.state}
}

// PointerClass implements ClassPointer.
func (p *SharedPtr[T]) PointerClass() (PropertyClass, bool) {
	if p.IsNull() {
		return nil, false
	}

	return p.state.obj, true
}

// SetPointerClass implements ClassPointer.
func (p *SharedPtr[T]) SetPointerClass(obj PropertyClass) error {
	if err := checkPointee(obj, p.PointerElemType()); err != nil {
		return err
	}
	if obj == nil {
		p.state = nil

		return nil
	}

	state := &sharedState{obj: obj}
	state.strong.Store(1)
	p.state = state

	return nil
}

// PointerElemType implements ClassPointer.
func (p *SharedPtr[T]) PointerElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (p *SharedPtr[T]) propertyTypeName() (string, error) {
	elemName, err := typeNameForType(p.PointerElemType())
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("class SharedPointer<%s>", elemName), nil
}

// WeakPtr is a non-owning reference obtained from a SharedPtr. It resolves
// only while at least one strong reference is alive.
type WeakPtr[T any] struct {
	state *sharedState
}

// Lock attempts to upgrade the weak reference into a new strong reference.
// It fails once the last strong reference was released.
func (p *WeakPtr[T]) Lock() (*SharedPtr[T], bool) {
	if p.state == nil {
		return nil, false
	}

	for {
		current := p.state.strong.Load()
		if current == 0 {
			return nil, false
		}
		if p.state.strong.CompareAndSwap(current, current+1) {
			return &SharedPtr[T]{state: p.state}, true
		}
	}
}

// IsExpired indicates whether the pointee has been dropped.
func (p *WeakPtr[T]) IsExpired() bool {
	return p.state == nil || p.state.strong.Load() == 0
}

// PointerClass implements ClassPointer. An expired reference reads as
// null.
func (p *WeakPtr[T]) PointerClass() (PropertyClass, bool) {
	strong, ok := p.Lock()
	if !ok {
		return nil, false
	}
	defer strong.Release()

	return strong.state.obj, true
}

// SetPointerClass implements ClassPointer. A weak reference assigned
// without a strong owner is expired from the start; it exists so that
// weak properties survive a decode pass without aliasing state.
func (p *WeakPtr[T]) SetPointerClass(obj PropertyClass) error {
	if err := checkPointee(obj, p.PointerElemType()); err != nil {
		return err
	}
	if obj == nil {
		p.state = nil

		return nil
	}
	p.state = &sharedState{obj: obj}

	return nil
}

// PointerElemType implements ClassPointer.
func (p *WeakPtr[T]) PointerElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (p *WeakPtr[T]) propertyTypeName() (string, error) {
	elemName, err := typeNameForType(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("class WeakPointer<%s>", elemName), nil
}
