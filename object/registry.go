package object

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mirrorlake/oprop/bitbuf"
	"github.com/mirrorlake/oprop/hashutil"
)

var (
	// ErrUnknownType gets returned when a wire tag names a class that was
	// never registered.
	ErrUnknownType = errors.New("unknown type")
	// ErrTypeMismatch gets returned when an in-place tag validation reads
	// a different class identity than the receiving object's.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrAlreadyRegistered gets returned when registering a class whose
	// identity hash is already taken.
	ErrAlreadyRegistered = errors.New("type already registered")
)

// TypeTag encodes and decodes the wire-level identity written before an
// object's fields. The zero hash means "no object".
type TypeTag interface {
	// WriteTag writes the identity of the given class, or the null tag
	// when list is nil.
	WriteTag(w *bitbuf.Writer, list *PropertyList)
	// ReadTag reads an identity and resolves it to a class. A null tag
	// yields (nil, nil).
	ReadTag(r *bitbuf.Reader) (*PropertyList, error)
	// ValidateTag reads an identity and requires it to match the given
	// class.
	ValidateTag(r *bitbuf.Reader, list *PropertyList) error
}

// Registry maps wire type identities to constructible classes. Entries are
// expected to be inserted once at startup; lookups from concurrent
// deserialization passes are guarded by a read-write mutex.
//
// Registry implements TypeTag using plain u32 identity hashes.
type Registry struct {
	mutex sync.RWMutex
	lists map[uint32]*PropertyList
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		lists: make(map[uint32]*PropertyList),
	}
}

// Register inserts obj's class keyed by its identity hash. The class is
// reflected and validated eagerly.
func (r *Registry) Register(obj PropertyClass) error {
	list, err := ListFor(obj)
	if err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, exists := r.lists[list.Hash()]; exists {
		return errors.Wrapf(ErrAlreadyRegistered, "%s collides with %s", list.Name(), existing.Name())
	}
	r.lists[list.Hash()] = list

	return nil
}

// MustRegister is like Register but panics on failure. Registering a
// malformed class is a programming error.
func (r *Registry) MustRegister(obj PropertyClass) {
	if err := r.Register(obj); err != nil {
		panic(err)
	}
}

// Lookup resolves an identity hash to its registered class.
func (r *Registry) Lookup(hash uint32) (*PropertyList, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	list, exists := r.lists[hash]
	if !exists {
		return nil, errors.Wrapf(ErrUnknownType, "hash %d", hash)
	}

	return list, nil
}

// LookupName resolves a canonical class name to its registered class.
func (r *Registry) LookupName(name string) (*PropertyList, error) {
	list, err := r.Lookup(hashutil.StringID(name))
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownType, "name %q", name)
	}

	return list, nil
}

// WriteTag implements TypeTag.
func (r *Registry) WriteTag(w *bitbuf.Writer, list *PropertyList) {
	if list == nil {
		w.WriteUint32(0)

		return
	}

	w.WriteUint32(list.Hash())
}

// ReadTag implements TypeTag.
func (r *Registry) ReadTag(reader *bitbuf.Reader) (*PropertyList, error) {
	hash, err := reader.ReadUint32()
	if err != nil {
		return nil, err
	}
	if hash == 0 {
		return nil, nil
	}

	return r.Lookup(hash)
}

// ValidateTag implements TypeTag.
func (r *Registry) ValidateTag(reader *bitbuf.Reader, list *PropertyList) error {
	hash, err := reader.ReadUint32()
	if err != nil {
		return err
	}
	if hash != list.Hash() {
		return errors.Wrapf(ErrTypeMismatch, "read hash %d, expected %d (%s)", hash, list.Hash(), list.Name())
	}

	return nil
}
