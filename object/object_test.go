package object_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlake/oprop/bitbuf"
	"github.com/mirrorlake/oprop/hashutil"
	"github.com/mirrorlake/oprop/object"
)

type Core struct {
	ID uint32 `oprop:"m_id" flags:"TRANSMIT"`
}

func (*Core) ObjectName() string { return "class Core" }

type Unit struct {
	Core
	Name   string `oprop:"m_name" flags:"TRANSMIT"`
	Secret int32  `oprop:"m_secret" flags:"PERSIST"`
	loaded bool
}

func (*Unit) ObjectName() string { return "class Unit" }

func (u *Unit) OnPostLoad() { u.loaded = true }

type Elite struct {
	Unit
	Rank uint8 `oprop:"m_rank" flags:"TRANSMIT"`
}

func (*Elite) ObjectName() string { return "class Elite" }

func TestListFor(t *testing.T) {
	list, err := object.ListFor(&Unit{})
	require.NoError(t, err)

	assert.Equal(t, "class Unit", list.Name())
	assert.Equal(t, hashutil.StringID("class Unit"), list.Hash())
	assert.Equal(t, 2, list.NumProperties())
	assert.True(t, list.HasBase())

	require.NotNil(t, list.BaseList())
	assert.Equal(t, "class Core", list.BaseList().Name())

	assert.Equal(t, "m_name", list.PropertyAt(0).Name())
	assert.Equal(t, "m_secret", list.PropertyAt(1).Name())

	// Lists are cached per type.
	again := object.MustList(&Unit{})
	assert.Same(t, list, again)
}

func TestPropertyHash(t *testing.T) {
	list := object.MustList(&Unit{})

	name, err := list.Property("m_name")
	require.NoError(t, err)
	assert.Equal(t, hashutil.DJB2("m_name")+hashutil.StringID("std::string"), name.Hash())
	assert.Equal(t, "std::string", name.Info().Name())

	id, err := object.MustList(&Core{}).Property("m_id")
	require.NoError(t, err)
	assert.Equal(t, hashutil.DJB2("m_id")+hashutil.StringID("unsigned int"), id.Hash())

	_, err = list.Property("m_bogus")
	assert.True(t, errors.Is(err, object.ErrUnknownProperty))
}

func TestPropertyAccess(t *testing.T) {
	list := object.MustList(&Unit{})
	prop, err := list.Property("m_name")
	require.NoError(t, err)

	unit := &Unit{Name: "scout"}

	value, ok := prop.Get(unit)
	require.True(t, ok)
	assert.Equal(t, "scout", value)

	require.NoError(t, prop.Set(unit, "ranger"))
	assert.Equal(t, "ranger", unit.Name)

	// Assigning a mismatched value fails without touching the object.
	err = prop.Set(unit, 42)
	assert.True(t, errors.Is(err, object.ErrValueMismatch))
	assert.Equal(t, "ranger", unit.Name)
}

func TestPropertyAccessFailsClosed(t *testing.T) {
	prop, err := object.MustList(&Unit{}).Property("m_name")
	require.NoError(t, err)

	// Resolving a token against a foreign class never touches memory.
	_, ok := prop.Field(&Core{})
	assert.False(t, ok)

	_, ok = prop.Get(&Core{})
	assert.False(t, ok)

	assert.True(t, errors.Is(prop.Set(&Core{}, "x"), object.ErrValueMismatch))
}

func TestBaseChain(t *testing.T) {
	elite := &Elite{}
	elite.ID = 7
	elite.Name = "vanguard"

	base, ok := object.Base(elite)
	require.True(t, ok)
	assert.Equal(t, "class Unit", base.ObjectName())

	core, ok := object.BaseAs[Core](elite)
	require.True(t, ok)
	assert.Equal(t, uint32(7), core.ID)

	unit, ok := object.BaseAs[Unit](elite)
	require.True(t, ok)
	assert.Equal(t, "vanguard", unit.Name)

	_, ok = object.BaseAs[Elite](&Unit{})
	assert.False(t, ok)

	assert.True(t, object.DerivesFrom(elite, object.MustList(&Core{}).Type()))
	assert.False(t, object.DerivesFrom(&Core{}, object.MustList(&Unit{}).Type()))
}

type badClass struct {
	Ch chan int `oprop:"m_channel"`
}

func (*badClass) ObjectName() string { return "class badClass" }

func TestUnsupportedField(t *testing.T) {
	_, err := object.ListFor(&badClass{})
	assert.True(t, errors.Is(err, object.ErrUnsupportedField))
}

type hiddenBase struct {
	V int32 `oprop:"m_v" flags:"TRANSMIT"`
}

func (*hiddenBase) ObjectName() string { return "class hiddenBase" }

type hiddenDerived struct {
	hiddenBase
}

func (*hiddenDerived) ObjectName() string { return "class hiddenDerived" }

func TestUnexportedBaseRejected(t *testing.T) {
	_, err := object.ListFor(&hiddenDerived{})
	assert.True(t, errors.Is(err, object.ErrUnsupportedField))
}

func TestParsePropertyFlags(t *testing.T) {
	flags, err := object.ParsePropertyFlags("TRANSMIT|SAVE")
	require.NoError(t, err)
	assert.Equal(t, object.FlagTransmit|object.FlagSave, flags)
	assert.Equal(t, "SAVE|TRANSMIT", flags.String())

	empty, err := object.ParsePropertyFlags("")
	require.NoError(t, err)
	assert.Equal(t, object.PropertyFlags(0), empty)

	_, err = object.ParsePropertyFlags("TRANSMIT|NOPE")
	assert.True(t, errors.Is(err, object.ErrUnknownFlag))
}

type element uint32

const (
	elementFire  element = 1 << 0
	elementIce   element = 1 << 1
	elementStorm element = 1 << 2
)

func (element) EnumName() string { return "Element" }

func (element) Variants() []object.Variant {
	return []object.Variant{
		{Name: "Fire", Value: uint32(elementFire)},
		{Name: "Ice", Value: uint32(elementIce)},
		{Name: "Storm", Value: uint32(elementStorm)},
	}
}

func (e element) EnumValue() uint32 { return uint32(e) }

func (e *element) SetEnumValue(v uint32) { *e = element(v) }

func TestEnum(t *testing.T) {
	e := elementIce

	name, ok := object.VariantName(&e)
	require.True(t, ok)
	assert.Equal(t, "Ice", name)

	require.NoError(t, object.SetVariantByName(&e, "Storm"))
	assert.Equal(t, elementStorm, e)

	err := object.SetVariantByName(&e, "Myth")
	assert.True(t, errors.Is(err, object.ErrInvalidEnumVariant))
	assert.Equal(t, elementStorm, e)

	require.NoError(t, object.SetVariantValue(&e, uint32(elementFire), false))
	assert.Equal(t, elementFire, e)

	// An undeclared value rejects the update and leaves the enum untouched.
	err = object.SetVariantValue(&e, 999, false)
	assert.True(t, errors.Is(err, object.ErrInvalidEnumVariant))
	assert.Equal(t, elementFire, e)
}

func TestBitFlagEnum(t *testing.T) {
	e := elementFire | elementStorm
	assert.Equal(t, "Fire | Storm", object.JoinBits(&e))

	var parsed element
	require.NoError(t, object.ParseBits(&parsed, "Fire | Storm"))
	assert.Equal(t, e, parsed)

	require.NoError(t, object.ParseBits(&parsed, ""))
	assert.Equal(t, element(0), parsed)

	// An unknown token rejects the whole update.
	parsed = elementIce
	err := object.ParseBits(&parsed, "Fire | Myth")
	assert.True(t, errors.Is(err, object.ErrInvalidEnumVariant))
	assert.Equal(t, elementIce, parsed)

	require.NoError(t, object.SetVariantValue(&parsed, uint32(elementFire|elementIce), true))
	assert.Equal(t, elementFire|elementIce, parsed)

	err = object.SetVariantValue(&parsed, uint32(elementFire)|1<<3, true)
	assert.True(t, errors.Is(err, object.ErrInvalidEnumVariant))
	assert.Equal(t, elementFire|elementIce, parsed)
}

func TestVector(t *testing.T) {
	v := object.NewVector(1, 2, 3)
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, 2, v.At(1))

	v.Push(4)
	assert.Equal(t, []int{1, 2, 3, 4}, v.Values())

	*v.Mut(0) = 7
	assert.Equal(t, 7, v.At(0))

	item, ok := v.Pop()
	require.True(t, ok)
	assert.Equal(t, 4, item)
	assert.Equal(t, []int{7, 2, 3}, v.Values())

	v.Reserve(8)
	assert.Equal(t, 3, v.Len())

	var c object.Container = v
	c.ContainerResize(2)
	assert.Equal(t, 2, c.ContainerLen())

	c.ContainerAt(0).SetInt(9)
	assert.Equal(t, 9, v.At(0))
}

func TestVectorIter(t *testing.T) {
	v := object.NewVector("a", "b")

	it := v.Iter()
	for round := 0; round < 2; round++ {
		var seen []string
		for {
			item, ok := it.Next()
			if !ok {
				break
			}
			seen = append(seen, item)
		}
		assert.Equal(t, []string{"a", "b"}, seen)

		it.Restart()
	}

	empty := object.NewVector[int]()
	_, ok := empty.Pop()
	assert.False(t, ok)
	_, ok = empty.Iter().Next()
	assert.False(t, ok)
}

func TestPtr(t *testing.T) {
	p, err := object.NewPtr[Unit](&Elite{})
	require.NoError(t, err)
	assert.False(t, p.IsNull())

	unit, ok := p.Get()
	require.True(t, ok)
	assert.Equal(t, "class Unit", unit.ObjectName())

	// The pointee must derive from the declared class.
	_, err = object.NewPtr[Unit](&Core{})
	assert.True(t, errors.Is(err, object.ErrClassMismatch))

	require.NoError(t, p.SetPointerClass(nil))
	assert.True(t, p.IsNull())
}

func TestSharedPtr(t *testing.T) {
	p, err := object.NewSharedPtr[Unit](&Unit{Name: "scout"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.StrongCount())

	clone := p.Clone()
	assert.Equal(t, int32(2), p.StrongCount())

	weak := p.Downgrade()
	assert.False(t, weak.IsExpired())

	locked, ok := weak.Lock()
	require.True(t, ok)
	assert.Equal(t, int32(3), p.StrongCount())
	locked.Release()

	clone.Release()
	assert.Equal(t, int32(1), p.StrongCount())

	p.Release()
	assert.True(t, weak.IsExpired())

	_, ok = weak.Lock()
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	registry := object.NewRegistry()
	require.NoError(t, registry.Register(&Unit{}))
	registry.MustRegister(&Core{})

	assert.True(t, errors.Is(registry.Register(&Unit{}), object.ErrAlreadyRegistered))

	list, err := registry.LookupName("class Unit")
	require.NoError(t, err)
	assert.Equal(t, "class Unit", list.Name())

	_, err = registry.Lookup(42)
	assert.True(t, errors.Is(err, object.ErrUnknownType))
}

func TestTypeTag(t *testing.T) {
	registry := object.NewRegistry()
	registry.MustRegister(&Unit{})
	unitList := object.MustList(&Unit{})

	w := bitbuf.NewWriter()
	registry.WriteTag(w, unitList)
	registry.WriteTag(w, nil)
	registry.WriteTag(w, unitList)
	w.WriteUint32(12345)

	r := bitbuf.NewReader(w.Bytes())

	list, err := registry.ReadTag(r)
	require.NoError(t, err)
	assert.Same(t, unitList, list)

	// The zero hash denotes the absence of an object.
	list, err = registry.ReadTag(r)
	require.NoError(t, err)
	assert.Nil(t, list)

	require.NoError(t, registry.ValidateTag(r, unitList))

	err = registry.ValidateTag(r, unitList)
	assert.True(t, errors.Is(err, object.ErrTypeMismatch))

	_, err = registry.ReadTag(bitbuf.NewReader([]byte{0x39, 0x30, 0, 0}))
	assert.True(t, errors.Is(err, object.ErrUnknownType))
}

func TestRawWideString(t *testing.T) {
	w := object.NewRawWideString("héllo")
	assert.Equal(t, "héllo", w.String())

	raw := object.RawString([]byte{0xFF, 0x00, 'a'})
	assert.Len(t, []byte(raw), 3)
}
