package serde

import (
	"bytes"
	"encoding/binary"
	"io"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/mirrorlake/oprop/bitbuf"
	"github.com/mirrorlake/oprop/object"
)

// Deserializer decodes ObjectProperty values from their binary
// representation.
//
// A Deserializer is exclusively owned by one deserialization pass and must
// not be shared between goroutines. It borrows the loaded bytes without
// copying; callers must keep the memory (and any scratch buffer used for
// decompression) alive and unmodified for the lifetime of the pass.
type Deserializer struct {
	reader *bitbuf.Reader
	config Config
	tag    object.TypeTag

	budget int
}

// NewDeserializer creates a deserializer for the given Config and type
// tag. Data must be loaded before deserializing.
func NewDeserializer(config Config, tag object.TypeTag) *Deserializer {
	return &Deserializer{
		reader: bitbuf.NewReader(nil),
		config: config,
		tag:    tag,
		budget: int(config.RecursionLimit),
	}
}

// Reader provides access to the underlying bit reader.
func (d *Deserializer) Reader() *bitbuf.Reader {
	return d.reader
}

// Load prepares the deserializer for the given payload, undoing the
// envelope Serializer.Finish produced for the same Config: stateful flags
// are read back and a compression envelope is decompressed into scratch.
func (d *Deserializer) Load(data []byte, scratch *bytes.Buffer) error {
	if d.config.Flags.HasBits(StatefulFlags) && !d.config.Flags.HasBits(Compress) {
		if len(data) < 1 {
			return errors.WithStack(bitbuf.ErrPrematureEOF)
		}
		d.config.Flags = SerializerFlags(data[0]) & knownFlags
		data = data[1:]
	}

	if d.config.Flags.HasBits(Compress) {
		if len(data) < 1 {
			return errors.WithStack(bitbuf.ErrPrematureEOF)
		}
		marker := data[0]
		data = data[1:]

		// Payloads that happen to be smaller decompressed may skip the
		// zlib envelope despite the COMPRESS flag.
		if marker != 0 {
			decompressed, err := decompress(data, scratch)
			if err != nil {
				return err
			}
			data = decompressed
		}
	}

	d.reader = bitbuf.NewReader(data)

	return nil
}

// DecompressAndLoad prepares the deserializer for a payload produced by
// Serializer.Finish with the COMPRESS flag.
func (d *Deserializer) DecompressAndLoad(data []byte, scratch *bytes.Buffer) error {
	d.config.Flags |= Compress

	return d.Load(data, scratch)
}

// LoadCompressed prepares the deserializer for a payload produced by
// Serializer.FinishCompressed: the marker-less persistent storage
// envelope. Stateful flags travel inside the compressed stream and are
// read back out after decompression.
func (d *Deserializer) LoadCompressed(data []byte, scratch *bytes.Buffer) error {
	decompressed, err := decompress(data, scratch)
	if err != nil {
		return err
	}

	if d.config.Flags.HasBits(StatefulFlags) && !d.config.Flags.HasBits(Compress) {
		if len(decompressed) < 1 {
			return errors.WithStack(bitbuf.ErrPrematureEOF)
		}
		d.config.Flags = SerializerFlags(decompressed[0]) & knownFlags
		decompressed = decompressed[1:]
	}

	d.reader = bitbuf.NewReader(decompressed)

	return nil
}

// decompress expands a [decompressed size][zlib stream] envelope into
// scratch and returns a view of the decompressed bytes.
func decompress(data []byte, scratch *bytes.Buffer) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.WithStack(bitbuf.ErrPrematureEOF)
	}
	size := int(binary.LittleEndian.Uint32(data))

	zr, err := zlib.NewReader(bytes.NewReader(data[4:]))
	if err != nil {
		return nil, errors.Wrap(ErrDecompressionFailed, err.Error())
	}
	defer zr.Close()

	scratch.Reset()
	scratch.Grow(size)
	if _, err := io.Copy(scratch, zr); err != nil {
		return nil, errors.Wrap(ErrDecompressionFailed, err.Error())
	}

	if scratch.Len() != size {
		return nil, errors.Wrapf(ErrDecompressedSizeMismatch, "expected %d bytes, got %d", size, scratch.Len())
	}

	return scratch.Bytes(), nil
}

// withRecursionLimit employs the recursion budget when entering a nested
// class. The budget bounds concurrent call depth; it is restored on exit.
func (d *Deserializer) withRecursionLimit(f func() error) error {
	d.budget--
	if d.budget <= 0 {
		return errors.WithStack(ErrRecursionLimit)
	}
	defer func() { d.budget++ }()

	return f()
}

// Deserialize decodes an object from the loaded stream. Empty objects are
// treated as errors; use TryDeserialize when null payloads are expected.
func (d *Deserializer) Deserialize() (object.PropertyClass, error) {
	obj, err := d.TryDeserialize()
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.WithStack(ErrEmptyObject)
	}

	return obj, nil
}

// TryDeserialize decodes an object from the loaded stream, resolving its
// concrete type through the type tag. A null tag yields (nil, nil).
func (d *Deserializer) TryDeserialize() (object.PropertyClass, error) {
	var obj object.PropertyClass

	err := d.withRecursionLimit(func() error {
		list, err := d.tag.ReadTag(d.reader)
		if err != nil {
			return err
		}
		if list == nil {
			return nil
		}

		obj = list.MakeDefault()

		return d.deserializeInto(obj, list)
	})
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// DeserializeClass decodes an object from the loaded stream in-place. The
// wire tag must match obj's own class identity.
func (d *Deserializer) DeserializeClass(obj object.PropertyClass) error {
	list, err := object.ListFor(obj)
	if err != nil {
		return err
	}

	return d.withRecursionLimit(func() error {
		if err := d.tag.ValidateTag(d.reader, list); err != nil {
			return err
		}

		return d.deserializeInto(obj, list)
	})
}

// deserializeInto runs the hook-wrapped field walk for an object whose
// tag was already consumed. The caller holds the recursion guard.
func (d *Deserializer) deserializeInto(obj object.PropertyClass, list *object.PropertyList) error {
	if loader, ok := obj.(object.PreLoader); ok {
		loader.OnPreLoad()
	}

	if d.config.Shallow {
		if err := d.deserializeShallow(obj, list); err != nil {
			return err
		}
	} else {
		// The declared object size includes its own u32 prefix.
		rawSize, err := d.reader.ReadUint32()
		if err != nil {
			return err
		}
		if rawSize < 32 {
			return errors.Wrapf(ErrSizeMismatch, "declared object size %d is below the prefix width", rawSize)
		}
		objectSize := int(rawSize) - 32
		start := d.reader.Pos()

		leftover, err := d.deserializeDeep(obj, list, objectSize)
		if err != nil {
			return err
		}
		if leftover != 0 {
			return errors.Wrapf(ErrTrailingData, "%d undeclared bits remain", leftover)
		}
		if consumed := d.reader.Pos() - start; consumed != objectSize {
			return errors.Wrapf(ErrSizeMismatch, "declared %d bits, consumed %d", objectSize, consumed)
		}
	}

	if loader, ok := obj.(object.PostLoader); ok {
		loader.OnPostLoad()
	}

	return nil
}

func (d *Deserializer) maskMatches(flags object.PropertyFlags) bool {
	if !flags.HasBits(d.config.PropertyMask) || flags.HasBits(object.FlagDeprecated) {
		return false
	}
	if d.config.Flags.HasBits(ForbidDeltaEncode) && flags.HasBits(object.FlagDeltaEncode) {
		return false
	}

	return true
}

func (d *Deserializer) deserializeShallow(obj object.PropertyClass, list *object.PropertyList) error {
	// Base properties come first, without a dedicated header, as if they
	// were part of this object.
	if baseList := list.BaseList(); baseList != nil {
		baseVal, _ := list.BaseValue(obj)
		if err := d.deserializeShallow(baseVal.Addr().Interface().(object.PropertyClass), baseList); err != nil {
			return err
		}
	}

	for _, prop := range list.Properties() {
		if !d.maskMatches(prop.Flags()) {
			continue
		}

		field, _ := prop.Field(obj)
		if err := d.deserializeValue(field, prop.Flags()); err != nil {
			return errors.Wrapf(err, "property %q", prop.Name())
		}
	}

	return nil
}

// deserializeDeep consumes length/hash framed property records against a
// running bit budget and returns the unconsumed remainder.
func (d *Deserializer) deserializeDeep(obj object.PropertyClass, list *object.PropertyList, size int) (int, error) {
	if baseList := list.BaseList(); baseList != nil {
		baseVal, _ := list.BaseValue(obj)

		var err error
		size, err = d.deserializeDeep(baseVal.Addr().Interface().(object.PropertyClass), baseList, size)
		if err != nil {
			return 0, err
		}
	}

	for _, prop := range list.Properties() {
		// Padding bits up to the size prefix count towards the property's
		// declared length.
		propertyStart := d.reader.Pos()
		propertySize, err := d.reader.ReadUint32()
		if err != nil {
			return 0, err
		}

		propertyHash, err := d.reader.ReadUint32()
		if err != nil {
			return 0, err
		}
		if propertyHash != prop.Hash() {
			return 0, errors.Wrapf(ErrUnexpectedProperty, "read hash %d, expected %d (%q)", propertyHash, prop.Hash(), prop.Name())
		}

		field, _ := prop.Field(obj)
		if err := d.deserializeValue(field, prop.Flags()); err != nil {
			return 0, errors.Wrapf(err, "property %q", prop.Name())
		}

		if consumed := d.reader.Pos() - propertyStart; consumed != int(propertySize) {
			return 0, errors.Wrapf(ErrSizeMismatch, "property %q declared %d bits, consumed %d", prop.Name(), propertySize, consumed)
		}

		if size < int(propertySize) {
			return 0, errors.Wrapf(ErrBudgetUnderflow, "property %q exceeds the declared object size", prop.Name())
		}
		size -= int(propertySize)
	}

	return size, nil
}

func (d *Deserializer) readCompactLengthPrefix() (int, error) {
	large, err := d.reader.ReadBit()
	if err != nil {
		return 0, err
	}

	width := 7
	if large {
		width = 31
	}
	v, err := d.reader.ReadBits(width)

	return int(v), err
}

func (d *Deserializer) readStrLen() (int, error) {
	if d.config.Flags.HasBits(CompactLengthPrefixes) {
		return d.readCompactLengthPrefix()
	}
	v, err := d.reader.ReadUint16()

	return int(v), err
}

func (d *Deserializer) readSeqLen() (int, error) {
	if d.config.Flags.HasBits(CompactLengthPrefixes) {
		return d.readCompactLengthPrefix()
	}
	v, err := d.reader.ReadUint32()

	return int(v), err
}

// ReadBytes reads raw string bytes, including the length prefix. The
// returned slice aliases the loaded payload.
func (d *Deserializer) ReadBytes() ([]byte, error) {
	n, err := d.readStrLen()
	if err != nil {
		return nil, err
	}

	return d.reader.ReadBytes(n)
}

// ReadStr reads a string, including its length prefix, validating the
// bytes as UTF-8.
func (d *Deserializer) ReadStr() (string, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.WithStack(ErrInvalidUTF8)
	}

	return string(b), nil
}

// ReadWStr reads the raw data of a wide string, including its length
// prefix.
func (d *Deserializer) ReadWStr() ([]uint16, error) {
	n, err := d.readStrLen()
	if err != nil {
		return nil, err
	}

	buf, err := d.reader.ReadBytes(n * 2)
	if err != nil {
		return nil, err
	}

	data := make([]uint16, n)
	for i := range data {
		data[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}

	return data, nil
}

func (d *Deserializer) deserializeEnum(e object.Enum, flags object.PropertyFlags) error {
	if !d.config.Flags.HasBits(HumanReadableEnums) {
		v, err := d.reader.ReadUint32()
		if err != nil {
			return err
		}

		return object.SetVariantValue(e, v, flags.HasBits(object.FlagBits))
	}

	name, err := d.ReadStr()
	if err != nil {
		return err
	}
	if flags.HasBits(object.FlagBits) {
		return object.ParseBits(e, name)
	}

	if err := object.SetVariantByName(e, name); err != nil {
		// Unmapped values travel as decimal strings.
		raw, convErr := strconv.ParseUint(name, 10, 32)
		if convErr != nil {
			return err
		}
		e.SetEnumValue(uint32(raw))
	}

	return nil
}

// deserializeValue dispatches one property value by its runtime
// capabilities, mirroring the serializer's walk. field must be an
// addressable value obtained through a property access token.
func (d *Deserializer) deserializeValue(field reflect.Value, flags object.PropertyFlags) error {
	if field.Kind() == reflect.Struct {
		if obj, ok := field.Addr().Interface().(object.PropertyClass); ok {
			return d.DeserializeClass(obj)
		}
	}

	switch v := field.Addr().Interface().(type) {
	case object.ClassPointer:
		pointee, err := d.TryDeserialize()
		if err != nil {
			return err
		}

		return v.SetPointerClass(pointee)
	case object.Enum:
		return d.deserializeEnum(v, flags)
	case object.Container:
		n, err := d.readSeqLen()
		if err != nil {
			return err
		}
		v.ContainerResize(n)
		for i := 0; i < n; i++ {
			if err := d.deserializeValue(v.ContainerAt(i), flags); err != nil {
				return err
			}
		}

		return nil
	case *object.RawString:
		b, err := d.ReadBytes()
		if err != nil {
			return err
		}
		*v = object.RawString(append([]byte(nil), b...))

		return nil
	case *object.RawWideString:
		data, err := d.ReadWStr()
		if err != nil {
			return err
		}
		*v = object.RawWideString(data)

		return nil
	}

	switch field.Kind() {
	case reflect.Bool:
		v, err := d.reader.ReadBool()
		if err != nil {
			return err
		}
		field.SetBool(v)
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Int64:
		v, err := d.readInt(field.Kind())
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint, reflect.Uint64:
		v, err := d.readUint(field.Kind())
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Float32:
		v, err := d.reader.ReadFloat32()
		if err != nil {
			return err
		}
		field.SetFloat(float64(v))
	case reflect.Float64:
		v, err := d.reader.ReadFloat64()
		if err != nil {
			return err
		}
		field.SetFloat(v)
	case reflect.String:
		v, err := d.ReadStr()
		if err != nil {
			return err
		}
		field.SetString(v)
	case reflect.Slice:
		n, err := d.readSeqLen()
		if err != nil {
			return err
		}
		field.Set(reflect.MakeSlice(field.Type(), n, n))
		for i := 0; i < n; i++ {
			if err := d.deserializeValue(field.Index(i), flags); err != nil {
				return err
			}
		}
	default:
		return errors.Wrapf(object.ErrUnsupportedField, "cannot deserialize %s", field.Type())
	}

	return nil
}

func (d *Deserializer) readInt(kind reflect.Kind) (int64, error) {
	switch kind {
	case reflect.Int8:
		v, err := d.reader.ReadInt8()

		return int64(v), err
	case reflect.Int16:
		v, err := d.reader.ReadInt16()

		return int64(v), err
	case reflect.Int64:
		return d.reader.ReadInt64()
	default:
		v, err := d.reader.ReadInt32()

		return int64(v), err
	}
}

func (d *Deserializer) readUint(kind reflect.Kind) (uint64, error) {
	switch kind {
	case reflect.Uint8:
		v, err := d.reader.ReadUint8()

		return uint64(v), err
	case reflect.Uint16:
		v, err := d.reader.ReadUint16()

		return uint64(v), err
	case reflect.Uint64:
		return d.reader.ReadUint64()
	default:
		v, err := d.reader.ReadUint32()

		return uint64(v), err
	}
}
