package serde

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/mirrorlake/oprop/bitbuf"
	"github.com/mirrorlake/oprop/object"
)

// Serializer encodes ObjectProperty values into their binary
// representation.
//
// A Serializer is exclusively owned by one serialization pass and must not
// be shared between goroutines. Serialization is infallible by design;
// malformed classes and misconfiguration are caller contract violations
// and panic instead of producing error values.
type Serializer struct {
	writer *bitbuf.Writer
	config Config
	tag    object.TypeTag
}

// NewSerializer creates a serializer for the given Config and type tag.
func NewSerializer(config Config, tag object.TypeTag) *Serializer {
	s := &Serializer{
		writer: bitbuf.NewWriter(),
		config: config,
		tag:    tag,
	}

	// When the payload will not be compressed, stateful flags can go
	// straight into the output buffer.
	if config.Flags.HasBits(StatefulFlags) && !config.Flags.HasBits(Compress) {
		s.writer.WriteUint8(uint8(config.Flags))
	}

	return s
}

// Writer provides access to the underlying bit writer.
func (s *Serializer) Writer() *bitbuf.Writer {
	return s.writer
}

// Serialize encodes obj to the stream.
//
// This is the entrypoint to serialization and always succeeds.
func (s *Serializer) Serialize(obj object.PropertyClass) {
	s.TrySerialize(obj)
}

// TrySerialize encodes obj to the stream, or a null tag when obj is nil.
func (s *Serializer) TrySerialize(obj object.PropertyClass) {
	if obj == nil {
		s.tag.WriteTag(s.writer, nil)

		return
	}

	s.serializeObject(obj, object.MustList(obj))
}

// Finish ends the pass and returns the accumulated payload, applying the
// compression envelope when the COMPRESS flag is set.
func (s *Serializer) Finish() ([]byte, error) {
	state := s.writer.Bytes()
	if !s.config.Flags.HasBits(Compress) {
		return state, nil
	}

	var out bytes.Buffer
	out.WriteByte(1)
	if err := compressInto(&out, state); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// FinishCompressed ends the pass and returns the payload in the
// marker-less persistent storage envelope.
//
// Do not combine this with the COMPRESS flag.
func (s *Serializer) FinishCompressed() ([]byte, error) {
	var out bytes.Buffer
	if err := compressInto(&out, s.writer.Bytes()); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// compressInto appends the decompressed size and the zlib stream of state
// to out.
func compressInto(out *bytes.Buffer, state []byte) error {
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(state)))
	out.Write(size[:])

	zw := zlib.NewWriter(out)
	if _, err := zw.Write(state); err != nil {
		return errors.Wrap(err, "compressing payload")
	}

	return errors.Wrap(zw.Close(), "compressing payload")
}

func (s *Serializer) serializeObject(obj object.PropertyClass, list *object.PropertyList) {
	s.tag.WriteTag(s.writer, list)

	if saver, ok := obj.(object.PreSaver); ok {
		saver.OnPreSave()
	}

	if s.config.Shallow {
		s.serializeShallow(obj, list)
	} else {
		prefix := s.writer.ReserveLengthPrefix()
		s.serializeDeep(obj, list)
		s.writer.WriteLengthPrefix(prefix)
	}

	if saver, ok := obj.(object.PostSaver); ok {
		saver.OnPostSave()
	}
}

// maskMatches decides whether a property participates in the masked
// shallow walk.
func (s *Serializer) maskMatches(flags object.PropertyFlags) bool {
	if !flags.HasBits(s.config.PropertyMask) || flags.HasBits(object.FlagDeprecated) {
		return false
	}
	if s.config.Flags.HasBits(ForbidDeltaEncode) && flags.HasBits(object.FlagDeltaEncode) {
		return false
	}

	return true
}

func (s *Serializer) serializeShallow(obj object.PropertyClass, list *object.PropertyList) {
	// Base properties are written first, without a dedicated header, as if
	// they were part of this object.
	if baseList := list.BaseList(); baseList != nil {
		baseVal, _ := list.BaseValue(obj)
		s.serializeShallow(baseVal.Addr().Interface().(object.PropertyClass), baseList)
	}

	for _, prop := range list.Properties() {
		if !s.maskMatches(prop.Flags()) {
			continue
		}

		field, _ := prop.Field(obj)
		s.serializeValue(field, prop.Flags())
	}
}

func (s *Serializer) serializeDeep(obj object.PropertyClass, list *object.PropertyList) {
	if baseList := list.BaseList(); baseList != nil {
		baseVal, _ := list.BaseValue(obj)
		s.serializeDeep(baseVal.Addr().Interface().(object.PropertyClass), baseList)
	}

	for _, prop := range list.Properties() {
		prefix := s.writer.ReserveLengthPrefix()
		s.writer.WriteUint32(prop.Hash())

		field, _ := prop.Field(obj)
		s.serializeValue(field, prop.Flags())

		s.writer.WriteLengthPrefix(prefix)
	}
}

func (s *Serializer) writeCompactLengthPrefix(n int) {
	if n <= 127 {
		s.writer.WriteBit(false)
		s.writer.WriteBits(uint64(n), 7)
	} else {
		s.writer.WriteBit(true)
		s.writer.WriteBits(uint64(n), 31)
	}
}

func (s *Serializer) writeStrLen(n int) {
	if s.config.Flags.HasBits(CompactLengthPrefixes) {
		s.writeCompactLengthPrefix(n)
	} else {
		s.writer.WriteUint16(uint16(n))
	}
}

func (s *Serializer) writeSeqLen(n int) {
	if s.config.Flags.HasBits(CompactLengthPrefixes) {
		s.writeCompactLengthPrefix(n)
	} else {
		s.writer.WriteUint32(uint32(n))
	}
}

// WriteStr writes the raw data of a string, including its length prefix.
func (s *Serializer) WriteStr(data []byte) {
	s.writeStrLen(len(data))
	s.writer.WriteBytes(data)
}

// WriteWStr writes the raw data of a wide string, including its length
// prefix.
func (s *Serializer) WriteWStr(data []uint16) {
	s.writeStrLen(len(data))
	for _, c := range data {
		s.writer.WriteUint16(c)
	}
}

func (s *Serializer) serializeEnum(e object.Enum, flags object.PropertyFlags) {
	if !s.config.Flags.HasBits(HumanReadableEnums) {
		s.writer.WriteUint32(e.EnumValue())

		return
	}

	if flags.HasBits(object.FlagBits) {
		// JoinBits cannot represent undeclared bits; dropping them silently
		// would break the round trip.
		if err := object.ValidateVariantValue(e, e.EnumValue(), true); err != nil {
			panic(err)
		}
		s.WriteStr([]byte(object.JoinBits(e)))

		return
	}

	name, ok := object.VariantName(e)
	if !ok {
		// Unmapped values survive the human-readable form as decimals.
		name = strconv.FormatUint(uint64(e.EnumValue()), 10)
	}
	s.WriteStr([]byte(name))
}

// serializeValue dispatches one property value by its runtime
// capabilities, falling back to the primitive kinds. field must be an
// addressable value obtained through a property access token.
func (s *Serializer) serializeValue(field reflect.Value, flags object.PropertyFlags) {
	if field.Kind() == reflect.Struct {
		if obj, ok := field.Addr().Interface().(object.PropertyClass); ok {
			s.serializeObject(obj, object.MustList(obj))

			return
		}
	}

	switch v := field.Addr().Interface().(type) {
	case object.ClassPointer:
		pointee, _ := v.PointerClass()
		s.TrySerialize(pointee)

		return
	case object.Enum:
		s.serializeEnum(v, flags)

		return
	case object.Container:
		s.writeSeqLen(v.ContainerLen())
		for i := 0; i < v.ContainerLen(); i++ {
			s.serializeValue(v.ContainerAt(i), flags)
		}

		return
	case *object.RawString:
		s.WriteStr([]byte(*v))

		return
	case *object.RawWideString:
		s.WriteWStr([]uint16(*v))

		return
	}

	switch field.Kind() {
	case reflect.Bool:
		s.writer.WriteBool(field.Bool())
	case reflect.Int8:
		s.writer.WriteInt8(int8(field.Int()))
	case reflect.Int16:
		s.writer.WriteInt16(int16(field.Int()))
	case reflect.Int32, reflect.Int:
		s.writer.WriteInt32(int32(field.Int()))
	case reflect.Int64:
		s.writer.WriteInt64(field.Int())
	case reflect.Uint8:
		s.writer.WriteUint8(uint8(field.Uint()))
	case reflect.Uint16:
		s.writer.WriteUint16(uint16(field.Uint()))
	case reflect.Uint32, reflect.Uint:
		s.writer.WriteUint32(uint32(field.Uint()))
	case reflect.Uint64:
		s.writer.WriteUint64(field.Uint())
	case reflect.Float32:
		s.writer.WriteFloat32(float32(field.Float()))
	case reflect.Float64:
		s.writer.WriteFloat64(field.Float())
	case reflect.String:
		s.WriteStr([]byte(field.String()))
	case reflect.Slice:
		s.writeSeqLen(field.Len())
		for i := 0; i < field.Len(); i++ {
			s.serializeValue(field.Index(i), flags)
		}
	default:
		panic(errors.Wrapf(object.ErrUnsupportedField, "cannot serialize %s", field.Type()))
	}
}
