// Package stringify renders property class trees in a human-readable form
// for debugging and inspection tooling.
package stringify

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kr/text"

	"github.com/mirrorlake/oprop/object"
)

// IndentationSize is the number of spaces per nesting level.
const IndentationSize = 4

// Object renders obj's class name followed by its base chain and
// properties, one per line, nested structures indented.
func Object(obj object.PropertyClass) string {
	list, err := object.ListFor(obj)
	if err != nil {
		return fmt.Sprintf("<unreflected %T: %s>", obj, err)
	}

	return renderObject(obj, list)
}

func renderObject(obj object.PropertyClass, list *object.PropertyList) string {
	result := list.Name() + " {\n"

	if baseList := list.BaseList(); baseList != nil {
		baseVal, _ := list.BaseValue(obj)
		base := baseVal.Addr().Interface().(object.PropertyClass)
		result += indent("base: " + renderObject(base, baseList))
	}

	for _, prop := range list.Properties() {
		field, _ := prop.Field(obj)
		result += indent(prop.Name() + ": " + Value(field))
	}

	return result + "}"
}

func indent(line string) string {
	return text.Indent(line+"\n", strings.Repeat(" ", IndentationSize))
}

// Value renders one property value. Nested classes recurse into their own
// block; pointers render their pointee or "nullptr".
func Value(field reflect.Value) string {
	if field.Kind() == reflect.Struct && field.CanAddr() {
		if obj, ok := field.Addr().Interface().(object.PropertyClass); ok {
			return Object(obj)
		}
	}

	if field.CanAddr() {
		switch v := field.Addr().Interface().(type) {
		case object.ClassPointer:
			pointee, ok := v.PointerClass()
			if !ok {
				return "nullptr"
			}

			return Object(pointee)
		case object.Enum:
			return renderEnum(v)
		case object.Container:
			return renderSlice(v.ContainerLen(), v.ContainerAt)
		case *object.RawString:
			return strconv.Quote(v.String())
		case *object.RawWideString:
			return strconv.Quote(v.String())
		}
	}

	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint, reflect.Uint64:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(field.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(field.Float(), 'g', -1, 64)
	case reflect.String:
		return strconv.Quote(field.String())
	case reflect.Slice:
		return renderSlice(field.Len(), field.Index)
	default:
		return fmt.Sprintf("<%s>", field.Type())
	}
}

func renderEnum(e object.Enum) string {
	if name, ok := object.VariantName(e); ok {
		return name
	}
	if joined := object.JoinBits(e); joined != "" {
		return joined
	}

	return strconv.FormatUint(uint64(e.EnumValue()), 10)
}

func renderSlice(n int, at func(int) reflect.Value) string {
	if n == 0 {
		return "[]"
	}

	parts := make([]string, n)
	multiline := false
	for i := 0; i < n; i++ {
		parts[i] = Value(at(i))
		multiline = multiline || strings.Contains(parts[i], "\n")
	}

	if !multiline {
		return "[" + strings.Join(parts, ", ") + "]"
	}

	result := "[\n"
	for _, part := range parts {
		result += indent(part + ",")
	}

	return result + "]"
}
