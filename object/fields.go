package object

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnsupportedField gets returned when a class declares a property whose
// Go type cannot be reflected into the data model.
var ErrUnsupportedField = errors.New("unsupported field type")

var (
	// listCacheMutex secures the listCache against concurrent writes.
	listCacheMutex sync.RWMutex
	// listCache holds the built PropertyLists per class struct type.
	listCache = make(map[reflect.Type]*PropertyList)
)

// ListFor returns the PropertyList of obj's class, building and caching it
// on first use. The whole class is validated eagerly: a class with any
// malformed property never yields a list.
func ListFor(obj PropertyClass) (*PropertyList, error) {
	t, ok := structType(obj)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedField, "%T is not a pointer to struct", obj)
	}

	return listForType(t)
}

// MustList is like ListFor but panics on malformed classes. It is
// intended for registration at package init time.
func MustList(obj PropertyClass) *PropertyList {
	list, err := ListFor(obj)
	if err != nil {
		panic(err)
	}

	return list
}

func listForType(t reflect.Type) (*PropertyList, error) {
	listCacheMutex.RLock()
	cached, exists := listCache[t]
	listCacheMutex.RUnlock()
	if exists {
		return cached, nil
	}

	listCacheMutex.Lock()
	defer listCacheMutex.Unlock()

	return buildLocked(t)
}

// buildLocked constructs the PropertyList for a class struct type. The
// caller must hold the write lock; base classes are built recursively.
func buildLocked(t reflect.Type) (*PropertyList, error) {
	if cached, exists := listCache[t]; exists {
		return cached, nil
	}

	name, err := typeNameForType(t)
	if err != nil {
		return nil, err
	}

	list := &PropertyList{rtype: t}
	list.info = classInfo(NewValueInfo(name, t), list)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			if i != 0 || field.Type.Kind() != reflect.Struct {
				return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: embedded base must be the first field", name, field.Name)
			}
			if !implementsPropertyClass(field.Type) {
				return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: embedded base is not a property class", name, field.Name)
			}
			if field.PkgPath != "" {
				return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: embedded base must be exported", name, field.Name)
			}

			baseList, err := buildLocked(field.Type)
			if err != nil {
				return nil, err
			}
			base := newProperty(baseList.Name(), FlagHasBaseclass, baseList.info, i, true)
			list.base = &base

			continue
		}

		propName, ok := field.Tag.Lookup("oprop")
		if !ok || propName == "-" {
			continue
		}
		if field.PkgPath != "" {
			return nil, errors.Wrapf(ErrUnsupportedField, "%s.%s: tagged field must be exported", name, field.Name)
		}

		flags, err := ParsePropertyFlags(field.Tag.Get("flags"))
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", name, field.Name)
		}

		info, err := infoForType(field.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", name, field.Name)
		}

		list.properties = append(list.properties, newProperty(propName, flags, info, i, false))
	}

	listCache[t] = list

	return list, nil
}

// infoForType resolves the TypeInfo of a property's storage type. Nested
// classes yield class infos with their own PropertyList; everything else
// becomes a leaf.
func infoForType(t reflect.Type) (*TypeInfo, error) {
	if t.Kind() == reflect.Struct && implementsPropertyClass(t) {
		nested, err := buildLocked(t)
		if err != nil {
			return nil, err
		}

		return nested.info, nil
	}

	name, err := typeNameForType(t)
	if err != nil {
		return nil, err
	}

	return LeafInfo(name, t), nil
}

// typeNamer is implemented by generic wrapper types that derive their
// reflected type name from their element type.
type typeNamer interface {
	propertyTypeName() (string, error)
}

func implementsPropertyClass(t reflect.Type) bool {
	_, ok := reflect.New(t).Interface().(PropertyClass)

	return ok
}

// typeNameForType derives the canonical reflected name of a Go type. The
// name feeds the identity hashes, so it must be stable across builds.
func typeNameForType(t reflect.Type) (string, error) {
	switch probe := reflect.New(t).Interface().(type) {
	case typeNamer:
		return probe.propertyTypeName()
	case PropertyClass:
		if t.Kind() == reflect.Struct {
			return probe.ObjectName(), nil
		}
	case Enum:
		return "enum " + probe.EnumName(), nil
	}

	switch t {
	case rawStringType:
		return "std::string", nil
	case rawWideStringType:
		return "std::wstring", nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return "bool", nil
	case reflect.Int8:
		return "char", nil
	case reflect.Uint8:
		return "unsigned char", nil
	case reflect.Int16:
		return "short", nil
	case reflect.Uint16:
		return "unsigned short", nil
	case reflect.Int32, reflect.Int:
		return "int", nil
	case reflect.Uint32, reflect.Uint:
		return "unsigned int", nil
	case reflect.Int64:
		return "__int64", nil
	case reflect.Uint64:
		return "unsigned __int64", nil
	case reflect.Float32:
		return "float", nil
	case reflect.Float64:
		return "double", nil
	case reflect.String:
		return "std::string", nil
	case reflect.Slice:
		elemName, err := typeNameForType(t.Elem())
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("class std::vector<%s>", elemName), nil
	}

	return "", errors.Wrapf(ErrUnsupportedField, "cannot reflect %s", t)
}
