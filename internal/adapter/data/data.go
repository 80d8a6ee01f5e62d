// Package data contains the default [domain.DocumentFactory], converting
// caller-provided maps and structs into documents.
package data

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"

	"github.com/flatdb/flatdb/domain"
)

// TagName is the struct tag read when converting structs to documents.
const TagName = "flatdb"

var timeTyp = goreflect.TypeOf(*new(time.Time))

// NewDocument converts a map or struct into a [domain.Document]. Nested maps,
// structs, slices and arrays are normalized recursively into the document
// value space. nil yields an empty document.
//
// For structs, unexported fields are ignored. A "flatdb" struct tag replaces
// the field name; ",omitempty" drops nil values and ",omitzero" drops
// uninitialized fields.
func NewDocument(in any) (domain.Document, error) {
	if in == nil {
		return domain.Document{}, nil
	}
	if doc, ok := in.(domain.Document); ok {
		return normalizeDoc(doc)
	}

	r := goreflect.ValueNoEscapeOf(in)
	k := r.Kind()
	for k == goreflect.Interface || k == reflect.Pointer {
		if r.IsNil() {
			return domain.Document{}, nil
		}
		r = r.Elem()
		k = r.Kind()
	}
	if k != goreflect.Struct && k != goreflect.Map {
		return nil, fmt.Errorf("expected map or struct, got %s", r.Type().String())
	}
	v, err := parseReflect(r)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(domain.Document)
	if !ok {
		return nil, fmt.Errorf("expected document, got %T", v)
	}
	return doc, nil
}

func normalizeDoc(doc domain.Document) (domain.Document, error) {
	res := make(domain.Document, len(doc))
	for k, v := range doc {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, err
		}
		res[k] = nv
	}
	return res, nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t, nil
	case domain.Document:
		return normalizeDoc(t)
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			ni, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			res[n] = ni
		}
		return res, nil
	}
	return parseReflect(goreflect.ValueNoEscapeOf(v))
}

func parseReflect(r goreflect.Value) (any, error) {
	for r.Kind() == reflect.Pointer || r.Kind() == goreflect.Interface {
		if r.IsNil() {
			return nil, nil
		}
		r = r.Elem()
	}
	switch r.Kind() {
	case goreflect.Invalid:
		return nil, nil
	case goreflect.Slice:
		if r.IsNil() {
			return nil, nil
		}
		fallthrough
	case goreflect.Array:
		return parseList(r)
	case goreflect.Struct:
		if r.Type() == timeTyp {
			return r.Interface(), nil
		}
		return parseStruct(r)
	case goreflect.Map:
		if r.IsNil() {
			return nil, nil
		}
		return parseMap(r)
	case goreflect.Bool, goreflect.String,
		goreflect.Int, goreflect.Int8, goreflect.Int16, goreflect.Int32, goreflect.Int64,
		goreflect.Uint, goreflect.Uint8, goreflect.Uint16, goreflect.Uint32, goreflect.Uint64,
		goreflect.Float32, goreflect.Float64:
		return r.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported value of kind %s", r.Kind().String())
	}
}

func parseStruct(r goreflect.Value) (domain.Document, error) {
	typ := r.Type()
	numField := r.NumField()

	res := make(domain.Document, numField)

	for n := 0; n < numField; n++ {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}
		name, value, keep, err := parseField(r.Field(n), field)
		if err != nil {
			return nil, err
		}
		if keep {
			res[name] = value
		}
	}
	return res, nil
}

func parseField(r goreflect.Value, typ goreflect.StructField) (string, any, bool, error) {
	name := typ.Name
	var tagSegments []string
	if tag, ok := typ.Tag.Lookup(TagName); ok {
		if tag == "-" {
			return "", nil, false, nil
		}
		tagSegments = strings.Split(tag, ",")
		if tagSegments[0] != "" {
			name = tagSegments[0]
		}
		tagSegments = tagSegments[1:]
	}
	if slices.Contains(tagSegments, "omitempty") && isNullable(typ.Type) && r.IsNil() {
		return "", nil, false, nil
	}
	if slices.Contains(tagSegments, "omitzero") && r.IsZero() {
		return "", nil, false, nil
	}

	value, err := parseReflect(r)
	if err != nil {
		return "", nil, false, err
	}
	return name, value, true, nil
}

func parseMap(r goreflect.Value) (domain.Document, error) {
	if r.Type().Key().Kind() != goreflect.String {
		return nil, fmt.Errorf("expected string map keys, got %s", r.Type().Key().String())
	}
	res := make(domain.Document, r.Len())
	for _, k := range r.MapKeys() {
		v, err := parseReflect(r.MapIndex(k))
		if err != nil {
			return nil, err
		}
		res[k.String()] = v
	}
	return res, nil
}

func parseList(r goreflect.Value) ([]any, error) {
	length := r.Len()
	res := make([]any, length)
	for i := 0; i < length; i++ {
		v, err := parseReflect(r.Index(i))
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

func isNullable(t goreflect.Type) bool {
	k := t.Kind()
	return k == reflect.Pointer ||
		k == reflect.Slice ||
		k == reflect.Map ||
		k == reflect.Interface
}
