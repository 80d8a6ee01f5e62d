// Package fieldpath contains the default [domain.FieldNavigator]
// implementation, resolving dot-notation paths inside nested documents.
package fieldpath

import (
	"strconv"
	"strings"

	"github.com/flatdb/flatdb/domain"
)

// FieldNavigator implements domain.FieldNavigator.
type FieldNavigator struct{}

// NewFieldNavigator returns a new implementation of domain.FieldNavigator.
func NewFieldNavigator() domain.FieldNavigator {
	return &FieldNavigator{}
}

// Resolve implements domain.FieldNavigator. Path segments descend into nested
// documents by key and into sequences by decimal index. A segment that cannot
// be followed makes the whole path absent.
func (f *FieldNavigator) Resolve(doc domain.Document, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		switch t := current.(type) {
		case domain.Document:
			v, ok := t[part]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			current = t[i]
		default:
			// primitives have no addressable interior
			return nil, false
		}
	}
	return current, true
}
