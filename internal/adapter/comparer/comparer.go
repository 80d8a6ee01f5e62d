// Package comparer contains the default [domain.Comparer] implementation.
package comparer

import (
	"cmp"
	"fmt"
	"math/big"
	"time"

	"github.com/flatdb/flatdb/domain"
)

// Comparer implements domain.Comparer.
type Comparer struct{}

// NewComparer returns a new implementation of domain.Comparer.
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Comparable implements domain.Comparer. Only values of the same type group
// can be ordered: numbers with numbers, strings with strings, booleans with
// booleans and times with times. Everything else, including any cross-type
// pair, is not comparable, which makes ordering predicates deterministic.
func (c *Comparer) Comparable(a, b any) bool {
	if _, ok := c.asNumber(a); ok {
		_, ok = c.asNumber(b)
		return ok
	}
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	case time.Time:
		_, ok := b.(time.Time)
		return ok
	}
	return false
}

// Compare implements domain.Comparer. Numbers compare numerically, strings
// lexicographically by code point, times chronologically. Pairs that are not
// [Comparer.Comparable] yield an error.
func (c *Comparer) Compare(a any, b any) (int, error) {
	if an, ok := c.asNumber(a); ok {
		if bn, ok := c.asNumber(b); ok {
			return an.Cmp(bn), nil
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return cmp.Compare(as, bs), nil
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return compareBool(ab, bb), nil
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt), nil
		}
	}
	return 0, fmt.Errorf("cannot compare types %T and %T", a, b)
}

// Equal implements domain.Comparer. Equality is deep and structural over the
// document value space: nil, booleans, numbers, strings, times, sequences and
// mappings. Values of different type groups are never equal. Numbers of
// different concrete types (int vs float64) are equal when they represent the
// same quantity, so documents survive a serialization round trip.
func (c *Comparer) Equal(a, b any) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	if an, ok := c.asNumber(a); ok {
		bn, ok := c.asNumber(b)
		return ok && an.Cmp(bn) == 0, nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv, nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv, nil
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv), nil
	case []any:
		bv, ok := b.([]any)
		if !ok {
			return false, nil
		}
		return c.equalArrays(av, bv)
	case domain.Document:
		bv, ok := b.(domain.Document)
		if !ok {
			return false, nil
		}
		return c.equalDocs(av, bv)
	}
	return false, fmt.Errorf("cannot test equality of unexpected type %T", a)
}

func (c *Comparer) equalArrays(a, b []any) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := c.Equal(a[i], b[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func (c *Comparer) equalDocs(a, b domain.Document) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false, nil
		}
		eq, err := c.Equal(av, bv)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

// asNumber promotes any numeric type to a big.Float so int64 and float64 can
// be compared without precision loss.
func (c *Comparer) asNumber(v any) (*big.Float, bool) {
	r := big.NewFloat(0)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		r.SetFloat64(float64(n))
	case float64:
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
