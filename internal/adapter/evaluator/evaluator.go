// Package evaluator contains the default [domain.Evaluator] implementation:
// the predicate engine applying one operator to one document field value.
package evaluator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flatdb/flatdb/domain"
	"github.com/flatdb/flatdb/internal/adapter/comparer"
)

type predicate func(value any, present bool, operand any) (bool, error)

// Evaluator implements domain.Evaluator. It is stateless; one instance can be
// shared by any number of matchers.
type Evaluator struct {
	comparer   domain.Comparer
	predicates map[string]predicate
}

// Options configures a new [Evaluator].
type Options struct {
	Comparer domain.Comparer
}

// Option configures evaluator behavior through the functional options
// pattern.
type Option func(*Options)

// WithComparer sets the comparer used for equality and ordering predicates.
func WithComparer(c domain.Comparer) Option {
	return func(o *Options) { o.Comparer = c }
}

// NewEvaluator returns a new implementation of domain.Evaluator.
func NewEvaluator(options ...Option) domain.Evaluator {
	opts := Options{Comparer: comparer.NewComparer()}
	for _, option := range options {
		option(&opts)
	}

	e := &Evaluator{comparer: opts.Comparer}
	e.predicates = map[string]predicate{
		"$eq":         e.eq,
		"$ne":         e.ne,
		"$gt":         e.ordering(func(c int) bool { return c > 0 }),
		"$gte":        e.ordering(func(c int) bool { return c >= 0 }),
		"$lt":         e.ordering(func(c int) bool { return c < 0 }),
		"$lte":        e.ordering(func(c int) bool { return c <= 0 }),
		"$in":         e.in,
		"$nin":        e.nin,
		"$exists":     e.exists,
		"$regex":      e.regex,
		"$contains":   e.contains,
		"$startsWith": e.startsWith,
		"$endsWith":   e.endsWith,
	}
	return e
}

// Evaluate implements domain.Evaluator. Operators that are not recognized
// evaluate to true, keeping documents visible to queries written against
// newer operator sets.
func (e *Evaluator) Evaluate(value any, present bool, op string, operand any) (bool, error) {
	fn, ok := e.predicates[op]
	if !ok {
		return true, nil
	}
	return fn(value, present, operand)
}

func (e *Evaluator) eq(value any, present bool, operand any) (bool, error) {
	// an absent field equals nothing, not even an explicit null
	if !present {
		return false, nil
	}
	eq, err := e.comparer.Equal(value, operand)
	if err != nil {
		return false, err
	}
	return eq, nil
}

func (e *Evaluator) ne(value any, present bool, operand any) (bool, error) {
	eq, err := e.eq(value, present, operand)
	return !eq, err
}

// ordering builds a relational predicate. Values of different type groups are
// never ordered, the predicate is false for them.
func (e *Evaluator) ordering(accept func(int) bool) predicate {
	return func(value any, present bool, operand any) (bool, error) {
		if !present || !e.comparer.Comparable(value, operand) {
			return false, nil
		}
		c, err := e.comparer.Compare(value, operand)
		if err != nil {
			return false, err
		}
		return accept(c), nil
	}
}

func (e *Evaluator) in(value any, _ bool, operand any) (bool, error) {
	arr, ok := operand.([]any)
	if !ok {
		return false, nil
	}
	for _, item := range arr {
		eq, err := e.comparer.Equal(value, item)
		if err != nil || eq {
			return eq, err
		}
	}
	return false, nil
}

func (e *Evaluator) nin(value any, present bool, operand any) (bool, error) {
	if _, ok := operand.([]any); !ok {
		return false, nil
	}
	found, err := e.in(value, present, operand)
	return !found, err
}

func (e *Evaluator) exists(_ any, present bool, operand any) (bool, error) {
	return isTruthy(operand) == present, nil
}

func (e *Evaluator) regex(value any, present bool, operand any) (bool, error) {
	if !present {
		return false, nil
	}
	rgx, ok := operand.(*regexp.Regexp)
	if !ok {
		expr, ok := operand.(string)
		if !ok {
			return false, fmt.Errorf("$regex operator called with non-pattern operand %T", operand)
		}
		var err error
		rgx, err = regexp.Compile(expr)
		if err != nil {
			return false, &domain.ErrPattern{Expr: expr, Err: err}
		}
	}
	str, ok := stringForm(value)
	if !ok {
		return false, nil
	}
	return rgx.MatchString(str), nil
}

func (e *Evaluator) contains(value any, _ bool, operand any) (bool, error) {
	switch t := value.(type) {
	case string:
		sub, ok := operand.(string)
		return ok && strings.Contains(t, sub), nil
	case []any:
		for _, item := range t {
			eq, err := e.comparer.Equal(item, operand)
			if err != nil || eq {
				return eq, err
			}
		}
		return false, nil
	}
	return false, nil
}

func (e *Evaluator) startsWith(value any, present bool, operand any) (bool, error) {
	return e.affix(value, present, operand, strings.HasPrefix)
}

func (e *Evaluator) endsWith(value any, present bool, operand any) (bool, error) {
	return e.affix(value, present, operand, strings.HasSuffix)
}

func (e *Evaluator) affix(value any, present bool, operand any, test func(string, string) bool) (bool, error) {
	if !present {
		return false, nil
	}
	affix, ok := operand.(string)
	if !ok {
		return false, nil
	}
	str, ok := stringForm(value)
	if !ok {
		return false, nil
	}
	return test(str, affix), nil
}

// stringForm returns the canonical string representation of a scalar value.
// Containers and nil have none.
func stringForm(value any) (string, bool) {
	switch t := value.(type) {
	case string:
		return t, true
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(t), true
	}
	return "", false
}

func isTruthy(value any) bool {
	switch t := value.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}
