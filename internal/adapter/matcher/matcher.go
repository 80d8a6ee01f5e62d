// Package matcher contains the default [domain.Matcher] implementation,
// composing the predicate evaluator into whole-document match decisions.
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flatdb/flatdb/domain"
	"github.com/flatdb/flatdb/internal/adapter/comparer"
	"github.com/flatdb/flatdb/internal/adapter/evaluator"
	"github.com/flatdb/flatdb/internal/adapter/fieldpath"
)

// Matcher implements domain.Matcher.
type Matcher struct {
	evaluator      domain.Evaluator
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
}

// Options configures a new [Matcher].
type Options struct {
	Evaluator      domain.Evaluator
	Comparer       domain.Comparer
	FieldNavigator domain.FieldNavigator
}

// Option configures matcher behavior through the functional options pattern.
type Option func(*Options)

// WithEvaluator sets the predicate evaluator.
func WithEvaluator(e domain.Evaluator) Option {
	return func(o *Options) { o.Evaluator = e }
}

// WithComparer sets the comparer used for the deep-equality fallback.
func WithComparer(c domain.Comparer) Option {
	return func(o *Options) { o.Comparer = c }
}

// WithFieldNavigator sets the resolver for dot-notation field paths.
func WithFieldNavigator(f domain.FieldNavigator) Option {
	return func(o *Options) { o.FieldNavigator = f }
}

// NewMatcher returns a new implementation of domain.Matcher.
func NewMatcher(options ...Option) domain.Matcher {
	comp := comparer.NewComparer()
	opts := Options{
		Evaluator:      evaluator.NewEvaluator(evaluator.WithComparer(comp)),
		Comparer:       comp,
		FieldNavigator: fieldpath.NewFieldNavigator(),
	}
	for _, option := range options {
		option(&opts)
	}
	return &Matcher{
		evaluator:      opts.Evaluator,
		comparer:       opts.Comparer,
		fieldNavigator: opts.FieldNavigator,
	}
}

// Match implements domain.Matcher. All top-level query entries are implicitly
// ANDed; a query with zero entries matches every document. The document is
// never mutated.
func (m *Matcher) Match(doc domain.Document, query domain.Query) (bool, error) {
	for key, value := range query {
		matches, err := m.matchEntry(doc, key, value)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) matchEntry(doc domain.Document, key string, value any) (bool, error) {
	switch key {
	case "$and":
		return m.and(doc, value)
	case "$or":
		return m.or(doc, value)
	case "$not":
		return m.not(doc, value)
	}
	return m.matchField(doc, key, value)
}

func (m *Matcher) matchField(doc domain.Document, field string, value any) (bool, error) {
	fieldValue, present := m.fieldNavigator.Resolve(doc, field)

	condition, ok := value.(domain.Document)
	if ok && hasOperators(condition) {
		return m.matchOperators(fieldValue, present, condition)
	}

	// plain literal, or a nested mapping without operator keys: both are
	// matched by deep structural equality
	if !present {
		return false, nil
	}
	return m.comparer.Equal(fieldValue, value)
}

func (m *Matcher) matchOperators(fieldValue any, present bool, condition domain.Document) (bool, error) {
	for op, operand := range condition {
		matches, err := m.evaluator.Evaluate(fieldValue, present, op, operand)
		if err != nil {
			// a malformed pattern fails its own predicate instead
			// of aborting the whole filter pass
			var patternErr *domain.ErrPattern
			if errors.As(err, &patternErr) {
				return false, nil
			}
			return false, err
		}
		if !matches {
			return false, nil
		}
	}
	return true, nil
}

func (m *Matcher) and(doc domain.Document, value any) (bool, error) {
	subs, err := subQueries("$and", value)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		matches, err := m.Match(doc, sub)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) or(doc domain.Document, value any) (bool, error) {
	subs, err := subQueries("$or", value)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		matches, err := m.Match(doc, sub)
		if err != nil || matches {
			return matches, err
		}
	}
	return false, nil
}

func (m *Matcher) not(doc domain.Document, value any) (bool, error) {
	sub, ok := value.(domain.Query)
	if !ok {
		return false, fmt.Errorf("$not operator used without a query")
	}
	matches, err := m.Match(doc, sub)
	if err != nil {
		return false, err
	}
	return !matches, nil
}

// subQueries normalizes a combinator operand into a list of queries.
func subQueries(op string, value any) ([]domain.Query, error) {
	switch t := value.(type) {
	case []domain.Query:
		return t, nil
	case []any:
		res := make([]domain.Query, len(t))
		for n, item := range t {
			sub, ok := item.(domain.Query)
			if !ok {
				return nil, fmt.Errorf("%s operator used with a non-query element %T", op, item)
			}
			res[n] = sub
		}
		return res, nil
	}
	return nil, fmt.Errorf("%s operator used without an array", op)
}

func hasOperators(condition domain.Document) bool {
	for key := range condition {
		if strings.HasPrefix(key, "$") {
			return true
		}
	}
	return false
}
