// Package chain contains the fluent query builder. A chain accumulates field
// conditions, a sort spec and paging, and materializes results through the
// same pipeline as the plain-query surface, so both forms always agree.
package chain

import (
	"context"
	"fmt"

	"github.com/flatdb/flatdb/domain"
	"github.com/flatdb/flatdb/internal/adapter/comparer"
	"github.com/flatdb/flatdb/internal/adapter/fieldpath"
)

// Store is the surface the chain needs from the database: materializing the
// filter pipeline and committing mutations over a materialized result set.
type Store interface {
	// Select runs filter, sort, skip, limit and returns matching documents
	// with their positions in the live backing collection.
	Select(name string, query domain.Query, opts *domain.FindOptions) ([]domain.Document, []int, error)
	// UpdateAt shallow-merges patch into the documents at the given
	// positions. With zero positions no save is signaled.
	UpdateAt(ctx context.Context, name string, indexes []int, patch any) (int, error)
	// DeleteAt removes the documents at the given positions. With zero
	// positions no save is signaled.
	DeleteAt(ctx context.Context, name string, indexes []int) (int, error)
}

// Chain is a mutable, reusable query builder. Building calls (Where, Eq,
// Sort, Skip, Limit, ...) mutate the chain and return it; terminal calls
// (Get, First, Count, Update, Delete and the aggregates) re-derive results
// from the accumulated state each time, so non-mutating terminals can be
// repeated and stay consistent. State is never reset between terminal calls:
// reusing the chain accumulates further conditions instead of replacing
// them.
type Chain struct {
	name  string
	store Store

	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator

	conds domain.Query
	field string
	sort  *domain.SortSpec
	skip  int
	limit int
	has   struct{ skip, limit bool }
	err   error
}

// Options configures a new [Chain].
type Options struct {
	Comparer       domain.Comparer
	FieldNavigator domain.FieldNavigator
}

// Option configures chain behavior through the functional options pattern.
type Option func(*Options)

// WithComparer sets the comparer used by the aggregate terminals.
func WithComparer(c domain.Comparer) Option {
	return func(o *Options) { o.Comparer = c }
}

// WithFieldNavigator sets the resolver for dot-notation field paths.
func WithFieldNavigator(f domain.FieldNavigator) Option {
	return func(o *Options) { o.FieldNavigator = f }
}

// NewChain returns a new chain over the named collection of the given store.
func NewChain(name string, store Store, options ...Option) *Chain {
	opts := Options{
		Comparer:       comparer.NewComparer(),
		FieldNavigator: fieldpath.NewFieldNavigator(),
	}
	for _, option := range options {
		option(&opts)
	}
	return &Chain{
		name:           name,
		store:          store,
		comparer:       opts.Comparer,
		fieldNavigator: opts.FieldNavigator,
		conds:          domain.Query{},
	}
}

// Where selects the field the following operator calls attach conditions to.
func (c *Chain) Where(field string) *Chain {
	c.field = field
	return c
}

// And selects the next field. It is a fluent alias of [Chain.Where]: all
// accumulated conditions combine conjunctively.
func (c *Chain) And(field string) *Chain {
	return c.Where(field)
}

// Or selects the next field. Despite the name it is an alias of [Chain.Where]
// kept for fluent reading; conditions always combine conjunctively. Use a
// plain query with $or for disjunction.
func (c *Chain) Or(field string) *Chain {
	return c.Where(field)
}

// Eq constrains the selected field to equal v. Unlike the other operator
// calls, Eq collapses the field to a bare literal, discarding any operator
// conditions previously attached to the same field.
func (c *Chain) Eq(v any) *Chain {
	if c.field == "" {
		c.fail("Eq")
		return c
	}
	c.conds[c.field] = v
	return c
}

// Ne constrains the selected field to differ from v.
func (c *Chain) Ne(v any) *Chain { return c.condition("$ne", v) }

// Gt constrains the selected field to order above v.
func (c *Chain) Gt(v any) *Chain { return c.condition("$gt", v) }

// Gte constrains the selected field to order at or above v.
func (c *Chain) Gte(v any) *Chain { return c.condition("$gte", v) }

// Lt constrains the selected field to order below v.
func (c *Chain) Lt(v any) *Chain { return c.condition("$lt", v) }

// Lte constrains the selected field to order at or below v.
func (c *Chain) Lte(v any) *Chain { return c.condition("$lte", v) }

// In constrains the selected field to equal one of the given values.
func (c *Chain) In(values ...any) *Chain { return c.condition("$in", values) }

// Nin constrains the selected field to equal none of the given values.
func (c *Chain) Nin(values ...any) *Chain { return c.condition("$nin", values) }

// Exists constrains the selected field to be present (true) or absent
// (false).
func (c *Chain) Exists(present bool) *Chain { return c.condition("$exists", present) }

// Regex constrains the string form of the selected field to match the
// pattern, given either as a string or a compiled *regexp.Regexp.
func (c *Chain) Regex(pattern any) *Chain { return c.condition("$regex", pattern) }

// Contains constrains a string field to contain v as a substring, or a
// sequence field to contain v as an element.
func (c *Chain) Contains(v any) *Chain { return c.condition("$contains", v) }

// StartsWith constrains the string form of the selected field to start with
// the given prefix.
func (c *Chain) StartsWith(prefix string) *Chain { return c.condition("$startsWith", prefix) }

// EndsWith constrains the string form of the selected field to end with the
// given suffix.
func (c *Chain) EndsWith(suffix string) *Chain { return c.condition("$endsWith", suffix) }

// Sort sets the single-key sort for materialized results. A positive order
// sorts ascending, a negative one descending. Later calls replace the sort,
// they do not compose.
func (c *Chain) Sort(field string, order int) *Chain {
	c.sort = &domain.SortSpec{Field: field, Order: order}
	return c
}

// Skip drops the first n documents of the sorted result set.
func (c *Chain) Skip(n int) *Chain {
	c.skip = n
	c.has.skip = true
	return c
}

// Limit caps the result set at n documents, applied after skipping.
func (c *Chain) Limit(n int) *Chain {
	c.limit = n
	c.has.limit = true
	return c
}

// Err returns the first configuration error recorded while building, such as
// an operator call before any field selection. Terminal calls return it as
// well.
func (c *Chain) Err() error {
	return c.err
}

// Query returns a copy of the accumulated query mapping.
func (c *Chain) Query() domain.Query {
	res := make(domain.Query, len(c.conds))
	for k, v := range c.conds {
		res[k] = v
	}
	return res
}

func (c *Chain) condition(op string, operand any) *Chain {
	if c.field == "" {
		c.fail(op)
		return c
	}
	existing, ok := c.conds[c.field].(domain.Document)
	if !ok {
		existing = domain.Document{}
		c.conds[c.field] = existing
	}
	existing[op] = operand
	return c
}

// fail records a configuration error without touching accumulated
// conditions. Only the first error is kept.
func (c *Chain) fail(op string) {
	if c.err == nil {
		c.err = &domain.ErrMissingField{Op: op}
	}
}

func (c *Chain) materialize(ctx context.Context) ([]domain.Document, []int, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}
	if c.err != nil {
		return nil, nil, c.err
	}
	opts := domain.FindOptions{Sort: c.sort}
	if c.has.skip {
		opts.Skip = c.skip
	}
	if c.has.limit {
		opts.Limit = c.limit
		opts.HasLimit = true
	}
	return c.store.Select(c.name, c.conds, &opts)
}

// Get materializes and returns the current result set.
func (c *Chain) Get(ctx context.Context) ([]domain.Document, error) {
	docs, _, err := c.materialize(ctx)
	return docs, err
}

// First returns the first document of the result set, or
// [domain.ErrNotFound] when it is empty.
func (c *Chain) First(ctx context.Context) (domain.Document, error) {
	docs, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return docs[0], nil
}

// Count returns the size of the current result set.
func (c *Chain) Count(ctx context.Context) (int, error) {
	docs, err := c.Get(ctx)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Update shallow-merges patch into every document of the result set,
// materialized fresh at call time, and returns the number of documents
// touched. With zero matches the persistence layer is not invoked.
func (c *Chain) Update(ctx context.Context, patch any) (int, error) {
	_, indexes, err := c.materialize(ctx)
	if err != nil {
		return 0, err
	}
	return c.store.UpdateAt(ctx, c.name, indexes, patch)
}

// Delete removes every document of the result set, materialized fresh at
// call time, and returns the number removed. With zero matches the
// persistence layer is not invoked.
func (c *Chain) Delete(ctx context.Context) (int, error) {
	_, indexes, err := c.materialize(ctx)
	if err != nil {
		return 0, err
	}
	return c.store.DeleteAt(ctx, c.name, indexes)
}

// Sum adds up the numeric values of the given field over the result set.
// Documents without a numeric value there are ignored.
func (c *Chain) Sum(ctx context.Context, field string) (float64, error) {
	sum, _, err := c.sum(ctx, field)
	return sum, err
}

// Avg returns the mean of the numeric values of the given field over the
// result set, or 0 when no document carries one.
func (c *Chain) Avg(ctx context.Context, field string) (float64, error) {
	sum, n, err := c.sum(ctx, field)
	if err != nil || n == 0 {
		return 0, err
	}
	return sum / float64(n), nil
}

func (c *Chain) sum(ctx context.Context, field string) (float64, int, error) {
	docs, err := c.Get(ctx)
	if err != nil {
		return 0, 0, err
	}
	var sum float64
	var n int
	for _, doc := range docs {
		v, ok := c.fieldNavigator.Resolve(doc, field)
		if !ok {
			continue
		}
		f, ok := asFloat(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	return sum, n, nil
}

// Min returns the smallest value of the given field over the result set, or
// nil when no document carries one. Values that cannot be ordered against
// the running minimum are ignored.
func (c *Chain) Min(ctx context.Context, field string) (any, error) {
	return c.extremum(ctx, field, func(cmp int) bool { return cmp < 0 })
}

// Max returns the largest value of the given field over the result set, or
// nil when no document carries one.
func (c *Chain) Max(ctx context.Context, field string) (any, error) {
	return c.extremum(ctx, field, func(cmp int) bool { return cmp > 0 })
}

func (c *Chain) extremum(ctx context.Context, field string, better func(int) bool) (any, error) {
	docs, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	var best any
	found := false
	for _, doc := range docs {
		v, ok := c.fieldNavigator.Resolve(doc, field)
		if !ok || v == nil {
			continue
		}
		if !found {
			best = v
			found = true
			continue
		}
		if !c.comparer.Comparable(v, best) {
			continue
		}
		cmp, err := c.comparer.Compare(v, best)
		if err != nil {
			return nil, err
		}
		if better(cmp) {
			best = v
		}
	}
	return best, nil
}

// GroupBy partitions the result set by the string form of the given field.
// Documents without a scalar value there are left out.
func (c *Chain) GroupBy(ctx context.Context, field string) (map[string][]domain.Document, error) {
	docs, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]domain.Document)
	for _, doc := range docs {
		v, ok := c.fieldNavigator.Resolve(doc, field)
		if !ok {
			continue
		}
		key, ok := scalarKey(v)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], doc)
	}
	return groups, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func scalarKey(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "null", true
	case string:
		return t, true
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(t), true
	}
	return "", false
}
