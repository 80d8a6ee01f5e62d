// Package datastore contains the database object tying the query engine to
// its collaborators: collection access, the plain-query surface, mutation
// commits, observer dispatch and save signaling.
package datastore

import (
	"context"
	"slices"
	"sort"

	"github.com/flatdb/flatdb/domain"
	"github.com/flatdb/flatdb/internal/adapter/chain"
	"github.com/flatdb/flatdb/internal/adapter/comparer"
	"github.com/flatdb/flatdb/internal/adapter/data"
	"github.com/flatdb/flatdb/internal/adapter/decoder"
	"github.com/flatdb/flatdb/internal/adapter/evaluator"
	"github.com/flatdb/flatdb/internal/adapter/fieldpath"
	"github.com/flatdb/flatdb/internal/adapter/idgenerator"
	"github.com/flatdb/flatdb/internal/adapter/matcher"
	"github.com/flatdb/flatdb/internal/adapter/persistence"
)

// Datastore is the in-process database: a loaded snapshot plus the
// collaborators operating on it.
//
// The snapshot is process-local mutable state shared by every chain built
// against the same Datastore. There is no locking: the store targets
// single-writer, low-concurrency embedded use, and concurrent mutations are
// last-write-wins at save granularity.
type Datastore struct {
	snap *domain.Snapshot

	matcher         domain.Matcher
	comparer        domain.Comparer
	fieldNavigator  domain.FieldNavigator
	persistence     domain.Persistence
	decoder         domain.Decoder
	documentFactory domain.DocumentFactory
	idGenerator     domain.IDGenerator
	stampIDs        bool

	observers []domain.Observer
}

// NewDatastore returns a new Datastore configured through the given options.
// The datastore starts empty; call [Datastore.Load] to read the datafile.
func NewDatastore(options ...domain.DatastoreOption) (*Datastore, error) {
	comp := comparer.NewComparer()
	nav := fieldpath.NewFieldNavigator()
	opts := domain.DatastoreOptions{
		Comparer:        comp,
		FieldNavigator:  nav,
		Decoder:         decoder.NewDecoder(),
		DocumentFactory: data.NewDocument,
		IDGenerator:     idgenerator.NewIDGenerator(),
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = evaluator.NewEvaluator(evaluator.WithComparer(opts.Comparer))
	}
	if opts.Matcher == nil {
		opts.Matcher = matcher.NewMatcher(
			matcher.WithEvaluator(opts.Evaluator),
			matcher.WithComparer(opts.Comparer),
			matcher.WithFieldNavigator(opts.FieldNavigator),
		)
	}
	if opts.Persistence == nil {
		p, err := persistence.NewPersistence(
			persistence.WithFilename(opts.Filename),
			persistence.WithInMemoryOnly(opts.InMemoryOnly),
			persistence.WithBackup(opts.Backup),
			persistence.WithDebounce(opts.Debounce),
			persistence.WithIndent(opts.Indent),
			persistence.WithFileMode(opts.FileMode),
			persistence.WithDirMode(opts.DirMode),
			persistence.WithStorage(opts.Storage),
			persistence.WithSerializer(opts.Serializer),
			persistence.WithDeserializer(opts.Deserializer),
		)
		if err != nil {
			return nil, err
		}
		opts.Persistence = p
	}

	return &Datastore{
		snap:            domain.NewSnapshot(),
		matcher:         opts.Matcher,
		comparer:        opts.Comparer,
		fieldNavigator:  opts.FieldNavigator,
		persistence:     opts.Persistence,
		decoder:         opts.Decoder,
		documentFactory: opts.DocumentFactory,
		idGenerator:     opts.IDGenerator,
		stampIDs:        opts.StampIDs,
	}, nil
}

// Load reads the datafile into memory, replacing the current snapshot. A
// missing datafile yields an empty database.
func (d *Datastore) Load(ctx context.Context) error {
	snap, err := d.persistence.Load(ctx)
	if err != nil {
		return err
	}
	d.snap = snap
	total := 0
	for _, coll := range snap.Collections {
		total += len(coll)
	}
	d.notify(domain.ChangeEvent{Kind: domain.ChangeLoad, Count: total})
	return nil
}

// Collection resolves a named collection to its live backing sequence,
// creating it empty if absent. Never errors. The returned slice header is a
// borrowed mutable view; element mutations are mutations of the backing
// store.
func (d *Datastore) Collection(name string) domain.Collection {
	coll, ok := d.snap.Collections[name]
	if !ok {
		coll = domain.Collection{}
		d.snap.Collections[name] = coll
	}
	return coll
}

// Collections returns the sorted names of all collections. The reserved
// metadata key never appears here.
func (d *Datastore) Collections() []string {
	names := make([]string, 0, len(d.snap.Collections))
	for name := range d.snap.Collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Meta returns the reserved metadata document carried alongside the
// collections. The query engine itself never reads it.
func (d *Datastore) Meta() domain.Document {
	return d.snap.Meta
}

// Select runs the fixed evaluation pipeline, filter then sort then skip then
// limit, over the named collection. It returns the matching documents
// together with their positions in the live backing collection.
func (d *Datastore) Select(name string, query domain.Query, opts *domain.FindOptions) ([]domain.Document, []int, error) {
	coll := d.Collection(name)

	docs := make([]domain.Document, 0, len(coll))
	indexes := make([]int, 0, len(coll))
	for i, doc := range coll {
		matches, err := d.matcher.Match(doc, query)
		if err != nil {
			return nil, nil, err
		}
		if matches {
			docs = append(docs, doc)
			indexes = append(indexes, i)
		}
	}
	if opts == nil {
		return docs, indexes, nil
	}

	if opts.Sort != nil {
		if err := d.sortResults(docs, indexes, opts.Sort); err != nil {
			return nil, nil, err
		}
	}

	skip := max(0, opts.Skip)
	if skip > len(docs) {
		skip = len(docs)
	}
	docs, indexes = docs[skip:], indexes[skip:]

	if opts.HasLimit {
		limit := max(0, opts.Limit)
		if limit < len(docs) {
			docs, indexes = docs[:limit], indexes[:limit]
		}
	}
	return docs, indexes, nil
}

// sortResults stably sorts the result set by one key, keeping the parallel
// index slice aligned. Values that cannot be ordered against each other keep
// their original relative order.
func (d *Datastore) sortResults(docs []domain.Document, indexes []int, spec *domain.SortSpec) error {
	direction := 1
	if spec.Order < 0 {
		direction = -1
	}
	var sortErr error
	pairs := &docIndexPairs{docs: docs, indexes: indexes}
	pairs.less = func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		a, aOK := d.fieldNavigator.Resolve(docs[i], spec.Field)
		b, bOK := d.fieldNavigator.Resolve(docs[j], spec.Field)
		if !aOK || !bOK || !d.comparer.Comparable(a, b) {
			return false
		}
		c, err := d.comparer.Compare(a, b)
		if err != nil {
			sortErr = err
			return false
		}
		return c*direction < 0
	}
	sort.Stable(pairs)
	return sortErr
}

// docIndexPairs keeps docs and their backing positions aligned during
// sorting.
type docIndexPairs struct {
	docs    []domain.Document
	indexes []int
	less    func(i, j int) bool
}

func (p *docIndexPairs) Len() int { return len(p.docs) }

func (p *docIndexPairs) Less(i, j int) bool { return p.less(i, j) }

func (p *docIndexPairs) Swap(i, j int) {
	p.docs[i], p.docs[j] = p.docs[j], p.docs[i]
	p.indexes[i], p.indexes[j] = p.indexes[j], p.indexes[i]
}

// Find returns all documents of the collection matching the query, in the
// fixed pipeline order. An empty or nil query selects every document.
func (d *Datastore) Find(ctx context.Context, name string, query domain.Query, options ...domain.FindOption) ([]domain.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	opts := domain.FindOptions{}
	for _, option := range options {
		option(&opts)
	}
	docs, _, err := d.Select(name, query, &opts)
	return docs, err
}

// FindOne decodes the first matching document into target. It returns
// [domain.ErrNotFound] when nothing matches.
func (d *Datastore) FindOne(ctx context.Context, name string, query domain.Query, target any, options ...domain.FindOption) error {
	if target == nil {
		return domain.ErrTargetNil
	}
	options = append(options, domain.WithLimit(1))
	docs, err := d.Find(ctx, name, query, options...)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return domain.ErrNotFound
	}
	return d.decoder.Decode(docs[0], target)
}

// Count returns the number of documents matching the query.
func (d *Datastore) Count(ctx context.Context, name string, query domain.Query) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	_, indexes, err := d.Select(name, query, nil)
	if err != nil {
		return 0, err
	}
	return len(indexes), nil
}

// Insert converts the given values into documents, appends them to the
// collection and persists the new state. Returns the stored documents.
func (d *Datastore) Insert(ctx context.Context, name string, newDocs ...any) ([]domain.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	inserted := make([]domain.Document, 0, len(newDocs))
	for _, in := range newDocs {
		doc, err := d.documentFactory(in)
		if err != nil {
			return nil, err
		}
		if d.stampIDs {
			if _, ok := doc["_id"]; !ok {
				doc["_id"] = d.idGenerator.NewID()
			}
		}
		inserted = append(inserted, doc)
	}
	if len(inserted) == 0 {
		return nil, nil
	}

	coll := d.Collection(name)
	d.snap.Collections[name] = append(coll, inserted...)

	if err := d.commit(ctx, domain.ChangeEvent{
		Collection: name,
		Kind:       domain.ChangeInsert,
		Count:      len(inserted),
	}); err != nil {
		return nil, err
	}
	return inserted, nil
}

// Update shallow-merges patch into every document matching the query and
// returns the number of documents touched. With zero matches the persistence
// layer is not invoked.
func (d *Datastore) Update(ctx context.Context, name string, query domain.Query, patch any) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	_, indexes, err := d.Select(name, query, nil)
	if err != nil {
		return 0, err
	}
	return d.UpdateAt(ctx, name, indexes, patch)
}

// UpdateAt shallow-merges patch into the documents at the given backing
// positions. It is the single mutation commit path shared with the chain
// builder.
func (d *Datastore) UpdateAt(ctx context.Context, name string, indexes []int, patch any) (int, error) {
	if len(indexes) == 0 {
		return 0, nil
	}
	patchDoc, err := d.documentFactory(patch)
	if err != nil {
		return 0, err
	}

	coll := d.Collection(name)
	for _, i := range indexes {
		for k, v := range patchDoc {
			coll[i][k] = v
		}
	}

	if err := d.commit(ctx, domain.ChangeEvent{
		Collection: name,
		Kind:       domain.ChangeUpdate,
		Count:      len(indexes),
	}); err != nil {
		return 0, err
	}
	return len(indexes), nil
}

// Delete removes every document matching the query and returns the number
// removed. With zero matches the persistence layer is not invoked.
func (d *Datastore) Delete(ctx context.Context, name string, query domain.Query) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	_, indexes, err := d.Select(name, query, nil)
	if err != nil {
		return 0, err
	}
	return d.DeleteAt(ctx, name, indexes)
}

// DeleteAt removes the documents at the given backing positions, preserving
// the order of the remaining documents.
func (d *Datastore) DeleteAt(ctx context.Context, name string, indexes []int) (int, error) {
	if len(indexes) == 0 {
		return 0, nil
	}

	drop := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		drop[i] = struct{}{}
	}
	coll := d.Collection(name)
	kept := make(domain.Collection, 0, len(coll)-len(drop))
	for i, doc := range coll {
		if _, gone := drop[i]; !gone {
			kept = append(kept, doc)
		}
	}
	d.snap.Collections[name] = kept

	if err := d.commit(ctx, domain.ChangeEvent{
		Collection: name,
		Kind:       domain.ChangeDelete,
		Count:      len(drop),
	}); err != nil {
		return 0, err
	}
	return len(drop), nil
}

// Chain starts a fluent query against the named collection.
func (d *Datastore) Chain(name string) *chain.Chain {
	return chain.NewChain(name, d,
		chain.WithComparer(d.comparer),
		chain.WithFieldNavigator(d.fieldNavigator),
	)
}

// Observe registers an observer notified after every structural mutation.
func (d *Datastore) Observe(o domain.Observer) {
	if o != nil {
		d.observers = append(d.observers, o)
	}
}

// Flush performs any pending debounced write. Callers must flush before
// relying on durability.
func (d *Datastore) Flush(ctx context.Context) error {
	return d.persistence.Flush(ctx)
}

// Drop permanently deletes all data, removing the datafile and clearing the
// in-memory snapshot.
func (d *Datastore) Drop(ctx context.Context) error {
	if err := d.persistence.Drop(ctx); err != nil {
		return err
	}
	d.snap = domain.NewSnapshot()
	d.notify(domain.ChangeEvent{Kind: domain.ChangeDrop})
	return nil
}

// Sniff returns a best-effort mapping of field names to JSON type names
// derived from the first document of the collection. No schema is enforced.
func (d *Datastore) Sniff(name string) map[string]string {
	coll := d.Collection(name)
	if len(coll) == 0 {
		return nil
	}
	res := make(map[string]string, len(coll[0]))
	for k, v := range coll[0] {
		res[k] = typeName(v)
	}
	return res
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case domain.Document:
		return "object"
	default:
		return "number"
	}
}

// commit dispatches observers and signals the persistence layer with the
// whole snapshot. Callers only invoke it after at least one document changed.
func (d *Datastore) commit(ctx context.Context, event domain.ChangeEvent) error {
	d.notify(event)
	return d.persistence.Save(ctx, d.snap)
}

func (d *Datastore) notify(event domain.ChangeEvent) {
	for _, o := range d.observers {
		o.Notify(event)
	}
}
