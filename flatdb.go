// Package flatdb provides an embedded, file-backed JSON document store for
// golang.
//
// Data lives in named collections of schemaless documents, persisted as a
// single human-readable JSON file. Queries use a MongoDB-like operator
// mapping or a fluent chain builder; both surfaces run the same matching
// pipeline and always agree.
//
// The basic usage starts with creating a new [DB] instance, which can be done
// by calling [NewDB].
package flatdb

import (
	"context"
	"os"
	"time"

	"github.com/flatdb/flatdb/domain"
	"github.com/flatdb/flatdb/internal/adapter/chain"
	"github.com/flatdb/flatdb/internal/adapter/datastore"
)

var (
	// ErrNotFound is returned when [DB.FindOne] or [Chain.First] cannot
	// find any matching result for the given query.
	ErrNotFound = domain.ErrNotFound
	// ErrTargetNil is returned when user provides a nil value as a target
	// to decode data, for example, calling [DB.FindOne].
	ErrTargetNil = domain.ErrTargetNil
)

// ErrMissingField is returned by chain terminals when an operator call was
// made before any field was selected with [Chain.Where].
type ErrMissingField = domain.ErrMissingField

// ErrPattern represents an invalid regular expression given to the $regex
// operator. Within query evaluation it only makes the single predicate fail;
// it is never returned from a query.
type ErrPattern = domain.ErrPattern

// ErrPersistence wraps failures of the load, save and drop file operations.
type ErrPersistence = domain.ErrPersistence

// ErrDatafileName is returned when the user specifies an invalid name for the
// datafile. That happens if a file with the suffix reserved for backup copies
// is passed as a file name.
type ErrDatafileName = domain.ErrDatafileName

// NewDB creates a new DB instance with the provided configuration options:
//
// - [WithFilename]: sets the path of the JSON datafile.
//
// - [WithInMemoryOnly]: enables in-memory only mode without file persistence.
//
// - [WithStampIDs]: enables automatic _id generation on insert.
//
// - [WithIndent]: pretty-prints the datafile with the given indentation.
//
// - [WithBackup]: keeps a ~-suffixed backup copy of the previous datafile.
//
// - [WithDebounce]: coalesces rapid saves into one physical write.
//
// - [WithFileMode]: sets the file permissions for the datafile.
//
// - [WithDirMode]: sets the directory permissions for created directories.
//
// - [WithMatcher]: sets the matcher implementation for query evaluation.
//
// - [WithEvaluator]: sets the predicate evaluator used by the default matcher.
//
// - [WithComparer]: sets the comparer for ordering and equality operations.
//
// - [WithFieldNavigator]: sets the resolver for dot-notation field paths.
//
// - [WithPersistence]: sets the persistence implementation for data storage.
//
// - [WithStorage]: sets the storage implementation for file operations.
//
// - [WithSerializer]: sets the serializer for converting data to bytes.
//
// - [WithDeserializer]: sets the deserializer for converting bytes to data.
//
// - [WithDecoder]: sets the decoder for data format conversions.
//
// - [WithDocumentFactory]: sets the function for creating [Document]
// instances.
//
// - [WithIDGenerator]: sets the generator used to stamp new document ids.
func NewDB(options ...Option) (DB, error) {
	return datastore.NewDatastore(options...)
}

// DB defines the main interface for interacting with the embedded document
// store.
//
// All data is held in memory and mirrored to a single JSON file on every
// mutating operation. The store targets single-writer embedded use; it does
// no locking of its own.
//
// If set as in-memory-only, user can start using the db right away, but for
// persistent databases, [DB.Load] should be called to read the datafile.
type DB interface {
	// Load reads the datafile into memory, replacing the current state. A
	// missing datafile yields an empty database.
	Load(ctx context.Context) error

	// Drop permanently deletes all data, removing the datafile and any
	// backup copy.
	Drop(ctx context.Context) error

	// Flush performs any pending debounced write. Call it before relying
	// on durability when a debounce is configured.
	Flush(ctx context.Context) error

	// Collection resolves a named collection to its live document
	// sequence, creating it empty if absent. Element mutations through the
	// returned slice are mutations of the store and are not persisted
	// until the next mutating operation.
	Collection(name string) Collection

	// Collections returns the sorted names of all collections.
	Collections() []string

	// Meta returns the reserved metadata document stored alongside the
	// collections under the $$meta key of the datafile.
	Meta() Document

	// Find returns all documents matching the query in the fixed pipeline
	// order: filter, sort, skip, limit. An empty or nil query selects
	// every document. Options:
	// - [WithSort]
	// - [WithSkip]
	// - [WithLimit]
	Find(ctx context.Context, name string, query Query, options ...FindOption) ([]Document, error)

	// FindOne decodes the first matching document into target. It returns
	// [ErrNotFound] when nothing matches and [ErrTargetNil] for a nil
	// target.
	//
	// If not reimplementing [Decoder] defaults, target can be a pointer to
	// a struct or a map. For structs, fields with a "flatdb" struct tag
	// are matched by the tag value.
	FindOne(ctx context.Context, name string, query Query, target any, options ...FindOption) error

	// Count returns the number of documents matching the query.
	Count(ctx context.Context, name string, query Query) (int, error)

	// Insert converts the given values into documents, appends them to
	// the collection and persists the new state. Returns the stored
	// documents.
	//
	// If not reimplementing [DocumentFactory] defaults, Insert accepts
	// maps with string keys and structs, nested to any depth. For structs,
	// unexported fields are ignored; if a field has a "flatdb" struct tag,
	// its value replaces the field name. Tag values may carry ",omitempty"
	// and ",omitzero".
	Insert(ctx context.Context, name string, newDocs ...any) ([]Document, error)

	// Update shallow-merges patch into every document matching the query
	// and returns the number of documents touched. With zero matches
	// nothing is written.
	Update(ctx context.Context, name string, query Query, patch any) (int, error)

	// Delete removes every document matching the query and returns the
	// number removed. With zero matches nothing is written.
	Delete(ctx context.Context, name string, query Query) (int, error)

	// Chain starts a fluent query against the named collection.
	Chain(name string) *Chain

	// Observe registers an observer notified after every structural
	// mutation: inserts, updates, deletes, loads and drops.
	Observe(o Observer)

	// Sniff returns a best-effort mapping of field names to JSON type
	// names derived from the first document of the collection. No schema
	// is enforced.
	Sniff(name string) map[string]string
}

// Document represents a record in a collection.
type Document = domain.Document

// Query is a mapping of field paths and combinators to match conditions.
type Query = domain.Query

// Collection is an ordered sequence of documents.
type Collection = domain.Collection

// SortSpec names the single field and direction used to order query results,
// a positive order meaning ascending and a negative one descending.
type SortSpec = domain.SortSpec

// Chain is the fluent query builder returned by [DB.Chain].
type Chain = chain.Chain

// ChangeEvent describes a structural mutation reported to observers.
type ChangeEvent = domain.ChangeEvent

// ChangeKind names the mutation category of a [ChangeEvent].
type ChangeKind = domain.ChangeKind

// Mutation categories reported through [ChangeEvent].
const (
	ChangeInsert = domain.ChangeInsert
	ChangeUpdate = domain.ChangeUpdate
	ChangeDelete = domain.ChangeDelete
	ChangeLoad   = domain.ChangeLoad
	ChangeDrop   = domain.ChangeDrop
)

// Observer receives a notification after every structural mutation.
type Observer = domain.Observer

// ObserverFunc adapts a function to the [Observer] interface.
type ObserverFunc = domain.ObserverFunc

// Serializer converts database state to bytes for storage.
type Serializer = domain.Serializer

// Deserializer converts datafile bytes back to database state.
type Deserializer = domain.Deserializer

// Storage provides low-level file operations with crash-safety guarantees.
type Storage = domain.Storage

// Persistence manages whole-file load and save of the database.
type Persistence = domain.Persistence

// Decoder converts between different data representations.
type Decoder = domain.Decoder

// Comparer provides ordering and comparison for different data types.
type Comparer = domain.Comparer

// Evaluator evaluates single predicate operators against field values.
type Evaluator = domain.Evaluator

// Matcher evaluates whether documents match query criteria.
type Matcher = domain.Matcher

// FieldNavigator provides field access operations with dot notation support.
type FieldNavigator = domain.FieldNavigator

// DocumentFactory represents a [Document] constructor that can be
// reimplemented. It should accept structured data types and create an
// equivalent [Document], respecting the given structure. If nil is given as
// argument, a document of length 0 should be returned.
type DocumentFactory = domain.DocumentFactory

// IDGenerator is used to create unique IDs for new instances of [Document].
type IDGenerator = domain.IDGenerator

// Option configures datastore behavior through the functional options
// pattern.
type Option = domain.DatastoreOption

// WithFilename sets the path of the JSON datafile.
func WithFilename(f string) Option {
	return domain.WithFilename(f)
}

// WithInMemoryOnly enables in-memory only mode without file persistence.
func WithInMemoryOnly(i bool) Option {
	return domain.WithInMemoryOnly(i)
}

// WithStampIDs enables automatic _id generation for inserted documents that
// carry none.
func WithStampIDs(s bool) Option {
	return domain.WithStampIDs(s)
}

// WithIndent sets the indentation used to pretty-print the datafile. Empty
// writes compact JSON.
func WithIndent(i string) Option {
	return domain.WithIndent(i)
}

// WithBackup enables copying the datafile to a ~-suffixed sibling before each
// overwrite.
func WithBackup(b bool) Option {
	return domain.WithBackup(b)
}

// WithDebounce coalesces rapid saves into one physical write at most every d.
// [DB.Flush] forces the pending write.
func WithDebounce(d time.Duration) Option {
	return domain.WithDebounce(d)
}

// WithFileMode sets the file permissions for the datafile.
func WithFileMode(m os.FileMode) Option {
	return domain.WithFileMode(m)
}

// WithDirMode sets the directory permissions for created parent directories.
func WithDirMode(m os.FileMode) Option {
	return domain.WithDirMode(m)
}

// WithMatcher sets the matcher implementation for query evaluation.
func WithMatcher(m Matcher) Option {
	return domain.WithMatcher(m)
}

// WithEvaluator sets the predicate evaluator used by the default matcher.
func WithEvaluator(e Evaluator) Option {
	return domain.WithEvaluator(e)
}

// WithComparer sets the comparer for ordering and equality operations.
func WithComparer(c Comparer) Option {
	return domain.WithComparer(c)
}

// WithFieldNavigator sets the resolver for dot-notation field paths.
func WithFieldNavigator(f FieldNavigator) Option {
	return domain.WithFieldNavigator(f)
}

// WithPersistence sets the persistence implementation for data storage.
func WithPersistence(p Persistence) Option {
	return domain.WithPersistence(p)
}

// WithStorage sets the storage implementation for low-level file operations.
func WithStorage(s Storage) Option {
	return domain.WithStorage(s)
}

// WithSerializer sets the serializer for converting database state to bytes.
func WithSerializer(s Serializer) Option {
	return domain.WithSerializer(s)
}

// WithDeserializer sets the deserializer for parsing datafile bytes.
func WithDeserializer(d Deserializer) Option {
	return domain.WithDeserializer(d)
}

// WithDecoder sets the decoder for data format conversions.
func WithDecoder(d Decoder) Option {
	return domain.WithDecoder(d)
}

// WithDocumentFactory sets the function for creating [Document] instances.
func WithDocumentFactory(d DocumentFactory) Option {
	return domain.WithDocumentFactory(d)
}

// WithIDGenerator sets the generator used to stamp new document ids.
func WithIDGenerator(g IDGenerator) Option {
	return domain.WithIDGenerator(g)
}

// FindOption configures query behavior through the functional options
// pattern.
type FindOption = domain.FindOption

// WithSort specifies the sort order for query results. Only one sort key is
// supported; later calls replace earlier ones.
func WithSort(field string, order int) FindOption {
	return domain.WithSort(field, order)
}

// WithSkip sets the number of documents to skip, applied after sorting.
func WithSkip(s int) FindOption {
	return domain.WithSkip(s)
}

// WithLimit sets the maximum number of documents to return, applied after
// skipping.
func WithLimit(l int) FindOption {
	return domain.WithLimit(l)
}
