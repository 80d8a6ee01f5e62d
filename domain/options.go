package domain

import (
	"os"
	"time"
)

// DatastoreOptions contains the full configuration of a datastore and its
// collaborators.
type DatastoreOptions struct {
	// Filename is the path of the JSON datafile. Empty means in-memory
	// only.
	Filename string
	// InMemoryOnly disables file persistence entirely.
	InMemoryOnly bool
	// StampIDs enables automatic _id generation on insert for documents
	// that have none.
	StampIDs bool

	Matcher         Matcher
	Evaluator       Evaluator
	Comparer        Comparer
	FieldNavigator  FieldNavigator
	Persistence     Persistence
	Decoder         Decoder
	DocumentFactory DocumentFactory
	IDGenerator     IDGenerator

	// Persistence construction knobs, used only when no Persistence
	// implementation is injected.
	Indent   string
	Backup   bool
	Debounce time.Duration
	FileMode os.FileMode
	DirMode  os.FileMode
	Storage  Storage
	// Serializer converts snapshots to datafile bytes.
	Serializer Serializer
	// Deserializer parses datafile bytes into snapshots.
	Deserializer Deserializer
}

// DatastoreOption configures datastore behavior through the functional
// options pattern.
type DatastoreOption func(*DatastoreOptions)

// WithFilename sets the path of the JSON datafile.
func WithFilename(f string) DatastoreOption {
	return func(o *DatastoreOptions) { o.Filename = f }
}

// WithInMemoryOnly enables in-memory only mode without file persistence.
func WithInMemoryOnly(i bool) DatastoreOption {
	return func(o *DatastoreOptions) { o.InMemoryOnly = i }
}

// WithStampIDs enables automatic _id generation for inserted documents that
// carry none.
func WithStampIDs(s bool) DatastoreOption {
	return func(o *DatastoreOptions) { o.StampIDs = s }
}

// WithIndent sets the indentation used to pretty-print the datafile. Empty
// writes compact JSON.
func WithIndent(i string) DatastoreOption {
	return func(o *DatastoreOptions) { o.Indent = i }
}

// WithBackup enables copying the datafile to a ~-suffixed sibling before each
// overwrite.
func WithBackup(b bool) DatastoreOption {
	return func(o *DatastoreOptions) { o.Backup = b }
}

// WithDebounce coalesces rapid saves into one physical write at most every d.
// Flush forces the pending write.
func WithDebounce(d time.Duration) DatastoreOption {
	return func(o *DatastoreOptions) { o.Debounce = d }
}

// WithFileMode sets the permissions for the datafile.
func WithFileMode(m os.FileMode) DatastoreOption {
	return func(o *DatastoreOptions) { o.FileMode = m }
}

// WithDirMode sets the permissions for created parent directories.
func WithDirMode(m os.FileMode) DatastoreOption {
	return func(o *DatastoreOptions) { o.DirMode = m }
}

// WithMatcher sets the matcher implementation for query evaluation.
func WithMatcher(m Matcher) DatastoreOption {
	return func(o *DatastoreOptions) { o.Matcher = m }
}

// WithEvaluator sets the predicate evaluator used by the default matcher.
func WithEvaluator(e Evaluator) DatastoreOption {
	return func(o *DatastoreOptions) { o.Evaluator = e }
}

// WithComparer sets the comparer for ordering and equality operations.
func WithComparer(c Comparer) DatastoreOption {
	return func(o *DatastoreOptions) { o.Comparer = c }
}

// WithFieldNavigator sets the resolver for dot-notation field paths.
func WithFieldNavigator(f FieldNavigator) DatastoreOption {
	return func(o *DatastoreOptions) { o.FieldNavigator = f }
}

// WithPersistence sets the persistence implementation for data storage.
func WithPersistence(p Persistence) DatastoreOption {
	return func(o *DatastoreOptions) { o.Persistence = p }
}

// WithStorage sets the storage implementation for low-level file operations.
func WithStorage(s Storage) DatastoreOption {
	return func(o *DatastoreOptions) { o.Storage = s }
}

// WithSerializer sets the serializer for converting snapshots to bytes.
func WithSerializer(s Serializer) DatastoreOption {
	return func(o *DatastoreOptions) { o.Serializer = s }
}

// WithDeserializer sets the deserializer for parsing datafile bytes.
func WithDeserializer(d Deserializer) DatastoreOption {
	return func(o *DatastoreOptions) { o.Deserializer = d }
}

// WithDecoder sets the decoder for converting documents into caller values.
func WithDecoder(d Decoder) DatastoreOption {
	return func(o *DatastoreOptions) { o.Decoder = d }
}

// WithDocumentFactory sets the function for creating [Document] instances
// from caller values.
func WithDocumentFactory(d DocumentFactory) DatastoreOption {
	return func(o *DatastoreOptions) { o.DocumentFactory = d }
}

// WithIDGenerator sets the generator used to stamp new document IDs.
func WithIDGenerator(g IDGenerator) DatastoreOption {
	return func(o *DatastoreOptions) { o.IDGenerator = g }
}

// FindOptions contains parameters for customizing plain-query execution.
// Results are always produced in the fixed order filter, sort, skip, limit.
type FindOptions struct {
	Sort  *SortSpec
	Skip  int
	Limit int
	// HasLimit distinguishes a zero limit from no limit.
	HasLimit bool
}

// FindOption configures query behavior through the functional options
// pattern.
type FindOption func(*FindOptions)

// WithSort sets the sort order for query results. Only one sort key is
// supported; later calls replace earlier ones.
func WithSort(field string, order int) FindOption {
	return func(o *FindOptions) { o.Sort = &SortSpec{Field: field, Order: order} }
}

// WithSkip sets the number of documents to skip, applied after sorting.
func WithSkip(s int) FindOption {
	return func(o *FindOptions) { o.Skip = s }
}

// WithLimit sets the maximum number of documents to return, applied after
// skipping.
func WithLimit(l int) FindOption {
	return func(o *FindOptions) { o.Limit = l; o.HasLimit = true }
}
