package domain

// Document represents one schema-less record in a collection. It is an alias
// for the plain JSON object type so that nested values produced by
// deserialization are themselves Documents.
type Document = map[string]any

// Query is a declarative filter expression evaluated against documents. Each
// key is either a field name mapped to a literal value (equality shorthand)
// or to an operator mapping such as {"$gt": 5}, or a boolean combinator
// ($and, $or, $not) mapped to sub-queries.
type Query = map[string]any

// Collection is a named ordered sequence of documents. Insertion order is
// preserved and no uniqueness constraint is enforced.
type Collection = []Document

// Database maps collection names to their backing document sequences.
type Database = map[string]Collection

// MetaKey is the reserved top-level key in the datafile carrying version and
// bookkeeping information. It is never enumerated as a collection.
const MetaKey = "$$meta"

// Snapshot is the whole in-memory state handed to the persistence layer on
// every save: all collections plus the reserved metadata document.
type Snapshot struct {
	Collections Database
	Meta        Document
}

// NewSnapshot returns an empty Snapshot with allocated containers.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Collections: make(Database),
		Meta:        make(Document),
	}
}

// SortSpec represents a single-key sort. A positive Order means ascending and
// a negative Order means descending. Equal values keep their relative
// collection order (sorting is stable).
type SortSpec struct {
	Field string
	Order int
}

// ChangeKind identifies the kind of structural mutation reported to
// observers.
type ChangeKind string

// Mutation kinds dispatched through [Observer].
const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
	ChangeLoad   ChangeKind = "load"
	ChangeDrop   ChangeKind = "drop"
)

// ChangeEvent describes one structural mutation of the database. Count is the
// number of documents affected.
type ChangeEvent struct {
	Collection string
	Kind       ChangeKind
	Count      int
}
