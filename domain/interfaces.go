// Package domain contains the interfaces, entities and option types shared by
// all flatdb adapters.
//
// The package defines the contracts implemented under internal/adapter, along
// with functional options for configuring the datastore, queries and the
// persistence layer.
package domain

import "context"

// Evaluator evaluates a single predicate operator against a document field
// value. Implementations are pure and keep no state between calls.
type Evaluator interface {
	// Evaluate reports whether the field value satisfies the operator with
	// the given operand. present tells whether the field is set on the
	// document at all, which only $exists distinguishes from a nil value.
	// Unrecognized operators evaluate to true so that unknown keys from
	// newer writers never exclude documents.
	Evaluate(value any, present bool, op string, operand any) (bool, error)
}

// Matcher evaluates whether documents match query criteria.
type Matcher interface {
	// Match reports whether the document satisfies the query. An empty
	// query matches every document. The document is never mutated.
	Match(doc Document, query Query) (bool, error)
}

// Comparer provides ordering and structural equality for the document value
// space (nil, bool, number, string, sequence, mapping).
type Comparer interface {
	// Compare returns a negative, zero or positive value ordering a
	// against b. It must only be called for comparable pairs.
	Compare(a, b any) (int, error)
	// Comparable reports whether the two values can be ordered. Values of
	// different type groups are never comparable, so cross-type ordering
	// predicates are always false.
	Comparable(a, b any) bool
	// Equal reports deep structural equality between two values.
	Equal(a, b any) (bool, error)
}

// FieldNavigator resolves dot-notation field paths inside nested documents
// and sequences.
type FieldNavigator interface {
	// Resolve returns the value under the given path and whether it is
	// present. Path segments that index into sequences are decimal
	// numbers.
	Resolve(doc Document, path string) (value any, present bool)
}

// Serializer converts a snapshot to bytes for storage.
type Serializer interface {
	Serialize(context.Context, *Snapshot) ([]byte, error)
}

// Deserializer converts datafile bytes back into a snapshot.
type Deserializer interface {
	Deserialize(context.Context, []byte) (*Snapshot, error)
}

// Storage provides the low-level file operations used by the persistence
// layer.
type Storage interface {
	// ReadFile returns the whole content of the file.
	ReadFile(filename string) ([]byte, error)
	// WriteFileAtomic replaces the file content by writing to a temporary
	// sibling and renaming it over the target.
	WriteFileAtomic(ctx context.Context, filename string, data []byte) error
	// CopyFile copies src to dst, replacing dst if it exists.
	CopyFile(src, dst string) error
	// Exists checks if a file exists.
	Exists(filename string) (bool, error)
	// EnsureParentDirectoryExists creates parent directories if needed.
	EnsureParentDirectoryExists(filename string) error
	// Remove deletes a file.
	Remove(filename string) error
}

// Persistence manages whole-file load and save of the database. The datastore
// hands it the entire snapshot on every mutating operation; there is no
// incremental diff.
type Persistence interface {
	// Load reads and parses the datafile. A missing file yields an empty
	// snapshot, not an error.
	Load(ctx context.Context) (*Snapshot, error)
	// Save serializes and overwrites the datafile. With a debounce
	// configured the physical write may be deferred and coalesced.
	Save(ctx context.Context, snap *Snapshot) error
	// Flush performs any pending debounced write. Callers must flush
	// before relying on durability.
	Flush(ctx context.Context) error
	// Drop removes the datafile and any backup.
	Drop(ctx context.Context) error
}

// Decoder converts documents into caller-defined Go values.
type Decoder interface {
	Decode(src any, target any) error
}

// DocumentFactory converts caller values (maps or structs) into Documents.
// nil yields an empty document.
type DocumentFactory = func(any) (Document, error)

// IDGenerator creates unique IDs for inserted documents.
type IDGenerator interface {
	NewID() string
}

// Observer receives a notification after every structural mutation of the
// database. It replaces transparent property interception: mutations are
// reported explicitly, after they are applied and before the triggering call
// returns.
type Observer interface {
	Notify(ChangeEvent)
}

// ObserverFunc adapts a function to the [Observer] interface.
type ObserverFunc func(ChangeEvent)

// Notify implements [Observer].
func (f ObserverFunc) Notify(e ChangeEvent) { f(e) }
