package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by single-result lookups when no document matches
// the given query.
var ErrNotFound = errors.New("no matching document")

// ErrTargetNil is returned when the target to decode results into is nil.
var ErrTargetNil = errors.New("target interface is nil")

// ErrMissingField is returned when a chain operator method is invoked before
// any field was selected with Where, And or Or. The failing call is rejected
// and accumulated chain state is left untouched.
type ErrMissingField struct {
	Op string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("chain operator %s called with no field selected", e.Op)
}

// ErrPattern is returned when a $regex operand cannot be compiled. The
// matcher treats the failing predicate as a non-match instead of aborting the
// whole filter pass.
type ErrPattern struct {
	Expr string
	Err  error
}

func (e *ErrPattern) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Expr, e.Err)
}

func (e *ErrPattern) Unwrap() error { return e.Err }

// ErrPersistence wraps a load or save failure of the persistence layer. It is
// propagated to the caller of Load, Flush or any auto-saving mutation, never
// swallowed and never retried.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error { return e.Err }

// ErrDatafileName is returned when the configured datafile name ends with a
// ~, which is reserved for backup files.
type ErrDatafileName struct {
	Filename string
}

func (e *ErrDatafileName) Error() string {
	return fmt.Sprintf("the datafile name %q can't end with a ~, which is reserved for backup files", e.Filename)
}
