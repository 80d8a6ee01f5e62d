// Package serializer contains the default [domain.Serializer] implementation,
// rendering a snapshot as one JSON object.
package serializer

import (
	"context"
	"encoding/json"

	"github.com/flatdb/flatdb/domain"
)

// Serializer implements domain.Serializer.
type Serializer struct {
	indent string
}

// Options configures a new [Serializer].
type Options struct {
	Indent string
}

// Option configures serializer behavior through the functional options
// pattern.
type Option func(*Options)

// WithIndent sets the indentation used to pretty-print the datafile. Empty
// writes compact JSON.
func WithIndent(i string) Option {
	return func(o *Options) { o.Indent = i }
}

// NewSerializer returns a new implementation of domain.Serializer.
func NewSerializer(options ...Option) domain.Serializer {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	return &Serializer{indent: opts.Indent}
}

// Serialize implements domain.Serializer. The datafile layout is a single
// JSON object whose top-level keys are collection names mapped to arrays of
// documents, plus the reserved metadata key when metadata is present.
func (s *Serializer) Serialize(ctx context.Context, snap *domain.Snapshot) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	root := make(map[string]any, len(snap.Collections)+1)
	for name, docs := range snap.Collections {
		if docs == nil {
			docs = domain.Collection{}
		}
		root[name] = docs
	}
	if len(snap.Meta) != 0 {
		root[domain.MetaKey] = snap.Meta
	}

	if s.indent != "" {
		return json.MarshalIndent(root, "", s.indent)
	}
	return json.Marshal(root)
}
