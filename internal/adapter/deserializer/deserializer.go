// Package deserializer contains the default [domain.Deserializer]
// implementation, parsing the JSON datafile back into a snapshot.
package deserializer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flatdb/flatdb/domain"
)

// Deserializer implements domain.Deserializer.
type Deserializer struct{}

// NewDeserializer returns a new implementation of domain.Deserializer.
func NewDeserializer() domain.Deserializer {
	return &Deserializer{}
}

// Deserialize implements domain.Deserializer. Top-level arrays become
// collections. The reserved metadata key is routed into Snapshot.Meta and is
// never enumerated as a collection. Other non-array top-level values are
// ignored so future bookkeeping keys don't break older readers.
func (d *Deserializer) Deserialize(ctx context.Context, b []byte) (*domain.Snapshot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	snap := domain.NewSnapshot()
	if len(b) == 0 {
		return snap, nil
	}

	var root map[string]any
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, err
	}

	for key, value := range root {
		if key == domain.MetaKey {
			meta, ok := value.(domain.Document)
			if !ok {
				return nil, fmt.Errorf("reserved key %s holds a %T, expected an object", domain.MetaKey, value)
			}
			snap.Meta = meta
			continue
		}
		arr, ok := value.([]any)
		if !ok {
			continue
		}
		coll := make(domain.Collection, 0, len(arr))
		for n, item := range arr {
			doc, ok := item.(domain.Document)
			if !ok {
				return nil, fmt.Errorf("collection %q element %d is a %T, expected an object", key, n, item)
			}
			coll = append(coll, doc)
		}
		snap.Collections[key] = coll
	}
	return snap, nil
}
