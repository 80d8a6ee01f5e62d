// Package idgenerator contains the default [domain.IDGenerator]
// implementation.
package idgenerator

import (
	"github.com/google/uuid"

	"github.com/flatdb/flatdb/domain"
)

// IDGenerator implements [domain.IDGenerator] using random UUIDs.
type IDGenerator struct{}

// NewIDGenerator returns a new implementation of [domain.IDGenerator].
func NewIDGenerator() domain.IDGenerator {
	return &IDGenerator{}
}

// NewID implements [domain.IDGenerator].
func (i *IDGenerator) NewID() string {
	return uuid.NewString()
}
