package fieldpath

import (
	"testing"

	"github.com/flatdb/flatdb/domain"
	"github.com/stretchr/testify/suite"
)

type M = domain.Document

type A = []any

type FieldNavigatorTestSuite struct {
	suite.Suite
	nav domain.FieldNavigator
}

func (s *FieldNavigatorTestSuite) SetupTest() {
	s.nav = NewFieldNavigator()
}

// Top-level fields resolve directly.
func (s *FieldNavigatorTestSuite) TestTopLevelField() {
	v, ok := s.nav.Resolve(M{"a": 5}, "a")
	s.True(ok)
	s.Equal(5, v)
	_, ok = s.nav.Resolve(M{"a": 5}, "b")
	s.False(ok)
}

// A field holding null is present with a nil value.
func (s *FieldNavigatorTestSuite) TestNullField() {
	v, ok := s.nav.Resolve(M{"a": nil}, "a")
	s.True(ok)
	s.Nil(v)
}

// Dots descend into nested documents.
func (s *FieldNavigatorTestSuite) TestNestedDocuments() {
	doc := M{"a": M{"b": M{"c": "deep"}}}
	v, ok := s.nav.Resolve(doc, "a.b.c")
	s.True(ok)
	s.Equal("deep", v)
	v, ok = s.nav.Resolve(doc, "a.b")
	s.True(ok)
	s.Equal(M{"c": "deep"}, v)
	_, ok = s.nav.Resolve(doc, "a.x.c")
	s.False(ok)
}

// Numeric segments index into sequences.
func (s *FieldNavigatorTestSuite) TestArrayIndexing() {
	doc := M{"tags": A{"node", "embedded", M{"name": "database"}}}
	v, ok := s.nav.Resolve(doc, "tags.1")
	s.True(ok)
	s.Equal("embedded", v)
	v, ok = s.nav.Resolve(doc, "tags.2.name")
	s.True(ok)
	s.Equal("database", v)
}

// Out-of-range and non-numeric indexes make the path absent.
func (s *FieldNavigatorTestSuite) TestBadArrayIndexes() {
	doc := M{"tags": A{"node"}}
	_, ok := s.nav.Resolve(doc, "tags.1")
	s.False(ok)
	_, ok = s.nav.Resolve(doc, "tags.-1")
	s.False(ok)
	_, ok = s.nav.Resolve(doc, "tags.x")
	s.False(ok)
}

// Paths through primitives are absent, not errors.
func (s *FieldNavigatorTestSuite) TestPathThroughPrimitive() {
	_, ok := s.nav.Resolve(M{"a": 5}, "a.b")
	s.False(ok)
	_, ok = s.nav.Resolve(M{"a": "str"}, "a.0")
	s.False(ok)
}

func TestFieldNavigatorTestSuite(t *testing.T) {
	suite.Run(t, new(FieldNavigatorTestSuite))
}
