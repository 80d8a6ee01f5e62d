package data

import (
	"testing"
	"time"

	"github.com/flatdb/flatdb/domain"
	"github.com/stretchr/testify/suite"
)

type M = domain.Document

type A = []any

type DataTestSuite struct {
	suite.Suite
}

// nil yields an empty document.
func (s *DataTestSuite) TestNil() {
	doc, err := NewDocument(nil)
	s.NoError(err)
	s.Equal(M{}, doc)
}

// Documents pass through with their nested values normalized.
func (s *DataTestSuite) TestDocumentPassThrough() {
	doc, err := NewDocument(M{"a": 1, "b": M{"c": A{"x"}}})
	s.NoError(err)
	s.Equal(M{"a": 1, "b": M{"c": A{"x"}}}, doc)
}

// Plain maps with string keys convert, typed values included.
func (s *DataTestSuite) TestTypedMap() {
	doc, err := NewDocument(map[string]int{"a": 1, "b": 2})
	s.NoError(err)
	s.Equal(M{"a": 1, "b": 2}, doc)
}

// Maps with non-string keys are rejected.
func (s *DataTestSuite) TestNonStringKeyMap() {
	_, err := NewDocument(map[int]string{1: "a"})
	s.Error(err)
}

// Struct fields convert by name, honoring the struct tag.
func (s *DataTestSuite) TestStruct() {
	type address struct {
		City string `flatdb:"city"`
	}
	type user struct {
		Name    string `flatdb:"name"`
		Age     int
		Tags    []string `flatdb:"tags"`
		Address address  `flatdb:"address"`
	}

	doc, err := NewDocument(user{
		Name:    "ana",
		Age:     30,
		Tags:    []string{"a", "b"},
		Address: address{City: "porto"},
	})
	s.NoError(err)
	s.Equal(M{
		"name":    "ana",
		"Age":     30,
		"tags":    A{"a", "b"},
		"address": M{"city": "porto"},
	}, doc)
}

// A "-" tag skips the field entirely.
func (s *DataTestSuite) TestSkippedField() {
	type user struct {
		Name   string `flatdb:"name"`
		Secret string `flatdb:"-"`
	}
	doc, err := NewDocument(user{Name: "ana", Secret: "hunter2"})
	s.NoError(err)
	s.Equal(M{"name": "ana"}, doc)
}

// omitempty drops nil values, omitzero drops uninitialized ones.
func (s *DataTestSuite) TestOmitEmptyAndZero() {
	type user struct {
		Name  string   `flatdb:"name,omitzero"`
		Tags  []string `flatdb:"tags,omitempty"`
		Age   int      `flatdb:"age"`
		Notes *string  `flatdb:"notes,omitempty"`
	}
	doc, err := NewDocument(user{})
	s.NoError(err)
	s.Equal(M{"age": 0}, doc)

	note := "hey"
	doc, err = NewDocument(user{Name: "ana", Tags: []string{}, Notes: &note})
	s.NoError(err)
	s.Equal(M{"name": "ana", "tags": A{}, "age": 0, "notes": "hey"}, doc)
}

// Pointers are followed and nil pointers become empty documents.
func (s *DataTestSuite) TestPointers() {
	type user struct {
		Name string `flatdb:"name"`
	}
	doc, err := NewDocument(&user{Name: "ana"})
	s.NoError(err)
	s.Equal(M{"name": "ana"}, doc)

	doc, err = NewDocument((*user)(nil))
	s.NoError(err)
	s.Equal(M{}, doc)
}

// Times survive conversion untouched.
func (s *DataTestSuite) TestTimePreserved() {
	now := time.Now()
	doc, err := NewDocument(M{"at": now})
	s.NoError(err)
	s.Equal(now, doc["at"])

	type stamp struct {
		At time.Time `flatdb:"at"`
	}
	doc, err = NewDocument(stamp{At: now})
	s.NoError(err)
	s.Equal(now, doc["at"])
}

// Scalars and non-struct values are rejected at the top level.
func (s *DataTestSuite) TestRejectedInputs() {
	for _, in := range []any{5, "str", true, []string{"a"}} {
		_, err := NewDocument(in)
		s.Error(err)
	}
}

// Unsupported nested kinds are rejected.
func (s *DataTestSuite) TestUnsupportedNestedKind() {
	_, err := NewDocument(M{"ch": make(chan int)})
	s.Error(err)
}

func TestDataTestSuite(t *testing.T) {
	suite.Run(t, new(DataTestSuite))
}
