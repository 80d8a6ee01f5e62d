package decoder

import (
	"testing"

	"github.com/flatdb/flatdb/domain"
	"github.com/stretchr/testify/suite"
)

type M = domain.Document

type DecoderTestSuite struct {
	suite.Suite
	d domain.Decoder
}

func (s *DecoderTestSuite) SetupTest() {
	s.d = NewDecoder()
}

// Documents decode into tagged structs.
func (s *DecoderTestSuite) TestDecodeStruct() {
	type user struct {
		Name string `flatdb:"name"`
		Age  int    `flatdb:"age"`
	}
	var u user
	s.NoError(s.d.Decode(M{"name": "ana", "age": 30}, &u))
	s.Equal(user{Name: "ana", Age: 30}, u)
}

// Numeric types are converted weakly, matching JSON round trips.
func (s *DecoderTestSuite) TestWeakTyping() {
	type row struct {
		N int `flatdb:"n"`
	}
	var r row
	s.NoError(s.d.Decode(M{"n": 30.0}, &r))
	s.Equal(30, r.N)
}

// Nested documents fill nested structs.
func (s *DecoderTestSuite) TestNested() {
	type address struct {
		City string `flatdb:"city"`
	}
	type user struct {
		Address address `flatdb:"address"`
	}
	var u user
	s.NoError(s.d.Decode(M{"address": M{"city": "porto"}}, &u))
	s.Equal("porto", u.Address.City)
}

// Documents decode into plain maps too.
func (s *DecoderTestSuite) TestDecodeMap() {
	var m map[string]any
	s.NoError(s.d.Decode(M{"a": 1}, &m))
	s.Equal(map[string]any{"a": 1}, m)
}

// A nil target is rejected up front.
func (s *DecoderTestSuite) TestNilTarget() {
	s.ErrorIs(s.d.Decode(M{"a": 1}, nil), domain.ErrTargetNil)
}

func TestDecoderTestSuite(t *testing.T) {
	suite.Run(t, new(DecoderTestSuite))
}
