// file: internal/core/domain/request_test.go

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		"":       OpLike,
		"like":   OpLike,
		"=":      OpEqual,
		"EQ":     OpEqual,
		"<>":     OpNotEqual,
		"!=":     OpNotEqual,
		"<":      OpLess,
		"le":     OpLessEqual,
		">":      OpGreater,
		">=":     OpGreaterEqual,
		"starts": OpStartsWith,
	}
	for in, want := range cases {
		got, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOperator("between")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Asc, ParseDirection("ASC"))
	assert.Equal(t, Asc, ParseDirection(" asc "))
	assert.Equal(t, Desc, ParseDirection("desc"))
	assert.Equal(t, Desc, ParseDirection("anything"))
}

func TestNewRequest_EmptySource(t *testing.T) {
	_, err := NewRequest("   ")
	assert.ErrorIs(t, err, ErrEmptySource)

	req, err := NewRequest(" items ")
	require.NoError(t, err)
	assert.Equal(t, "items", req.Source())
	assert.ErrorIs(t, req.SetSource(""), ErrEmptySource)
	assert.Equal(t, "items", req.Source(), "失败的 SetSource 不应修改原值")
}

func TestSetSort_EmptyFieldClears(t *testing.T) {
	req, _ := NewRequest("items")
	req.SetSort("name", Asc)
	req.SetSort("price", Desc)
	assert.Equal(t, []Sort{{"name", Asc}, {"price", Desc}}, req.Sorts())

	req.SetSort("", Asc)
	assert.Empty(t, req.Sorts())
}

func TestSetLimit_ClampsNegative(t *testing.T) {
	req, _ := NewRequest("items")
	req.SetLimit(-5, -1)
	assert.Equal(t, Window{}, req.Window())
	assert.False(t, req.Window().Bounded())

	req.SetLimit(10, 0)
	assert.True(t, req.Window().Bounded())
}

func TestRelation(t *testing.T) {
	req, _ := NewRequest("tree")
	_, ok := req.Relation()
	assert.False(t, ok)

	req.SetRelation("")
	v, ok := req.Relation()
	assert.True(t, ok, "空字符串同样是有效的关联值 (根节点)")
	assert.Equal(t, "", v)

	req.ClearRelation()
	_, ok = req.Relation()
	assert.False(t, ok)
}

func TestClone_Independent(t *testing.T) {
	req, _ := NewRequest("items")
	req.AddFilter("name", OpLike, "a")
	req.SetSort("name", Asc)

	c := req.Clone()
	c.AddFilter("price", OpEqual, 1)
	c.ClearSort()
	c.SetProjection(Projection{Kind: ProjectCount})

	assert.Len(t, req.Filters(), 1)
	assert.Len(t, req.Sorts(), 1)
	assert.Equal(t, ProjectFields, req.Projection().Kind)
}

func TestRequest_String(t *testing.T) {
	req, _ := NewRequest("items")
	req.AddFilter("name", OpEqual, "pen")
	req.SetSort("name", Desc)
	req.SetLimit(0, 20)
	assert.Equal(t, "Source:items Where:name eq pen; Start:0 Count:20 Sort:name=DESC;", req.String())
}
