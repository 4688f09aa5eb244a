// file: internal/transport/http/router/descriptor_test.go
package router

import (
	"net/url"
	"testing"

	"GridBridge/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	q, err := url.ParseQuery("posStart=20&count=10&filter[name]=pen&filter[cost]=3&op[cost]=ge&filter[]=x&sort=-cost,+name&dhx_sort[id]=des&parent=7")
	require.NoError(t, err)

	req, err := Describe("items", q)
	require.NoError(t, err)
	assert.Equal(t, domain.Window{Offset: 20, Limit: 10}, req.Window())
	assert.Equal(t, []domain.Filter{
		{Field: "cost", Op: domain.OpGreaterEqual, Value: "3"},
		{Field: "name", Op: domain.OpLike, Value: "pen"},
	}, req.Filters())
	assert.Equal(t, []domain.Sort{
		{Field: "cost", Direction: domain.Desc},
		{Field: "name", Direction: domain.Asc},
		{Field: "id", Direction: domain.Desc},
	}, req.Sorts())
	rel, ok := req.Relation()
	assert.True(t, ok)
	assert.Equal(t, "7", rel)
}

func TestDescribe_Defaults(t *testing.T) {
	req, err := Describe("items", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.Window{}, req.Window())
	assert.Empty(t, req.Filters())
	assert.Empty(t, req.Sorts())
	_, ok := req.Relation()
	assert.False(t, ok)
}

func TestDescribe_Invalid(t *testing.T) {
	_, err := Describe("items", url.Values{"count": {"ten"}})
	assert.ErrorIs(t, err, errBadQuery)

	_, err = Describe("items", url.Values{"posStart": {"-1"}})
	assert.ErrorIs(t, err, errBadQuery)

	_, err = Describe("items", url.Values{"filter[a]": {"1"}, "op[a]": {"~="}})
	assert.ErrorIs(t, err, domain.ErrUnknownOperator)
}
