// file: cmd/gridbridge/explain_test.go

package main

import (
	"testing"

	"GridBridge/internal/conf"
	"GridBridge/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func explainConfig() *conf.Config {
	return &conf.Config{
		Bridge: conf.BridgeConfig{MaxPageSize: 100, DefaultPageSize: 50},
		Connections: []conf.ConnectionConfig{
			{Name: "main", Dialect: "postgres", DSN: "postgres://localhost/shop"},
		},
		Grids: []domain.GridDefinition{
			{Name: "items", Connection: "main", Source: "shop.items", ID: "id", Fields: "name,price"},
		},
	}
}

func TestExplain(t *testing.T) {
	stmt, err := explain(explainConfig(), "items", "filter[name]=o'k&sort=-price")
	require.NoError(t, err)
	assert.Contains(t, stmt, `FROM "shop"."items"`)
	assert.Contains(t, stmt, `"name" LIKE '%o''k%' ESCAPE '!'`)
	assert.Contains(t, stmt, `ORDER BY "price" DESC`)
	assert.Contains(t, stmt, "LIMIT 50")
}

func TestExplain_Errors(t *testing.T) {
	cfg := explainConfig()

	_, err := explain(cfg, "missing", "")
	assert.ErrorContains(t, err, "missing")

	_, err = explain(cfg, "items", "filter[nope]=1")
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = explain(cfg, "items", "count=abc")
	assert.Error(t, err)

	cfg.Grids[0].Connection = "other"
	_, err = explain(cfg, "items", "")
	assert.ErrorContains(t, err, "other")
}
