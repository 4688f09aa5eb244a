// file: internal/adapter/dialect/dialect_test.go
package dialect

import (
	"GridBridge/internal/core/port"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for alias, want := range map[string]string{
		"sqlite":     "sqlite",
		"SQLite3":    "sqlite",
		"mysql":      "mysql",
		"mariadb":    "mysql",
		"pgsql":      "postgres",
		"postgresql": "postgres",
		"sqlserver":  "mssql",
	} {
		d, err := Lookup(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, d.Name(), alias)
	}

	_, err := Lookup("oracle")
	assert.ErrorIs(t, err, port.ErrUnknownDialect)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "postgres", "sqlite"}, Names())
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		d             port.Dialect
		offset, limit int
		ordered       bool
		want          string
	}{
		{SQLite{}, 0, 0, false, ""},
		{SQLite{}, 20, 10, false, "LIMIT 10 OFFSET 20"},
		{SQLite{}, 5, 0, false, "LIMIT -1 OFFSET 5"},
		{MySQL{}, 20, 10, false, "LIMIT 20, 10"},
		{MySQL{}, 5, 0, false, "LIMIT 5, 18446744073709551615"},
		{Postgres{}, 20, 10, false, "OFFSET 20 LIMIT 10"},
		{Postgres{}, 5, 0, true, "OFFSET 5"},
		{MSSQL{}, 20, 10, true, "OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY"},
		{MSSQL{}, 0, 10, false, "ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY"},
		{MSSQL{}, 0, 0, false, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.d.Paginate(c.offset, c.limit, c.ordered), "%s %d/%d", c.d.Name(), c.offset, c.limit)
	}
}

func TestQuoteAndPlaceholder(t *testing.T) {
	assert.Equal(t, `"we""ird"`, SQLite{}.Quote(`we"ird`))
	assert.Equal(t, "`a``b`", MySQL{}.Quote("a`b"))
	assert.Equal(t, "[a]]b]", MSSQL{}.Quote("a]b"))

	assert.Equal(t, "?", SQLite{}.Placeholder(3))
	assert.Equal(t, "?", MySQL{}.Placeholder(3))
	assert.Equal(t, "$3", Postgres{}.Placeholder(3))
	assert.Equal(t, "@p3", MSSQL{}.Placeholder(3))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "O''Brien", SQLite{}.Escape("O'Brien"))
	assert.Equal(t, "O''Brien", Postgres{}.Escape("O'Brien"))
	assert.Equal(t, `O\'Brien \\ \n`, MySQL{}.Escape("O'Brien \\ \n"))
}

func TestInsert(t *testing.T) {
	cols := []string{`"name"`, `"price"`}
	vals := []string{"$1", "$2"}

	stmt, returns := Postgres{}.Insert(`"items"`, cols, vals, `"id"`)
	assert.True(t, returns)
	assert.Equal(t, `INSERT INTO "items" ("name", "price") VALUES ($1, $2) RETURNING "id"`, stmt)

	stmt, returns = MSSQL{}.Insert("[items]", []string{"[name]"}, []string{"@p1"}, "[id]")
	assert.True(t, returns)
	assert.Equal(t, "INSERT INTO [items] ([name]) OUTPUT INSERTED.[id] VALUES (@p1)", stmt)

	stmt, returns = SQLite{}.Insert(`"items"`, cols, []string{"?", "?"}, `"id"`)
	assert.False(t, returns)
	assert.Equal(t, `INSERT INTO "items" ("name", "price") VALUES (?, ?)`, stmt)
}
