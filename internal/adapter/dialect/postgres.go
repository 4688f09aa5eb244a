// file: internal/adapter/dialect/postgres.go
package dialect

import (
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres 通过 pgx 的 database/sql 适配层访问 PostgreSQL。
type Postgres struct{}

func (Postgres) Name() string               { return "postgres" }
func (Postgres) DriverName() string         { return "pgx" }
func (Postgres) Quote(ident string) string  { return quoteWith(ident, `"`, `"`) }
func (Postgres) Placeholder(n int) string   { return "$" + strconv.Itoa(n) }
func (Postgres) Escape(value string) string { return doubleQuotes(value) }

func (Postgres) Paginate(offset, limit int, _ bool) string {
	switch {
	case limit > 0:
		return "OFFSET " + strconv.Itoa(offset) + " LIMIT " + strconv.Itoa(limit)
	case offset > 0:
		return "OFFSET " + strconv.Itoa(offset)
	}
	return ""
}

// Insert 使用 RETURNING 取回新 ID；pgx 不支持 LastInsertId。
func (Postgres) Insert(table string, columns, values []string, idColumn string) (string, bool) {
	if idColumn == "" {
		return insertStmt(table, columns, values, "", ""), false
	}
	return insertStmt(table, columns, values, "", "RETURNING "+idColumn), true
}
