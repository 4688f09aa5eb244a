// file: internal/adapter/dialect/sqlite.go
package dialect

import (
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLite 对应 modernc.org/sqlite 驱动。
type SQLite struct{}

func (SQLite) Name() string              { return "sqlite" }
func (SQLite) DriverName() string        { return "sqlite" }
func (SQLite) Quote(ident string) string { return quoteWith(ident, `"`, `"`) }
func (SQLite) Placeholder(int) string    { return "?" }
func (SQLite) Escape(value string) string {
	return doubleQuotes(value)
}

// Paginate 在只有偏移量时使用 LIMIT -1 表示不限条数。
func (SQLite) Paginate(offset, limit int, _ bool) string {
	switch {
	case limit > 0:
		return "LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case offset > 0:
		return "LIMIT -1 OFFSET " + strconv.Itoa(offset)
	}
	return ""
}

func (SQLite) Insert(table string, columns, values []string, _ string) (string, bool) {
	return insertStmt(table, columns, values, "", ""), false
}
