// file: internal/adapter/dialect/mssql.go
package dialect

import (
	"strconv"

	_ "github.com/microsoft/go-mssqldb"
)

// MSSQL 对应 github.com/microsoft/go-mssqldb 驱动 (sqlserver)。
type MSSQL struct{}

func (MSSQL) Name() string               { return "mssql" }
func (MSSQL) DriverName() string         { return "sqlserver" }
func (MSSQL) Quote(ident string) string  { return quoteWith(ident, "[", "]") }
func (MSSQL) Placeholder(n int) string   { return "@p" + strconv.Itoa(n) }
func (MSSQL) Escape(value string) string { return doubleQuotes(value) }

// Paginate 生成 OFFSET ... FETCH；SQL Server 要求此时必须有 ORDER BY。
func (MSSQL) Paginate(offset, limit int, ordered bool) string {
	if offset <= 0 && limit <= 0 {
		return ""
	}
	clause := "OFFSET " + strconv.Itoa(offset) + " ROWS"
	if limit > 0 {
		clause += " FETCH NEXT " + strconv.Itoa(limit) + " ROWS ONLY"
	}
	if !ordered {
		clause = "ORDER BY (SELECT NULL) " + clause
	}
	return clause
}

func (MSSQL) Insert(table string, columns, values []string, idColumn string) (string, bool) {
	if idColumn == "" {
		return insertStmt(table, columns, values, "", ""), false
	}
	return insertStmt(table, columns, values, "OUTPUT INSERTED."+idColumn, ""), true
}
