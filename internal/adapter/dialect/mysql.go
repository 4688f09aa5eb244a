// file: internal/adapter/dialect/mysql.go
package dialect

import (
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// mysqlMaxRows 是 MySQL 文档推荐的 "无上限" 行数写法。
const mysqlMaxRows = "18446744073709551615"

var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	`"`, `\"`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// MySQL 对应 github.com/go-sql-driver/mysql 驱动。
type MySQL struct{}

func (MySQL) Name() string              { return "mysql" }
func (MySQL) DriverName() string        { return "mysql" }
func (MySQL) Quote(ident string) string { return quoteWith(ident, "`", "`") }
func (MySQL) Placeholder(int) string    { return "?" }

// Escape 与 mysql_real_escape_string 的替换集合一致。
func (MySQL) Escape(value string) string { return mysqlEscaper.Replace(value) }

func (MySQL) Paginate(offset, limit int, _ bool) string {
	switch {
	case limit > 0:
		return "LIMIT " + strconv.Itoa(offset) + ", " + strconv.Itoa(limit)
	case offset > 0:
		return "LIMIT " + strconv.Itoa(offset) + ", " + mysqlMaxRows
	}
	return ""
}

func (MySQL) Insert(table string, columns, values []string, _ string) (string, bool) {
	return insertStmt(table, columns, values, "", ""), false
}
