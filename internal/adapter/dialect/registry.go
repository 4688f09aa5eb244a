// Package dialect 提供按数据库厂商划分的 SQL 格式化策略 (分页、引用、占位符、标识回取)。
// file: internal/adapter/dialect/registry.go
package dialect

import (
	"GridBridge/internal/core/port"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]port.Dialect)
)

func init() {
	Register(SQLite{}, "sqlite3")
	Register(MySQL{}, "mariadb")
	Register(Postgres{}, "postgresql", "pgsql", "pgx")
	Register(MSSQL{}, "sqlserver")
}

// Register 以方言名称及别名注册一个方言，重复注册会覆盖。
func Register(d port.Dialect, aliases ...string) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(d.Name())] = d
	for _, alias := range aliases {
		registry[strings.ToLower(alias)] = d
	}
}

// Lookup 按名称或别名查找方言。
func Lookup(name string) (port.Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", port.ErrUnknownDialect, name)
	}
	return d, nil
}

// Names 返回已注册的方言名 (不含别名)，按字母序。
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	seen := make(map[string]struct{})
	for _, d := range registry {
		seen[d.Name()] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// QuoteQualified 引用可能带 schema 前缀的表名，"schema.table" 按段分别引用。
func QuoteQualified(d port.Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}

// quoteWith 用 open/close 包裹标识符，并把内部的 close 字符加倍。
func quoteWith(ident, open, close string) string {
	return open + strings.ReplaceAll(ident, close, close+close) + close
}

// doubleQuotes 是 ANSI SQL 的字面量转义：单引号加倍。
func doubleQuotes(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func insertStmt(table string, columns, values []string, between, suffix string) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(")")
	if between != "" {
		sb.WriteString(" ")
		sb.WriteString(between)
	}
	sb.WriteString(" VALUES (")
	sb.WriteString(strings.Join(values, ", "))
	sb.WriteString(")")
	if suffix != "" {
		sb.WriteString(" ")
		sb.WriteString(suffix)
	}
	return sb.String()
}
