// Package bridge file: internal/adapter/bridge/explain.go
package bridge

import (
	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"
	"fmt"
	"strconv"
	"time"
)

// literal 把绑定值渲染为 SQL 字面量，仅用于日志与调试输出，不参与执行。
func literal(d port.Dialect, v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return fmt.Sprint(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case []byte:
		return "'" + d.Escape(string(x)) + "'"
	case time.Time:
		return "'" + x.Format(time.RFC3339Nano) + "'"
	case string:
		return "'" + d.Escape(x) + "'"
	}
	return "'" + d.Escape(fmt.Sprint(v)) + "'"
}

// explain 以字面量形式重建语句文本。
func (b *Bridge) explain(st *statement) string {
	if st == nil || st.build == nil {
		return ""
	}
	query, err := st.build(&binder{dialect: b.dialect, inline: true})
	if err != nil {
		return st.sql
	}
	return query
}

// Explain 返回读取语句的字面量形式，供日志与命令行调试使用。
func (b *Bridge) Explain(req *domain.RequestDescriptor) (string, error) {
	st, err := b.prepare("explain", b.selectStmt(req))
	if err != nil {
		return "", err
	}
	return b.explain(st), nil
}

// Statement 返回读取语句及其绑定参数。
func (b *Bridge) Statement(req *domain.RequestDescriptor) (string, []any, error) {
	st, err := b.prepare("select", b.selectStmt(req))
	if err != nil {
		return "", nil, err
	}
	return st.sql, st.args, nil
}
