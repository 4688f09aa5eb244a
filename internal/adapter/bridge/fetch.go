// Package bridge file: internal/adapter/bridge/fetch.go
package bridge

import (
	"GridBridge/internal/core/domain"
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Fetch 读取满足请求的行，键为逻辑字段名。空结果返回空切片。
func (b *Bridge) Fetch(ctx context.Context, req *domain.RequestDescriptor) ([]domain.ResultRow, error) {
	q := req.Clone()
	q.SetProjection(domain.Projection{Kind: domain.ProjectFields})
	st, err := b.prepare("select", b.selectStmt(q))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := b.conn().QueryContext(ctx, st.sql, st.args...)
	if err != nil {
		err = &ExecError{Op: st.op, Statement: st.sql, Err: err}
		b.observe(ctx, st.op, st, start, err)
		return nil, err
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		err = &ExecError{Op: st.op, Statement: st.sql, Err: err}
	}
	b.observe(ctx, st.op, st, start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count 返回满足过滤条件的总行数，排序与分页不参与计数。
func (b *Bridge) Count(ctx context.Context, req *domain.RequestDescriptor) (int64, error) {
	q := req.Clone()
	q.ClearSort()
	q.SetLimit(0, 0)
	q.SetProjection(domain.Projection{Kind: domain.ProjectCount})
	st, err := b.prepare("count", b.selectStmt(q))
	if err != nil {
		return 0, err
	}

	start := time.Now()
	var n int64
	err = b.conn().QueryRowContext(ctx, st.sql, st.args...).Scan(&n)
	if err != nil {
		err = &ExecError{Op: st.op, Statement: st.sql, Err: err}
	}
	b.observe(ctx, st.op, st, start, err)
	return n, err
}

// DistinctValues 返回字段在过滤范围内的去重取值，顺序由存储决定。
func (b *Bridge) DistinctValues(ctx context.Context, field string, req *domain.RequestDescriptor) ([]any, error) {
	q := req.Clone()
	q.ClearSort()
	q.SetLimit(0, 0)
	q.SetProjection(domain.Projection{Kind: domain.ProjectDistinct, Field: field})
	st, err := b.prepare("distinct", b.selectStmt(q))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := b.conn().QueryContext(ctx, st.sql, st.args...)
	if err != nil {
		err = &ExecError{Op: st.op, Statement: st.sql, Err: err}
		b.observe(ctx, st.op, st, start, err)
		return nil, err
	}
	defer rows.Close()

	values := make([]any, 0)
	for rows.Next() {
		var v any
		if err = rows.Scan(&v); err != nil {
			break
		}
		values = append(values, normalize(v))
	}
	if err == nil {
		err = rows.Err()
	}
	if err != nil {
		err = &ExecError{Op: st.op, Statement: st.sql, Err: err}
	}
	b.observe(ctx, st.op, st, start, err)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// scanRows 把结果集转换为逻辑字段名到值的映射。
func scanRows(rows *sql.Rows) ([]domain.ResultRow, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("读取结果列失败: %w", err)
	}
	out := make([]domain.ResultRow, 0)
	for rows.Next() {
		scanDest := make([]any, len(columns))
		scanDestPtrs := make([]any, len(columns))
		for i := range scanDest {
			scanDestPtrs[i] = &scanDest[i]
		}
		if err := rows.Scan(scanDestPtrs...); err != nil {
			return nil, fmt.Errorf("扫描行数据失败: %w", err)
		}
		row := make(domain.ResultRow, len(columns))
		for i, col := range columns {
			row[col] = normalize(scanDest[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalize 把驱动返回的 []byte 转为字符串。
func normalize(v any) any {
	if bytes, ok := v.([]byte); ok {
		return string(bytes)
	}
	return v
}
