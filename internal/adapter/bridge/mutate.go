// Package bridge file: internal/adapter/bridge/mutate.go
package bridge

import (
	"GridBridge/internal/core/domain"
	"context"
	"database/sql"
	"time"
)

// Insert 写入一条记录并返回新标识。
// 方言支持时从语句本身取回标识 (RETURNING / OUTPUT)，否则使用驱动的 LastInsertId。
func (b *Bridge) Insert(ctx context.Context, req *domain.RequestDescriptor, values map[string]any) (any, error) {
	var returnsID bool
	build := b.insertStmt(req, values, &returnsID)
	if tmpl, ok := b.template("insert"); ok {
		build = b.templateStmt(tmpl, nil, values)
	}
	st, err := b.prepare("insert", build)
	if err != nil {
		return nil, err
	}

	var newID any
	err = b.write(ctx, func(ex executor) error {
		start := time.Now()
		var execErr error
		if returnsID {
			execErr = ex.QueryRowContext(ctx, st.sql, st.args...).Scan(&newID)
			newID = normalize(newID)
		} else {
			var res sql.Result
			res, execErr = ex.ExecContext(ctx, st.sql, st.args...)
			if execErr == nil {
				if id, idErr := res.LastInsertId(); idErr == nil {
					newID = id
				} else {
					b.log.DebugContext(ctx, "[Bridge] 驱动未返回新记录标识", "dialect", b.dialect.Name(), "error", idErr)
				}
			}
		}
		if execErr != nil {
			execErr = &ExecError{Op: st.op, Statement: st.sql, Err: execErr}
		}
		b.observe(ctx, st.op, st, start, execErr)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return newID, nil
}

// Update 只更新提交值中出现的可写字段，返回受影响行数。
func (b *Bridge) Update(ctx context.Context, req *domain.RequestDescriptor, id any, values map[string]any) (int64, error) {
	build := b.updateStmt(req, id, values)
	if tmpl, ok := b.template("update"); ok {
		build = b.templateStmt(tmpl, id, values)
	}
	st, err := b.prepare("update", build)
	if err != nil {
		return 0, err
	}
	return b.exec(ctx, st)
}

// Remove 删除标识对应的记录，返回受影响行数。
func (b *Bridge) Remove(ctx context.Context, req *domain.RequestDescriptor, id any) (int64, error) {
	build := b.deleteStmt(req, id)
	if tmpl, ok := b.template("delete"); ok {
		build = b.templateStmt(tmpl, id, nil)
	}
	st, err := b.prepare("delete", build)
	if err != nil {
		return 0, err
	}
	return b.exec(ctx, st)
}

func (b *Bridge) exec(ctx context.Context, st *statement) (int64, error) {
	var affected int64
	err := b.write(ctx, func(ex executor) error {
		start := time.Now()
		res, execErr := ex.ExecContext(ctx, st.sql, st.args...)
		if execErr == nil {
			affected, _ = res.RowsAffected()
		} else {
			execErr = &ExecError{Op: st.op, Statement: st.sql, Err: execErr}
		}
		b.observe(ctx, st.op, st, start, execErr)
		return execErr
	})
	return affected, err
}
