// Package bridge file: internal/adapter/bridge/tx.go
package bridge

import (
	"GridBridge/internal/core/domain"
	"context"
	"errors"
	"fmt"
)

// Begin 打开一个全局事务，之后的全部语句都在该事务内执行，直到 Commit 或 Rollback。
func (b *Bridge) Begin(ctx context.Context) error {
	if b.tx != nil {
		return errors.New("事务已打开，不能重复开启")
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return &ExecError{Op: "begin", Err: err}
	}
	b.tx = tx
	b.log.DebugContext(ctx, "[Bridge] 事务已开启", "dialect", b.dialect.Name())
	return nil
}

// Commit 提交当前事务。
func (b *Bridge) Commit() error {
	if b.tx == nil {
		return domain.ErrNoTransaction
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Commit(); err != nil {
		return &ExecError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback 回滚当前事务。
func (b *Bridge) Rollback() error {
	if b.tx == nil {
		return domain.ErrNoTransaction
	}
	tx := b.tx
	b.tx = nil
	if err := tx.Rollback(); err != nil {
		return &ExecError{Op: "rollback", Err: err}
	}
	return nil
}

// InTransaction 报告是否存在打开的事务。
func (b *Bridge) InTransaction() bool { return b.tx != nil }

// write 执行一次写操作。record 模式且没有外层事务时，每次写操作独占一个事务。
func (b *Bridge) write(ctx context.Context, fn func(executor) error) error {
	if b.txMode != domain.TxRecord || b.tx != nil {
		return fn(b.conn())
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return &ExecError{Op: "begin", Err: err}
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			b.log.ErrorContext(ctx, "[Bridge] 回滚失败", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &ExecError{Op: "commit", Err: fmt.Errorf("提交单条记录事务失败: %w", err)}
	}
	return nil
}
