// Package domain file: internal/core/domain/errors.go
package domain

import "errors"

// 数据模型层的标准错误
var (
	ErrEmptySource            = errors.New("数据源名称不能为空")
	ErrEmptyFieldName         = errors.New("字段名不能为空")
	ErrDuplicateField         = errors.New("字段已注册")
	ErrUnknownField           = errors.New("未注册的字段")
	ErrUnknownOperator        = errors.New("不支持的过滤操作符")
	ErrExecFailed             = errors.New("SQL 执行失败")
	ErrInvalidTransactionMode = errors.New("未知的事务模式")
	ErrNoTransaction          = errors.New("当前没有打开的事务")
	ErrNoValues               = errors.New("写操作没有任何可写字段")
)
