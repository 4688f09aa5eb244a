// Package port file: internal/core/port/bridge.go
package port

import (
	"GridBridge/internal/core/domain"
	"context"
	"errors"
)

// Standard errors
var (
	ErrPermissionDenied   = errors.New("权限不足，操作被拒绝")
	ErrGridNotFound       = errors.New("指定的表格数据集未找到")
	ErrConnectionNotFound = errors.New("指定的数据库连接未找到")
	ErrUnknownDialect     = errors.New("未知的 SQL 方言")
)

// StorageBridge 把请求描述与字段映射翻译成存储操作，并把结果映射回逻辑字段名。
type StorageBridge interface {
	// Fetch 按过滤、排序、分页读取数据，空结果不是错误
	Fetch(ctx context.Context, req *domain.RequestDescriptor) ([]domain.ResultRow, error)

	// Insert 写入一条记录并返回新分配的标识
	Insert(ctx context.Context, req *domain.RequestDescriptor, values map[string]any) (any, error)

	// Update 更新标识对应且满足请求级过滤的记录，返回受影响行数
	Update(ctx context.Context, req *domain.RequestDescriptor, id any, values map[string]any) (int64, error)

	// Remove 删除标识对应且满足请求级过滤的记录，返回受影响行数
	Remove(ctx context.Context, req *domain.RequestDescriptor, id any) (int64, error)

	// Count 返回满足过滤条件的总行数
	Count(ctx context.Context, req *domain.RequestDescriptor) (int64, error)

	// DistinctValues 返回字段在过滤范围内的去重取值
	DistinctValues(ctx context.Context, field string, req *domain.RequestDescriptor) ([]any, error)
}

// Dialect 是按数据库厂商实现的 SQL 格式化策略。
type Dialect interface {
	// Name 方言名称, e.g. "postgres"
	Name() string

	// DriverName database/sql 驱动名
	DriverName() string

	// Quote 引用单个标识符
	Quote(ident string) string

	// Placeholder 第 n 个绑定参数的占位符 (从 1 开始)
	Placeholder(n int) string

	// Paginate 生成分页子句；ordered 表示语句已有 ORDER BY
	Paginate(offset, limit int, ordered bool) string

	// Escape 转义字符串字面量内容 (不含外层引号)
	Escape(value string) string

	// Insert 组装 INSERT 语句；returnsID 为 true 时语句本身返回新 ID
	Insert(table string, columns, values []string, idColumn string) (stmt string, returnsID bool)
}
