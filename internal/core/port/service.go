// Package port file: internal/core/port/service.go
package port

import (
	"GridBridge/internal/core/domain"
	"context"
	"database/sql"
)

// GridConfigService 定义了获取和修改表格数据集定义的能力。
type GridConfigService interface {
	Get(ctx context.Context, name string) (*domain.GridDefinition, error)
	List(ctx context.Context) ([]*domain.GridDefinition, error)
	Upsert(ctx context.Context, def *domain.GridDefinition) error
	Delete(ctx context.Context, name string) error

	InvalidateCache(name string)
	InvalidateAll()
}

// ConnectionProvider 按名称提供业务数据库连接及其方言。
type ConnectionProvider interface {
	Conn(name string) (*sql.DB, Dialect, error)
	Columns(ctx context.Context, name, table string) ([]string, error)
}
