// Package gridconfig internal/service/gridconfig/service.go
package gridconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"

	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Service 是 GridConfigService 的实现。
// 表格定义保存在系统数据库的 grid_definitions 表中，读路径由带过期时间的 LRU 缓存加速。
type Service struct {
	db       *sql.DB
	cache    *lru.LRU[string, *domain.GridDefinition]
	validate *validator.Validate
}

var _ port.GridConfigService = (*Service)(nil)

// New 创建一个新的 Service 实例。
// maxCacheEntries 与 ttl 小于等于 0 时使用默认值 (1000 条 / 5 分钟)。
func New(db *sql.DB, maxCacheEntries int, ttl time.Duration) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("gridconfig.Service 初始化失败: db 实例不能为 nil")
	}
	if maxCacheEntries <= 0 {
		maxCacheEntries = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		db:       db,
		cache:    lru.NewLRU[string, *domain.GridDefinition](maxCacheEntries, nil, ttl),
		validate: validator.New(),
	}, nil
}

// InvalidateCache 使指定表格的缓存失效。
func (s *Service) InvalidateCache(name string) {
	if name == "" {
		return
	}
	s.cache.Remove(name)
	slog.Debug("[GridConfig] 表格定义缓存已失效", "grid", name)
}

// InvalidateAll 清除所有缓存。
func (s *Service) InvalidateAll() {
	s.cache.Purge()
	slog.Info("[GridConfig] 所有表格定义缓存已清除")
}

// Get 返回表格定义的副本。不存在时返回 port.ErrGridNotFound。
func (s *Service) Get(ctx context.Context, name string) (*domain.GridDefinition, error) {
	if def, ok := s.cache.Get(name); ok {
		return cloneDefinition(def), nil
	}
	def, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, def)
	return cloneDefinition(def), nil
}

// List 按名称顺序返回全部表格定义。
func (s *Service) List(ctx context.Context) ([]*domain.GridDefinition, error) {
	rows, err := s.db.QueryContext(ctx, selectDefinitions+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("查询表格定义列表失败: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("[GridConfig] 关闭结果集失败", "error", err)
		}
	}()

	defs := make([]*domain.GridDefinition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历表格定义失败: %w", err)
	}
	return defs, nil
}

// Upsert 校验并保存表格定义，已存在时整体覆盖。
func (s *Service) Upsert(ctx context.Context, def *domain.GridDefinition) error {
	if err := s.check(def); err != nil {
		return err
	}
	if err := upsert(ctx, s.db, def); err != nil {
		return err
	}
	s.InvalidateCache(def.Name)
	slog.Info("[GridConfig] 表格定义已保存", "grid", def.Name, "connection", def.Connection, "source", def.Source)
	return nil
}

// Delete 删除表格定义。不存在时返回 port.ErrGridNotFound。
func (s *Service) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM grid_definitions WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("删除表格定义 '%s' 失败: %w", name, err)
	}
	s.InvalidateCache(name)
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", port.ErrGridNotFound, name)
	}
	slog.Info("[GridConfig] 表格定义已删除", "grid", name)
	return nil
}

// SeedFromConfig 在一个事务内把配置文件中的表格定义写入系统库。
// 已存在的同名定义被覆盖，配置文件中没有的定义保持不变。
func (s *Service) SeedFromConfig(ctx context.Context, defs []domain.GridDefinition) error {
	for i := range defs {
		if err := s.check(&defs[i]); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range defs {
		if err := upsert(ctx, tx, &defs[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交表格定义失败: %w", err)
	}
	s.InvalidateAll()
	slog.Info("[GridConfig] 已从配置文件同步表格定义", "count", len(defs))
	return nil
}

// check 校验结构体标签、字段语法与事务模式。
func (s *Service) check(def *domain.GridDefinition) error {
	if def == nil {
		return errors.New("表格定义不能为空")
	}
	if err := s.validate.Struct(def); err != nil {
		return err
	}
	if _, err := def.FieldMap(); err != nil {
		return err
	}
	if _, err := domain.ParseTransactionMode(def.Transaction); err != nil {
		return fmt.Errorf("表格 '%s': %w", def.Name, err)
	}
	return nil
}

func cloneDefinition(def *domain.GridDefinition) *domain.GridDefinition {
	c := *def
	if def.Templates != nil {
		c.Templates = make(map[string]string, len(def.Templates))
		for k, v := range def.Templates {
			c.Templates[k] = v
		}
	}
	return &c
}
