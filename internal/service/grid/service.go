// Package grid 负责单个表格请求的编排：解析表格定义、取得连接与字段映射、构建存储桥并执行。
// file: internal/service/grid/service.go
package grid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"GridBridge/internal/adapter/bridge"
	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"

	"golang.org/x/sync/errgroup"
)

// Options 是分页相关的限制。
type Options struct {
	MaxPageSize     int
	DefaultPageSize int
}

// Service 每次调用都创建新的 Bridge，可以被多个请求并发使用。
// 分页限制可以在运行中通过 SetOptions 替换。
type Service struct {
	configs port.GridConfigService
	conns   port.ConnectionProvider
	opts    atomic.Pointer[Options]
}

// Page 是一页数据及满足过滤条件的总行数。
type Page struct {
	Rows  []domain.ResultRow `json:"data"`
	Total int64              `json:"total"`
	Pos   int                `json:"pos"`
}

func New(configs port.GridConfigService, conns port.ConnectionProvider, opts Options) *Service {
	s := &Service{configs: configs, conns: conns}
	s.SetOptions(opts)
	return s
}

// SetOptions 替换分页限制，对之后开始的调用生效。
func (s *Service) SetOptions(opts Options) {
	s.opts.Store(&opts)
}

// Options 返回当前生效的分页限制。
func (s *Service) Options() Options { return *s.opts.Load() }

// target 是一次调用解析出的全部上下文。
type target struct {
	def    *domain.GridDefinition
	db     *sql.DB
	dia    port.Dialect
	fields *domain.FieldMap
	mode   domain.TransactionMode
}

func (s *Service) resolve(ctx context.Context, grid string) (*target, error) {
	def, err := s.configs.Get(ctx, grid)
	if err != nil {
		return nil, err
	}
	fields, err := def.FieldMap()
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseTransactionMode(def.Transaction)
	if err != nil {
		return nil, err
	}
	db, dia, err := s.conns.Conn(def.Connection)
	if err != nil {
		return nil, fmt.Errorf("表格 '%s': %w", grid, err)
	}
	return &target{def: def, db: db, dia: dia, fields: fields, mode: mode}, nil
}

// bridge 为目标构建新的 Bridge 并挂载语句模板。
func (s *Service) bridge(t *target) (*bridge.Bridge, error) {
	b := bridge.New(t.db, t.dia, t.fields,
		bridge.WithMaxLimit(s.Options().MaxPageSize),
		bridge.WithTransactionMode(t.mode),
		bridge.WithSequence(t.def.Sequence),
		bridge.WithLogger(slog.Default().With("grid", t.def.Name)),
	)
	for op, tmpl := range t.def.Templates {
		if err := b.Attach(op, tmpl); err != nil {
			return nil, fmt.Errorf("表格 '%s' 的 %s 模板无效: %w", t.def.Name, op, err)
		}
	}
	return b, nil
}

// scope 复制请求并把数据源替换为表格定义中的源表。
func (s *Service) scope(t *target, desc *domain.RequestDescriptor) (*domain.RequestDescriptor, error) {
	var req *domain.RequestDescriptor
	if desc == nil {
		r, err := domain.NewRequest(t.def.Source)
		if err != nil {
			return nil, err
		}
		req = r
	} else {
		req = desc.Clone()
		if err := req.SetSource(t.def.Source); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Page 并发读取一页数据和总行数。未指定每页条数时使用 DefaultPageSize。
func (s *Service) Page(ctx context.Context, grid string, desc *domain.RequestDescriptor) (*Page, error) {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return nil, err
	}
	req, err := s.scope(t, desc)
	if err != nil {
		return nil, err
	}
	s.paged(req)

	rowsBridge, err := s.bridge(t)
	if err != nil {
		return nil, err
	}
	countBridge, err := s.bridge(t)
	if err != nil {
		return nil, err
	}

	page := &Page{Pos: req.Window().Offset}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := rowsBridge.Fetch(gctx, req)
		page.Rows = rows
		return err
	})
	g.Go(func() error {
		total, err := countBridge.Count(gctx, req)
		page.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// paged 为未指定条数的请求补上默认页大小。
func (s *Service) paged(req *domain.RequestDescriptor) {
	if w, size := req.Window(), s.Options().DefaultPageSize; w.Limit == 0 && size > 0 {
		req.SetLimit(w.Offset, size)
	}
}

// Count 返回满足过滤条件的总行数。
func (s *Service) Count(ctx context.Context, grid string, desc *domain.RequestDescriptor) (int64, error) {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return 0, err
	}
	req, err := s.scope(t, desc)
	if err != nil {
		return 0, err
	}
	b, err := s.bridge(t)
	if err != nil {
		return 0, err
	}
	return b.Count(ctx, req)
}

// Variants 返回字段在过滤范围内的去重取值，用于下拉筛选。
func (s *Service) Variants(ctx context.Context, grid, field string, desc *domain.RequestDescriptor) ([]any, error) {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return nil, err
	}
	req, err := s.scope(t, desc)
	if err != nil {
		return nil, err
	}
	b, err := s.bridge(t)
	if err != nil {
		return nil, err
	}
	return b.DistinctValues(ctx, field, req)
}

// Explain 返回 Page 将要执行的读取语句，参数已内联。
func (s *Service) Explain(ctx context.Context, grid string, desc *domain.RequestDescriptor) (string, error) {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return "", err
	}
	req, err := s.scope(t, desc)
	if err != nil {
		return "", err
	}
	s.paged(req)
	b, err := s.bridge(t)
	if err != nil {
		return "", err
	}
	return b.Explain(req)
}

// Validate 核对字段映射中的每一列在物理表中都存在。
func (s *Service) Validate(ctx context.Context, grid string) error {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return err
	}
	cols, err := s.conns.Columns(ctx, t.def.Connection, t.def.Source)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		known[strings.ToLower(c)] = struct{}{}
	}

	var errs []error
	for _, f := range t.fields.Readable() {
		if _, ok := known[strings.ToLower(f.Column)]; !ok {
			errs = append(errs, fmt.Errorf("%w: 列 '%s' 不存在于 %s", domain.ErrUnknownField, f.Column, t.def.Source))
		}
	}
	return errors.Join(errs...)
}
