// Package bridge 把表格请求 (过滤、排序、分页、投影) 翻译为 SQL 并执行，结果按逻辑字段名返回。
// file: internal/adapter/bridge/bridge.go
package bridge

import (
	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"
	"GridBridge/internal/observe"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// 断言 *Bridge 实现 port.StorageBridge 接口，编译期校验
var _ port.StorageBridge = (*Bridge)(nil)

// executor 由 *sql.DB 与 *sql.Tx 共同满足。
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Bridge 是单个请求范围内的存储桥。它不是并发安全的，每个请求创建一个。
type Bridge struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect port.Dialect
	fields  *domain.FieldMap

	txMode    domain.TransactionMode
	sequence  string
	maxLimit  int
	templates map[string]string
	log       *slog.Logger
}

// Option 配置 Bridge。
type Option func(*Bridge)

// WithMaxLimit 限制单次读取的最大行数，0 表示不限制。
func WithMaxLimit(n int) Option {
	return func(b *Bridge) { b.maxLimit = n }
}

// WithTransactionMode 设置写操作的事务模式。
func WithTransactionMode(mode domain.TransactionMode) Option {
	return func(b *Bridge) { b.txMode = mode }
}

// WithSequence 设置插入时标识列使用的原始表达式, e.g. "nextval('items_seq')"。
// 表达式只能来自配置，不能来自请求。
func WithSequence(expr string) Option {
	return func(b *Bridge) { b.sequence = expr }
}

// WithLogger 替换默认的 slog 记录器。
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// New 创建一个绑定到连接池、方言和字段映射的 Bridge。
func New(db *sql.DB, d port.Dialect, fields *domain.FieldMap, opts ...Option) *Bridge {
	b := &Bridge{
		db:        db,
		dialect:   d,
		fields:    fields,
		txMode:    domain.TxNone,
		templates: make(map[string]string),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Dialect() port.Dialect        { return b.dialect }
func (b *Bridge) Fields() *domain.FieldMap     { return b.fields }
func (b *Bridge) Mode() domain.TransactionMode { return b.txMode }

// ExecError 包装存储层执行失败，errors.Is(err, domain.ErrExecFailed) 为 true。
type ExecError struct {
	Op        string
	Statement string
	Err       error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s 执行失败: %v", e.Op, e.Err)
}

func (e *ExecError) Unwrap() []error { return []error{domain.ErrExecFailed, e.Err} }

// conn 返回当前执行者：打开的事务优先。
func (b *Bridge) conn() executor {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

// observe 记录语句耗时、结果与调试日志。
func (b *Bridge) observe(ctx context.Context, op string, st *statement, start time.Time, err error) {
	observe.ObserveStatement(b.dialect.Name(), op, time.Since(start), err)
	if err != nil {
		b.log.ErrorContext(ctx, "[Bridge] 语句执行失败", "op", op, "dialect", b.dialect.Name(), "sql", st.sql, "error", err)
		return
	}
	if b.log.Enabled(ctx, slog.LevelDebug) {
		b.log.DebugContext(ctx, "[Bridge] 语句已执行", "op", op, "sql", b.explain(st), "elapsed", time.Since(start))
	}
}
