// Package connection 管理按名称配置的业务数据库连接池。
// file: internal/adapter/connection/manager.go
package connection

import (
	"GridBridge/internal/adapter/dialect"
	"GridBridge/internal/conf"
	"GridBridge/internal/core/port"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// 断言 *Manager 实现 port.ConnectionProvider 接口，编译期校验
var _ port.ConnectionProvider = (*Manager)(nil)

// entry 是一个已打开的连接。
type entry struct {
	cfg     conf.ConnectionConfig
	db      *sql.DB
	dialect port.Dialect
}

// Manager 持有全部业务连接，键为连接名。
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*entry
}

// NewManager 创建一个空的 Manager。
func NewManager() *Manager {
	return &Manager{conns: make(map[string]*entry)}
}

// Init 依次打开所有配置的连接。单个连接失败不影响其余连接，所有错误合并返回。
func (m *Manager) Init(ctx context.Context, configs []conf.ConnectionConfig) error {
	var errs []error
	var loaded int
	for _, cc := range configs {
		if err := m.Open(ctx, cc); err != nil {
			slog.Warn("[ConnManager] 打开连接失败", "connection", cc.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	slog.Info("[ConnManager] 连接初始化完成", "loaded", loaded, "configured", len(configs))
	return errors.Join(errs...)
}

// Open 打开并校验一个连接；同名连接已存在时替换并关闭旧连接。
func (m *Manager) Open(ctx context.Context, cc conf.ConnectionConfig) error {
	d, err := dialect.Lookup(cc.Dialect)
	if err != nil {
		return fmt.Errorf("连接 '%s': %w", cc.Name, err)
	}
	db, err := sql.Open(d.DriverName(), cc.DSN)
	if err != nil {
		return fmt.Errorf("sql.Open 连接 '%s' 失败: %w", cc.Name, err)
	}
	tune(db, cc)
	if errPing := db.PingContext(ctx); errPing != nil {
		_ = db.Close()
		return fmt.Errorf("ping 连接 '%s' 失败: %w", cc.Name, errPing)
	}
	m.put(cc, db, d)
	slog.Info("[ConnManager] 成功打开连接", "connection", cc.Name, "dialect", d.Name())
	return nil
}

// defaultMaxIdle 与 database/sql 的默认空闲连接数一致。
const defaultMaxIdle = 2

// tune 按配置设置连接池参数，零值恢复 database/sql 的默认行为。
func tune(db *sql.DB, cc conf.ConnectionConfig) {
	db.SetMaxOpenConns(cc.MaxOpen)
	if cc.MaxIdle > 0 {
		db.SetMaxIdleConns(cc.MaxIdle)
	} else {
		db.SetMaxIdleConns(defaultMaxIdle)
	}
	db.SetConnMaxLifetime(cc.ConnMaxLifetime)
}

// Attach 以给定方言登记一个已打开的 *sql.DB。
func (m *Manager) Attach(name string, d port.Dialect, db *sql.DB) {
	m.put(conf.ConnectionConfig{Name: name, Dialect: d.Name()}, db, d)
}

func (m *Manager) put(cc conf.ConnectionConfig, db *sql.DB, d port.Dialect) {
	m.mu.Lock()
	old := m.conns[cc.Name]
	m.conns[cc.Name] = &entry{cfg: cc, db: db, dialect: d}
	m.mu.Unlock()
	if old != nil && old.db != db {
		closeEntry(cc.Name, old)
	}
}

// Conn 按名称返回连接及其方言。
func (m *Manager) Conn(name string) (*sql.DB, port.Dialect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.conns[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", port.ErrConnectionNotFound, name)
	}
	return e.db, e.dialect, nil
}

// Reconcile 使已打开的连接与新配置一致：关闭被移除的，重建 DSN 或方言变化的，
// 只有连接池参数变化时就地调整，最后打开新增的。
func (m *Manager) Reconcile(ctx context.Context, configs []conf.ConnectionConfig) error {
	wanted := make(map[string]conf.ConnectionConfig, len(configs))
	for _, cc := range configs {
		wanted[cc.Name] = cc
	}

	m.mu.Lock()
	var stale []string
	for name, e := range m.conns {
		cc, keep := wanted[name]
		switch {
		case !keep || cc.DSN != e.cfg.DSN || cc.Dialect != e.cfg.Dialect:
			stale = append(stale, name)
		case cc != e.cfg:
			tune(e.db, cc)
			e.cfg = cc
			slog.Info("[ConnManager] 连接池参数已更新", "connection", name,
				"max_open", cc.MaxOpen, "max_idle", cc.MaxIdle, "conn_max_lifetime", cc.ConnMaxLifetime)
		}
	}
	removed := make(map[string]*entry, len(stale))
	for _, name := range stale {
		removed[name] = m.conns[name]
		delete(m.conns, name)
	}
	m.mu.Unlock()

	for name, e := range removed {
		closeEntry(name, e)
	}

	var errs []error
	for _, cc := range configs {
		m.mu.RLock()
		_, open := m.conns[cc.Name]
		m.mu.RUnlock()
		if open {
			continue
		}
		if err := m.Open(ctx, cc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary 描述一个连接的状态。
type Summary struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	Open    int    `json:"open"`
	InUse   int    `json:"in_use"`
	Idle    int    `json:"idle"`
}

// Summary 返回所有连接的状态，按名称排序。
func (m *Manager) Summary() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.conns))
	for name, e := range m.conns {
		st := e.db.Stats()
		out = append(out, Summary{
			Name:    name,
			Dialect: e.dialect.Name(),
			Open:    st.OpenConnections,
			InUse:   st.InUse,
			Idle:    st.Idle,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HealthCheck ping 全部连接，返回合并后的错误。
func (m *Manager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.conns) == 0 {
		return errors.New("系统中当前没有加载任何可用的数据库连接")
	}
	var errs []error
	for name, e := range m.conns {
		if err := e.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("连接 '%s' 不可用: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Columns 返回表的物理列名。使用不返回任何行的查询，各方言通用。
func (m *Manager) Columns(ctx context.Context, name, table string) ([]string, error) {
	db, d, err := m.Conn(name)
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + dialect.QuoteQualified(d, table) + " WHERE 1 = 0"
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("读取表 '%s' 的列信息失败: %w", table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("读取表 '%s' 的列信息失败: %w", table, err)
	}
	return cols, rows.Err()
}

// Close 关闭全部连接。
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for name, e := range m.conns {
		if err := e.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭连接 '%s' 失败: %w", name, err))
		}
		delete(m.conns, name)
	}
	return errors.Join(errs...)
}

func closeEntry(name string, e *entry) {
	if err := e.db.Close(); err != nil {
		slog.Warn("[ConnManager] 关闭连接时发生错误", "connection", name, "error", err)
		return
	}
	slog.Info("[ConnManager] 成功关闭连接", "connection", name)
}
