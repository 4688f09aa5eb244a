// Package sysdb 负责系统数据库 (用户、表格定义) 的打开与表结构迁移。
// file: internal/adapter/sysdb/sysdb.go
package sysdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open 打开 (必要时创建) 系统 SQLite 数据库。
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建系统数据库目录 '%s' 失败: %w", dir, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开/创建系统数据库 '%s' 失败: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接系统数据库 '%s' (Ping) 失败: %w", path, err)
	}
	return db, nil
}

// Migrate 把系统表结构升级到最新版本，返回当前版本号。
func Migrate(db *sql.DB) (uint, error) {
	m, src, err := newMigrator(db)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("执行系统表迁移失败: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("读取迁移版本失败: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("系统表迁移版本 %d 处于 dirty 状态，需要人工处理", version)
	}
	slog.Info("[SysDB] 系统表结构已是最新", "version", version)
	return version, nil
}

// Rollback 回退最近的 steps 个迁移。
func Rollback(db *sql.DB, steps int) error {
	m, src, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer src.Close()
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("回退系统表迁移失败: %w", err)
	}
	return nil
}

// newMigrator 不返回 *migrate.Migrate.Close，因为它会关闭传入的 *sql.DB。
func newMigrator(db *sql.DB) (*migrate.Migrate, source.Driver, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("加载内嵌迁移脚本失败: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("初始化迁移驱动失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("创建迁移实例失败: %w", err)
	}
	return m, src, nil
}
