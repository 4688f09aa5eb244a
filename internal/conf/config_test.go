// file: internal/conf/config_test.go

package conf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
  log_level: debug
auth:
  jwt_secret: "0123456789abcdef0123"
  token_ttl: 2h
  users:
    - name: admin
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
      role: admin
connections:
  - name: main
    dialect: sqlite
    dsn: "file:main.db"
grids:
  - name: items
    connection: main
    source: items
    id: id
    fields: "name,price(cost)"
    allow_insert: true
    transaction: global
    templates:
      delete: "UPDATE items SET deleted = 1 WHERE id = {id}"
`

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2000, cfg.Bridge.MaxPageSize, "未配置的键使用默认值")
	assert.Equal(t, 50, cfg.Bridge.DefaultPageSize)

	require.Len(t, cfg.Grids, 1)
	g := cfg.Grids[0]
	assert.Equal(t, "name,price(cost)", g.Fields)
	assert.True(t, g.AllowInsert)
	assert.False(t, g.AllowDelete)
	assert.Equal(t, "UPDATE items SET deleted = 1 WHERE id = {id}", g.Templates["delete"])

	cc, ok := cfg.Connection("main")
	require.True(t, ok)
	assert.Equal(t, "sqlite", cc.Dialect)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleYAML)
	t.Setenv("GRIDBRIDGE_SERVER_PORT", "9090")
	t.Setenv("GRIDBRIDGE_BRIDGE_MAX_PAGE_SIZE", "500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Bridge.MaxPageSize)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"未知方言":   `connections: [{name: a, dialect: oracle, dsn: x}]`,
		"未定义的连接": `grids: [{name: g, connection: nope, source: t, fields: a}]`,
		"重复字段":   `connections: [{name: a, dialect: sqlite, dsn: x}]` + "\n" + `grids: [{name: g, connection: a, source: t, fields: "a,a"}]`,
		"未知事务模式": `connections: [{name: a, dialect: sqlite, dsn: x}]` + "\n" + `grids: [{name: g, connection: a, source: t, fields: a, transaction: nested}]`,
		"模板操作":   `connections: [{name: a, dialect: sqlite, dsn: x}]` + "\n" + `grids: [{name: g, connection: a, source: t, fields: a, templates: {select: "SELECT 1"}}]`,
	}
	for name, body := range cases {
		body = "auth: {jwt_secret: \"0123456789abcdef0123\"}\n" + body
		_, err := Load(writeConfig(t, t.TempDir(), body))
		assert.Error(t, err, name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, 50*time.Millisecond, func(c *Config) { changed <- c }))

	updated := sampleYAML + "\nbridge:\n  max_page_size: 300\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case c := <-changed:
		assert.Equal(t, 300, c.Bridge.MaxPageSize)
	case <-time.After(5 * time.Second):
		t.Fatal("修改配置文件后未收到重新加载回调")
	}
}
