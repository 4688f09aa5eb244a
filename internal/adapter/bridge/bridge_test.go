// file: internal/adapter/bridge/bridge_test.go

package bridge

import (
	"GridBridge/internal/adapter/dialect"
	"GridBridge/internal/core/domain"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newItemsDB 返回一个只含 items 表的内存 SQLite 连接。
func newItemsDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    TEXT,
		price   REAL,
		created TEXT DEFAULT 'today'
	)`)
	require.NoError(t, err)
	return db
}

func newRequest(t *testing.T) *domain.RequestDescriptor {
	t.Helper()
	req, err := domain.NewRequest("items")
	require.NoError(t, err)
	return req
}

func seed(t *testing.T, b *Bridge, rows ...map[string]any) []any {
	t.Helper()
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		id, err := b.Insert(context.Background(), newRequest(t), r)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestBridge_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))

	ids := seed(t, b,
		map[string]any{"name": "pen", "cost": 1.5},
		map[string]any{"name": "pencil", "cost": 0.5},
		map[string]any{"name": "ruler", "cost": 3.0},
	)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, ids)

	req := newRequest(t)
	req.AddFilter("name", domain.OpLike, "pen")
	req.SetSort("cost", domain.Asc)
	rows, err := b.Fetch(ctx, req)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "pencil", rows[0]["name"])
	assert.Equal(t, 0.5, rows[0]["cost"])
	assert.Equal(t, int64(2), rows[0]["id"])
	assert.Equal(t, "today", rows[0]["created"])
	assert.NotContains(t, rows[0], "price", "结果应使用逻辑名")

	total, err := b.Count(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	affected, err := b.Update(ctx, newRequest(t), 1, map[string]any{"cost": 2.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	eq := newRequest(t)
	eq.AddFilter("id", domain.OpEqual, 1)
	rows, err = b.Fetch(ctx, eq)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2.0, rows[0]["cost"])
	assert.Equal(t, "pen", rows[0]["name"], "未提交的字段不应被修改")

	values, err := b.DistinctValues(ctx, "name", newRequest(t))
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"pen", "pencil", "ruler"}, values)

	affected, err = b.Remove(ctx, newRequest(t), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	total, err = b.Count(ctx, newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestBridge_WritesRespectRequestFilters(t *testing.T) {
	ctx := context.Background()
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))
	seed(t, b, map[string]any{"name": "pen", "cost": 1.0})

	scoped := newRequest(t)
	scoped.AddFilter("name", domain.OpEqual, "other")

	affected, err := b.Update(ctx, scoped, 1, map[string]any{"cost": 9.0})
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = b.Remove(ctx, scoped, 1)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestBridge_FetchEmpty(t *testing.T) {
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))
	rows, err := b.Fetch(context.Background(), newRequest(t))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestBridge_PaginationBound(t *testing.T) {
	ctx := context.Background()
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))
	for i := 0; i < 7; i++ {
		seed(t, b, map[string]any{"name": "item", "cost": float64(i)})
	}

	req := newRequest(t)
	req.SetSort("id", domain.Asc)
	req.SetLimit(5, 3)
	rows, err := b.Fetch(ctx, req)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(6), rows[0]["id"])

	total, err := b.Count(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total, "计数不受分页影响")
}

func TestBridge_GlobalTransactionRollback(t *testing.T) {
	ctx := context.Background()
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t), WithTransactionMode(domain.TxGlobal))

	require.NoError(t, b.Begin(ctx))
	assert.True(t, b.InTransaction())
	seed(t, b, map[string]any{"name": "temp"})
	require.NoError(t, b.Rollback())
	assert.False(t, b.InTransaction())

	total, err := b.Count(ctx, newRequest(t))
	require.NoError(t, err)
	assert.Zero(t, total)

	assert.ErrorIs(t, b.Commit(), domain.ErrNoTransaction)
	assert.ErrorIs(t, b.Rollback(), domain.ErrNoTransaction)
}

func TestBridge_RecordTransaction(t *testing.T) {
	ctx := context.Background()
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t), WithTransactionMode(domain.TxRecord))

	seed(t, b, map[string]any{"name": "kept"})
	assert.False(t, b.InTransaction())

	total, err := b.Count(ctx, newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestBridge_Templates(t *testing.T) {
	ctx := context.Background()
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))
	seed(t, b, map[string]any{"name": "pen"})

	require.NoError(t, b.Attach("update", `UPDATE items SET name = upper({name}) WHERE id = {id}`))
	affected, err := b.Update(ctx, newRequest(t), 1, map[string]any{"name": "marker"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, err := b.Fetch(ctx, newRequest(t))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MARKER", rows[0]["name"])

	assert.Error(t, b.Attach("update", `UPDATE items SET x = {nope}`))
	assert.Error(t, b.Attach("select", `SELECT 1`))

	// 空模板恢复自动生成的语句
	require.NoError(t, b.Attach("update", ""))
	_, err = b.Update(ctx, newRequest(t), 1, map[string]any{"name": "plain"})
	require.NoError(t, err)
	rows, err = b.Fetch(ctx, newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "plain", rows[0]["name"])
}

func TestBridge_ExecError(t *testing.T) {
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))
	req, err := domain.NewRequest("missing_table")
	require.NoError(t, err)

	_, err = b.Fetch(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExecFailed)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "select", execErr.Op)
	assert.Contains(t, execErr.Statement, `"missing_table"`)
}

func TestBridge_InsertWithoutValues(t *testing.T) {
	b := New(newItemsDB(t), dialect.SQLite{}, itemFields(t))
	_, err := b.Insert(context.Background(), newRequest(t), map[string]any{"unknown": 1})
	assert.ErrorIs(t, err, domain.ErrNoValues)
}
