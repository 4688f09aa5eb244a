// Package bridge file: internal/adapter/bridge/statement.go
package bridge

import (
	"GridBridge/internal/adapter/dialect"
	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"
	"errors"
	"fmt"
	"strings"
)

var errNoIDField = fmt.Errorf("%w: 未配置标识字段", domain.ErrUnknownField)

// statement 是一条已组装的语句。build 可以在内联模式下重新执行，用于生成调试文本。
type statement struct {
	op    string
	sql   string
	args  []any
	build func(*binder) (string, error)
}

// binder 按出现顺序分配占位符。inline 为 true 时直接写出转义后的字面量。
type binder struct {
	dialect port.Dialect
	args    []any
	inline  bool
}

func (bd *binder) bind(v any) string {
	if bd.inline {
		return literal(bd.dialect, v)
	}
	bd.args = append(bd.args, v)
	return bd.dialect.Placeholder(len(bd.args))
}

// prepare 组装语句并收集绑定参数。
func (b *Bridge) prepare(op string, build func(*binder) (string, error)) (*statement, error) {
	bd := &binder{dialect: b.dialect}
	query, err := build(bd)
	if err != nil {
		return nil, err
	}
	return &statement{op: op, sql: query, args: bd.args, build: build}, nil
}

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '!' 使用。
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// blank 报告过滤值是否为空，空值过滤条件会被忽略。
func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	}
	return false
}

func (b *Bridge) column(f domain.Field) string { return b.dialect.Quote(f.Column) }

// conditions 生成过滤与关联条件，返回的条件之间以 AND 连接。
func (b *Bridge) conditions(req *domain.RequestDescriptor, bd *binder) ([]string, error) {
	var conds []string
	for _, flt := range req.Filters() {
		if blank(flt.Value) {
			continue
		}
		field, err := b.fields.Resolve(flt.Field)
		if err != nil {
			return nil, err
		}
		col := b.column(field)
		switch flt.Op {
		case domain.OpLike:
			conds = append(conds, col+" LIKE "+bd.bind("%"+escapeLike(fmt.Sprint(flt.Value))+"%")+" ESCAPE '!'")
		case domain.OpStartsWith:
			conds = append(conds, col+" LIKE "+bd.bind(escapeLike(fmt.Sprint(flt.Value))+"%")+" ESCAPE '!'")
		default:
			sym, ok := comparison[flt.Op]
			if !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperator, flt.Op)
			}
			conds = append(conds, col+" "+sym+" "+bd.bind(flt.Value))
		}
	}
	if rel, ok := req.Relation(); ok {
		if !b.fields.HasRelation() {
			return nil, fmt.Errorf("%w: 未配置关联字段", domain.ErrUnknownField)
		}
		conds = append(conds, b.column(b.fields.Relation())+" = "+bd.bind(rel))
	}
	return conds, nil
}

var comparison = map[domain.Operator]string{
	domain.OpEqual:        "=",
	domain.OpNotEqual:     "<>",
	domain.OpLess:         "<",
	domain.OpLessEqual:    "<=",
	domain.OpGreater:      ">",
	domain.OpGreaterEqual: ">=",
}

func (b *Bridge) orderBy(req *domain.RequestDescriptor) (string, error) {
	sorts := req.Sorts()
	if len(sorts) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sorts))
	for _, s := range sorts {
		field, err := b.fields.Resolve(s.Field)
		if err != nil {
			return "", err
		}
		parts = append(parts, b.column(field)+" "+s.Direction.String())
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// projection 生成 SELECT 列表。
func (b *Bridge) projection(p domain.Projection) (string, error) {
	switch p.Kind {
	case domain.ProjectCount:
		return "COUNT(*)", nil
	case domain.ProjectDistinct:
		field, err := b.fields.Resolve(p.Field)
		if err != nil {
			return "", err
		}
		return "DISTINCT " + b.column(field) + " AS " + b.dialect.Quote("value"), nil
	}
	readable := b.fields.Readable()
	if len(readable) == 0 {
		return "", errors.New("字段映射为空，无可读取的字段")
	}
	cols := make([]string, len(readable))
	for i, f := range readable {
		cols[i] = b.column(f)
		if f.Alias != f.Column {
			cols[i] += " AS " + b.dialect.Quote(f.Alias)
		}
	}
	return strings.Join(cols, ", "), nil
}

// window 返回实际生效的分页窗口，limit 受 maxLimit 约束。
func (b *Bridge) window(req *domain.RequestDescriptor) domain.Window {
	w := req.Window()
	if b.maxLimit > 0 && (w.Limit <= 0 || w.Limit > b.maxLimit) {
		w.Limit = b.maxLimit
	}
	return w
}

func (b *Bridge) selectStmt(req *domain.RequestDescriptor) func(*binder) (string, error) {
	return func(bd *binder) (string, error) {
		p := req.Projection()
		cols, err := b.projection(p)
		if err != nil {
			return "", err
		}
		conds, err := b.conditions(req, bd)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		sb.WriteString("SELECT ")
		sb.WriteString(cols)
		sb.WriteString(" FROM ")
		sb.WriteString(dialect.QuoteQualified(b.dialect, req.Source()))
		if len(conds) > 0 {
			sb.WriteString(" WHERE ")
			sb.WriteString(strings.Join(conds, " AND "))
		}
		if p.Kind != domain.ProjectFields {
			return sb.String(), nil
		}

		order, err := b.orderBy(req)
		if err != nil {
			return "", err
		}
		if order != "" {
			sb.WriteString(" ")
			sb.WriteString(order)
		}
		if w := b.window(req); w.Bounded() {
			sb.WriteString(" ")
			sb.WriteString(b.dialect.Paginate(w.Offset, w.Limit, order != ""))
		}
		return sb.String(), nil
	}
}

// lookup 按别名、再按列名从提交值中取值。
func lookup(values map[string]any, f domain.Field) (any, bool) {
	if v, ok := values[f.Alias]; ok {
		return v, true
	}
	v, ok := values[f.Column]
	return v, ok
}

func (b *Bridge) insertStmt(req *domain.RequestDescriptor, values map[string]any, returnsID *bool) func(*binder) (string, error) {
	return func(bd *binder) (string, error) {
		var cols, vals []string
		for _, f := range b.fields.Writable() {
			if v, ok := lookup(values, f); ok {
				cols = append(cols, b.column(f))
				vals = append(vals, bd.bind(v))
			}
		}
		if b.fields.HasRelation() {
			rel := b.fields.Relation()
			v, ok := lookup(values, rel)
			if !ok {
				if r, has := req.Relation(); has {
					v, ok = r, true
				}
			}
			if ok {
				cols = append(cols, b.column(rel))
				vals = append(vals, bd.bind(v))
			}
		}
		id := b.fields.ID()
		if b.sequence != "" && !id.IsZero() {
			cols = append(cols, b.column(id))
			vals = append(vals, b.sequence)
		}
		if len(cols) == 0 {
			return "", domain.ErrNoValues
		}
		idCol := ""
		if !id.IsZero() {
			idCol = b.column(id)
		}
		query, returns := b.dialect.Insert(dialect.QuoteQualified(b.dialect, req.Source()), cols, vals, idCol)
		if returnsID != nil {
			*returnsID = returns
		}
		return query, nil
	}
}

// scoped 生成 "id = ? AND ..." 条件，请求级过滤同样约束写操作。
func (b *Bridge) scoped(req *domain.RequestDescriptor, id any, bd *binder) (string, error) {
	idField := b.fields.ID()
	if idField.IsZero() {
		return "", errNoIDField
	}
	where := b.column(idField) + " = " + bd.bind(id)
	conds, err := b.conditions(req, bd)
	if err != nil {
		return "", err
	}
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	return where, nil
}

func (b *Bridge) updateStmt(req *domain.RequestDescriptor, id any, values map[string]any) func(*binder) (string, error) {
	return func(bd *binder) (string, error) {
		var sets []string
		for _, f := range b.fields.Writable() {
			if v, ok := lookup(values, f); ok {
				sets = append(sets, b.column(f)+" = "+bd.bind(v))
			}
		}
		if len(sets) == 0 {
			return "", domain.ErrNoValues
		}
		where, err := b.scoped(req, id, bd)
		if err != nil {
			return "", err
		}
		return "UPDATE " + dialect.QuoteQualified(b.dialect, req.Source()) + " SET " + strings.Join(sets, ", ") + " WHERE " + where, nil
	}
}

func (b *Bridge) deleteStmt(req *domain.RequestDescriptor, id any) func(*binder) (string, error) {
	return func(bd *binder) (string, error) {
		where, err := b.scoped(req, id, bd)
		if err != nil {
			return "", err
		}
		return "DELETE FROM " + dialect.QuoteQualified(b.dialect, req.Source()) + " WHERE " + where, nil
	}
}
