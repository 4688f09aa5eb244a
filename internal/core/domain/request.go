// Package domain file: internal/core/domain/request.go
package domain

import (
	"fmt"
	"strings"
)

// Operator 是过滤条件的操作符。
type Operator int

const (
	OpLike Operator = iota // 包含匹配，默认
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpStartsWith
)

var operatorNames = map[Operator]string{
	OpLike:         "like",
	OpEqual:        "eq",
	OpNotEqual:     "ne",
	OpLess:         "lt",
	OpLessEqual:    "le",
	OpGreater:      "gt",
	OpGreaterEqual: "ge",
	OpStartsWith:   "starts",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// ParseOperator 接受符号形式 ("=", "<>", ">=") 和助记形式 ("eq", "ne", "ge")，空串为 OpLike。
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "like", "contains":
		return OpLike, nil
	case "=", "==", "eq":
		return OpEqual, nil
	case "!=", "<>", "ne":
		return OpNotEqual, nil
	case "<", "lt":
		return OpLess, nil
	case "<=", "le", "lte":
		return OpLessEqual, nil
	case ">", "gt":
		return OpGreater, nil
	case ">=", "ge", "gte":
		return OpGreaterEqual, nil
	case "starts", "startswith", "prefix":
		return OpStartsWith, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// Direction 是排序方向。
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Asc {
		return "ASC"
	}
	return "DESC"
}

// ParseDirection 中 "asc"（不区分大小写）为升序，其余一律降序。
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return Asc
	}
	return Desc
}

// Filter 是一条过滤规则。Field 为逻辑名或物理列名。
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Sort 是一条排序规则。
type Sort struct {
	Field     string
	Direction Direction
}

// Window 是分页窗口，Limit <= 0 表示不限制条数。
type Window struct {
	Offset int
	Limit  int
}

// Bounded 报告窗口是否需要分页子句。
func (w Window) Bounded() bool { return w.Offset > 0 || w.Limit > 0 }

// ProjectionKind 决定 SELECT 的投影方式。
type ProjectionKind int

const (
	ProjectFields ProjectionKind = iota
	ProjectCount
	ProjectDistinct
)

// Projection 描述查询投影，ProjectDistinct 时 Field 为目标字段。
type Projection struct {
	Kind  ProjectionKind
	Field string
}

// ResultRow 是一行结果，键为逻辑字段名。
type ResultRow map[string]any

// RequestDescriptor 描述一次数据请求的过滤、排序、分页、数据源与投影。
// 按请求构造，用完即弃，不在请求间共享。
type RequestDescriptor struct {
	source      string
	projection  Projection
	filters     []Filter
	sorts       []Sort
	window      Window
	relation    string
	hasRelation bool
}

// NewRequest 创建一个指向 source 的请求描述。
func NewRequest(source string) (*RequestDescriptor, error) {
	d := &RequestDescriptor{}
	if err := d.SetSource(source); err != nil {
		return nil, err
	}
	return d, nil
}

// SetSource 设置数据源表名，去除首尾空白后不能为空。
func (d *RequestDescriptor) SetSource(source string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return ErrEmptySource
	}
	d.source = source
	return nil
}

func (d *RequestDescriptor) Source() string { return d.source }

// AddFilter 追加一条过滤规则。
func (d *RequestDescriptor) AddFilter(field string, op Operator, value any) {
	d.filters = append(d.filters, Filter{Field: field, Op: op, Value: value})
}

func (d *RequestDescriptor) Filters() []Filter { return append([]Filter(nil), d.filters...) }

// SetSort 追加一条排序规则；field 为空时清空已有排序。
func (d *RequestDescriptor) SetSort(field string, dir Direction) {
	if strings.TrimSpace(field) == "" {
		d.sorts = nil
		return
	}
	d.sorts = append(d.sorts, Sort{Field: field, Direction: dir})
}

func (d *RequestDescriptor) ClearSort()    { d.sorts = nil }
func (d *RequestDescriptor) Sorts() []Sort { return append([]Sort(nil), d.sorts...) }

// SetLimit 设置分页窗口，负数偏移量按 0 处理。
func (d *RequestDescriptor) SetLimit(offset, limit int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	d.window = Window{Offset: offset, Limit: limit}
}

func (d *RequestDescriptor) Window() Window { return d.window }

// SetRelation 限定关联字段等于 value。
func (d *RequestDescriptor) SetRelation(value string) {
	d.relation = value
	d.hasRelation = true
}

func (d *RequestDescriptor) ClearRelation() {
	d.relation = ""
	d.hasRelation = false
}

func (d *RequestDescriptor) Relation() (string, bool) { return d.relation, d.hasRelation }

func (d *RequestDescriptor) SetProjection(p Projection) { d.projection = p }
func (d *RequestDescriptor) Projection() Projection     { return d.projection }

// Clone 复制请求，切片不与原对象共享。
func (d *RequestDescriptor) Clone() *RequestDescriptor {
	c := *d
	c.filters = append([]Filter(nil), d.filters...)
	c.sorts = append([]Sort(nil), d.sorts...)
	return &c
}

// String 用于日志输出。
func (d *RequestDescriptor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source:%s Where:", d.source)
	for _, f := range d.filters {
		fmt.Fprintf(&sb, "%s %s %v;", f.Field, f.Op, f.Value)
	}
	fmt.Fprintf(&sb, " Start:%d Count:%d Sort:", d.window.Offset, d.window.Limit)
	for _, s := range d.sorts {
		fmt.Fprintf(&sb, "%s=%s;", s.Field, s.Direction)
	}
	if d.hasRelation {
		fmt.Fprintf(&sb, " Relation:%s", d.relation)
	}
	return sb.String()
}
