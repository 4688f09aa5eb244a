// Package domain file: internal/core/domain/field_map.go
package domain

import (
	"fmt"
	"strings"
)

// Field 描述一个字段的物理列名与逻辑别名。
type Field struct {
	Column string `json:"column"`
	Alias  string `json:"alias"`
}

// IsZero 报告字段是否未设置。
func (f Field) IsZero() bool { return f.Column == "" }

// Matches 报告 name 是否为该字段的别名或物理列名。
func (f Field) Matches(name string) bool {
	return name != "" && (f.Alias == name || f.Column == name)
}

func (f Field) String() string {
	if f.Alias == f.Column {
		return f.Column
	}
	return f.Column + "(" + f.Alias + ")"
}

// ParseField 解析配置语法 "column" 或 "column(alias)"。
func ParseField(text string) Field {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return Field{Column: text, Alias: text}
	}
	column := strings.TrimSpace(text[:open])
	alias := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text[open+1:]), ")"))
	if alias == "" {
		alias = column
	}
	return Field{Column: column, Alias: alias}
}

func parseFieldList(text string) []Field {
	var out []Field
	for _, part := range strings.Split(text, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, ParseField(part))
	}
	return out
}

// FieldMap 是逻辑字段名到物理列名的映射表。
//
// fields 为可写字段，参与 INSERT / UPDATE；extra 仅参与读取。
// 标识字段与关联字段永远不会出现在 fields / extra 的列名空间中。
type FieldMap struct {
	id       Field
	relation Field
	fields   []Field
	extra    []Field
}

// NewFieldMap 以标识字段和可选的关联字段创建映射表，参数使用 "column(alias)" 语法。
func NewFieldMap(id, relation string) *FieldMap {
	m := &FieldMap{}
	if strings.TrimSpace(id) != "" {
		m.id = ParseField(id)
	}
	if strings.TrimSpace(relation) != "" {
		m.relation = ParseField(relation)
	}
	return m
}

// ParseFieldMap 从逗号分隔的配置串构建映射表。
func ParseFieldMap(id, fields, extra, relation string) (*FieldMap, error) {
	m := NewFieldMap(id, relation)
	for _, f := range parseFieldList(fields) {
		if err := m.AddField(f.Column, f.Alias); err != nil {
			return nil, err
		}
	}
	for _, f := range parseFieldList(extra) {
		if err := m.AddExtra(f.Column, f.Alias); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *FieldMap) ID() Field         { return m.id }
func (m *FieldMap) Relation() Field   { return m.relation }
func (m *FieldMap) HasRelation() bool { return !m.relation.IsZero() }

// AddField 注册一个可写字段，alias 为空时与列名相同。
func (m *FieldMap) AddField(column, alias string) error {
	f, err := m.checkNew(column, alias)
	if err != nil {
		return err
	}
	m.fields = append(m.fields, f)
	return nil
}

// AddExtra 注册一个只读字段。
func (m *FieldMap) AddExtra(column, alias string) error {
	f, err := m.checkNew(column, alias)
	if err != nil {
		return err
	}
	m.extra = append(m.extra, f)
	return nil
}

func (m *FieldMap) checkNew(column, alias string) (Field, error) {
	column = strings.TrimSpace(column)
	alias = strings.TrimSpace(alias)
	if column == "" {
		return Field{}, ErrEmptyFieldName
	}
	if alias == "" {
		alias = column
	}
	for _, reserved := range []Field{m.id, m.relation} {
		if reserved.Matches(column) || reserved.Matches(alias) {
			return Field{}, fmt.Errorf("%w: '%s' 已被用作标识或关联字段", ErrDuplicateField, column)
		}
	}
	for _, set := range [][]Field{m.fields, m.extra} {
		for _, f := range set {
			if f.Matches(column) || f.Matches(alias) {
				return Field{}, fmt.Errorf("%w: %s", ErrDuplicateField, column)
			}
		}
	}
	return Field{Column: column, Alias: alias}, nil
}

// RemoveField 将字段移出可写集合。字段仍保留在只读集合中，数据照常返回。
func (m *FieldMap) RemoveField(name string) error {
	for i, f := range m.fields {
		if f.Matches(name) {
			m.fields = append(m.fields[:i:i], m.fields[i+1:]...)
			m.extra = append(m.extra, f)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// Resolve 按别名或列名查找字段。
func (m *FieldMap) Resolve(name string) (Field, error) {
	for _, f := range m.Readable() {
		if f.Matches(name) {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// Writable 返回可写字段的副本，按注册顺序。
func (m *FieldMap) Writable() []Field {
	return append([]Field(nil), m.fields...)
}

// Readable 返回全部可读字段：标识、关联、可写、只读。
func (m *FieldMap) Readable() []Field {
	out := make([]Field, 0, len(m.fields)+len(m.extra)+2)
	if !m.id.IsZero() {
		out = append(out, m.id)
	}
	if !m.relation.IsZero() {
		out = append(out, m.relation)
	}
	out = append(out, m.fields...)
	return append(out, m.extra...)
}

// Minimize 返回只暴露单个字段的副本，该字段别名改为 "value"。
// 标识与关联字段保留，其余字段不再可解析。
func (m *FieldMap) Minimize(name string) (*FieldMap, error) {
	for _, set := range [][]Field{m.fields, m.extra} {
		for _, f := range set {
			if f.Matches(name) {
				return &FieldMap{
					id:       m.id,
					relation: m.relation,
					fields:   []Field{{Column: f.Column, Alias: "value"}},
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: 精简数据集时未找到主字段 %s", ErrUnknownField, name)
}

// Clone 返回深拷贝。
func (m *FieldMap) Clone() *FieldMap {
	return &FieldMap{
		id:       m.id,
		relation: m.relation,
		fields:   append([]Field(nil), m.fields...),
		extra:    append([]Field(nil), m.extra...),
	}
}

func (m *FieldMap) String() string {
	join := func(fs []Field) string {
		parts := make([]string, len(fs))
		for i, f := range fs {
			parts[i] = f.String()
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("ID:%s Relation:%s Data:%s Extra:%s", m.id, m.relation, join(m.fields), join(m.extra))
}
