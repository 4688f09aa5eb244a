// Package bridge file: internal/adapter/bridge/template.go
package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

// 模板中的 {name} 标记，name 为逻辑字段名、物理列名或 "id"
var marker = regexp.MustCompile(`\{([^{}]+)\}`)

// Attach 为 insert / update / delete 指定自定义语句模板，替代自动生成的 SQL。
// 标记 {name} 在执行时被替换为绑定参数，值取自提交的数据；{id} 取记录标识。
func (b *Bridge) Attach(op, tmpl string) error {
	op = strings.ToLower(strings.TrimSpace(op))
	switch op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("不支持为操作 '%s' 设置模板", op)
	}
	if strings.TrimSpace(tmpl) == "" {
		delete(b.templates, op)
		return nil
	}
	for _, m := range marker.FindAllStringSubmatch(tmpl, -1) {
		name := strings.TrimSpace(m[1])
		if name == "id" {
			continue
		}
		if _, err := b.fields.Resolve(name); err != nil {
			return fmt.Errorf("模板 '%s' 引用了未知字段: %w", op, err)
		}
	}
	b.templates[op] = tmpl
	return nil
}

// templateStmt 渲染模板，缺失的值绑定为 NULL。
func (b *Bridge) templateStmt(tmpl string, id any, values map[string]any) func(*binder) (string, error) {
	return func(bd *binder) (string, error) {
		var resolveErr error
		query := marker.ReplaceAllStringFunc(tmpl, func(m string) string {
			name := strings.TrimSpace(m[1 : len(m)-1])
			if name == "id" {
				return bd.bind(id)
			}
			field, err := b.fields.Resolve(name)
			if err != nil {
				resolveErr = err
				return m
			}
			v, _ := lookup(values, field)
			return bd.bind(v)
		})
		if resolveErr != nil {
			return "", resolveErr
		}
		return query, nil
	}
}

func (b *Bridge) template(op string) (string, bool) {
	tmpl, ok := b.templates[op]
	return tmpl, ok
}
