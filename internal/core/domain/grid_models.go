// Package domain file: internal/core/domain/grid_models.go
package domain

import (
	"fmt"
	"strings"
)

// TransactionMode 决定写操作的事务范围。
type TransactionMode string

const (
	TxNone   TransactionMode = "none"
	TxGlobal TransactionMode = "global"
	TxRecord TransactionMode = "record"
)

// ParseTransactionMode 解析事务模式，空串视为 none。
func ParseTransactionMode(s string) (TransactionMode, error) {
	switch TransactionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TxNone:
		return TxNone, nil
	case TxGlobal:
		return TxGlobal, nil
	case TxRecord:
		return TxRecord, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTransactionMode, s)
}

// GridDefinition 定义了一个表格数据集：连接、源表、字段映射与写权限。
// 字段串使用 "column(alias),column2" 语法。
type GridDefinition struct {
	Name        string            `json:"name" mapstructure:"name" validate:"required,max=64"`
	Connection  string            `json:"connection" mapstructure:"connection" validate:"required"`
	Source      string            `json:"source" mapstructure:"source" validate:"required"`
	ID          string            `json:"id" mapstructure:"id"`
	Relation    string            `json:"relation" mapstructure:"relation"`
	Fields      string            `json:"fields" mapstructure:"fields" validate:"required"`
	Extra       string            `json:"extra" mapstructure:"extra"`
	AllowInsert bool              `json:"allow_insert" mapstructure:"allow_insert"`
	AllowUpdate bool              `json:"allow_update" mapstructure:"allow_update"`
	AllowDelete bool              `json:"allow_delete" mapstructure:"allow_delete"`
	Transaction string            `json:"transaction" mapstructure:"transaction" validate:"omitempty,oneof=none global record"`
	Sequence    string            `json:"sequence" mapstructure:"sequence"`
	Templates   map[string]string `json:"templates,omitempty" mapstructure:"templates" validate:"omitempty,dive,keys,oneof=insert update delete,endkeys,required"`
}

// FieldMap 按定义构建字段映射表。
func (g *GridDefinition) FieldMap() (*FieldMap, error) {
	m, err := ParseFieldMap(g.ID, g.Fields, g.Extra, g.Relation)
	if err != nil {
		return nil, fmt.Errorf("表格 '%s' 字段配置无效: %w", g.Name, err)
	}
	return m, nil
}

// ActionKind 是批量编辑中单条动作的类型。
type ActionKind string

const (
	ActionInsert ActionKind = "insert"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
)

// Action 是表格端提交的一条编辑。ID 对 insert 而言是客户端临时 ID。
type Action struct {
	Kind   ActionKind     `json:"kind" binding:"required,oneof=insert update delete"`
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

// 单条动作的处理状态
const (
	StatusInserted = "inserted"
	StatusUpdated  = "updated"
	StatusDeleted  = "deleted"
	StatusError    = "error"
	StatusInvalid  = "invalid"
)

// ActionResult 是单条动作的处理结果。
type ActionResult struct {
	Kind     ActionKind `json:"kind"`
	ID       string     `json:"id"`
	NewID    any        `json:"new_id,omitempty"`
	Status   string     `json:"status"`
	Affected int64      `json:"affected"`
	Message  string     `json:"message,omitempty"`
}
