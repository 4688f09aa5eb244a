// Package gridconfig internal/service/gridconfig/store.go
package gridconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"
)

const selectDefinitions = `
	SELECT name, connection, source, id_field, relation_field, fields, extra,
	       allow_insert, allow_update, allow_delete, tx_mode, sequence_expr, templates
	FROM grid_definitions`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Service) load(ctx context.Context, name string) (*domain.GridDefinition, error) {
	def, err := scanDefinition(s.db.QueryRowContext(ctx, selectDefinitions+" WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrGridNotFound, name)
	}
	return def, err
}

func scanDefinition(row scanner) (*domain.GridDefinition, error) {
	var (
		def       domain.GridDefinition
		templates string
	)
	err := row.Scan(&def.Name, &def.Connection, &def.Source, &def.ID, &def.Relation, &def.Fields, &def.Extra,
		&def.AllowInsert, &def.AllowUpdate, &def.AllowDelete, &def.Transaction, &def.Sequence, &templates)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("读取表格定义失败: %w", err)
	}
	if templates != "" && templates != "{}" {
		if err := json.Unmarshal([]byte(templates), &def.Templates); err != nil {
			return nil, fmt.Errorf("表格 '%s' 的语句模板无法解析: %w", def.Name, err)
		}
	}
	return &def, nil
}

func upsert(ctx context.Context, ex execer, def *domain.GridDefinition) error {
	templates := []byte("{}")
	if len(def.Templates) > 0 {
		var err error
		if templates, err = json.Marshal(def.Templates); err != nil {
			return fmt.Errorf("序列化表格 '%s' 的语句模板失败: %w", def.Name, err)
		}
	}
	mode, _ := domain.ParseTransactionMode(def.Transaction)

	const q = `
		INSERT INTO grid_definitions (name, connection, source, id_field, relation_field, fields, extra,
		                              allow_insert, allow_update, allow_delete, tx_mode, sequence_expr, templates, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			connection = excluded.connection, source = excluded.source,
			id_field = excluded.id_field, relation_field = excluded.relation_field,
			fields = excluded.fields, extra = excluded.extra,
			allow_insert = excluded.allow_insert, allow_update = excluded.allow_update, allow_delete = excluded.allow_delete,
			tx_mode = excluded.tx_mode, sequence_expr = excluded.sequence_expr,
			templates = excluded.templates, updated_at = CURRENT_TIMESTAMP`
	_, err := ex.ExecContext(ctx, q, def.Name, def.Connection, def.Source, def.ID, def.Relation, def.Fields, def.Extra,
		def.AllowInsert, def.AllowUpdate, def.AllowDelete, string(mode), def.Sequence, string(templates))
	if err != nil {
		return fmt.Errorf("保存表格定义 '%s' 失败: %w", def.Name, err)
	}
	return nil
}
