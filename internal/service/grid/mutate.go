// Package grid file: internal/service/grid/mutate.go
package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"GridBridge/internal/adapter/bridge"
	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"
)

// 全局事务回滚后，其余动作的提示信息
const msgRolledBack = "事务已回滚"

func permitted(def *domain.GridDefinition, kind domain.ActionKind) error {
	allowed := false
	switch kind {
	case domain.ActionInsert:
		allowed = def.AllowInsert
	case domain.ActionUpdate:
		allowed = def.AllowUpdate
	case domain.ActionDelete:
		allowed = def.AllowDelete
	default:
		return fmt.Errorf("未知的编辑动作: %q", kind)
	}
	if !allowed {
		return fmt.Errorf("%w: 表格 '%s' 不允许 %s", port.ErrPermissionDenied, def.Name, kind)
	}
	return nil
}

func (s *Service) writer(ctx context.Context, grid string, kind domain.ActionKind, desc *domain.RequestDescriptor) (*bridge.Bridge, *domain.RequestDescriptor, error) {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return nil, nil, err
	}
	if err := permitted(t.def, kind); err != nil {
		return nil, nil, err
	}
	req, err := s.scope(t, desc)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.bridge(t)
	if err != nil {
		return nil, nil, err
	}
	return b, req, nil
}

// Insert 写入一条记录并返回新标识。
func (s *Service) Insert(ctx context.Context, grid string, desc *domain.RequestDescriptor, values map[string]any) (any, error) {
	b, req, err := s.writer(ctx, grid, domain.ActionInsert, desc)
	if err != nil {
		return nil, err
	}
	return b.Insert(ctx, req, values)
}

// Update 更新标识对应的记录，返回受影响行数。
func (s *Service) Update(ctx context.Context, grid string, desc *domain.RequestDescriptor, id any, values map[string]any) (int64, error) {
	b, req, err := s.writer(ctx, grid, domain.ActionUpdate, desc)
	if err != nil {
		return 0, err
	}
	return b.Update(ctx, req, id, values)
}

// Delete 删除标识对应的记录，返回受影响行数。
func (s *Service) Delete(ctx context.Context, grid string, desc *domain.RequestDescriptor, id any) (int64, error) {
	b, req, err := s.writer(ctx, grid, domain.ActionDelete, desc)
	if err != nil {
		return 0, err
	}
	return b.Remove(ctx, req, id)
}

// Apply 依次处理一批编辑动作，每条动作都有独立的结果。
// 表格事务模式为 global 时全部动作在同一事务内执行，任一动作失败即回滚，
// 此时所有动作 (包括已执行的) 都报告为 error。
func (s *Service) Apply(ctx context.Context, grid string, desc *domain.RequestDescriptor, actions []domain.Action) ([]domain.ActionResult, error) {
	t, err := s.resolve(ctx, grid)
	if err != nil {
		return nil, err
	}
	req, err := s.scope(t, desc)
	if err != nil {
		return nil, err
	}
	b, err := s.bridge(t)
	if err != nil {
		return nil, err
	}

	global := t.mode == domain.TxGlobal
	if global {
		if err := b.Begin(ctx); err != nil {
			return nil, err
		}
	}

	results := make([]domain.ActionResult, len(actions))
	for i, a := range actions {
		results[i] = s.apply(ctx, b, t.def, req, a)
		if !global || results[i].Status != domain.StatusError && results[i].Status != domain.StatusInvalid {
			continue
		}

		if rbErr := b.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "[GridService] 批量编辑回滚失败", "grid", grid, "error", rbErr)
		}
		slog.WarnContext(ctx, "[GridService] 批量编辑失败，事务已回滚", "grid", grid, "failed_at", i, "error", results[i].Message)
		for j := range results {
			if j == i {
				results[j].Status = domain.StatusError
				continue
			}
			if j > i {
				results[j] = domain.ActionResult{Kind: actions[j].Kind, ID: actions[j].ID}
			}
			results[j].Status = domain.StatusError
			results[j].Message = msgRolledBack
			results[j].NewID = nil
			results[j].Affected = 0
		}
		return results, nil
	}

	if global {
		if err := b.Commit(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Service) apply(ctx context.Context, b *bridge.Bridge, def *domain.GridDefinition, req *domain.RequestDescriptor, a domain.Action) domain.ActionResult {
	res := domain.ActionResult{Kind: a.Kind, ID: a.ID}
	if err := permitted(def, a.Kind); err != nil {
		return failed(res, err)
	}

	switch a.Kind {
	case domain.ActionInsert:
		newID, err := b.Insert(ctx, req, a.Values)
		if err != nil {
			return failed(res, err)
		}
		res.NewID = newID
		res.Affected = 1
		res.Status = domain.StatusInserted
	case domain.ActionUpdate:
		n, err := b.Update(ctx, req, a.ID, a.Values)
		if err != nil {
			return failed(res, err)
		}
		res.Affected = n
		res.Status = domain.StatusUpdated
	case domain.ActionDelete:
		n, err := b.Remove(ctx, req, a.ID)
		if err != nil {
			return failed(res, err)
		}
		res.Affected = n
		res.Status = domain.StatusDeleted
	}
	return res
}

// failed 执行失败报告 error，请求本身不合法 (字段、权限、空值) 报告 invalid。
func failed(res domain.ActionResult, err error) domain.ActionResult {
	res.Status = domain.StatusInvalid
	if errors.Is(err, domain.ErrExecFailed) {
		res.Status = domain.StatusError
	}
	res.Message = err.Error()
	return res
}
