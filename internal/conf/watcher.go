// Package conf file: internal/conf/watcher.go
package conf

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watch 监视配置文件，变更经防抖后重新加载并回调 onChange，直到 ctx 结束。
// 监视的是文件所在目录，编辑器以 "写临时文件再改名" 方式保存时同样能捕获。
// 重新加载失败时保留旧配置，只记录错误。
// 哪些配置项可以热更新由 onChange 决定，其余配置项需要重启才能生效。
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config)) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("解析配置文件路径 '%s' 失败: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建 fsnotify watcher 失败: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("添加目录 '%s' 到监视器失败: %w", filepath.Dir(target), err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		cfg, err := Load(target)
		if err != nil {
			slog.Error("[ConfigWatcher] 重新加载配置失败，继续使用旧配置", "path", target, "error", err)
			return
		}
		slog.Info("[ConfigWatcher] 配置已重新加载", "path", target, "grids", len(cfg.Grids))
		onChange(cfg)
	}

	go func() {
		defer watcher.Close()
		slog.Info("[ConfigWatcher] 文件监视已启动", "path", target)
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					slog.Warn("[ConfigWatcher] 文件监视器事件通道已关闭")
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, reload)
				mu.Unlock()
			case errWatch, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("[ConfigWatcher] 文件监视器报告错误", "error", errWatch)
			}
		}
	}()
	return nil
}
