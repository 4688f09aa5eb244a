// Package observe file: internal/observe/debug.go
package observe

import (
	"log/slog"
	"net/http"
	_ "net/http/pprof"
)

// EnablePprof 在指定地址上暴露 /debug/pprof 端点，地址为空时不启动。
func EnablePprof(addr string) {
	if addr == "" {
		slog.Info("pprof 端点未启用：地址为空")
		return
	}
	go func() {
		slog.Info("正在启动 pprof 端点", "address", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			slog.Error("pprof 端点启动失败", "error", err)
		}
	}()
}
