// Package observe file: internal/observe/logging.go
package observe

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel 把配置中的级别字符串转为 slog.Level，未知值按 INFO 处理。
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// InitLogger 初始化全局的结构化日志记录器，应在 main 的早期调用。
// format 为 "text" 时输出便于阅读的文本，其余情况输出 JSON。
func InitLogger(levelStr, format string) {
	slog.SetDefault(NewLogger(os.Stdout, levelStr, format))
}

// NewLogger 创建一个写入 w 的记录器。
func NewLogger(w io.Writer, levelStr, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(levelStr),
		AddSource: true,
	}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
