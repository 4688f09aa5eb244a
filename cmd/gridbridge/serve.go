// file: cmd/gridbridge/serve.go

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GridBridge/internal/adapter/connection"
	"GridBridge/internal/adapter/sysdb"
	"GridBridge/internal/conf"
	"GridBridge/internal/observe"
	"GridBridge/internal/service/auth"
	"GridBridge/internal/service/grid"
	"GridBridge/internal/service/gridconfig"
	"GridBridge/internal/transport/grpcserver"
	"GridBridge/internal/transport/http/middleware"
	"GridBridge/internal/transport/http/router"

	"github.com/spf13/cobra"
)

const (
	definitionCacheSize = 1000
	definitionCacheTTL  = 5 * time.Minute
	healthProbeInterval = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务 (以及可选的 gRPC 健康检查服务)",
	RunE: func(*cobra.Command, []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *conf.Config) error {
	slog.Info("GridBridge starting up", "version", version, "config", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- 系统数据库 ---
	sys, err := sysdb.Open(cfg.SystemDB.Path)
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("正在关闭系统数据库连接...")
		if err := sys.Close(); err != nil {
			slog.Error("关闭系统数据库时发生错误", "error", err)
		}
	}()
	if _, err := sysdb.Migrate(sys); err != nil {
		return err
	}

	// --- 服务层 ---
	configs, err := gridconfig.New(sys, definitionCacheSize, definitionCacheTTL)
	if err != nil {
		return err
	}
	if err := configs.SeedFromConfig(ctx, cfg.Grids); err != nil {
		return fmt.Errorf("导入表格定义失败: %w", err)
	}
	slog.Info("服务层: GridConfigService 初始化完成", "grids", len(cfg.Grids))

	authSvc, err := auth.New(sys, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	if err := authSvc.SeedUsers(ctx, cfg.Auth.Users); err != nil {
		return fmt.Errorf("导入用户失败: %w", err)
	}
	if authSvc.UserCount(ctx) == 0 {
		slog.Warn("系统中没有任何用户，请使用 'gridbridge user add' 创建管理员")
	}

	conns := openConnections(ctx, cfg.Connections)
	defer func() {
		if err := conns.Close(); err != nil {
			slog.Error("关闭业务数据库连接时发生错误", "error", err)
		}
	}()

	grids := grid.New(configs, conns, grid.Options{
		MaxPageSize:     cfg.Bridge.MaxPageSize,
		DefaultPageSize: cfg.Bridge.DefaultPageSize,
	})
	slog.Info("服务层: GridService 初始化完成")

	rl := cfg.RateLimit
	handler := router.New(router.Dependencies{
		Grids:       grids,
		Configs:     configs,
		Connections: conns,
		Auth:        authSvc,
		Limiter:     middleware.NewRateLimiter(rl.GlobalRate, rl.GlobalBurst, rl.IPRate, rl.IPBurst),
		LoginLock:   middleware.NewLoginFailureLock(rl.LoginMaxFailures, rl.LoginLockout),
	})
	slog.Info("传输层: HTTP 路由器创建完成。")

	observe.Register()
	if cfg.Server.PprofAddr != "" {
		observe.EnablePprof(cfg.Server.PprofAddr)
	}

	// --- 配置热加载 ---
	if configPath != "" {
		err := conf.Watch(ctx, configPath, 0, func(next *conf.Config) {
			applyReload(ctx, next, conns, configs, grids)
		})
		if err != nil {
			slog.Warn("配置文件监视未启动", "error", err)
		}
	}

	errCh := make(chan error, 2)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("GridBridge 启动成功，开始监听HTTP请求...", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP服务启动失败: %w", err)
		}
	}()

	var health *grpcserver.Server
	if cfg.Server.GRPCPort > 0 {
		grpcAddr := fmt.Sprintf(":%d", cfg.Server.GRPCPort)
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("gRPC 监听 %s 失败: %w", grpcAddr, err)
		}
		health = grpcserver.NewServer(conns)
		go health.Run(ctx, healthProbeInterval)
		go func() {
			slog.Info("gRPC 健康检查服务已启动", "address", grpcAddr)
			if err := health.GRPC().Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC 服务异常退出: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-quit:
		slog.Info("收到停机信号，准备优雅关闭...", "signal", sig.String())
	case runErr = <-errCh:
		slog.Error("服务异常，准备关闭", "error", runErr)
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if health != nil {
		health.GRPC().GracefulStop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP服务优雅关闭失败", "error", err)
		return errors.Join(runErr, err)
	}
	slog.Info("HTTP服务已成功关闭。")
	return runErr
}

// openConnections 打开全部业务连接。失败的连接只记录日志，
// 引用它的表格在请求时返回连接未找到，配置修正后由热加载补上。
func openConnections(ctx context.Context, configs []conf.ConnectionConfig) *connection.Manager {
	conns := connection.NewManager()
	if err := conns.Init(ctx, configs); err != nil {
		slog.Error("部分业务数据库连接未能打开，相关表格暂不可用", "error", err)
	}
	return conns
}

// applyReload 把重新加载的配置应用到运行中的组件：连接、表格定义与分页限制。
// 端口、认证与限流参数只在启动时读取，修改后需要重启。
func applyReload(ctx context.Context, next *conf.Config, conns *connection.Manager, configs *gridconfig.Service, grids *grid.Service) {
	if err := conns.Reconcile(ctx, next.Connections); err != nil {
		slog.Error("[ConfigWatcher] 更新连接失败", "error", err)
	}
	if err := configs.SeedFromConfig(ctx, next.Grids); err != nil {
		slog.Error("[ConfigWatcher] 更新表格定义失败", "error", err)
	}
	grids.SetOptions(grid.Options{
		MaxPageSize:     next.Bridge.MaxPageSize,
		DefaultPageSize: next.Bridge.DefaultPageSize,
	})
}
