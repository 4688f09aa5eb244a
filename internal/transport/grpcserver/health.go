// Package grpcserver 提供 gRPC 健康检查服务，状态随业务连接的可用性变化。
// file: internal/transport/grpcserver/health.go
package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName 是健康检查中登记的服务名。
const ServiceName = "gridbridge"

// Checker 由 connection.Manager 满足。
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Server 包装 grpc.Server 与健康状态。
type Server struct {
	srv     *grpc.Server
	health  *health.Server
	checker Checker
}

func NewServer(checker Checker, opts ...grpc.ServerOption) *Server {
	s := &Server{
		srv:     grpc.NewServer(opts...),
		health:  health.NewServer(),
		checker: checker,
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// GRPC 返回底层服务，用于 Serve / GracefulStop。
func (s *Server) GRPC() *grpc.Server { return s.srv }

func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Probe 立即检查一次连接并更新健康状态。
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.checker.HealthCheck(ctx); err != nil {
		slog.Warn("[GRPCHealth] 连接健康检查失败", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.set(status)
	return status
}

// Run 按 interval 周期探测，直到 ctx 结束后把状态置为 NOT_SERVING。
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}
