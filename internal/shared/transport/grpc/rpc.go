package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"BookShelf/modules/kit/logx"
)

// Server 是内部 gRPC 服务：目前只承载标准健康检查，供编排系统探活。
type Server struct {
	srv    *gogrpc.Server
	health *health.Server
	addr   string
}

func NewServer(addr string, log logx.Logger) *Server {
	srv := gogrpc.NewServer(
		gogrpc.ChainUnaryInterceptor(unaryServerInterceptor(), unaryAccessLogInterceptor(log)),
		gogrpc.ChainStreamInterceptor(streamServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &Server{srv: srv, health: hs, addr: addr}
}

// SetServing 设置某个服务（"" 表示整体）的健康状态。
func (s *Server) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// Serve 在给定 listener 上阻塞服务。
func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Start 监听 addr 并阻塞服务。
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Stop 先把健康状态置为 NOT_SERVING，再优雅停止。
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// Dial 建立到内部服务的连接，自动透传 trace 与 subject。
func Dial(target string, extra ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	opts := []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithChainUnaryInterceptor(unaryClientInterceptor()),
	}
	conn, err := gogrpc.NewClient(target, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s failed: %w", target, err)
	}
	return conn, nil
}

// CheckHealth 通过 conn 查询 service（"" 表示整体）是否 SERVING。
func CheckHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, opts ...gogrpc.CallOption) error {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service}, opts...)
	if err != nil {
		return fmt.Errorf("health check %q: %w", service, err)
	}
	if st := resp.GetStatus(); st != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check %q: status %s", service, st)
	}
	return nil
}

func unaryAccessLogInterceptor(log logx.Logger) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		logx.ReportAccess(ctx, log, info.FullMethod, grpcBizCode(int(code)),
			zap.String("grpc_code", code.String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

// grpcBizCode 把 grpc code 折算成访问日志使用的业务码区间：0 成功、4xx 客户端、5xx 服务端。
func grpcBizCode(code int) int {
	switch code {
	case 0:
		return 0
	case 3, 5, 6, 7, 9, 11, 16: // InvalidArgument NotFound AlreadyExists PermissionDenied FailedPrecondition OutOfRange Unauthenticated
		return 400
	default:
		return 500
	}
}
