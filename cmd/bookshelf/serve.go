package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"

	"BookShelf/internal/book/app"
	"BookShelf/internal/book/interfaces"
	"BookShelf/internal/shared/config"
	"BookShelf/internal/shared/logs"
	"BookShelf/internal/shared/metrics"
	"BookShelf/internal/shared/security"
	"BookShelf/internal/shared/telemetry"
	transportgrpc "BookShelf/internal/shared/transport/grpc"
	transporthttp "BookShelf/internal/shared/transport/http"
	"BookShelf/internal/shared/utils"
	"BookShelf/modules/kit/logx"
)

func newServeCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 与 gRPC 健康检查服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logs.Init(appName, cfg.Log); err != nil {
		return fmt.Errorf("init logs: %w", err)
	}
	defer func() { _ = logs.Sync() }()
	logs.Info("conf", zap.Any("conf", redacted(cfg)))

	// 热更新：目前只有日志级别可以在运行时生效
	config.OnChange(func(c *config.Config) {
		if err := logs.SetLevel(c.Log.Level); err != nil {
			logs.Warn("reload log level failed", zap.String("level", c.Log.Level), zap.Error(err))
			return
		}
		logs.Info("log level reloaded", zap.String("level", logs.Level().String()))
	})

	shutdownTrace, err := telemetry.Init(cfg.Trace, appName)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = telemetry.Shutdown(context.Background(), shutdownTrace) }()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(context.Background()); err != nil {
			logs.Warn("close storage failed", zap.Error(err))
		}
	}()

	ids, err := utils.NewSnowflake(cfg.Snowflake.NodeID)
	if err != nil {
		return err
	}

	var iss *security.Issuer
	if cfg.Auth.Enabled {
		if iss, err = security.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL); err != nil {
			return err
		}
	}

	log := logx.NewZapLogger(logs.L())
	reg := metrics.NewRegistry()
	svc := app.NewBookService(store.books, store.audits, ids, log, app.WithMetrics(app.NewMetrics(reg)))

	if !cfg.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := transporthttp.Options{Registry: reg}
	if cfg.Trace.Enabled {
		opts.ServiceName = appName
	}
	httpSrv := transporthttp.NewHttpServer(cfg.HTTPServer, log, opts)
	interfaces.New(svc, log, iss).Register(httpSrv.Engine())

	errCh := make(chan error, 2)
	go func() {
		logs.Info("http server started", zap.String("addr", cfg.HTTPServer.Addr()), zap.String("storage", string(cfg.Storage.Driver)))
		if err := httpSrv.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve failed: %w", err)
		}
	}()

	var grpcSrv *transportgrpc.Server
	if cfg.GRPCServer.Enabled {
		grpcSrv = transportgrpc.NewServer(cfg.GRPCServer.Addr(), log)
		grpcSrv.SetServing("", true)
		go func() {
			logs.Info("grpc health server started", zap.String("addr", cfg.GRPCServer.Addr()))
			if err := grpcSrv.Start(); err != nil {
				errCh <- fmt.Errorf("grpc serve failed: %w", err)
			}
		}()
		go func() {
			if err := checkGRPCHealth(ctx, cfg.GRPCServer.DialAddr()); err != nil {
				logs.Warn("grpc 自检失败", zap.Error(err))
				return
			}
			logs.Info("grpc 自检通过", zap.String("addr", cfg.GRPCServer.DialAddr()))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case runErr = <-errCh:
		logs.Error("服务异常退出", zap.Error(runErr))
	}

	timeout := cfg.HTTPServer.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logs.Warn("http shutdown failed", zap.Error(err))
	}
	if grpcSrv != nil {
		stopped := make(chan struct{})
		go func() {
			grpcSrv.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			logs.Warn("grpc graceful stop timeout")
		}
	}
	return runErr
}

// checkGRPCHealth 启动后经由内部客户端探一次健康检查，确认监听与拦截器链可用。
func checkGRPCHealth(ctx context.Context, addr string) error {
	conn, err := transportgrpc.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return transportgrpc.CheckHealth(ctx, conn, "", gogrpc.WaitForReady(true))
}

// redacted 打印配置时隐藏密钥。
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.MySQL.Password != "" {
		c.MySQL.Password = "******"
	}
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = "******"
	}
	return c
}
