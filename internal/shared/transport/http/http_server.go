package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"BookShelf/internal/shared/config"
	"BookShelf/internal/shared/metrics"
	"BookShelf/internal/shared/transport/http/middleware"
	"BookShelf/modules/kit/logx"
)

type Server struct {
	engine *gin.Engine
	group  *gin.RouterGroup
	srv    *nethttp.Server
}

// Options 为可选组件；零值表示不挂载对应中间件/端点。
type Options struct {
	ServiceName string
	Registry    *prometheus.Registry
}

// NewHttpServer 组装 gin：otel span -> 访问日志 -> 指标 -> panic 恢复，外加 /healthz 与 /metrics。
func NewHttpServer(cfg config.HTTPServerConfig, logger logx.Logger, opts Options) *Server {
	engine := gin.New()
	if opts.ServiceName != "" {
		engine.Use(otelgin.Middleware(opts.ServiceName))
	}
	engine.Use(middleware.AccessLog(logger))
	if opts.Registry != nil {
		engine.Use(metrics.NewHTTP(opts.Registry).Middleware())
		engine.GET("/metrics", gin.WrapH(metrics.Handler(opts.Registry)))
	}
	engine.Use(middleware.Recovery(logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		engine: engine,
		group:  engine.Group(""),
		srv: &nethttp.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       orDefault(cfg.ReadTimeout, 15*time.Second),
			WriteTimeout:      orDefault(cfg.WriteTimeout, 15*time.Second),
			IdleTimeout:       60 * time.Second,
		},
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Start 启动 HTTP 服务（阻塞）。关闭时返回 net/http.ErrServerClosed。
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Group() *gin.RouterGroup {
	return s.group
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}
