package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"BookShelf/internal/shared/config"
	"BookShelf/internal/shared/security"
	"BookShelf/internal/shared/transport"
	"BookShelf/internal/shared/transport/http/middleware"
	"BookShelf/modules/kit/errx"
	"BookShelf/modules/kit/logx"
	"BookShelf/modules/kit/tracex"
)

func newTestServer(t *testing.T) (*Server, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewHttpServer(config.HTTPServerConfig{Port: 0}, logx.NewZapLogger(zap.New(core)), Options{
		ServiceName: "bookshelf-test",
		Registry:    prometheus.NewRegistry(),
	})
	return s, logs
}

func TestNewHttpServer_Healthz(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status code: got=%d want=%d", w.Code, nethttp.StatusOK)
	}
	if w.Header().Get(tracex.TraceIDHeader) == "" {
		t.Fatalf("期望响应头带 trace id")
	}
}

func TestNewHttpServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t)
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `bookshelf_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("期望 healthz 被计数, body=%s", w.Body.String())
	}
}

func TestRecovery_panic转500并记录访问日志(t *testing.T) {
	s, logs := newTestServer(t)
	s.Group().GET("/boom", func(c *gin.Context) {
		panic(errx.Invariant("broken registry", nil))
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/boom", nil))

	if w.Code != nethttp.StatusInternalServerError {
		t.Fatalf("期望 500, got=%d", w.Code)
	}
	var resp transport.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal err=%v", err)
	}
	if resp.Code != transport.SystemError {
		t.Fatalf("期望业务码 %d, got=%d", transport.SystemError, resp.Code)
	}

	access := logs.FilterField(zap.String("log_type", "access")).All()
	if len(access) != 1 {
		t.Fatalf("期望 1 条访问日志, got=%d", len(access))
	}
	if access[0].ContextMap()["error_reason"] != string(errx.CodeInvariant) {
		t.Fatalf("期望访问日志记录错误原因, got=%v", access[0].ContextMap())
	}
	if logs.FilterField(zap.String("err_type", "sys")).Len() != 1 {
		t.Fatalf("期望 1 条系统错误日志")
	}
}

func TestRecovery_非error的panic(t *testing.T) {
	s, _ := newTestServer(t)
	s.Group().GET("/boom", func(c *gin.Context) { panic("oops") })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/boom", nil))
	if w.Code != nethttp.StatusInternalServerError {
		t.Fatalf("期望 500, got=%d", w.Code)
	}
}

func TestAuth_令牌校验(t *testing.T) {
	iss, err := security.NewIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer err=%v", err)
	}
	s, _ := newTestServer(t)
	s.Group().POST("/w", middleware.Auth(iss, security.ScopeBooksWrite), func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, transport.Success(security.SubjectFrom(c.Request.Context())))
	})

	writer, _ := iss.Award("alice", security.ScopeBooksWrite)
	reader, _ := iss.Award("bob", "books:read")

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"缺少令牌", "", nethttp.StatusUnauthorized},
		{"令牌无效", "Bearer not-a-jwt", nethttp.StatusUnauthorized},
		{"权限不足", "Bearer " + reader, nethttp.StatusForbidden},
		{"正常", "Bearer " + writer, nethttp.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(nethttp.MethodPost, "/w", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("期望 %d, got=%d body=%s", tc.status, w.Code, w.Body.String())
			}
			if tc.status == nethttp.StatusOK && !strings.Contains(w.Body.String(), `"data":"alice"`) {
				t.Fatalf("期望 subject 写入 ctx, body=%s", w.Body.String())
			}
		})
	}
}

func TestAuth_未开启直接放行(t *testing.T) {
	s, _ := newTestServer(t)
	s.Group().POST("/w", middleware.Auth(nil, security.ScopeBooksWrite), func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, transport.Success(security.SubjectFrom(c.Request.Context())))
	})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(nethttp.MethodPost, "/w", nil))
	if w.Code != nethttp.StatusOK || !strings.Contains(w.Body.String(), security.Anonymous) {
		t.Fatalf("期望匿名放行, code=%d body=%s", w.Code, w.Body.String())
	}
}
