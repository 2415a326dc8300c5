package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"BookShelf/internal/shared/config"
)

// TracerName 是本服务业务 span 使用的 tracer 名。
const TracerName = "BookShelf"

// ShutdownFunc 进程退出时刷出剩余 span。
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init 按配置安装全局 TracerProvider 与 W3C 传播器。
// 未开启或 exporter=none 时保持 otel 默认的 noop provider，业务代码照常创建 span，开销可忽略。
func Init(cfg config.TraceConfig, serviceName string) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled || cfg.Exporter == "" || cfg.Exporter == "none" {
		return noopShutdown, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := NewProvider(exporter, serviceName, cfg.SampleRatio)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewProvider 组装 TracerProvider；测试里传 tracetest 的内存 exporter。
func NewProvider(exporter sdktrace.SpanExporter, serviceName string, ratio float64) *sdktrace.TracerProvider {
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
}

// Tracer 返回业务 tracer（随全局 provider 变化）。
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TraceIDFrom 返回 ctx 中有效 span 的 trace id。
func TraceIDFrom(ctx context.Context) (string, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return "", false
	}
	return sc.TraceID().String(), true
}

// Shutdown 调用 fn 并忽略 nil。
func Shutdown(ctx context.Context, fn ShutdownFunc) error {
	if fn == nil {
		return nil
	}
	if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
