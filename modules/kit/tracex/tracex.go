package tracex

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// TraceIDHeader 是 HTTP 入口/出口透传 trace_id 的请求头。
const TraceIDHeader = "X-Trace-Id"

type traceIDKey struct{}
type spanIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(traceIDKey{})
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey{}, spanID)
}

func SpanIDFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(spanIDKey{})
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// EnsureTraceID 保证 ctx 上有 trace_id：优先沿用 ctx 已有的，其次使用 candidate（上游透传/otel span），最后随机生成。
func EnsureTraceID(ctx context.Context, candidate string) (context.Context, string) {
	if tid, ok := TraceIDFrom(ctx); ok {
		return ctx, tid
	}
	tid := candidate
	if tid == "" {
		tid = NewTraceID()
	}
	if tid == "" {
		return ctx, ""
	}
	return WithTraceID(ctx, tid), tid
}

// NewTraceID 生成 16 字节随机 trace_id（hex）。
func NewTraceID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
