package tracex

import (
	"context"
	"testing"
)

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "t-1")
	if got, ok := TraceIDFrom(ctx); !ok || got != "t-1" {
		t.Fatalf("期望 TraceIDFrom round-trip 成功，got=%q ok=%v", got, ok)
	}
}

func TestEnsureTraceID_优先沿用已有(t *testing.T) {
	ctx := WithTraceID(context.Background(), "existing")
	ctx, tid := EnsureTraceID(ctx, "upstream")
	if tid != "existing" {
		t.Fatalf("期望沿用 ctx 上已有的 trace_id, got=%q", tid)
	}
	if got, _ := TraceIDFrom(ctx); got != "existing" {
		t.Fatalf("期望 ctx 不变, got=%q", got)
	}
}

func TestEnsureTraceID_使用上游或随机生成(t *testing.T) {
	_, tid := EnsureTraceID(context.Background(), "upstream")
	if tid != "upstream" {
		t.Fatalf("期望使用上游透传的 trace_id, got=%q", tid)
	}

	ctx, tid := EnsureTraceID(context.Background(), "")
	if len(tid) != 32 {
		t.Fatalf("期望随机生成 32 位 hex, got=%q", tid)
	}
	if got, ok := TraceIDFrom(ctx); !ok || got != tid {
		t.Fatalf("期望写回 ctx, got=%q ok=%v", got, ok)
	}
}
