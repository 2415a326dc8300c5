package logx

import (
	"context"
	"errors"
	"testing"

	"BookShelf/modules/kit/errx"
	"BookShelf/modules/kit/tracex"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestReportAccess_按业务码选择级别(t *testing.T) {
	cases := []struct {
		name    string
		bizCode int
		want    zapcore.Level
	}{
		{name: "成功", bizCode: 0, want: zapcore.InfoLevel},
		{name: "客户端问题", bizCode: 404, want: zapcore.WarnLevel},
		{name: "系统错误", bizCode: 500, want: zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, logs := newObserved()
			ReportAccess(context.Background(), l, "PATCH /api/v1/books/:bookId", tc.bizCode)
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("期望写一条访问日志, got=%d", len(entries))
			}
			if entries[0].Level != tc.want {
				t.Fatalf("期望级别 %v, got=%v", tc.want, entries[0].Level)
			}
		})
	}
}

func TestReportSysError_带错误码与cause链(t *testing.T) {
	l, logs := newObserved()
	ctx := tracex.WithTraceID(context.Background(), "trace-1")
	err := errx.ErrUnavailable.WithData("book_id", "b-1").WithCause(errors.New("connection refused"))

	ReportSysError(ctx, l, NewSysLog("book patch tech error", err))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("期望写一条错误日志, got=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["error_code"] != string(errx.CodeUnavailable) {
		t.Fatalf("期望 error_code=%s, got=%v", errx.CodeUnavailable, fields["error_code"])
	}
	if fields["trace_id"] != "trace-1" {
		t.Fatalf("期望带上 trace_id, got=%v", fields["trace_id"])
	}
	if _, ok := fields["cause_chain"]; !ok {
		t.Fatalf("期望带上 cause_chain, fields=%v", fields)
	}
}

func TestReportSysError_带仓储op(t *testing.T) {
	l, logs := newObserved()
	repo := &repoErr{op: "repo.book.GetBook", meta: map[string]any{"book_id": "b-2"}, cause: errors.New("timeout")}
	ReportSysError(context.Background(), l, NewSysLog("book get tech error", errx.ErrUnavailable.WithCause(repo)))

	fields := logs.All()[0].ContextMap()
	if fields["error_op"] != "repo.book.GetBook" {
		t.Fatalf("期望 error_op=repo.book.GetBook, got=%v", fields["error_op"])
	}
	data, _ := fields["error_data"].(map[string]any)
	if data["book_id"] != "b-2" {
		t.Fatalf("期望 error_data 带内层 book_id, got=%v", fields["error_data"])
	}
}

func TestReportSysError_nil错误不输出(t *testing.T) {
	l, logs := newObserved()
	ReportSysError(context.Background(), l, NewSysLog("noop", nil))
	if logs.Len() != 0 {
		t.Fatalf("期望 nil 错误不输出日志, got=%d", logs.Len())
	}
}
