package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"BookShelf/internal/shared/security"
	"BookShelf/modules/kit/tracex"
)

// carried 描述一个在 gRPC metadata 与 context 之间双向透传的值。
type carried struct {
	key  string
	from func(context.Context) (string, bool)
	with func(context.Context, string) context.Context
}

// propagated 是服务间透传的上下文：trace/span 用于日志关联，subject 是审计记录的操作者。
var propagated = []carried{
	{key: "x-trace-id", from: tracex.TraceIDFrom, with: tracex.WithTraceID},
	{key: "x-span-id", from: tracex.SpanIDFrom, with: tracex.WithSpanID},
	{key: "x-subject", from: subjectFrom, with: security.WithSubject},
}

func subjectFrom(ctx context.Context) (string, bool) {
	s := security.SubjectFrom(ctx)
	return s, s != security.Anonymous
}

func unaryClientInterceptor() gogrpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *gogrpc.ClientConn,
		invoker gogrpc.UnaryInvoker, opts ...gogrpc.CallOption) error {
		return invoker(toOutgoing(ctx), method, req, reply, cc, opts...)
	}
}

func unaryServerInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		return handler(fromIncoming(ctx), req)
	}
}

// streamServerInterceptor 覆盖 health Watch。
func streamServerInterceptor() gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, _ *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		return handler(srv, &ctxServerStream{ServerStream: ss, ctx: fromIncoming(ss.Context())})
	}
}

type ctxServerStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (s *ctxServerStream) Context() context.Context { return s.ctx }

func toOutgoing(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	kv := make([]string, 0, 2*len(propagated))
	for _, c := range propagated {
		if v, ok := c.from(ctx); ok {
			kv = append(kv, c.key, v)
		}
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

func fromIncoming(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	for _, c := range propagated {
		if vs := md.Get(c.key); len(vs) > 0 && vs[0] != "" {
			ctx = c.with(ctx, vs[0])
		}
	}
	return ctx
}
