package security

import "context"

// Anonymous 是未开启鉴权时记录的操作者。
const Anonymous = "anonymous"

type subjectKey struct{}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFrom 返回当前请求的操作者；没有时返回 Anonymous。
func SubjectFrom(ctx context.Context) string {
	if ctx == nil {
		return Anonymous
	}
	if s, ok := ctx.Value(subjectKey{}).(string); ok && s != "" {
		return s
	}
	return Anonymous
}
