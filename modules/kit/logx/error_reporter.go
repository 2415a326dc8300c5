package logx

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

type codeTextProvider interface {
	CodeText() string
}

type msgProvider interface {
	Msg() string
}

// dataProvider 由 errx.Error（业务/系统上下文）与仓储层错误（关键参数）共同实现。
type dataProvider interface {
	Data() map[string]any
}

// operationProvider 由仓储层错误实现，返回发生位置，例如 repo.book.UpdateBook。
type operationProvider interface {
	Operation() string
}

type stackProvider interface {
	Stack() []uintptr
}

type reasonProvider interface {
	Reason() string
}

type ErrorLog struct {
	Error      string
	Code       string
	Msg        string
	Reason     string
	Op         string
	Data       map[string]any // 整条 cause 链上的上下文合并，外层同名 key 优先
	CauseChain []string
	Origin     string
	Stack      string
}

const (
	maxCauseDepth  = 20
	maxStackFrames = 32
)

// BuildErrorLog 把错误码/上下文/cause 链/发生处栈提取成便于阅读的结构，用于接口层统一打印。
// 包装成不变量错误的 patchx 字段错误、包装成 SERVICE_UNAVAILABLE 的仓储错误，
// 内层的 field / book_id / op 都会被带出来。
func BuildErrorLog(err error) ErrorLog {
	if err == nil {
		return ErrorLog{}
	}
	out := ErrorLog{Error: err.Error()}

	var cp codeTextProvider
	if errors.As(err, &cp) {
		out.Code = cp.CodeText()
	}
	var mp msgProvider
	if errors.As(err, &mp) {
		out.Msg = mp.Msg()
	}
	var rp reasonProvider
	if errors.As(err, &rp) {
		out.Reason = rp.Reason()
	}
	var sp stackProvider
	if errors.As(err, &sp) {
		out.Origin, out.Stack = formatStack(sp.Stack(), maxStackFrames)
	}

	for cur, depth := err, 0; cur != nil && depth <= maxCauseDepth; cur, depth = errors.Unwrap(cur), depth+1 {
		if depth > 0 {
			out.CauseChain = append(out.CauseChain, fmt.Sprintf("%T: %v", cur, cur))
		}
		if op, ok := cur.(operationProvider); ok && out.Op == "" {
			out.Op = op.Operation()
		}
		if dp, ok := cur.(dataProvider); ok {
			out.Data = mergeMissing(out.Data, dp.Data())
		}
	}
	return out
}

func mergeMissing(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if dst == nil {
			dst = make(map[string]any, len(src))
		}
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}

func formatStack(pcs []uintptr, maxFrames int) (origin string, stack string) {
	if len(pcs) == 0 || maxFrames <= 0 {
		return "", ""
	}
	frames := runtime.CallersFrames(pcs)
	lines := make([]string, 0, maxFrames)
	for len(lines) < maxFrames {
		f, more := frames.Next()
		if f.Function == "" && f.File == "" && f.Line == 0 {
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	if len(lines) == 0 {
		return "", ""
	}
	return lines[0], strings.Join(lines, "\n")
}
