package errs

import "fmt"

type Kind string

const (
	KindUnknown Kind = "unknown"
	KindInfra   Kind = "infra"
	KindCodec   Kind = "codec"
)

// Error 是仓储层的技术错误包装：记录发生位置与关键参数，根因保留在 Cause。
type Error struct {
	Op    string         // 发生位置：repo.book.GetBook / repo.audit.Append
	Kind  Kind           // 粗分类
	Meta  map[string]any // 关键参数（book_id...）
	Cause error          // 根因（必须保留）
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Operation 与 Data 供 logx.BuildErrorLog 提取发生位置与关键参数。
func (e *Error) Operation() string { return e.Op }

func (e *Error) Data() map[string]any { return e.Meta }

// Wrap：统一包装入口
func Wrap(op string, kind Kind, cause error, meta map[string]any) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Cause: cause, Meta: meta}
}
