package app

import (
	"errors"

	"BookShelf/internal/book/domain"
	"BookShelf/modules/kit/errx"
)

// Code 表示应用层错误码（通常更贴近“业务语义/对外协议”）。
type Code = errx.Code

const (
	CodeBookNotFound   Code = domain.CodeBookNotFound
	CodeAuthorNotFound Code = domain.CodeAuthorNotFound
	// CodeUnavailable 复用 kit 的统一系统码（跨服务一致，便于告警/排障）。
	CodeUnavailable Code = errx.CodeUnavailable
)

type Error = errx.Error

// 常用错误定义（哨兵错误）：禁止直接修改其 data/cause（通过 WithData/WithCause 派生新对象）。
var (
	ErrBookNotFound    = errx.NewBiz(CodeBookNotFound, "图书不存在")
	ErrAuthorNotFound  = errx.NewBiz(CodeAuthorNotFound, "作者不存在")
	ErrInvalidArgument = errx.ErrInvalidArgument
	ErrUnavailable     = errx.ErrUnavailable
)

// translateRepoErr 把仓储错误翻译成应用层错误：领域“不存在”转成带提示语的业务错误，其余一律视为依赖不可用。
func translateRepoErr(err error, data map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrBookNotFound):
		return ErrBookNotFound.WithDataMap(data)
	case errors.Is(err, domain.ErrAuthorNotFound):
		return ErrAuthorNotFound.WithDataMap(data)
	default:
		return ErrUnavailable.WithDataMap(data).WithCause(err)
	}
}
