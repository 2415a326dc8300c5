package domain

import "BookShelf/modules/kit/errx"

// Code 表示领域错误码（对外语义的唯一来源之一）。
//
// 约定：
// - 领域层只关心“是什么错”（code）以及“业务上下文”（data）
// - cause 仅用于溯源/日志，不参与对外语义
type Code = errx.Code

const (
	CodeBookNotFound   Code = "BOOK_NOT_FOUND"
	CodeAuthorNotFound Code = "AUTHOR_NOT_FOUND"
)

type Error = errx.Error

var (
	ErrBookNotFound   = errx.NewBiz(CodeBookNotFound, "")
	ErrAuthorNotFound = errx.NewBiz(CodeAuthorNotFound, "")
)
