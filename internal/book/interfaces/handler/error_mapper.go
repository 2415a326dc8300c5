package handler

import (
	"errors"
	"fmt"
	"net/http"

	"BookShelf/internal/book/app"
	"BookShelf/internal/shared/transport"
	"BookShelf/modules/kit/errx"
)

type httpError struct {
	status int
	code   int
	msg    string
}

// toHTTPError 把应用层错误映射成 HTTP 状态码 + 响应体业务码。
func toHTTPError(err error) httpError {
	switch {
	case errors.Is(err, app.ErrBookNotFound):
		return httpError{http.StatusNotFound, transport.BookNotFound, "图书不存在"}
	case errors.Is(err, app.ErrAuthorNotFound):
		return httpError{http.StatusNotFound, transport.AuthorNotFound, "作者不存在"}
	case errors.Is(err, app.ErrInvalidArgument):
		msg := "参数错误"
		if detail := detailOf(err); detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, detail)
		}
		return httpError{http.StatusBadRequest, transport.InvalidParam, msg}
	case errors.Is(err, app.ErrUnavailable):
		return httpError{http.StatusServiceUnavailable, transport.Unavailable, "服务暂不可用，请稍后重试"}
	default:
		return httpError{http.StatusInternalServerError, transport.SystemError, "系统繁忙，请稍后重试"}
	}
}

func detailOf(err error) string {
	var xe *errx.Error
	if !errors.As(err, &xe) {
		return ""
	}
	detail, _ := xe.Data()["detail"].(string)
	return detail
}
