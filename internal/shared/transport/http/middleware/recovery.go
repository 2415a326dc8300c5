package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"BookShelf/internal/shared/transport"
	"BookShelf/modules/kit/errx"
	"BookShelf/modules/kit/logx"
)

// Recovery 把 handler 中的 panic（包括 patch 引擎的契约破坏）转成 500 统一响应，并打一条系统错误日志。
func Recovery(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}
			if errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			ctx := c.Request.Context()
			logx.ReportSysError(ctx, log, logx.NewSysLog("panic recovered", err))
			transport.SetErrorReason(ctx, string(errx.CodeOf(err)))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				transport.Error(transport.SystemError, "系统繁忙，请稍后重试"))
		}()
		c.Next()
	}
}
