package handler

import (
	"github.com/gin-gonic/gin"

	"BookShelf/internal/shared/transport"
	"BookShelf/modules/kit/errx"
	"BookShelf/modules/kit/logx"
)

// reportError 每个失败请求只调用一次：业务拒绝打 biz 日志，技术错误打带栈的 sys 日志，再写响应。
func (h *Book) reportError(c *gin.Context, action string, err error) {
	ctx := c.Request.Context()
	he := toHTTPError(err)
	reason := string(errx.CodeOf(err))
	transport.SetErrorReason(ctx, reason)

	if errx.IsBiz(err) {
		logx.ReportBiz(ctx, h.log, logx.NewBizLog(action, reason, he.msg))
	} else {
		logx.ReportSysError(ctx, h.log, logx.NewSysLog(action, err))
	}
	c.AbortWithStatusJSON(he.status, transport.Error(he.code, he.msg))
}
