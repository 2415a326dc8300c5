package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"BookShelf/internal/shared/security"
	"BookShelf/internal/shared/transport"
)

const bearerPrefix = "Bearer "

// Auth 校验 Bearer 令牌与权限，把 subject 写入请求 ctx。
// iss 为 nil 表示未开启鉴权，直接放行（操作者记为 anonymous）。
func Auth(iss *security.Issuer, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if iss == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		raw := c.GetHeader("Authorization")
		if !strings.HasPrefix(raw, bearerPrefix) {
			transport.SetErrorReason(ctx, "TOKEN_MISSING")
			c.AbortWithStatusJSON(http.StatusUnauthorized, transport.Error(transport.Unauthorized, "未登录或令牌缺失"))
			return
		}
		_, claims, err := iss.ParseToken(strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix)))
		if err != nil {
			transport.SetErrorReason(ctx, "TOKEN_INVALID")
			c.AbortWithStatusJSON(http.StatusUnauthorized, transport.Error(transport.Unauthorized, "令牌无效或已过期"))
			return
		}
		if scope != "" && !claims.HasScope(scope) {
			transport.SetErrorReason(ctx, "SCOPE_DENIED")
			c.AbortWithStatusJSON(http.StatusForbidden, transport.Error(transport.Forbidden, "权限不足"))
			return
		}

		c.Request = c.Request.WithContext(security.WithSubject(ctx, claims.Subject))
		c.Next()
	}
}
