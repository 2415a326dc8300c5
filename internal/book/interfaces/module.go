package interfaces

import (
	"github.com/gin-gonic/gin"

	"BookShelf/internal/book/app"
	"BookShelf/internal/book/interfaces/handler"
	"BookShelf/internal/shared/security"
	"BookShelf/internal/shared/transport/http/middleware"
	"BookShelf/modules/kit/logx"
)

type Module struct {
	book *handler.Book
	auth gin.HandlerFunc
}

// New 组装图书模块；iss 为 nil 时写接口不鉴权。
func New(svc *app.BookService, log logx.Logger, iss *security.Issuer) *Module {
	return &Module{
		book: handler.NewBook(svc, log),
		auth: middleware.Auth(iss, security.ScopeBooksWrite),
	}
}

func (m *Module) Register(r gin.IRouter) {
	m.book.RegisterRoutes(r, m.auth)
}
