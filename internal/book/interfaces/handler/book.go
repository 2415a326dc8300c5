package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/util/sets"

	"BookShelf/internal/book/app"
	"BookShelf/internal/book/dto"
	"BookShelf/internal/shared/transport"
	"BookShelf/modules/kit/logx"
)

// 可写字段的 json 名 -> Go 字段名，PATCH 校验时据此排除未声明字段
var (
	bookReqFields   = map[string]string{"title": "Title", "description": "Description", "pages": "Pages", "authors": "Authors"}
	authorReqFields = map[string]string{"name": "Name"}
)

// 作者身份由路径决定，请求体里的 authorId 不会被应用，也不参与校验
var authorReadOnly = []string{"AuthorID"}

type Book struct {
	svc      *app.BookService
	log      logx.Logger
	validate *validator.Validate
}

func NewBook(svc *app.BookService, log logx.Logger) *Book {
	if log == nil {
		log = logx.Nop()
	}
	return &Book{svc: svc, log: log, validate: newValidator()}
}

// RegisterRoutes 挂载 /api/v1/books；write 是写接口前置的中间件（鉴权）。
func (h *Book) RegisterRoutes(r gin.IRouter, write ...gin.HandlerFunc) {
	g := r.Group("/api/v1/books")
	w := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), hf)
	}

	g.GET("", h.list)
	g.POST("", w(h.create)...)
	g.GET("/:bookId", h.get)
	g.PUT("/:bookId", w(h.update)...)
	g.PATCH("/:bookId", w(h.patch)...)
	g.DELETE("/:bookId", w(h.delete)...)
	g.GET("/:bookId/authors/:authorId", h.getAuthor)
	g.PATCH("/:bookId/authors/:authorId", w(h.patchAuthor)...)
	g.GET("/:bookId/audit", h.audit)
}

type pageQuery struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *Book) list(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.reportError(c, "book list", invalid("offset/limit 不合法", err))
		return
	}
	page, err := h.svc.ListBooks(c.Request.Context(), q.Offset, q.Limit)
	if err != nil {
		h.reportError(c, "book list", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(dto.NewBookPageView(page)))
}

func (h *Book) create(c *gin.Context) {
	var req dto.BookReq
	if _, err := decodeBody(c, &req); err != nil {
		h.reportError(c, "book create", err)
		return
	}
	if err := h.validateAll(&req); err != nil {
		h.reportError(c, "book create", err)
		return
	}
	b, err := h.svc.AddBook(c.Request.Context(), &req)
	if err != nil {
		h.reportError(c, "book create", err)
		return
	}
	c.Header("Location", "/api/v1/books/"+b.BookID.String())
	c.JSON(http.StatusCreated, transport.Success(dto.NewBookView(b)))
}

func (h *Book) get(c *gin.Context) {
	id, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "book get", err)
		return
	}
	b, err := h.svc.GetBook(c.Request.Context(), id)
	if err != nil {
		h.reportError(c, "book get", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(dto.NewBookView(b)))
}

// update 是 PUT：请求体必须完整，全部可写字段都会被应用。
func (h *Book) update(c *gin.Context) {
	id, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "book update", err)
		return
	}
	var req dto.BookReq
	if _, err := decodeBody(c, &req); err != nil {
		h.reportError(c, "book update", err)
		return
	}
	if err := h.validateAll(&req); err != nil {
		h.reportError(c, "book update", err)
		return
	}
	res, err := h.svc.UpdateBook(c.Request.Context(), id, &req)
	if err != nil {
		h.reportError(c, "book update", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(dto.NewUpdateView(res)))
}

// patch 只应用请求体里出现的顶层 key；不认识的 key 忽略。
func (h *Book) patch(c *gin.Context) {
	id, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "book patch", err)
		return
	}
	var req dto.BookReq
	declared, err := decodeBody(c, &req)
	if err != nil {
		h.reportError(c, "book patch", err)
		return
	}
	if err := h.validateDeclared(&req, declared, bookReqFields); err != nil {
		h.reportError(c, "book patch", err)
		return
	}
	res, err := h.svc.PatchBook(c.Request.Context(), id, &req, sets.List(declared))
	if err != nil {
		h.reportError(c, "book patch", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(dto.NewUpdateView(res)))
}

func (h *Book) delete(c *gin.Context) {
	id, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "book delete", err)
		return
	}
	if err := h.svc.DeleteBook(c.Request.Context(), id); err != nil {
		h.reportError(c, "book delete", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(nil))
}

func (h *Book) getAuthor(c *gin.Context) {
	bookID, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "author get", err)
		return
	}
	authorID, err := pathUUID(c, "authorId")
	if err != nil {
		h.reportError(c, "author get", err)
		return
	}
	a, err := h.svc.GetAuthor(c.Request.Context(), bookID, authorID)
	if err != nil {
		h.reportError(c, "author get", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(dto.NewAuthorView(a)))
}

func (h *Book) patchAuthor(c *gin.Context) {
	bookID, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "author patch", err)
		return
	}
	authorID, err := pathUUID(c, "authorId")
	if err != nil {
		h.reportError(c, "author patch", err)
		return
	}
	var req dto.AuthorReq
	declared, err := decodeBody(c, &req)
	if err != nil {
		h.reportError(c, "author patch", err)
		return
	}
	if err := h.validateDeclared(&req, declared, authorReqFields, authorReadOnly...); err != nil {
		h.reportError(c, "author patch", err)
		return
	}
	res, err := h.svc.PatchAuthor(c.Request.Context(), bookID, authorID, &req, sets.List(declared))
	if err != nil {
		h.reportError(c, "author patch", err)
		return
	}
	c.JSON(http.StatusOK, transport.Success(dto.NewAuthorUpdateView(res)))
}

type auditQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (h *Book) audit(c *gin.Context) {
	id, err := pathUUID(c, "bookId")
	if err != nil {
		h.reportError(c, "book audit", err)
		return
	}
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.reportError(c, "book audit", invalid("limit 不合法", err))
		return
	}
	entries, err := h.svc.ListAudit(c.Request.Context(), id, q.Limit)
	if err != nil {
		h.reportError(c, "book audit", err)
		return
	}
	views := make([]dto.AuditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, dto.NewAuditView(e))
	}
	c.JSON(http.StatusOK, transport.Success(views))
}
