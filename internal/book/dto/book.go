package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"BookShelf/internal/book/app"
	"BookShelf/internal/book/domain"
)

// BookReq 是 POST/PUT/PATCH 的请求体，实现 domain.BookSource。
// PATCH 时只有请求体里实际出现的顶层 key 才算声明字段。
type BookReq struct {
	Title       string      `json:"title" validate:"required,max=255"`
	Description string      `json:"description" validate:"max=4000"`
	Pages       int         `json:"pages" validate:"gte=0,lte=100000"`
	Authors     []AuthorReq `json:"authors" validate:"max=64,dive"`
}

func (r *BookReq) GetBookID() uuid.UUID { return uuid.Nil }

func (r *BookReq) GetTitle() string { return r.Title }

func (r *BookReq) GetDescription() string { return r.Description }

func (r *BookReq) GetPages() int { return r.Pages }

func (r *BookReq) GetAuthors() []domain.AuthorSource {
	out := make([]domain.AuthorSource, len(r.Authors))
	for i := range r.Authors {
		out[i] = &r.Authors[i]
	}
	return out
}

// AuthorReq：authorId 为空表示新作者，由服务端分配。
type AuthorReq struct {
	AuthorID string `json:"authorId" validate:"omitempty,uuid"`
	Name     string `json:"name" validate:"required,max=128"`
}

func (r *AuthorReq) GetAuthorID() uuid.UUID {
	id, err := uuid.Parse(r.AuthorID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (r *AuthorReq) GetName() string { return r.Name }

type AuthorView struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type BookView struct {
	BookID      string       `json:"bookId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Pages       int          `json:"pages"`
	Authors     []AuthorView `json:"authors"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// UpdateView 是 PUT/PATCH 的响应：更新后的图书 + 本次已应用字段。
type UpdateView struct {
	Book    BookView `json:"book"`
	Applied []string `json:"applied"`
}

type AuthorUpdateView struct {
	Author  AuthorView `json:"author"`
	Applied []string   `json:"applied"`
}

type BookPageView struct {
	Items  []BookView `json:"items"`
	Total  int64      `json:"total"`
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
}

type AuditView struct {
	ID         int64           `json:"id,string"`
	Op         string          `json:"op"`
	AuthorID   string          `json:"authorId,omitempty"`
	Subject    string          `json:"subject"`
	Fields     []string        `json:"fields"`
	MergePatch json.RawMessage `json:"mergePatch"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func NewAuthorView(a *domain.Author) AuthorView {
	return AuthorView{AuthorID: a.AuthorID.String(), Name: a.Name}
}

func NewBookView(b *domain.Book) BookView {
	v := BookView{
		BookID:      b.BookID.String(),
		Title:       b.Title,
		Description: b.Description,
		Pages:       b.Pages,
		Authors:     make([]AuthorView, 0, len(b.Authors)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for _, a := range b.Authors {
		v.Authors = append(v.Authors, NewAuthorView(a))
	}
	return v
}

func NewUpdateView(u app.BookUpdate) UpdateView {
	return UpdateView{Book: NewBookView(u.Book), Applied: nonNil(u.Applied)}
}

func NewAuthorUpdateView(u app.AuthorUpdate) AuthorUpdateView {
	return AuthorUpdateView{Author: NewAuthorView(u.Author), Applied: nonNil(u.Applied)}
}

func NewBookPageView(p app.BookPage) BookPageView {
	v := BookPageView{Items: make([]BookView, 0, len(p.Items)), Total: p.Total, Offset: p.Offset, Limit: p.Limit}
	for _, b := range p.Items {
		v.Items = append(v.Items, NewBookView(b))
	}
	return v
}

// NewAuditView 把 merge patch 原样嵌入响应；删除记录或缺失时是 null。
func NewAuditView(e domain.AuditEntry) AuditView {
	mergePatch := json.RawMessage("null")
	if len(e.MergePatch) > 0 && json.Valid(e.MergePatch) {
		mergePatch = json.RawMessage(e.MergePatch)
	}
	v := AuditView{
		ID:         e.ID,
		Op:         string(e.Op),
		Subject:    e.Subject,
		Fields:     nonNil(e.Fields),
		MergePatch: mergePatch,
		CreatedAt:  e.CreatedAt,
	}
	if e.AuthorID != uuid.Nil {
		v.AuthorID = e.AuthorID.String()
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
