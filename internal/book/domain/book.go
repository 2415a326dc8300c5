package domain

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"BookShelf/modules/kit/errx"
)

// BookSource 是可以拷贝成 Book 的来源：只要求身份和可写字段。
type BookSource interface {
	GetBookID() uuid.UUID
	GetTitle() string
	GetDescription() string
	GetPages() int
	GetAuthors() []AuthorSource
}

// Timestamped 由持久化模型实现，拷贝时顺带带上只读的时间戳。
type Timestamped interface {
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// entity
type Book struct {
	BookID      uuid.UUID `json:"bookId"` // patch:identity
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Pages       int       `json:"pages"`
	Authors     []*Author `json:"authors"`
	CreatedAt   time.Time `json:"createdAt"` // patch:readonly
	UpdatedAt   time.Time `json:"updatedAt"` // patch:readonly
}

func (b *Book) GetBookID() uuid.UUID { return b.BookID }

func (b *Book) GetTitle() string { return b.Title }

func (b *Book) GetDescription() string { return b.Description }

func (b *Book) GetPages() int { return b.Pages }

func (b *Book) GetAuthors() []AuthorSource {
	out := make([]AuthorSource, len(b.Authors))
	for i, a := range b.Authors {
		out[i] = a
	}
	return out
}

func (b *Book) GetCreatedAt() time.Time { return b.CreatedAt }

func (b *Book) GetUpdatedAt() time.Time { return b.UpdatedAt }

// NewBook 返回空图书，Authors 为非 nil 的空切片。
func NewBook() *Book {
	return &Book{Authors: []*Author{}}
}

// NewBookFrom 从任意来源深拷贝出一个新图书；作者逐个经 NewAuthorFrom 拷贝。
func NewBookFrom(src BookSource) *Book {
	if isNil(src) {
		panic(errx.Invariant("domain: nil book source", nil))
	}
	authors := src.GetAuthors()
	b := &Book{
		BookID:      src.GetBookID(),
		Title:       src.GetTitle(),
		Description: src.GetDescription(),
		Pages:       src.GetPages(),
		Authors:     make([]*Author, 0, len(authors)),
	}
	for _, a := range authors {
		b.Authors = append(b.Authors, NewAuthorFrom(a))
	}
	if ts, ok := src.(Timestamped); ok {
		b.CreatedAt = ts.GetCreatedAt()
		b.UpdatedAt = ts.GetUpdatedAt()
	}
	return b
}

// Author 按身份查找作者。
func (b *Book) Author(id uuid.UUID) (*Author, bool) {
	for _, a := range b.Authors {
		if a.AuthorID == id {
			return a, true
		}
	}
	return nil, false
}

// AuthorIDs 按当前顺序返回作者身份。
func (b *Book) AuthorIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(b.Authors))
	for i, a := range b.Authors {
		out[i] = a.AuthorID
	}
	return out
}

// AssignAuthorIDs 给没有身份的作者分配 id（客户端可以不传 authorId）。
// current 非 nil 时，与 current 中同名且未被显式引用的作者视为同一人，沿用其 id，
// 这样重复提交同一个不带 id 的请求不会让作者换身份；其余分配 gen 生成的新 id。
func (b *Book) AssignAuthorIDs(current *Book, gen func() uuid.UUID) {
	reusable := map[string][]uuid.UUID{}
	if current != nil {
		claimed := sets.New[uuid.UUID]()
		for _, a := range b.Authors {
			if a.AuthorID != uuid.Nil {
				claimed.Insert(a.AuthorID)
			}
		}
		for _, a := range current.Authors {
			if !claimed.Has(a.AuthorID) {
				reusable[a.Name] = append(reusable[a.Name], a.AuthorID)
			}
		}
	}
	for _, a := range b.Authors {
		if a.AuthorID != uuid.Nil {
			continue
		}
		if ids := reusable[a.Name]; len(ids) > 0 {
			a.AuthorID, reusable[a.Name] = ids[0], ids[1:]
			continue
		}
		a.AuthorID = gen()
	}
}

// Touch 更新修改时间；创建时间为空时一并补上。
func (b *Book) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// isNil 同时识别接口 nil 与装着 nil 指针的接口。
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
