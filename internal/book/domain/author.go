package domain

import (
	"github.com/google/uuid"

	"BookShelf/modules/kit/errx"
)

// AuthorSource 是可以拷贝成 Author 的来源（请求 DTO、持久化模型、Author 自身）。
type AuthorSource interface {
	GetAuthorID() uuid.UUID
	GetName() string
}

// entity
type Author struct {
	AuthorID uuid.UUID `json:"authorId"` // patch:identity
	Name     string    `json:"name"`
}

func (a *Author) GetAuthorID() uuid.UUID { return a.AuthorID }

func (a *Author) GetName() string { return a.Name }

// NewAuthor 返回空作者。
func NewAuthor() *Author {
	return &Author{}
}

// NewAuthorFrom 从任意来源深拷贝出一个新作者，返回值不与 src 共享任何状态。
// 同时也是 authors 集合协调时新增成员的 clone 函数。
func NewAuthorFrom(src AuthorSource) *Author {
	if isNil(src) {
		panic(errx.Invariant("domain: nil author source", nil))
	}
	return &Author{
		AuthorID: src.GetAuthorID(),
		Name:     src.GetName(),
	}
}
