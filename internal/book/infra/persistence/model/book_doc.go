package model

import (
	"time"

	"github.com/google/uuid"

	"BookShelf/internal/book/domain"
)

// BookDoc 是 books 集合里的一本书，作者内嵌，整本书一个文档。
type BookDoc struct {
	ID          string      `bson:"_id"`
	Title       string      `bson:"title"`
	Description string      `bson:"description"`
	Pages       int         `bson:"pages"`
	Authors     []AuthorDoc `bson:"authors"`
	CreatedAt   time.Time   `bson:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt"`
}

func (d *BookDoc) GetBookID() uuid.UUID { return parseUUID(d.ID) }

func (d *BookDoc) GetTitle() string { return d.Title }

func (d *BookDoc) GetDescription() string { return d.Description }

func (d *BookDoc) GetPages() int { return d.Pages }

func (d *BookDoc) GetAuthors() []domain.AuthorSource {
	out := make([]domain.AuthorSource, len(d.Authors))
	for i := range d.Authors {
		out[i] = &d.Authors[i]
	}
	return out
}

func (d *BookDoc) GetCreatedAt() time.Time { return d.CreatedAt }

func (d *BookDoc) GetUpdatedAt() time.Time { return d.UpdatedAt }

type AuthorDoc struct {
	AuthorID string `bson:"authorId"`
	Name     string `bson:"name"`
}

func (d *AuthorDoc) GetAuthorID() uuid.UUID { return parseUUID(d.AuthorID) }

func (d *AuthorDoc) GetName() string { return d.Name }

// AuditDoc 是 book_audits 集合里的一条审计记录。
type AuditDoc struct {
	ID         int64     `bson:"_id"`
	BookID     string    `bson:"bookId"`
	AuthorID   string    `bson:"authorId,omitempty"`
	Op         string    `bson:"op"`
	Subject    string    `bson:"subject"`
	Fields     []string  `bson:"fields"`
	MergePatch string    `bson:"mergePatch"`
	CreatedAt  time.Time `bson:"createdAt"`
}
