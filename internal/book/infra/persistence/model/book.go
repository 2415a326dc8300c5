package model

import (
	"time"

	"github.com/google/uuid"

	"BookShelf/internal/book/domain"
)

// BookModel 对应 book 表；作者在 book_author 表，按 position 保持顺序。
type BookModel struct {
	ID          string        `gorm:"column:id;type:char(36);primaryKey;comment:图书id"`
	Title       string        `gorm:"column:title;type:varchar(255);not null;default:'';comment:书名"`
	Description string        `gorm:"column:description;type:text;comment:简介"`
	Pages       int           `gorm:"column:pages;type:int;not null;default:0;comment:页数"`
	Authors     []AuthorModel `gorm:"foreignKey:BookID;references:ID"`
	// 时间戳由领域层 Touch 维护，关闭 gorm 自动填充
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false;index"`
}

func (m *BookModel) TableName() string {
	return "book"
}

func (m *BookModel) GetBookID() uuid.UUID { return parseUUID(m.ID) }

func (m *BookModel) GetTitle() string { return m.Title }

func (m *BookModel) GetDescription() string { return m.Description }

func (m *BookModel) GetPages() int { return m.Pages }

func (m *BookModel) GetAuthors() []domain.AuthorSource {
	out := make([]domain.AuthorSource, len(m.Authors))
	for i := range m.Authors {
		out[i] = &m.Authors[i]
	}
	return out
}

func (m *BookModel) GetCreatedAt() time.Time { return m.CreatedAt }

func (m *BookModel) GetUpdatedAt() time.Time { return m.UpdatedAt }

// AuthorModel 是图书独占的作者行，(book_id, author_id) 联合主键。
type AuthorModel struct {
	BookID   string `gorm:"column:book_id;type:char(36);primaryKey"`
	AuthorID string `gorm:"column:author_id;type:char(36);primaryKey"`
	Name     string `gorm:"column:name;type:varchar(128);not null;default:'';comment:作者名"`
	Position int    `gorm:"column:position;type:int;not null;default:0;comment:在作者列表中的位置"`
}

func (m *AuthorModel) TableName() string {
	return "book_author"
}

func (m *AuthorModel) GetAuthorID() uuid.UUID { return parseUUID(m.AuthorID) }

func (m *AuthorModel) GetName() string { return m.Name }

// AuditModel 对应 book_audit 表，只追加。
type AuditModel struct {
	ID         int64     `gorm:"column:id;type:bigint;primaryKey;autoIncrement:false;comment:雪花id"`
	BookID     string    `gorm:"column:book_id;type:char(36);not null;index:idx_audit_book"`
	AuthorID   string    `gorm:"column:author_id;type:char(36);not null;default:''"`
	Op         string    `gorm:"column:op;type:varchar(32);not null"`
	Subject    string    `gorm:"column:subject;type:varchar(128);not null;default:''"`
	Fields     string    `gorm:"column:fields;type:varchar(512);not null;default:'';comment:已应用字段，逗号分隔"`
	MergePatch string    `gorm:"column:merge_patch;type:text;comment:RFC 7386 merge patch"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (m *AuditModel) TableName() string {
	return "book_audit"
}

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
