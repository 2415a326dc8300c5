package mapper

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/book/infra/persistence/model"
)

func BookToModel(b *domain.Book) *model.BookModel {
	if b == nil {
		return nil
	}
	id := b.BookID.String()
	m := &model.BookModel{
		ID:          id,
		Title:       b.Title,
		Description: b.Description,
		Pages:       b.Pages,
		Authors:     make([]model.AuthorModel, 0, len(b.Authors)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for i, a := range b.Authors {
		m.Authors = append(m.Authors, model.AuthorModel{
			BookID:   id,
			AuthorID: a.AuthorID.String(),
			Name:     a.Name,
			Position: i,
		})
	}
	return m
}

// BookModelToDomain 通过领域拷贝工厂构造实体；作者按 position 排序。
func BookModelToDomain(m *model.BookModel) *domain.Book {
	if m == nil {
		return nil
	}
	sort.SliceStable(m.Authors, func(i, j int) bool { return m.Authors[i].Position < m.Authors[j].Position })
	return domain.NewBookFrom(m)
}

func BookToDoc(b *domain.Book) *model.BookDoc {
	if b == nil {
		return nil
	}
	d := &model.BookDoc{
		ID:          b.BookID.String(),
		Title:       b.Title,
		Description: b.Description,
		Pages:       b.Pages,
		Authors:     make([]model.AuthorDoc, 0, len(b.Authors)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	for _, a := range b.Authors {
		d.Authors = append(d.Authors, model.AuthorDoc{AuthorID: a.AuthorID.String(), Name: a.Name})
	}
	return d
}

func BookDocToDomain(d *model.BookDoc) *domain.Book {
	if d == nil {
		return nil
	}
	return domain.NewBookFrom(d)
}

func AuditToModel(e domain.AuditEntry) *model.AuditModel {
	return &model.AuditModel{
		ID:         e.ID,
		BookID:     e.BookID.String(),
		AuthorID:   optionalUUID(e.AuthorID),
		Op:         string(e.Op),
		Subject:    e.Subject,
		Fields:     strings.Join(e.Fields, ","),
		MergePatch: string(e.MergePatch),
		CreatedAt:  e.CreatedAt,
	}
}

func AuditModelToDomain(m *model.AuditModel) domain.AuditEntry {
	fields := []string{}
	if m.Fields != "" {
		fields = strings.Split(m.Fields, ",")
	}
	return domain.AuditEntry{
		ID:         m.ID,
		BookID:     parseUUID(m.BookID),
		AuthorID:   parseUUID(m.AuthorID),
		Op:         domain.AuditOp(m.Op),
		Subject:    m.Subject,
		Fields:     fields,
		MergePatch: []byte(m.MergePatch),
		CreatedAt:  m.CreatedAt,
	}
}

func AuditToDoc(e domain.AuditEntry) *model.AuditDoc {
	fields := e.Fields
	if fields == nil {
		fields = []string{}
	}
	return &model.AuditDoc{
		ID:         e.ID,
		BookID:     e.BookID.String(),
		AuthorID:   optionalUUID(e.AuthorID),
		Op:         string(e.Op),
		Subject:    e.Subject,
		Fields:     fields,
		MergePatch: string(e.MergePatch),
		CreatedAt:  e.CreatedAt,
	}
}

func AuditDocToDomain(d *model.AuditDoc) domain.AuditEntry {
	fields := d.Fields
	if fields == nil {
		fields = []string{}
	}
	return domain.AuditEntry{
		ID:         d.ID,
		BookID:     parseUUID(d.BookID),
		AuthorID:   parseUUID(d.AuthorID),
		Op:         domain.AuditOp(d.Op),
		Subject:    d.Subject,
		Fields:     fields,
		MergePatch: []byte(d.MergePatch),
		CreatedAt:  d.CreatedAt,
	}
}

// optionalUUID：零值 uuid 存空串
func optionalUUID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func parseUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
