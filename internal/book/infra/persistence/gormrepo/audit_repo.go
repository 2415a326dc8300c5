package gormrepo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/book/errs"
	"BookShelf/internal/book/infra/persistence/mapper"
	"BookShelf/internal/book/infra/persistence/model"
)

const (
	OpAppendAudit = "repo.audit.Append"
	OpListAudit   = "repo.audit.ListByBook"
)

type AuditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	if err := r.db.WithContext(ctx).Create(mapper.AuditToModel(e)).Error; err != nil {
		return errs.Wrap(OpAppendAudit, errs.KindInfra, err, map[string]any{"book_id": e.BookID.String(), "id": e.ID})
	}
	return nil
}

// ListByBook 按 id 倒序（雪花 id 随时间递增，即最新的在前）。
func (r *AuditRepo) ListByBook(ctx context.Context, bookID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	var ms []model.AuditModel
	q := r.db.WithContext(ctx).Where("book_id = ?", bookID.String()).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, errs.Wrap(OpListAudit, errs.KindInfra, err, map[string]any{"book_id": bookID.String()})
	}
	out := make([]domain.AuditEntry, 0, len(ms))
	for i := range ms {
		out = append(out, mapper.AuditModelToDomain(&ms[i]))
	}
	return out, nil
}
