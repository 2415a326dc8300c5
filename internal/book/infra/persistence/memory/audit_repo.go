package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"BookShelf/internal/book/domain"
)

type AuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

func (r *AuditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.Fields = slices.Clone(e.Fields)
	e.MergePatch = slices.Clone(e.MergePatch)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// ListByBook 最新的在前。
func (r *AuditRepo) ListByBook(ctx context.Context, bookID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.AuditEntry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if e := r.entries[i]; e.BookID == bookID {
			out = append(out, e)
		}
	}
	return out, nil
}
