// Package memory 是进程内仓储：storage.driver=memory 时使用，也作为服务层集成测试的底座。
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"BookShelf/internal/book/domain"
)

// BookRepo 存的是独立副本：写入和读出都深拷贝，调用方拿到的实体可以随意修改。
type BookRepo struct {
	mu    sync.RWMutex
	books map[uuid.UUID]*domain.Book
}

func NewBookRepo() *BookRepo {
	return &BookRepo{books: make(map[uuid.UUID]*domain.Book)}
}

func (r *BookRepo) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return domain.NewBookFrom(b), nil
}

// ListBooks 按创建时间、id 排序分页。
func (r *BookRepo) ListBooks(ctx context.Context, offset, limit int) ([]*domain.Book, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Book, 0, len(r.books))
	for _, b := range r.books {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].BookID.String() < all[j].BookID.String()
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []*domain.Book{}, total, nil
	}
	end := len(all)
	if limit > 0 {
		end = min(end, offset+limit)
	}
	out := make([]*domain.Book, 0, end-offset)
	for _, b := range all[offset:end] {
		out = append(out, domain.NewBookFrom(b))
	}
	return out, total, nil
}

func (r *BookRepo) AddBook(ctx context.Context, b *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[b.BookID] = domain.NewBookFrom(b)
	return nil
}

func (r *BookRepo) UpdateBook(ctx context.Context, b *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[b.BookID]; !ok {
		return domain.ErrBookNotFound
	}
	r.books[b.BookID] = domain.NewBookFrom(b)
	return nil
}

func (r *BookRepo) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}
