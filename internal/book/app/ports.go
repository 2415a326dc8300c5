package app

import (
	"context"

	"github.com/google/uuid"

	"BookShelf/internal/book/domain"
)

// BookRepo 是图书仓储。
//
// 约定：
// - 不存在时返回 domain.ErrBookNotFound
// - 返回的 *domain.Book 归调用方独占，可以直接修改
// - UpdateBook 整体保存（含作者集合），实现需保证原子性
type BookRepo interface {
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListBooks(ctx context.Context, offset, limit int) ([]*domain.Book, int64, error)
	AddBook(ctx context.Context, b *domain.Book) error
	UpdateBook(ctx context.Context, b *domain.Book) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// AuditRepo 是审计记录仓储，只追加。
type AuditRepo interface {
	Append(ctx context.Context, e domain.AuditEntry) error
	ListByBook(ctx context.Context, bookID uuid.UUID, limit int) ([]domain.AuditEntry, error)
}

// IDGen 生成审计记录 id。
type IDGen interface {
	NextID() int64
}
