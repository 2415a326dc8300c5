package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/keymutex"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/shared/telemetry"
	"BookShelf/modules/kit/logx"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	bookFieldAuthors = "authors"
)

type BookPage struct {
	Items  []*domain.Book
	Total  int64
	Offset int
	Limit  int
}

// BookUpdate 是一次更新的结果：更新后的图书与本次已应用字段（排序后）。
type BookUpdate struct {
	Book    *domain.Book
	Applied []string
}

type AuthorUpdate struct {
	Author  *domain.Author
	Applied []string
}

type Option func(*BookService)

func WithMetrics(m *Metrics) Option {
	return func(s *BookService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *BookService) { s.now = now }
}

func WithUUIDGen(gen func() uuid.UUID) Option {
	return func(s *BookService) { s.newUUID = gen }
}

// BookService 编排 加载 -> 应用 -> 保存：patch 引擎本身不做 I/O、不加锁，
// 同一本书的写操作在这里按 book id 串行化。
type BookService struct {
	books   BookRepo
	audits  AuditRepo
	ids     IDGen
	log     logx.Logger
	metrics *Metrics
	locks   keymutex.KeyMutex
	now     func() time.Time
	newUUID func() uuid.UUID
}

func NewBookService(books BookRepo, audits AuditRepo, ids IDGen, log logx.Logger, opts ...Option) *BookService {
	if log == nil {
		log = logx.Nop()
	}
	s := &BookService{
		books:   books,
		audits:  audits,
		ids:     ids,
		log:     log,
		locks:   keymutex.NewHashed(0),
		now:     time.Now,
		newUUID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (_ *domain.Book, err error) {
	ctx, span := s.startSpan(ctx, "BookService.GetBook", attribute.String("book.id", id.String()))
	defer func() { s.finish(span, "get", err) }()

	b, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, map[string]any{"book_id": id.String()})
	}
	return b, nil
}

func (s *BookService) ListBooks(ctx context.Context, offset, limit int) (_ BookPage, err error) {
	ctx, span := s.startSpan(ctx, "BookService.ListBooks")
	defer func() { s.finish(span, "list", err) }()

	offset = max(0, offset)
	if limit <= 0 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)

	items, total, err := s.books.ListBooks(ctx, offset, limit)
	if err != nil {
		return BookPage{}, translateRepoErr(err, map[string]any{"offset": offset, "limit": limit})
	}
	return BookPage{Items: items, Total: total, Offset: offset, Limit: limit}, nil
}

// AddBook 新建图书：身份由服务端生成，未带 authorId 的作者分配新 id，重复身份的作者只保留第一个。
func (s *BookService) AddBook(ctx context.Context, src domain.BookSource) (_ *domain.Book, err error) {
	ctx, span := s.startSpan(ctx, "BookService.AddBook")
	defer func() { s.finish(span, "create", err) }()

	incoming := domain.NewBookFrom(src)
	incoming.AssignAuthorIDs(nil, s.newUUID)

	b := domain.NewBook()
	b.BookID = s.newUUID()
	applied := domain.BookFields.Update(b, incoming)
	b.Touch(s.now())
	span.SetAttributes(attribute.String("book.id", b.BookID.String()))

	if err := s.books.AddBook(ctx, b); err != nil {
		return nil, translateRepoErr(err, map[string]any{"book_id": b.BookID.String()})
	}
	s.metrics.observeApplied("book", applied)
	s.appendAudit(ctx, auditRecord{
		op: domain.AuditCreate, bookID: b.BookID, applied: applied,
		before: emptyDoc, after: snapshot(b),
	})
	s.log.WithContext(ctx).Debug("book created", zap.String("book_id", b.BookID.String()))
	return b, nil
}

// UpdateBook 全量覆盖：全部可写字段都视为已声明，作者集合按身份协调。
func (s *BookService) UpdateBook(ctx context.Context, id uuid.UUID, src domain.BookSource) (_ BookUpdate, err error) {
	ctx, span := s.startSpan(ctx, "BookService.UpdateBook", attribute.String("book.id", id.String()))
	defer func() { s.finish(span, "update", err) }()

	incoming := domain.NewBookFrom(src)

	b, applied, err := s.mutate(ctx, domain.AuditUpdate, id, uuid.Nil, func(b *domain.Book) (sets.Set[string], error) {
		incoming.AssignAuthorIDs(b, s.newUUID)
		return domain.BookFields.Update(b, incoming), nil
	})
	if err != nil {
		return BookUpdate{}, err
	}
	return s.bookUpdate(span, b, applied), nil
}

// PatchBook 局部更新：只应用 declared 中可写的字段；不认识的字段名静默忽略。
// 没有任何字段被应用时不写库、不记审计。
func (s *BookService) PatchBook(ctx context.Context, id uuid.UUID, src domain.BookSource, declared []string) (_ BookUpdate, err error) {
	ctx, span := s.startSpan(ctx, "BookService.PatchBook",
		attribute.String("book.id", id.String()),
		attribute.StringSlice("patch.declared", declared))
	defer func() { s.finish(span, "patch", err) }()

	incoming := domain.NewBookFrom(src)

	b, applied, err := s.mutate(ctx, domain.AuditPatch, id, uuid.Nil, func(b *domain.Book) (sets.Set[string], error) {
		incoming.AssignAuthorIDs(b, s.newUUID)
		return domain.BookFields.Patch(b, incoming, declared), nil
	})
	if err != nil {
		return BookUpdate{}, err
	}
	return s.bookUpdate(span, b, applied), nil
}

func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := s.startSpan(ctx, "BookService.DeleteBook", attribute.String("book.id", id.String()))
	defer func() { s.finish(span, "delete", err) }()

	unlock := s.lock(id)
	defer unlock()

	data := map[string]any{"book_id": id.String()}
	before, err := s.books.GetBook(ctx, id)
	if err != nil {
		return translateRepoErr(err, data)
	}
	if err := s.books.DeleteBook(ctx, id); err != nil {
		return translateRepoErr(err, data)
	}
	s.appendAudit(ctx, auditRecord{op: domain.AuditDelete, bookID: id, before: snapshot(before)})
	s.log.WithContext(ctx).Debug("book deleted", zap.String("book_id", id.String()))
	return nil
}

func (s *BookService) GetAuthor(ctx context.Context, bookID, authorID uuid.UUID) (_ *domain.Author, err error) {
	ctx, span := s.startSpan(ctx, "BookService.GetAuthor",
		attribute.String("book.id", bookID.String()),
		attribute.String("author.id", authorID.String()))
	defer func() { s.finish(span, "get_author", err) }()

	data := map[string]any{"book_id": bookID.String(), "author_id": authorID.String()}
	b, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return nil, translateRepoErr(err, data)
	}
	a, ok := b.Author(authorID)
	if !ok {
		return nil, ErrAuthorNotFound.WithDataMap(data)
	}
	return a, nil
}

// PatchAuthor 局部更新图书下的某个作者，和图书共用同一把锁与同一次保存。
func (s *BookService) PatchAuthor(ctx context.Context, bookID, authorID uuid.UUID, src domain.AuthorSource, declared []string) (_ AuthorUpdate, err error) {
	ctx, span := s.startSpan(ctx, "BookService.PatchAuthor",
		attribute.String("book.id", bookID.String()),
		attribute.String("author.id", authorID.String()),
		attribute.StringSlice("patch.declared", declared))
	defer func() { s.finish(span, "patch_author", err) }()

	incoming := domain.NewAuthorFrom(src)

	var target *domain.Author
	_, applied, err := s.mutate(ctx, domain.AuditPatchAuthor, bookID, authorID, func(b *domain.Book) (sets.Set[string], error) {
		a, ok := b.Author(authorID)
		if !ok {
			return nil, ErrAuthorNotFound.WithData("book_id", bookID.String()).WithData("author_id", authorID.String())
		}
		target = a
		return domain.AuthorFields.Patch(a, incoming, declared), nil
	})
	if err != nil {
		return AuthorUpdate{}, err
	}
	s.metrics.observeApplied("author", applied)
	names := sets.List(applied)
	span.SetAttributes(attribute.StringSlice("patch.applied", names))
	return AuthorUpdate{Author: target, Applied: names}, nil
}

func (s *BookService) ListAudit(ctx context.Context, bookID uuid.UUID, limit int) (_ []domain.AuditEntry, err error) {
	ctx, span := s.startSpan(ctx, "BookService.ListAudit", attribute.String("book.id", bookID.String()))
	defer func() { s.finish(span, "list_audit", err) }()

	if s.audits == nil {
		return []domain.AuditEntry{}, nil
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)
	entries, err := s.audits.ListByBook(ctx, bookID, limit)
	if err != nil {
		return nil, translateRepoErr(err, map[string]any{"book_id": bookID.String()})
	}
	return entries, nil
}

// mutate 在 book id 锁内完成 加载 -> apply -> 保存 -> 审计。
func (s *BookService) mutate(
	ctx context.Context,
	op domain.AuditOp,
	id, authorID uuid.UUID,
	apply func(b *domain.Book) (sets.Set[string], error),
) (*domain.Book, sets.Set[string], error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, ErrUnavailable.WithData("book_id", id.String()).WithCause(err)
	}
	unlock := s.lock(id)
	defer unlock()

	data := map[string]any{"book_id": id.String()}
	b, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, nil, translateRepoErr(err, data)
	}
	before := snapshot(b)
	beforeAuthors := sets.New(b.AuthorIDs()...)

	applied, err := apply(b)
	if err != nil {
		return nil, nil, err
	}
	if applied.Len() == 0 {
		return b, applied, nil
	}

	b.Touch(s.now())
	if err := s.books.UpdateBook(ctx, b); err != nil {
		return nil, nil, translateRepoErr(err, data)
	}

	if applied.Has(bookFieldAuthors) {
		afterAuthors := sets.New(b.AuthorIDs()...)
		s.metrics.observeMembers(bookFieldAuthors, afterAuthors.Difference(beforeAuthors).Len(), beforeAuthors.Difference(afterAuthors).Len())
	}
	s.appendAudit(ctx, auditRecord{
		op: op, bookID: id, authorID: authorID, applied: applied,
		before: before, after: snapshot(b),
	})
	s.log.WithContext(ctx).Debug("book mutated",
		zap.String("op", string(op)),
		zap.String("book_id", id.String()),
		zap.Strings("applied", sets.List(applied)),
	)
	return b, applied, nil
}

func (s *BookService) bookUpdate(span trace.Span, b *domain.Book, applied sets.Set[string]) BookUpdate {
	s.metrics.observeApplied("book", applied)
	names := sets.List(applied)
	span.SetAttributes(attribute.StringSlice("patch.applied", names))
	return BookUpdate{Book: b, Applied: names}
}

func (s *BookService) lock(id uuid.UUID) func() {
	key := id.String()
	s.locks.LockKey(key)
	return func() { _ = s.locks.UnlockKey(key) }
}

func (s *BookService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return telemetry.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *BookService) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.observeOp(op, err)
}
