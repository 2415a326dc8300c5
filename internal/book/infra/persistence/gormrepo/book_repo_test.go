package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"BookShelf/internal/book/app"
	"BookShelf/internal/book/domain"
	"BookShelf/internal/book/errs"
	"BookShelf/internal/shared/config"
	shareddb "BookShelf/internal/shared/infrastructure/db"
	"BookShelf/internal/shared/utils"
	"BookShelf/modules/kit/logx"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := shareddb.OpenSQLite(config.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite err=%v", err)
	}
	t.Cleanup(func() { _ = shareddb.Close(db) })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate err=%v", err)
	}
	return db
}

func makeBook(title string, at time.Time, names ...string) *domain.Book {
	b := domain.NewBook()
	b.BookID = uuid.New()
	b.Title = title
	b.Description = title + " description"
	b.Pages = 100
	for _, n := range names {
		b.Authors = append(b.Authors, &domain.Author{AuthorID: uuid.New(), Name: n})
	}
	b.Touch(at)
	return b
}

func names(b *domain.Book) []string {
	out := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		out = append(out, a.Name)
	}
	return out
}

func TestBookRepo_新增后读取(t *testing.T) {
	ctx := context.Background()
	r := NewBookRepo(openTestDB(t))
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	b := makeBook("gopl", at, "Alan", "Brian")

	if err := r.AddBook(ctx, b); err != nil {
		t.Fatalf("AddBook err=%v", err)
	}
	got, err := r.GetBook(ctx, b.BookID)
	if err != nil {
		t.Fatalf("GetBook err=%v", err)
	}
	if got.Title != "gopl" || got.Pages != 100 || got.Description != "gopl description" {
		t.Fatalf("标量不一致, got=%+v", got)
	}
	if n := names(got); len(n) != 2 || n[0] != "Alan" || n[1] != "Brian" {
		t.Fatalf("期望作者按位置读回, got=%v", n)
	}
	if !got.CreatedAt.Equal(at) || !got.UpdatedAt.Equal(at) {
		t.Fatalf("时间戳不一致, got=%v/%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestBookRepo_更新时按身份增删作者(t *testing.T) {
	ctx := context.Background()
	r := NewBookRepo(openTestDB(t))
	b := makeBook("t", time.Now().UTC(), "A", "B")
	if err := r.AddBook(ctx, b); err != nil {
		t.Fatalf("AddBook err=%v", err)
	}

	loaded, _ := r.GetBook(ctx, b.BookID)
	a, bb := loaded.Authors[0], loaded.Authors[1]
	bb.Name = "B2"
	loaded.Authors = []*domain.Author{bb, {AuthorID: uuid.New(), Name: "C"}}
	loaded.Title = ""
	loaded.Pages = 0
	if err := r.UpdateBook(ctx, loaded); err != nil {
		t.Fatalf("UpdateBook err=%v", err)
	}

	got, _ := r.GetBook(ctx, b.BookID)
	if got.Title != "" || got.Pages != 0 {
		t.Fatalf("期望零值也被写入, got=%+v", got)
	}
	if n := names(got); len(n) != 2 || n[0] != "B2" || n[1] != "C" {
		t.Fatalf("作者不符合预期, got=%v", n)
	}
	if _, ok := got.Author(a.AuthorID); ok {
		t.Fatalf("期望 A 被删除")
	}
	if kept, _ := got.Author(bb.AuthorID); kept == nil {
		t.Fatalf("期望 B 保留原身份")
	}

	got.Authors = nil
	if err := r.UpdateBook(ctx, got); err != nil {
		t.Fatalf("UpdateBook err=%v", err)
	}
	if empty, _ := r.GetBook(ctx, b.BookID); len(empty.Authors) != 0 {
		t.Fatalf("期望作者被清空, got=%v", names(empty))
	}
}

func TestBookRepo_不存在(t *testing.T) {
	ctx := context.Background()
	r := NewBookRepo(openTestDB(t))
	missing := makeBook("x", time.Now(), "A")

	if _, err := r.GetBook(ctx, missing.BookID); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("GetBook 期望 ErrBookNotFound, got=%v", err)
	}
	if err := r.UpdateBook(ctx, missing); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("UpdateBook 期望 ErrBookNotFound, got=%v", err)
	}
	if err := r.DeleteBook(ctx, missing.BookID); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("DeleteBook 期望 ErrBookNotFound, got=%v", err)
	}
}

func TestBookRepo_删除连同作者(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewBookRepo(db)
	b := makeBook("t", time.Now(), "A", "B")
	_ = r.AddBook(ctx, b)

	if err := r.DeleteBook(ctx, b.BookID); err != nil {
		t.Fatalf("DeleteBook err=%v", err)
	}
	var n int64
	db.Table("book_author").Where("book_id = ?", b.BookID.String()).Count(&n)
	if n != 0 {
		t.Fatalf("期望作者行被删除, got=%d", n)
	}
}

func TestBookRepo_ListBooks分页(t *testing.T) {
	ctx := context.Background()
	r := NewBookRepo(openTestDB(t))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		if err := r.AddBook(ctx, makeBook(title, base.Add(time.Duration(i)*time.Hour), "A")); err != nil {
			t.Fatalf("AddBook err=%v", err)
		}
	}

	page, total, err := r.ListBooks(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListBooks err=%v", err)
	}
	if total != 3 || len(page) != 2 || page[0].Title != "second" || page[1].Title != "third" {
		t.Fatalf("分页不符合预期, total=%d page=%d", total, len(page))
	}
	if len(page[0].Authors) != 1 {
		t.Fatalf("期望列表也带作者")
	}
}

func TestBookRepo_底层故障包装成仓储错误(t *testing.T) {
	db := openTestDB(t)
	r := NewBookRepo(db)
	_ = shareddb.Close(db)

	_, err := r.GetBook(context.Background(), uuid.New())
	var repoErr *errs.Error
	if !errors.As(err, &repoErr) {
		t.Fatalf("期望 *errs.Error, got=%T %v", err, err)
	}
	if repoErr.Op != OpGetBook || repoErr.Kind != errs.KindInfra {
		t.Fatalf("包装信息不符合预期, got=%+v", repoErr)
	}
}

func TestAuditRepo_倒序读取(t *testing.T) {
	ctx := context.Background()
	r := NewAuditRepo(openTestDB(t))
	book := uuid.New()
	for i := int64(1); i <= 3; i++ {
		e := domain.AuditEntry{ID: i, BookID: book, Op: domain.AuditPatch, Fields: []string{"title"}, MergePatch: []byte(`{}`), CreatedAt: time.Now()}
		if err := r.Append(ctx, e); err != nil {
			t.Fatalf("Append err=%v", err)
		}
	}

	got, err := r.ListByBook(ctx, book, 2)
	if err != nil {
		t.Fatalf("ListByBook err=%v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 2 || got[0].Fields[0] != "title" {
		t.Fatalf("审计读取不符合预期, got=%+v", got)
	}
}

func TestBookService_基于sqlite的局部更新(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	books, audits := NewBookRepo(db), NewAuditRepo(db)
	ids, err := utils.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake err=%v", err)
	}
	svc := app.NewBookService(books, audits, ids, logx.Nop())

	created, err := svc.AddBook(ctx, makeBook("t", time.Now(), "A", "B"))
	if err != nil {
		t.Fatalf("AddBook err=%v", err)
	}
	b := created.Authors[1]

	incoming := &domain.Book{
		Title:   "ignored",
		Authors: []*domain.Author{{AuthorID: b.AuthorID, Name: "ignored"}, {Name: "C"}},
	}
	res, err := svc.PatchBook(ctx, created.BookID, incoming, []string{"authors"})
	if err != nil {
		t.Fatalf("PatchBook err=%v", err)
	}

	stored, _ := books.GetBook(ctx, created.BookID)
	if stored.Title != "t" {
		t.Fatalf("期望 title 不变, got=%q", stored.Title)
	}
	if n := names(stored); len(n) != 2 || n[0] != "B" || n[1] != "C" {
		t.Fatalf("期望作者 {B,C} 且 B 的名字不被协调, got=%v", n)
	}
	if len(res.Applied) != 1 || res.Applied[0] != "authors" {
		t.Fatalf("applied mismatch, got=%v", res.Applied)
	}

	entries, err := svc.ListAudit(ctx, created.BookID, 10)
	if err != nil {
		t.Fatalf("ListAudit err=%v", err)
	}
	if len(entries) != 2 || entries[0].Op != domain.AuditPatch || entries[1].Op != domain.AuditCreate {
		t.Fatalf("审计记录不符合预期, got=%+v", entries)
	}
}
