package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"BookShelf/modules/kit/errx"
)

func author(name string) *Author {
	return &Author{AuthorID: uuid.New(), Name: name}
}

func TestBookFields_可写字段(t *testing.T) {
	want := sets.New("title", "description", "pages", "authors")
	if got := BookFields.Writable(); !got.Equal(want) {
		t.Fatalf("writable mismatch, got=%v", sets.List(got))
	}
	if got := AuthorFields.Writable(); !got.Equal(sets.New("name")) {
		t.Fatalf("author writable mismatch, got=%v", sets.List(got))
	}
}

func TestPatch_只更新声明的description(t *testing.T) {
	target := &Book{Title: "Go in Action", Description: "old", Pages: 100, Authors: []*Author{}}
	incoming := &Book{Title: "SHOULD NOT APPLY", Description: "new", Pages: 999}

	applied := BookFields.Patch(target, incoming, []string{"description"})

	if target.Title != "Go in Action" || target.Pages != 100 {
		t.Fatalf("期望未声明字段不变, got=%+v", target)
	}
	if target.Description != "new" {
		t.Fatalf("期望 description 更新, got=%q", target.Description)
	}
	if !applied.Equal(sets.New("description")) {
		t.Fatalf("applied mismatch, got=%v", sets.List(applied))
	}
}

func TestPatch_作者集合AB到BC(t *testing.T) {
	a, b, c := author("A"), author("B"), author("C")
	target := &Book{Title: "T", Authors: []*Author{a, b}}
	incoming := &Book{Authors: []*Author{{AuthorID: b.AuthorID, Name: "B renamed"}, c}}

	applied := BookFields.Patch(target, incoming, []string{"Authors"})

	got := sets.New(target.AuthorIDs()...)
	if !got.Equal(sets.New(b.AuthorID, c.AuthorID)) {
		t.Fatalf("期望作者为 {B,C}")
	}
	kept, ok := target.Author(b.AuthorID)
	if !ok || kept != b || kept.Name != "B" {
		t.Fatalf("期望 B 保留原实例且名字不被协调, got=%+v", kept)
	}
	added, _ := target.Author(c.AuthorID)
	if added == c {
		t.Fatalf("期望 C 是拷贝")
	}
	if !applied.Equal(sets.New("authors")) {
		t.Fatalf("applied mismatch, got=%v", sets.List(applied))
	}
	if target.Title != "T" {
		t.Fatalf("期望 title 不变")
	}
}

func TestPatch_未知字段静默忽略(t *testing.T) {
	target := &Book{Title: "Old", Authors: []*Author{}}
	applied := BookFields.Patch(target, &Book{Title: "New"}, []string{"doesNotExist", "bookId", "createdAt"})
	if applied.Len() != 0 {
		t.Fatalf("期望什么都没应用, got=%v", sets.List(applied))
	}
	if target.Title != "Old" {
		t.Fatalf("期望目标不变")
	}
}

func TestUpdate_全量覆盖但不动身份与时间戳(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()
	target := &Book{BookID: id, Title: "a", CreatedAt: created, Authors: []*Author{author("X")}}
	incoming := &Book{BookID: uuid.New(), Title: "b", Description: "d", Pages: 3, Authors: []*Author{}}

	applied := BookFields.Update(target, incoming)

	if target.BookID != id || !target.CreatedAt.Equal(created) {
		t.Fatalf("期望身份与只读字段不变, got=%+v", target)
	}
	if target.Title != "b" || target.Description != "d" || target.Pages != 3 || len(target.Authors) != 0 {
		t.Fatalf("期望可写字段全部覆盖, got=%+v", target)
	}
	if !applied.Equal(BookFields.Writable()) {
		t.Fatalf("applied mismatch, got=%v", sets.List(applied))
	}
}

func TestNewBookFrom_深拷贝(t *testing.T) {
	src := &Book{BookID: uuid.New(), Title: "T", Authors: []*Author{author("A")}, CreatedAt: time.Now()}
	cp := NewBookFrom(src)

	if cp == src || cp.Authors[0] == src.Authors[0] {
		t.Fatalf("期望不共享实例")
	}
	cp.Authors[0].Name = "changed"
	if src.Authors[0].Name != "A" {
		t.Fatalf("期望修改副本不影响来源")
	}
	if !cp.CreatedAt.Equal(src.CreatedAt) {
		t.Fatalf("期望带上时间戳")
	}
}

func TestNewBook_安全默认值(t *testing.T) {
	b := NewBook()
	if b.Authors == nil || len(b.Authors) != 0 {
		t.Fatalf("期望 Authors 为非 nil 空切片")
	}
}

func TestNewBookFrom_nil来源panic(t *testing.T) {
	cases := map[string]BookSource{
		"接口nil":  nil,
		"类型化nil": (*Book)(nil),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				err, ok := recover().(error)
				if !ok || !errors.Is(err, errx.ErrInvariant) {
					t.Fatalf("期望以 ErrInvariant panic, got=%v", err)
				}
			}()
			NewBookFrom(src)
		})
	}
}

func TestAssignAuthorIDs_只给空身份分配(t *testing.T) {
	keep := uuid.New()
	b := &Book{Authors: []*Author{{AuthorID: keep}, {Name: "new"}}}
	fixed := uuid.New()
	b.AssignAuthorIDs(nil, func() uuid.UUID { return fixed })

	if b.Authors[0].AuthorID != keep || b.Authors[1].AuthorID != fixed {
		t.Fatalf("分配结果不符合预期, got=%v", b.AuthorIDs())
	}
}

func TestAssignAuthorIDs_同名作者沿用已有身份(t *testing.T) {
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	current := &Book{Authors: []*Author{{AuthorID: x, Name: "X"}, {AuthorID: y, Name: "Y"}, {AuthorID: z, Name: "Z"}}}
	fresh := uuid.New()
	incoming := &Book{Authors: []*Author{
		{Name: "X"},
		{AuthorID: y, Name: "Y"},
		{Name: "Y"}, // y 已被显式引用，不能再被同名认领
		{Name: "X"}, // 同名只认领一次
	}}
	incoming.AssignAuthorIDs(current, func() uuid.UUID { return fresh })

	got := incoming.AuthorIDs()
	want := []uuid.UUID{x, y, fresh, fresh}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 个作者 id 不符合预期, got=%v want=%v", i, got, want)
		}
	}
}

func TestTouch_首次补创建时间(t *testing.T) {
	b := NewBook()
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Touch(t1)
	t2 := t1.Add(time.Hour)
	b.Touch(t2)
	if !b.CreatedAt.Equal(t1) || !b.UpdatedAt.Equal(t2) {
		t.Fatalf("时间戳不符合预期, got=%v %v", b.CreatedAt, b.UpdatedAt)
	}
}
