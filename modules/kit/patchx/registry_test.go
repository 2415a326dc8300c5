package patchx

import (
	"errors"
	"testing"
	"time"

	"BookShelf/modules/kit/errx"

	"k8s.io/apimachinery/pkg/util/sets"
)

type tag struct {
	ID    string
	Label string
}

type post struct {
	ID        int
	Title     string
	Body      string
	Views     int
	Published time.Time
	Tags      []*tag
}

func cloneTag(t *tag) *tag {
	c := *t
	return &c
}

var postFields = NewRegistry[post](
	Scalar("title", func(p *post) string { return p.Title }, func(p *post, v string) { p.Title = v }),
	Scalar("body", func(p *post) string { return p.Body }, func(p *post, v string) { p.Body = v }),
	Scalar("views", func(p *post) int { return p.Views }, func(p *post, v int) { p.Views = v }),
	ScalarEq("published",
		func(p *post) time.Time { return p.Published },
		func(p *post, v time.Time) { p.Published = v },
		time.Time.Equal),
	ToMany("tags", func(p *post) *[]*tag { return &p.Tags }, func(t *tag) string { return t.ID }, cloneTag),
)

func TestRegistry_Writable_按规范拼写列出全部字段(t *testing.T) {
	got := postFields.Writable()
	want := sets.New("title", "body", "views", "published", "tags")
	if !got.Equal(want) {
		t.Fatalf("writable mismatch, got=%v want=%v", sets.List(got), sets.List(want))
	}

	got.Insert("hacked")
	if postFields.Writable().Has("hacked") {
		t.Fatalf("期望 Writable 返回副本，外部修改不影响注册表")
	}
}

func TestEffectiveUpdateSet_忽略大小写并丢弃未知字段(t *testing.T) {
	writable := sets.New("title", "body", "tags")
	got := EffectiveUpdateSet([]string{"TITLE", "Tags", "doesNotExist", "id", "title"}, writable)
	want := sets.New("title", "tags")
	if !got.Equal(want) {
		t.Fatalf("update set mismatch, got=%v want=%v", sets.List(got), sets.List(want))
	}

	if n := EffectiveUpdateSet(nil, writable).Len(); n != 0 {
		t.Fatalf("期望未声明任何字段时更新集合为空, got=%d", n)
	}
}

func TestPatch_未声明字段保持不变(t *testing.T) {
	target := &post{Title: "Old", Body: "old body", Views: 1}
	incoming := &post{Title: "New", Body: "new body", Views: 99}

	applied := postFields.Patch(target, incoming, []string{"body"})

	if target.Title != "Old" {
		t.Fatalf("期望 title 未被修改, got=%q", target.Title)
	}
	if target.Views != 1 {
		t.Fatalf("期望 views 未被修改, got=%d", target.Views)
	}
	if target.Body != "new body" {
		t.Fatalf("期望 body 被更新, got=%q", target.Body)
	}
	if !applied.Equal(sets.New("body")) {
		t.Fatalf("期望已应用字段为 {body}, got=%v", sets.List(applied))
	}
}

func TestPatch_未知字段静默忽略(t *testing.T) {
	target := &post{Title: "Old"}
	incoming := &post{Title: "New"}

	applied := postFields.Patch(target, incoming, []string{"doesNotExist", "title"})

	if applied.Has("doesNotExist") {
		t.Fatalf("期望未知字段不出现在已应用字段中, got=%v", sets.List(applied))
	}
	if target.Title != "New" {
		t.Fatalf("期望已知字段照常应用, got=%q", target.Title)
	}
}

func TestPatch_值相同也记为已应用(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	target := &post{Title: "Same", Published: at}
	incoming := &post{Title: "Same", Published: at.In(time.FixedZone("CST", 8*3600))}

	applied := postFields.Patch(target, incoming, []string{"title", "published"})

	if !applied.Equal(sets.New("title", "published")) {
		t.Fatalf("期望相同值也被记录, got=%v", sets.List(applied))
	}
	if target.Published.Location() != time.UTC {
		t.Fatalf("期望相等（Equal）的时间不被覆盖, got=%v", target.Published.Location())
	}
}

func TestUpdate_全量覆盖全部可写字段(t *testing.T) {
	target := &post{ID: 7, Title: "a", Body: "b", Views: 1, Tags: []*tag{{ID: "x"}}}
	incoming := &post{ID: 8, Title: "A", Body: "B", Views: 2, Tags: []*tag{{ID: "y"}}}

	applied := postFields.Update(target, incoming)

	if !applied.Equal(postFields.Writable()) {
		t.Fatalf("期望全量更新记录全部可写字段, got=%v", sets.List(applied))
	}
	if target.ID != 7 {
		t.Fatalf("期望身份字段不可写, got=%d", target.ID)
	}
	if target.Title != "A" || target.Body != "B" || target.Views != 2 {
		t.Fatalf("期望标量全部被覆盖, got=%+v", target)
	}
	if len(target.Tags) != 1 || target.Tags[0].ID != "y" {
		t.Fatalf("期望关系字段被协调成 {y}, got=%v", tagIDs(target.Tags))
	}
}

func TestPatch_重复应用结果一致(t *testing.T) {
	target := &post{Title: "a", Tags: []*tag{{ID: "1"}, {ID: "2"}}}
	incoming := &post{Title: "b", Views: 3, Tags: []*tag{{ID: "2"}, {ID: "3"}}}
	declared := []string{"title", "tags"}

	postFields.Patch(target, incoming, declared)
	first := snapshot(target)
	postFields.Patch(target, incoming, declared)
	second := snapshot(target)

	if first != second {
		t.Fatalf("期望幂等, first=%q second=%q", first, second)
	}
}

func TestPatch_每次调用返回独立的记录(t *testing.T) {
	target := &post{}
	a := postFields.Patch(target, &post{Title: "x"}, []string{"title"})
	b := postFields.Patch(target, &post{Body: "y"}, []string{"body"})

	if a.Has("body") || b.Has("title") {
		t.Fatalf("期望已应用字段不跨调用累积, a=%v b=%v", sets.List(a), sets.List(b))
	}
}

func TestApplySet_未注册字段返回错误且不修改目标(t *testing.T) {
	target := &post{Title: "Old"}
	incoming := &post{Title: "New"}

	_, err := postFields.ApplySet(target, incoming, sets.New("title", "isbn"))
	if !errors.Is(err, ErrNoSuchField) {
		t.Fatalf("期望 ErrNoSuchField, got=%v", err)
	}
	if target.Title != "Old" {
		t.Fatalf("期望出错时目标不被修改, got=%q", target.Title)
	}
}

func TestNewRegistry_重复字段panic(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, errx.ErrInvariant) {
			t.Fatalf("期望以 ErrInvariant panic, got=%v", r)
		}
	}()
	NewRegistry[post](
		Scalar("title", func(p *post) string { return p.Title }, func(p *post, v string) { p.Title = v }),
		Scalar("Title", func(p *post) string { return p.Body }, func(p *post, v string) { p.Body = v }),
	)
}

func TestRegistry_Lookup_忽略大小写(t *testing.T) {
	f, ok := postFields.Lookup("TAGS")
	if !ok || f.Name() != "tags" || f.Kind() != KindToMany {
		t.Fatalf("lookup failed, ok=%v name=%q kind=%v", ok, f.Name(), f.Kind())
	}
	if _, ok := postFields.Lookup("id"); ok {
		t.Fatalf("期望身份字段不在注册表中")
	}
}

func snapshot(p *post) string {
	s := p.Title + "|" + p.Body
	for _, id := range tagIDs(p.Tags) {
		s += "|" + id
	}
	return s
}

func tagIDs(tags []*tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.ID)
	}
	return out
}
