package patchx

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"k8s.io/apimachinery/pkg/util/sets"
)

func tagID(t *tag) string { return t.ID }

func TestReconcile_AB到BC(t *testing.T) {
	a, b := &tag{ID: "A", Label: "a"}, &tag{ID: "B", Label: "b"}
	target := []*tag{a, b}
	c := &tag{ID: "C", Label: "c"}
	incoming := []*tag{{ID: "B", Label: "changed"}, c}

	Reconcile(&target, incoming, tagID, cloneTag)

	if got := sets.New(tagIDs(target)...); !got.Equal(sets.New("B", "C")) {
		t.Fatalf("期望身份集合为 {B,C}, got=%v", sets.List(got))
	}
	for _, e := range target {
		if e == a {
			t.Fatalf("期望 A 的实例被移除")
		}
		if e.ID == "B" {
			if e != b {
				t.Fatalf("期望 B 保留原实例")
			}
			if e.Label != "b" {
				t.Fatalf("期望共同成员的字段不被协调, got=%q", e.Label)
			}
		}
		if e.ID == "C" {
			if e == c {
				t.Fatalf("期望 C 是新构造的副本而不是 incoming 的别名")
			}
			if e.Label != "c" {
				t.Fatalf("期望副本内容一致, got=%q", e.Label)
			}
		}
	}
}

func TestReconcile_空incoming清空目标(t *testing.T) {
	target := []*tag{{ID: "A"}, {ID: "B"}}
	Reconcile(&target, nil, tagID, cloneTag)
	if len(target) != 0 {
		t.Fatalf("期望目标被清空, got=%v", tagIDs(target))
	}
}

func TestReconcile_空目标加入全部(t *testing.T) {
	target := []*tag{}
	incoming := []*tag{{ID: "A"}, {ID: "B"}}
	Reconcile(&target, incoming, tagID, cloneTag)

	if got := sets.New(tagIDs(target)...); !got.Equal(sets.New("A", "B")) {
		t.Fatalf("期望 {A,B}, got=%v", sets.List(got))
	}
	for i := range target {
		for _, in := range incoming {
			if target[i] == in {
				t.Fatalf("期望新增成员不与 incoming 共享实例, id=%s", in.ID)
			}
		}
	}
}

func TestReconcile_incoming重复身份只加入一次(t *testing.T) {
	var target []*tag
	incoming := []*tag{{ID: "A", Label: "first"}, {ID: "A", Label: "second"}}
	Reconcile(&target, incoming, tagID, cloneTag)

	if len(target) != 1 {
		t.Fatalf("期望重复身份折叠为一个成员, got=%v", tagIDs(target))
	}
	if target[0].Label != "first" {
		t.Fatalf("期望保留第一次出现的数据, got=%q", target[0].Label)
	}
}

func TestReconcile_按身份而非指针移除(t *testing.T) {
	target := []*tag{{ID: "A"}, {ID: "B"}}
	// 独立构造、身份相同的副本
	incoming := []*tag{{ID: "A"}}
	Reconcile(&target, incoming, tagID, cloneTag)

	if len(target) != 1 || target[0].ID != "A" {
		t.Fatalf("期望只剩 A, got=%v", tagIDs(target))
	}
}

func TestReconcile_值类型成员(t *testing.T) {
	target := []int{1, 2, 3}
	Reconcile(&target, []int{3, 4}, func(v int) int { return v }, func(v int) int { return v })
	if got := sets.New(target...); !got.Equal(sets.New(3, 4)) {
		t.Fatalf("期望 {3,4}, got=%v", target)
	}
}

func TestReconcile_incoming与目标共用底层数组(t *testing.T) {
	ints := []int{1, 2, 3}
	Reconcile(&ints, ints[1:], func(v int) int { return v }, func(v int) int { return v })
	if got := sets.New(ints...); !got.Equal(sets.New(2, 3)) || len(ints) != 2 {
		t.Fatalf("期望 {2,3}, got=%v", ints)
	}

	a, b, c := &tag{ID: "A"}, &tag{ID: "B"}, &tag{ID: "C"}
	target := []*tag{a, b, c}
	Reconcile(&target, target[1:], tagID, cloneTag)
	if got := sets.New(tagIDs(target)...); !got.Equal(sets.New("B", "C")) || len(target) != 2 {
		t.Fatalf("期望 {B,C}, got=%v", tagIDs(target))
	}
	if target[0] != b || target[1] != c {
		t.Fatalf("期望共同成员保留原实例")
	}

	// incoming 是 target 的前缀，且带一个 target 里没有的成员
	shared := make([]*tag, 3, 4)
	copy(shared, []*tag{{ID: "X"}, {ID: "Y"}, {ID: "Z"}})
	incoming := append(shared[2:3], &tag{ID: "W"})
	Reconcile(&shared, incoming, tagID, cloneTag)
	if got := sets.New(tagIDs(shared)...); !got.Equal(sets.New("Z", "W")) {
		t.Fatalf("期望 {Z,W}, got=%v", tagIDs(shared))
	}
}

func TestReconcile_随机集合后身份一致(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 200; round++ {
		target := randomTags(rng)
		incoming := randomTags(rng)

		before := make(map[string]*tag, len(target))
		for _, e := range target {
			before[e.ID] = e
		}
		incomingIDs := sets.New(tagIDs(incoming)...)

		Reconcile(&target, incoming, tagID, cloneTag)

		got := sets.New(tagIDs(target)...)
		if !got.Equal(incomingIDs) {
			t.Fatalf("round %d: 期望身份集合等于 incoming, got=%v want=%v", round, sets.List(got), sets.List(incomingIDs))
		}
		if len(target) != got.Len() {
			t.Fatalf("round %d: 期望没有重复成员, got=%v", round, tagIDs(target))
		}
		for _, e := range target {
			if old, ok := before[e.ID]; ok && old != e {
				t.Fatalf("round %d: 期望共同成员保留原实例, id=%s", round, e.ID)
			}
		}
	}
}

func randomTags(rng *rand.Rand) []*tag {
	n := rng.IntN(6)
	seen := sets.New[string]()
	out := make([]*tag, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("t%d", rng.IntN(8))
		if seen.Has(id) {
			continue
		}
		seen.Insert(id)
		out = append(out, &tag{ID: id})
	}
	return out
}
