package patchx

import "k8s.io/apimachinery/pkg/util/sets"

// Reconcile 按身份标识把 *target 协调成与 incoming 相同的成员集合：
//  1. target 中身份不在 incoming 里的成员被移除（按身份，不按指针）
//  2. incoming 中身份不在 target 里的成员以 clone 副本追加
//  3. 两边都有的成员原样保留（同一个实例，字段不做协调）
//
// incoming 里重复的身份只按第一次出现处理。
// 切片在原底层数组上压缩，空出的尾部清零以释放引用；target 指向的字段本身不会被替换成调用方的切片。
// incoming 可以与 *target 共用底层数组：新增成员在压缩之前就已复制出来。
func Reconcile[E any, ID comparable](target *[]E, incoming []E, identity func(E) ID, clone func(E) E) {
	current := *target
	currentIDs := sets.New[ID]()
	for _, e := range current {
		currentIDs.Insert(identity(e))
	}

	incomingIDs := sets.New[ID]()
	var added []E
	for _, e := range incoming {
		id := identity(e)
		if incomingIDs.Has(id) {
			continue
		}
		incomingIDs.Insert(id)
		if !currentIDs.Has(id) {
			added = append(added, clone(e))
		}
	}

	kept := current[:0]
	for _, e := range current {
		if incomingIDs.Has(identity(e)) {
			kept = append(kept, e)
		}
	}
	clear(current[len(kept):])

	*target = append(kept, added...)
}
