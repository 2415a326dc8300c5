package patchx

import (
	"strings"

	"BookShelf/modules/kit/errx"

	"k8s.io/apimachinery/pkg/util/sets"
)

// CodeNoSuchField 表示更新集合里出现了注册表不认识的字段。
// 经过 EffectiveUpdateSet 过滤后不应出现，出现即说明调用方绕过了选择器。
const CodeNoSuchField errx.Code = "PATCH_NO_SUCH_FIELD"

var ErrNoSuchField = errx.NewSys(CodeNoSuchField, "no such field")

// Registry 是实体类型 T 的字段注册表：字段名 -> 读写函数，每个类型构建一次，之后只读，可并发使用。
type Registry[T any] struct {
	fields   []Field[T]
	index    map[string]int // 小写字段名 -> fields 下标
	writable sets.Set[string]
}

// NewRegistry 按声明顺序构建注册表；名字为空、重复（忽略大小写）或缺少读写函数都会 panic。
func NewRegistry[T any](fields ...Field[T]) *Registry[T] {
	r := &Registry[T]{
		fields:   make([]Field[T], 0, len(fields)),
		index:    make(map[string]int, len(fields)),
		writable: sets.New[string](),
	}
	for _, f := range fields {
		if f.name == "" || f.apply == nil {
			panic(errx.Invariant("patchx: malformed field", map[string]any{"field": f.name}))
		}
		key := strings.ToLower(f.name)
		if _, dup := r.index[key]; dup {
			panic(errx.Invariant("patchx: duplicate field", map[string]any{"field": f.name}))
		}
		r.index[key] = len(r.fields)
		r.fields = append(r.fields, f)
		r.writable.Insert(f.name)
	}
	return r
}

// Writable 返回全部可写字段名（规范拼写）。返回的是副本。
func (r *Registry[T]) Writable() sets.Set[string] {
	return r.writable.Clone()
}

// Fields 按声明顺序返回字段描述。
func (r *Registry[T]) Fields() []Field[T] {
	out := make([]Field[T], len(r.fields))
	copy(out, r.fields)
	return out
}

// Lookup 忽略大小写查找字段。
func (r *Registry[T]) Lookup(name string) (Field[T], bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return Field[T]{}, false
	}
	return r.fields[i], true
}

// EffectiveUpdateSet 计算 declared ∩ writable。
// 比较忽略大小写，结果使用 writable 中的规范拼写；不认识或只读的名字直接丢弃，不报错。
func EffectiveUpdateSet(declared []string, writable sets.Set[string]) sets.Set[string] {
	canonical := make(map[string]string, writable.Len())
	for name := range writable {
		canonical[strings.ToLower(name)] = name
	}
	out := sets.New[string]()
	for _, d := range declared {
		if name, ok := canonical[strings.ToLower(d)]; ok {
			out.Insert(name)
		}
	}
	return out
}

// Update 全量更新：声明字段默认为全部可写字段。
func (r *Registry[T]) Update(target, incoming *T) sets.Set[string] {
	return r.mustApply(target, incoming, r.writable)
}

// Patch 局部更新：只应用 declared 中可写的字段，返回本次已应用字段。
// declared 为空时什么都不改。
func (r *Registry[T]) Patch(target, incoming *T, declared []string) sets.Set[string] {
	return r.mustApply(target, incoming, EffectiveUpdateSet(declared, r.writable))
}

// ApplySet 按给定的更新集合应用字段。集合里有未注册字段时返回 ErrNoSuchField，且 target 不做任何修改。
func (r *Registry[T]) ApplySet(target, incoming *T, update sets.Set[string]) (sets.Set[string], error) {
	if target == nil || incoming == nil {
		panic(errx.Invariant("patchx: nil target or incoming", nil))
	}

	selected := make([]bool, len(r.fields))
	for name := range update {
		i, ok := r.index[strings.ToLower(name)]
		if !ok {
			return nil, ErrNoSuchField.WithData("field", name)
		}
		selected[i] = true
	}

	applied := sets.New[string]()
	for i, f := range r.fields {
		if !selected[i] {
			continue
		}
		f.apply(target, incoming)
		applied.Insert(f.name)
	}
	return applied, nil
}

func (r *Registry[T]) mustApply(target, incoming *T, update sets.Set[string]) sets.Set[string] {
	applied, err := r.ApplySet(target, incoming, update)
	if err != nil {
		panic(errx.ErrInvariant.WithCause(err))
	}
	return applied
}
