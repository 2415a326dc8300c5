// Package patchx 实现按“声明字段”局部更新实体的引擎：
//
//   - 字段选择：实体类型的可写字段集合 ∩ 客户端声明的字段列表
//   - 标量字段：值不同才写入，但无论是否变化都记入“已应用字段”
//   - 一对多字段：按身份标识对集合做增删协调，不整体替换
//
// 引擎是纯内存、同步、无锁的变换；加载/保存与并发串行化由调用方负责。
package patchx

// Kind 表示字段在协调算法中的类别。
type Kind uint8

const (
	KindScalar Kind = iota
	KindToMany
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindToMany:
		return "to_many"
	default:
		return "unknown"
	}
}

// Field 是某个实体类型 T 的一个可写字段：名字 + 把 incoming 的值应用到 target 的函数。
// 通过 Scalar / ScalarEq / ToMany 构造，不直接实例化。
type Field[T any] struct {
	name  string
	kind  Kind
	apply func(target, incoming *T)
}

func (f Field[T]) Name() string { return f.name }

func (f Field[T]) Kind() Kind { return f.kind }

// Scalar 注册一个可用 == 比较的标量字段。
func Scalar[T any, V comparable](name string, get func(*T) V, set func(*T, V)) Field[T] {
	return ScalarEq(name, get, set, func(a, b V) bool { return a == b })
}

// ScalarEq 注册一个自定义相等判断的标量字段（time.Time、切片等）。
func ScalarEq[T any, V any](name string, get func(*T) V, set func(*T, V), equal func(a, b V) bool) Field[T] {
	return Field[T]{
		name: name,
		kind: KindScalar,
		apply: func(target, incoming *T) {
			next := get(incoming)
			if !equal(get(target), next) {
				set(target, next)
			}
		},
	}
}

// ToMany 注册一个一对多关系字段。
//   - coll 返回父实体上集合字段的地址，协调时原地修改
//   - identity 返回成员的身份标识
//   - clone 为新增成员构造父实体独占的副本
func ToMany[T any, E any, ID comparable](name string, coll func(*T) *[]E, identity func(E) ID, clone func(E) E) Field[T] {
	return Field[T]{
		name: name,
		kind: KindToMany,
		apply: func(target, incoming *T) {
			Reconcile(coll(target), *coll(incoming), identity, clone)
		},
	}
}
