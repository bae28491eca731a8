package storage

import (
	"iter"

	"github.com/zeusync/escape/internal/core/models"
)

type Row2[A, B any] struct {
	Entity models.Entity
	A      *A
	B      *B
}

type Row3[A, B, C any] struct {
	Entity models.Entity
	A      *A
	B      *B
	C      *C
}

// smallest picks the store with the fewest entries to drive a view,
// minimising membership checks against the others.
func smallest(stores ...componentStore) componentStore {
	best := stores[0]
	for _, s := range stores[1:] {
		if s.count() < best.count() {
			best = s
		}
	}
	return best
}

// View1 yields every entity holding A together with its component.
func View1[A any](w *World) iter.Seq2[models.Entity, *A] {
	return func(yield func(models.Entity, *A) bool) {
		sa := lookup[A](w)
		if sa == nil {
			return
		}
		for i := 0; i < sa.count(); i++ {
			e := sa.at(i)
			if !yield(e, sa.items[e]) {
				return
			}
		}
	}
}

// View2 yields every entity holding both A and B.
func View2[A, B any](w *World) iter.Seq[Row2[A, B]] {
	return func(yield func(Row2[A, B]) bool) {
		sa, sb := lookup[A](w), lookup[B](w)
		if sa == nil || sb == nil {
			return
		}
		driver := smallest(sa, sb)
		for i := 0; i < driver.count(); i++ {
			e := driver.at(i)
			a, ok := sa.items[e]
			if !ok {
				continue
			}
			b, ok := sb.items[e]
			if !ok {
				continue
			}
			if !yield(Row2[A, B]{Entity: e, A: a, B: b}) {
				return
			}
		}
	}
}

// View3 yields every entity holding A, B and C.
func View3[A, B, C any](w *World) iter.Seq[Row3[A, B, C]] {
	return func(yield func(Row3[A, B, C]) bool) {
		sa, sb, sc := lookup[A](w), lookup[B](w), lookup[C](w)
		if sa == nil || sb == nil || sc == nil {
			return
		}
		driver := smallest(sa, sb, sc)
		for i := 0; i < driver.count(); i++ {
			e := driver.at(i)
			a, ok := sa.items[e]
			if !ok {
				continue
			}
			b, ok := sb.items[e]
			if !ok {
				continue
			}
			c, ok := sc.items[e]
			if !ok {
				continue
			}
			if !yield(Row3[A, B, C]{Entity: e, A: a, B: b, C: c}) {
				return
			}
		}
	}
}

// Collect drains a view into a slice so the caller can mutate afterwards.
func Collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for v := range seq {
		out = append(out, v)
	}
	return out
}
