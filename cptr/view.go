package cptr

import (
	"iter"
	"math"
	"unsafe"

	"github.com/wippyai/cbridge/errors"
)

// View is a read-only window over externally owned memory.
type View[T any] struct {
	s []T
}

// MutView is a writable window over externally owned memory. Holding one
// asserts exclusive access to the memory it spans.
type MutView[T any] struct {
	View[T]
}

// AsView builds a view of n elements starting at p.
func AsView[T any](p unsafe.Pointer, n int) (View[T], error) {
	s, err := span[T](p, n)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{s: s}, nil
}

// AsViewMut builds a writable view of n elements starting at p.
func AsViewMut[T any](p unsafe.Pointer, n int) (MutView[T], error) {
	s, err := span[T](p, n)
	if err != nil {
		return MutView[T]{}, err
	}
	return MutView[T]{View[T]{s: s}}, nil
}

// FromSlice wraps Go-owned memory as a view.
func FromSlice[T any](s []T) View[T] {
	if s == nil {
		s = make([]T, 0)
	}
	return View[T]{s: s}
}

// FromSliceMut wraps Go-owned memory as a writable view.
func FromSliceMut[T any](s []T) MutView[T] {
	return MutView[T]{FromSlice(s)}
}

func span[T any](p unsafe.Pointer, n int) ([]T, error) {
	if n < 0 {
		return nil, errors.New(errors.PhaseView, errors.KindInvalidInput).
			GoType(typeName[T]()).
			Value(n).
			Detail("negative element count %d", n).
			Build()
	}
	if p == nil {
		if n > 0 {
			return nil, errors.NilWithCount(errors.PhaseView, nil, typeName[T](), n)
		}
		// Zero-length make never returns a nil data pointer.
		return make([]T, 0), nil
	}
	var zero T
	if size := unsafe.Sizeof(zero); size > 0 && uintptr(n) > uintptr(math.MaxInt)/size {
		return nil, errors.Overflow(errors.PhaseView, nil, n, typeName[T]())
	}
	return unsafe.Slice((*T)(p), n), nil
}

// Len returns the number of elements.
func (v View[T]) Len() int { return len(v.s) }

// IsEmpty reports whether the view spans no elements.
func (v View[T]) IsEmpty() bool { return len(v.s) == 0 }

// At returns element i. It panics if i is out of range, like slice indexing.
func (v View[T]) At(i int) T { return v.s[i] }

// Ptr returns the address of the first element. It is never nil, even for
// an empty view.
func (v View[T]) Ptr() unsafe.Pointer {
	if v.s == nil {
		return unsafe.Pointer(unsafe.SliceData(make([]T, 0)))
	}
	return unsafe.Pointer(unsafe.SliceData(v.s))
}

// Slice returns the sub-view [i:j].
func (v View[T]) Slice(i, j int) View[T] { return View[T]{s: v.s[i:j:j]} }

// Index returns the position of the first element matching fn, or -1.
func (v View[T]) Index(fn func(T) bool) int {
	for i, e := range v.s {
		if fn(e) {
			return i
		}
	}
	return -1
}

// Copy returns an owned copy of the elements, detached from the foreign
// memory.
func (v View[T]) Copy() []T {
	out := make([]T, len(v.s))
	copy(out, v.s)
	return out
}

// All iterates over index, element pairs.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, e := range v.s {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Unchecked exposes the underlying slice. It aliases foreign memory:
// callers must not write through it or keep it past the view's lifetime.
func (v View[T]) Unchecked() []T { return v.s[:len(v.s):len(v.s)] }

// Set stores x at element i.
func (v MutView[T]) Set(i int, x T) { v.s[i] = x }

// Slice returns the writable sub-view [i:j].
func (v MutView[T]) Slice(i, j int) MutView[T] {
	return MutView[T]{View[T]{s: v.s[i:j:j]}}
}

// Elems returns the writable underlying slice.
func (v MutView[T]) Elems() []T { return v.s[:len(v.s):len(v.s)] }

// CopyFrom copies src into the view and returns the number of elements
// copied, which is the minimum of both lengths.
func (v MutView[T]) CopyFrom(src []T) int { return copy(v.s, src) }

// Fill sets every element to x.
func (v MutView[T]) Fill(x T) {
	for i := range v.s {
		v.s[i] = x
	}
}

// ReadOnly drops write access.
func (v MutView[T]) ReadOnly() View[T] { return v.View }

// Bytes reinterprets a view as its raw bytes.
func Bytes[T any](v View[T]) View[byte] {
	if len(v.s) == 0 {
		return FromSlice[byte](nil)
	}
	var zero T
	return View[byte]{s: unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v.s))), len(v.s)*int(unsafe.Sizeof(zero)))}
}
