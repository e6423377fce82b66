package cstr

import (
	"unsafe"

	"github.com/wippyai/cbridge/cptr"
	"github.com/wippyai/cbridge/errors"
)

// BoundedCopy copies src into the capacity-byte C buffer at dst with
// strlcpy semantics and returns len(src)+1.
//
// With capacity 0 nothing is written. Otherwise at most capacity-1 bytes
// of src are copied and a zero byte follows them, so dst is always
// terminated. A return value greater than capacity signals truncation.
//
// BoundedCopy has no error result: a nil dst with a non-zero capacity, or
// a negative capacity, panics with an *errors.Error in PhaseCopy.
func BoundedCopy(dst unsafe.Pointer, capacity int, src string) int {
	v, err := cptr.AsViewMut[byte](dst, capacity)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Phase = errors.PhaseCopy
		}
		panic(err)
	}
	return BoundedCopyInto(v, src)
}

// BoundedCopyInto is BoundedCopy over an already validated view.
func BoundedCopyInto(dst cptr.MutView[byte], src string) int {
	required := len(src) + 1
	if dst.Len() == 0 {
		return required
	}
	n := min(len(src), dst.Len()-1)
	copy(dst.Elems(), src[:n])
	dst.Set(n, 0)
	return required
}

// BoundedCopyFixed is BoundedCopy into a fixed-width character field,
// the inverse of DecodeFixed: BoundedCopyFixed(rec.name[:], "sensor").
func BoundedCopyFixed[E Char](field []E, src string) int {
	return BoundedCopyInto(cptr.FromSliceMut(asBytes(field)), src)
}

// Truncated reports whether a BoundedCopy that returned required into a
// buffer of capacity bytes was cut short.
func Truncated(required, capacity int) bool {
	return required > capacity
}
