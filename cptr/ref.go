package cptr

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/cbridge/errors"
)

// Ref converts a raw handle to a typed reference.
// A nil handle yields (nil, false).
func Ref[T any](p unsafe.Pointer) (*T, bool) {
	if p == nil {
		return nil, false
	}
	return (*T)(p), true
}

// MustRef is Ref for handles that are required to be non-nil.
func MustRef[T any](p unsafe.Pointer) (*T, error) {
	if p == nil {
		return nil, errors.NilPointer(errors.PhaseDeref, nil, typeName[T]())
	}
	return (*T)(p), nil
}

// RefMut converts a raw handle to a reference the caller intends to write
// through. The caller guarantees no other reader or writer touches the
// target while the reference is in use.
func RefMut[T any](p unsafe.Pointer) (*T, bool) {
	return Ref[T](p)
}

// MustRefMut is RefMut for handles that are required to be non-nil.
func MustRefMut[T any](p unsafe.Pointer) (*T, error) {
	return MustRef[T](p)
}

func typeName[T any]() string {
	return fmt.Sprintf("%T", (*T)(nil))
}
