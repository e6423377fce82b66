package cstr

import (
	"bytes"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/cbridge/cptr"
	"github.com/wippyai/cbridge/errors"
)

// Char is the element type of a C character buffer: C.char (signed or
// unsigned depending on the platform), C.schar, C.uchar, byte or int8.
type Char interface {
	~byte | ~int8
}

// Borrow returns the null-terminated string at p without copying. The
// result aliases C memory and is only valid while that memory is alive and
// unmodified.
func Borrow(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", errors.NilPointer(errors.PhaseDecode, nil, "*C.char")
	}
	b := unsafe.Slice((*byte)(p), strlen(p))
	if err := validate(b); err != nil {
		return "", err
	}
	return unsafe.String((*byte)(p), len(b)), nil
}

// Decode returns an owned copy of the null-terminated string at p.
func Decode(p unsafe.Pointer) (string, error) {
	s, err := Borrow(p)
	if err != nil {
		return "", err
	}
	return strings.Clone(s), nil
}

// BorrowView returns the text in v up to its first zero element, or all of
// v if none, without copying.
func BorrowView[E Char](v cptr.View[E]) (string, error) {
	b := terminated(asBytes(v.Unchecked()))
	if err := validate(b); err != nil {
		return "", err
	}
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// DecodeView returns an owned copy of the text in v up to its first zero
// element, or all of v if none.
func DecodeView[E Char](v cptr.View[E]) (string, error) {
	return DecodeBytes(asBytes(v.Unchecked()))
}

// DecodeFixed decodes a fixed-width character field such as
// `char name[16]`. Pass the array as a slice: DecodeFixed(rec.name[:]).
// A field filled to its width without a terminator decodes in full.
func DecodeFixed[E Char](field []E) (string, error) {
	return DecodeBytes(asBytes(field))
}

// DecodeBytes returns an owned copy of b up to its first zero byte, or all
// of b if none.
func DecodeBytes(b []byte) (string, error) {
	b = terminated(b)
	if err := validate(b); err != nil {
		return "", err
	}
	return string(b), nil
}

func terminated(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

func validate(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	bad := 0
	for bad < len(b) {
		r, size := utf8.DecodeRune(b[bad:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		bad += size
	}
	err := errors.InvalidUTF8(errors.PhaseDecode, nil, b[bad:])
	err.Value = bad
	return err
}

func strlen(p unsafe.Pointer) int {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return n
}

func asBytes[E Char](s []E) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}
