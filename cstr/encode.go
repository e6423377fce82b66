package cstr

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/cbridge/errors"
)

// CString is an owned, null-terminated copy of Go text prepared for one
// outbound C call. Its address is only reachable through Use, which
// releases the buffer when the call returns.
//
// A CString is not safe for concurrent use.
type CString struct {
	buf      []byte
	absent   bool
	released bool
}

// Encode copies s into a new CString. It fails if s contains a zero byte.
func Encode(s string) (*CString, error) {
	buf, err := AppendEncoded(make([]byte, 0, len(s)+1), s)
	if err != nil {
		return nil, err
	}
	return &CString{buf: buf}, nil
}

// EncodeBytes is Encode for byte input.
func EncodeBytes(b []byte) (*CString, error) {
	return Encode(unsafe.String(unsafe.SliceData(b), len(b)))
}

// EncodeOptional encodes *s, or returns the absent CString when s is nil.
// The absent CString passes a nil pointer to Use.
func EncodeOptional(s *string) (*CString, error) {
	if s == nil {
		return &CString{absent: true}, nil
	}
	return Encode(*s)
}

// EncodePath encodes a filesystem path. The path must be valid UTF-8.
func EncodePath(path string) (*CString, error) {
	if !utf8.ValidString(path) {
		return nil, errors.UnrepresentablePath(errors.PhaseEncode, path)
	}
	cs, err := Encode(path)
	if err != nil {
		e := err.(*errors.Error)
		e.Detail = fmt.Sprintf("%s in path %q", e.Detail, path)
		return nil, e
	}
	return cs, nil
}

// AppendEncoded appends s and a terminating zero byte to dst.
func AppendEncoded(dst []byte, s string) ([]byte, error) {
	if err := Validate(s); err != nil {
		return dst, err
	}
	dst = append(dst, s...)
	return append(dst, 0), nil
}

// Validate reports whether s can be encoded as a C string.
func Validate(s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return errors.InteriorNul(errors.PhaseEncode, nil, i)
	}
	return nil
}

// Use passes the buffer address to fn and releases the buffer when fn
// returns. p is nil for the absent CString. p must not be retained by fn
// or by anything fn calls. A released CString cannot be used again.
func (c *CString) Use(fn func(p unsafe.Pointer) error) error {
	if c.released {
		return errors.Released(errors.PhaseEncode, "C string")
	}
	defer c.Release()

	var p unsafe.Pointer
	if !c.absent {
		p = unsafe.Pointer(unsafe.SliceData(c.buf))
	}
	err := fn(p)
	runtime.KeepAlive(c.buf)
	return err
}

// Release clears and drops the buffer. Any address obtained from Use now
// reads as an empty string until the memory is reclaimed.
func (c *CString) Release() {
	clear(c.buf)
	c.buf = nil
	c.released = true
}

// IsAbsent reports whether c encodes a missing string.
func (c *CString) IsAbsent() bool { return c.absent }

// Released reports whether the buffer has been released.
func (c *CString) Released() bool { return c.released }

// Len returns the length in bytes, excluding the terminator.
func (c *CString) Len() int {
	if len(c.buf) == 0 {
		return 0
	}
	return len(c.buf) - 1
}

// String returns a debug representation of c.
func (c *CString) String() string {
	switch {
	case c.released:
		return "<released>"
	case c.absent:
		return "<absent>"
	case len(c.buf) == 0:
		return `""`
	default:
		return fmt.Sprintf("%q", c.buf[:len(c.buf)-1])
	}
}

// With encodes s, passes its address to fn for one call, then releases it.
func With(s string, fn func(p unsafe.Pointer) error) error {
	cs, err := Encode(s)
	if err != nil {
		return err
	}
	return cs.Use(fn)
}

// WithOptional is With for a string that may be absent.
func WithOptional(s *string, fn func(p unsafe.Pointer) error) error {
	cs, err := EncodeOptional(s)
	if err != nil {
		return err
	}
	return cs.Use(fn)
}

// WithPath is With for a filesystem path.
func WithPath(path string, fn func(p unsafe.Pointer) error) error {
	cs, err := EncodePath(path)
	if err != nil {
		return err
	}
	return cs.Use(fn)
}

// WithAll encodes every string in ss and passes their addresses to fn in
// order. All buffers are released when fn returns. Nothing is encoded for
// fn unless every string is valid.
//
// The ps slice itself is Go memory holding Go pointers and must not be
// passed to C; pass its elements.
func WithAll(ss []string, fn func(ps []unsafe.Pointer) error) error {
	css := make([]*CString, len(ss))
	for i, s := range ss {
		cs, err := Encode(s)
		if err != nil {
			e := err.(*errors.Error)
			e.Path = []string{fmt.Sprintf("[%d]", i)}
			return e
		}
		css[i] = cs
	}
	defer func() {
		for _, cs := range css {
			cs.Release()
		}
	}()

	ps := make([]unsafe.Pointer, len(css))
	for i, cs := range css {
		ps[i] = unsafe.Pointer(unsafe.SliceData(cs.buf))
	}
	err := fn(ps)
	runtime.KeepAlive(css)
	return err
}

// Static returns the address of a string literal that already carries its
// terminator, for example cstr.Static("rb\x00"). The literal must end in
// exactly one zero byte. Constant strings live for the whole program, so
// the address may be kept; for any other string the Use rules apply.
func Static(lit string) (unsafe.Pointer, error) {
	if !strings.HasSuffix(lit, "\x00") {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Value(lit).
			Detail("literal %q is not null-terminated", lit).
			Build()
	}
	if err := Validate(lit[:len(lit)-1]); err != nil {
		return nil, err
	}
	return unsafe.Pointer(unsafe.StringData(lit)), nil
}
