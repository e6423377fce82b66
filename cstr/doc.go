// Package cstr converts between Go strings and null-terminated C strings.
//
// # Decoding
//
// Text arriving from C is scanned to its first zero byte and must be valid
// UTF-8; there is no replacement-character fallback.
//
//	Decode(p)         owned copy from a bare char pointer
//	Borrow(p)         zero-copy string aliasing the C memory
//	DecodeView(v)     scan a cptr.View to the first zero or the view end
//	DecodeFixed(a[:]) fixed-width char field of any width
//	DecodeBytes(b)    same scan over a byte slice
//
// A nil pointer is a contract violation (KindNilPointer).
//
// # Encoding
//
// Outbound text is copied into a CString: an owned buffer with a single
// trailing zero byte and no interior zero bytes. A CString hands its
// address out exactly once, for the span of one call, and is released
// when that call returns:
//
//	err := cstr.With(name, func(p unsafe.Pointer) error {
//		C.set_name((*C.char)(p))
//		return nil
//	})
//
// The absent state (EncodeOptional(nil)) passes a nil pointer, distinct
// from the empty string which passes a pointer to a lone terminator.
//
// The pointer handed to fn addresses Go memory. It may be passed to C for
// the duration of the call under the cgo pointer rules; C must not keep it.
//
// # Bounded Copy
//
// BoundedCopy follows strlcpy: the destination is always terminated when
// capacity > 0, and the return value is len(src)+1 whether or not the copy
// was truncated. A return value greater than capacity means truncation.
package cstr
