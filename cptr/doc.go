// Package cptr converts raw handles received across a C-ABI boundary into
// typed references and bounds-described views.
//
// A raw handle is an unsafe.Pointer whose element type is supplied as a
// type parameter and, for views, an element count. Nothing here can check
// that the handle really addresses count elements of live memory: that is
// the caller's contract. What is checked is the pairing itself:
//
//	p == nil, n == 0   empty view (non-nil sentinel backing)
//	p == nil, n > 0    KindNilPointer, the pairing is already broken
//	p != nil, n >= 0   view of exactly n elements starting at p
//	n < 0              KindInvalidInput
//
// # Borrowed Views
//
// View and MutView are the borrowed buffer types. Build one once at the
// boundary, then pass it around for the rest of the call instead of the
// raw pointer and length:
//
//	func write(buf unsafe.Pointer, n C.size_t) C.int {
//		dst, err := cptr.AsViewMut[byte](buf, int(n))
//		if err != nil {
//			cbridge.Check(err)
//		}
//		return C.int(fill(dst))
//	}
//
// A view must not outlive the foreign owner of its memory. MutView also
// assumes exclusive access for its lifetime; no aliasing detection is done.
//
// # Errors
//
// Every error returned here is a *errors.Error in PhaseDeref or PhaseView
// and reports a contract breach by the calling code. Treat it as fatal.
package cptr
