// Package cbridge is a safety layer for values crossing a C-ABI boundary.
//
// Every pointer arriving from C is a bare address whose validity and
// lifetime the caller merely asserts. The packages here are the only places
// that turn such addresses into Go values, and the only places that hand Go
// data back out as C buffers.
//
// # Architecture Overview
//
//	cbridge/          Root package: Memory and Allocator interfaces, Must/Check
//	├── cptr/         Raw handle to reference and bounds-described view
//	├── cstr/         C string decode/encode, scoped CString, strlcpy
//	├── guest/        The same primitives over wasm32 guest memory (wazero)
//	├── errors/       Structured error types
//	└── cmd/ccall/    Call C functions compiled to wasm from the command line
//
// # Quick Start
//
// Decode a string returned by C and pass one back out:
//
//	name := cbridge.Must(cstr.Decode(unsafe.Pointer(C.get_name())))
//
//	err := cstr.With(name+".bak", func(p unsafe.Pointer) error {
//		C.set_name((*C.char)(p))
//		return nil
//	})
//
// # Error Model
//
// There are two tiers. Contract violations (a nil handle where one is
// required, invalid UTF-8, a zero byte inside outbound text, a path that
// is not UTF-8) come back as *errors.Error values; they are not meant to be
// handled, and Must/Check log and panic on them. Truncation in
// cstr.BoundedCopy is not an error and is only visible in its return value.
//
// # Thread Safety
//
// Nothing here holds shared state. Views and CStrings belong to the call
// that created them; MutView assumes, and cannot verify, exclusive access.
package cbridge
