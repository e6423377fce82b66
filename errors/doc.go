// Package errors provides structured error types for the cbridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: argument path, Go/C type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseView, errors.KindNilPointer).
//		Path("args", "argv").
//		GoType("*C.char").
//		Value(3).
//		Detail("nil handle paired with count 3").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NilPointer(errors.PhaseDeref, path, "*C.struct_stat")
//	err := errors.InteriorNul(errors.PhaseEncode, path, 4)
//
// Every Error produced by cptr and cstr reports a broken boundary contract.
// Callers are expected to treat them as unrecoverable; see cbridge.Must.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
