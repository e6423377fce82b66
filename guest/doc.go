// Package guest applies the cptr and cstr contracts to C programs compiled
// to wasm32 and run under wazero.
//
// In a wasm32 guest a pointer is a uint32 offset into linear memory and
// offset 0 is NULL. Unlike native pointers these can be bounds-checked, so
// reads and writes past the end of memory are reported as
// KindOutOfBounds instead of being undefined.
//
// # Memory and Allocation
//
// Wrap the instance's exported memory and its malloc/free exports:
//
//	g, err := guest.Attach(ctx, mod)
//	// or
//	g := guest.New(guest.WrapMemory(mod.ExportedMemory("memory")), alloc)
//
// # Passing Strings In
//
// Strings for an outbound call are allocated in guest memory inside a
// Scope and freed when the scope closes:
//
//	err := g.WithCString("bob", func(ptr uint32) error {
//		_, err := greet.Call(ctx, uint64(ptr))
//		return err
//	})
//
// For calls taking several strings, open a Scope and use WriteCString.
//
// # Reading Strings Out
//
//	name, err := g.ReadCString(ptr)   // scan to NUL, validate UTF-8, copy
//	tag, err := g.ReadFixed(ptr, 16)  // char tag[16]
//
// Scans stop at the end of memory and at the configured maximum string
// size (WithMaxStringSize).
//
// # Thread Safety
//
// A Guest is as safe as the wazero module behind it: wazero instances are
// not safe for concurrent calls. A Scope belongs to a single goroutine.
package guest
