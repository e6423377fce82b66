package guest

import (
	"bytes"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/cbridge"
	"github.com/wippyai/cbridge/cptr"
	"github.com/wippyai/cbridge/cstr"
	"github.com/wippyai/cbridge/errors"
)

// View returns n bytes at ptr. A null ptr is accepted only with n == 0 and
// yields an empty, non-nil slice. The bytes alias guest memory.
func (g *Guest) View(ptr, n uint32) ([]byte, error) {
	if ptr == 0 {
		if n > 0 {
			return nil, errors.NilWithCount(errors.PhaseGuest, nil, "[]byte", int(n))
		}
		return make([]byte, 0), nil
	}
	if n == 0 {
		return make([]byte, 0), nil
	}
	return g.mem.Read(ptr, n)
}

// ReadCString decodes the NUL-terminated string at ptr into an owned Go
// string.
func (g *Guest) ReadCString(ptr uint32) (string, error) {
	if ptr == 0 {
		return "", errors.NilPointer(errors.PhaseGuest, nil, "*char")
	}
	raw, err := g.scan(ptr)
	if err != nil {
		return "", err
	}
	return cstr.DecodeBytes(raw)
}

// ReadOptional is ReadCString with null mapped to a nil result.
func (g *Guest) ReadOptional(ptr uint32) (*string, error) {
	if ptr == 0 {
		return nil, nil
	}
	s, err := g.ReadCString(ptr)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadFixed decodes a char[width] field at ptr. A field filled to its width
// without a terminator decodes in full.
func (g *Guest) ReadFixed(ptr, width uint32) (string, error) {
	field, err := g.View(ptr, width)
	if err != nil {
		return "", err
	}
	return cstr.DecodeFixed(field)
}

// scan returns the bytes before the terminator at ptr, not including it.
func (g *Guest) scan(ptr uint32) ([]byte, error) {
	limit := g.cfg.maxStringSize
	sizer, ok := g.mem.(cbridge.MemorySizer)
	if !ok {
		return g.scanBytewise(ptr, limit)
	}

	size := sizer.Size()
	if ptr >= size {
		return nil, errors.OutOfBounds(errors.PhaseGuest, nil, int(ptr), int(size))
	}
	avail := size - ptr
	window := avail
	if limit < window {
		window = limit + 1
	}
	data, err := g.mem.Read(ptr, window)
	if err != nil {
		return nil, err
	}
	i := bytes.IndexByte(data, 0)
	switch {
	case i >= 0 && uint32(i) <= limit:
		return data[:i], nil
	case window == avail && uint32(len(data)) <= limit:
		return nil, errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
			Value(ptr).
			Detail("string at %#x is not terminated before end of memory (%d bytes)", ptr, size).
			Build()
	default:
		return nil, errors.Overflow(errors.PhaseGuest, nil, ptr,
			"string of at most "+strconv.FormatUint(uint64(limit), 10)+" bytes")
	}
}

// scanBytewise is scan for memories that cannot report their size. The
// offset is kept in 64 bits so a limit of math.MaxUint32 still ends and
// ptr+off never wraps to low memory.
func (g *Guest) scanBytewise(ptr, limit uint32) ([]byte, error) {
	var buf []byte
	for off := uint64(0); off <= uint64(limit); off++ {
		addr := uint64(ptr) + off
		if addr > math.MaxUint32 {
			return nil, errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
				Value(ptr).
				Detail("string at %#x runs past the 32-bit address space", ptr).
				Build()
		}
		b, err := g.mem.ReadU8(uint32(addr))
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return buf, nil
		}
		buf = append(buf, b)
	}
	return nil, errors.Overflow(errors.PhaseGuest, nil, ptr,
		"string of at most "+strconv.FormatUint(uint64(limit), 10)+" bytes")
}

// ReadPtr loads the 32-bit pointer stored at addr, such as a char* slot
// in a struct or an out-parameter.
func (g *Guest) ReadPtr(addr uint32) (uint32, error) {
	if addr == 0 {
		return 0, nullSlot()
	}
	return g.mem.ReadU32(addr)
}

// DerefCString reads the char* stored at addr and decodes the string it
// points to. A null char* yields nil.
func (g *Guest) DerefCString(addr uint32) (*string, error) {
	ptr, err := g.ReadPtr(addr)
	if err != nil {
		return nil, err
	}
	return g.ReadOptional(ptr)
}

// StoreCString writes s into memory allocated from scope and stores its
// address at addr. A nil s stores null.
func (g *Guest) StoreCString(scope *Scope, addr uint32, s *string) error {
	if addr == 0 {
		return nullSlot()
	}
	ptr, err := g.WriteOptional(scope, s)
	if err != nil {
		return err
	}
	return g.mem.WriteU32(addr, ptr)
}

func nullSlot() error {
	return errors.New(errors.PhaseGuest, errors.KindNilPointer).
		CType("char **").
		Detail("null pointer slot").
		Build()
}

// WriteCString encodes s into guest memory allocated from scope and returns
// its address.
func (g *Guest) WriteCString(scope *Scope, s string) (uint32, error) {
	buf, err := cstr.AppendEncoded(make([]byte, 0, len(s)+1), s)
	if err != nil {
		return 0, err
	}
	ptr, err := scope.Alloc(uint32(len(buf)), 1)
	if err != nil {
		return 0, err
	}
	if err := g.mem.Write(ptr, buf); err != nil {
		return 0, err
	}
	return ptr, nil
}

// WriteOptional is WriteCString with a nil s written as null.
func (g *Guest) WriteOptional(scope *Scope, s *string) (uint32, error) {
	if s == nil {
		return 0, nil
	}
	return g.WriteCString(scope, *s)
}

// WithCString writes s into guest memory, calls fn with its address and
// frees it once fn returns.
func (g *Guest) WithCString(s string, fn func(ptr uint32) error) error {
	scope := g.NewScope()
	defer scope.Close()

	ptr, err := g.WriteCString(scope, s)
	if err != nil {
		return err
	}
	return fn(ptr)
}

// WithCStrings is WithCString for several strings. All of them stay
// allocated until fn returns.
func (g *Guest) WithCStrings(ss []string, fn func(ptrs []uint32) error) error {
	scope := g.NewScope()
	defer scope.Close()

	ptrs := make([]uint32, len(ss))
	for i, s := range ss {
		ptr, err := g.WriteCString(scope, s)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = append([]string{"[" + strconv.Itoa(i) + "]"}, e.Path...)
			}
			return err
		}
		ptrs[i] = ptr
	}
	return fn(ptrs)
}

// BoundedCopy copies src into the capacity-byte guest buffer at dst with
// strlcpy semantics and returns len(src)+1. Capacity 0 writes nothing.
func (g *Guest) BoundedCopy(dst, capacity uint32, src string) (uint32, error) {
	required := uint32(len(src)) + 1
	if capacity == 0 {
		return required, nil
	}
	if dst == 0 {
		return 0, errors.NilWithCount(errors.PhaseGuest, nil, "*char", int(capacity))
	}
	if sizer, ok := g.mem.(cbridge.MemorySizer); ok {
		if size := sizer.Size(); uint64(dst)+uint64(capacity) > uint64(size) {
			return 0, errors.OutOfBounds(errors.PhaseGuest, nil, int(dst)+int(capacity)-1, int(size))
		}
	}

	n := min(uint32(len(src)), capacity-1)
	buf := make([]byte, n+1)
	cstr.BoundedCopyInto(cptr.FromSliceMut(buf), src)
	if err := g.mem.Write(dst, buf); err != nil {
		return 0, err
	}
	if cstr.Truncated(int(required), int(capacity)) {
		g.cfg.logger.Debug("guest string truncated",
			zap.Uint32("dst", dst),
			zap.Uint32("capacity", capacity),
			zap.Uint32("required", required),
		)
	}
	return required, nil
}
