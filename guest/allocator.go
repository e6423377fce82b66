package guest

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/cbridge"
	"github.com/wippyai/cbridge/errors"
)

var _ cbridge.Allocator = (*Allocator)(nil)

// Allocator calls a guest's malloc and free exports.
type Allocator struct {
	Ctx    context.Context
	Malloc api.Function
	FreeFn api.Function
	Log    *zap.Logger
}

// WrapAllocator wraps malloc and free functions exported by a guest.
// It returns nil when malloc is nil. free may be nil, in which case Free
// is a no-op.
func WrapAllocator(ctx context.Context, malloc, free api.Function) *Allocator {
	if malloc == nil {
		return nil
	}
	return &Allocator{Ctx: ctx, Malloc: malloc, FreeFn: free, Log: Logger()}
}

// NewAllocator looks up the allocator exports of mod, "malloc" and "free"
// unless renamed with WithAllocatorNames.
func NewAllocator(ctx context.Context, mod api.Module, opts ...Option) (*Allocator, error) {
	cfg := newConfig(opts)
	malloc := mod.ExportedFunction(cfg.mallocName)
	if malloc == nil {
		return nil, errors.NotFound(errors.PhaseGuest, "allocator export", cfg.mallocName)
	}
	free := mod.ExportedFunction(cfg.freeName)
	if free == nil {
		cfg.logger.Warn("guest exports no free function, allocations will leak",
			zap.String("export", cfg.freeName))
	}
	alloc := WrapAllocator(ctx, malloc, free)
	alloc.Log = cfg.logger
	return alloc, nil
}

// Alloc calls malloc(size). malloc's own alignment guarantee (16 bytes on
// wasm32 libc) covers every align a C string needs; a result that does not
// meet align is still rejected.
func (a *Allocator) Alloc(size, align uint32) (uint32, error) {
	if a == nil {
		return 0, errors.NotInitialized(errors.PhaseGuest, "allocator")
	}
	results, err := a.Malloc.Call(a.Ctx, uint64(size))
	if err != nil {
		return 0, allocFailed(size, align, err)
	}
	if len(results) == 0 {
		return 0, allocFailed(size, align, fmt.Errorf("malloc returned no result"))
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseGuest, size, align)
	}
	if align > 1 && ptr%align != 0 {
		return 0, allocFailed(size, align, fmt.Errorf("malloc returned misaligned pointer %#x", ptr))
	}
	return ptr, nil
}

func allocFailed(size, align uint32, cause error) error {
	return errors.Wrap(errors.PhaseGuest, errors.KindAllocation, cause,
		fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align))
}

// Free calls free(ptr).
func (a *Allocator) Free(ptr, size, align uint32) {
	if a == nil || a.FreeFn == nil || ptr == 0 {
		return
	}
	if _, err := a.FreeFn.Call(a.Ctx, uint64(ptr)); err != nil {
		log := a.Log
		if log == nil {
			log = Logger()
		}
		log.Warn("guest free failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}
