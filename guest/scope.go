package guest

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/cbridge"
	"github.com/wippyai/cbridge/errors"
)

type allocation struct {
	ptr   uint32
	size  uint32
	align uint32
}

// Scope owns the guest allocations made for one outbound call. Close frees
// them all; pointers obtained from the scope are invalid afterwards.
type Scope struct {
	alloc       cbridge.Allocator
	logger      *zap.Logger
	allocations []allocation
}

var scopePool = sync.Pool{
	New: func() any {
		return &Scope{allocations: make([]allocation, 0, 8)}
	},
}

const maxPooledScopeCapacity = 128

// NewScope returns an empty scope allocating through alloc.
func NewScope(alloc cbridge.Allocator) *Scope {
	s := scopePool.Get().(*Scope)
	s.alloc = alloc
	s.logger = Logger()
	return s
}

// Alloc allocates size bytes and records the allocation for Close.
// It fails with KindNotInitialized when the scope has no allocator.
func (s *Scope) Alloc(size, align uint32) (uint32, error) {
	if s.alloc == nil {
		return 0, errors.NotInitialized(errors.PhaseGuest, "allocator")
	}
	ptr, err := s.alloc.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	s.allocations = append(s.allocations, allocation{ptr: ptr, size: size, align: align})
	s.logger.Debug("guest alloc", zap.Uint32("ptr", ptr), zap.Uint32("size", size))
	return ptr, nil
}

// Count returns the number of live allocations.
func (s *Scope) Count() int {
	return len(s.allocations)
}

// Close frees every allocation, newest first, and returns the scope to the
// pool. The scope must not be used after Close.
func (s *Scope) Close() {
	for i := len(s.allocations) - 1; i >= 0; i-- {
		a := s.allocations[i]
		s.alloc.Free(a.ptr, a.size, a.align)
	}
	if len(s.allocations) > 0 {
		s.logger.Debug("guest scope freed", zap.Int("allocations", len(s.allocations)))
	}

	// Only pool small scopes to prevent memory bloat
	if cap(s.allocations) > maxPooledScopeCapacity {
		return
	}
	s.allocations = s.allocations[:0]
	s.alloc = nil
	s.logger = nil
	scopePool.Put(s)
}
