package guest

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/cbridge"
	"github.com/wippyai/cbridge/errors"
)

const (
	// DefaultMaxStringSize bounds C string scans (16 MB).
	DefaultMaxStringSize = 16 << 20

	DefaultMemoryName = "memory"
	DefaultMallocName = "malloc"
	DefaultFreeName   = "free"
)

type config struct {
	logger        *zap.Logger
	memoryName    string
	mallocName    string
	freeName      string
	maxStringSize uint32
}

// Option configures a Guest.
type Option func(*config)

// WithMaxStringSize limits how many bytes ReadCString scans before giving
// up on finding a terminator.
func WithMaxStringSize(n uint32) Option {
	return func(c *config) {
		c.maxStringSize = n
	}
}

// WithAllocatorNames renames the malloc and free exports.
func WithAllocatorNames(malloc, free string) Option {
	return func(c *config) {
		c.mallocName = malloc
		c.freeName = free
	}
}

// WithMemoryName renames the memory export used by Attach.
func WithMemoryName(name string) Option {
	return func(c *config) {
		c.memoryName = name
	}
}

// WithLogger overrides the package logger for one Guest.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		memoryName:    DefaultMemoryName,
		mallocName:    DefaultMallocName,
		freeName:      DefaultFreeName,
		maxStringSize: DefaultMaxStringSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	return cfg
}

// Guest reads and writes C values in one guest's memory.
type Guest struct {
	mem   cbridge.Memory
	alloc cbridge.Allocator
	cfg   config
}

// New creates a Guest over mem. alloc may be nil if nothing will be
// written through a Scope; writes then fail with KindNotInitialized.
func New(mem cbridge.Memory, alloc cbridge.Allocator, opts ...Option) *Guest {
	return &Guest{mem: mem, alloc: alloc, cfg: newConfig(opts)}
}

// Attach creates a Guest from an instantiated module's memory and
// allocator exports.
func Attach(ctx context.Context, mod api.Module, opts ...Option) (*Guest, error) {
	cfg := newConfig(opts)
	mem := WrapMemory(mod.ExportedMemory(cfg.memoryName))
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseGuest, "memory export", cfg.memoryName)
	}
	alloc, err := NewAllocator(ctx, mod, opts...)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("attached guest",
		zap.String("module", mod.Name()),
		zap.Uint32("memory_size", mem.Size()),
	)
	return &Guest{mem: mem, alloc: alloc, cfg: cfg}, nil
}

// Memory returns the guest memory.
func (g *Guest) Memory() cbridge.Memory {
	return g.mem
}

// NewScope opens a scope allocating through the guest's allocator.
func (g *Guest) NewScope() *Scope {
	s := NewScope(g.alloc)
	s.logger = g.cfg.logger
	return s
}
