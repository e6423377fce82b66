package guest

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/cbridge"
	"github.com/wippyai/cbridge/errors"
)

var (
	_ cbridge.Memory      = (*Memory)(nil)
	_ cbridge.MemorySizer = (*Memory)(nil)
)

// WrapMemory wraps a wazero api.Memory. It returns nil for a nil memory.
func WrapMemory(mem api.Memory) *Memory {
	if mem == nil {
		return nil
	}
	return &Memory{Mem: mem}
}

// Memory adapts wazero api.Memory to cbridge.Memory.
type Memory struct {
	Mem api.Memory
}

func readOOB(offset, length uint32) error {
	return errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
		Value(offset).
		Detail("memory read out of bounds: offset=%d, length=%d", offset, length).
		Build()
}

func writeOOB(offset, length uint32) error {
	return errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
		Value(offset).
		Detail("memory write out of bounds: offset=%d, length=%d", offset, length).
		Build()
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.Mem.Size()
}

// Read returns a view of length bytes at offset. The view aliases guest
// memory and is invalidated when memory grows.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, readOOB(offset, length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return writeOOB(offset, uint32(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, readOOB(offset, 1)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, readOOB(offset, 4)
	}
	return v, nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return writeOOB(offset, 4)
	}
	return nil
}
