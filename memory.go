package cbridge

// Memory is a foreign memory addressed by 32-bit offsets, such as the
// linear memory of a wasm32 guest. Offset 0 is the null address.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	// ReadU32 and WriteU32 load and store a little-endian pointer-sized
	// value, such as a char* slot.
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
}

// MemorySizer provides the current size of a Memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates inside a Memory, typically through the guest's own
// malloc and free.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
