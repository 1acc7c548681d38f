package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/flowgraph"
)

const wasmPageSize = 65536

// WrapWazero wraps guest memory exported by a wazero module.
func WrapWazero(mem api.Memory) *Wazero {
	if mem == nil {
		return nil
	}
	return &Wazero{Mem: mem}
}

// Wazero adapts wazero api.Memory to flowgraph.Memory.
type Wazero struct {
	Mem api.Memory
}

// Size returns the guest memory size in bytes.
func (m *Wazero) Size() uint32 {
	return m.Mem.Size()
}

// Grow enlarges guest memory by at least delta bytes, in whole pages.
func (m *Wazero) Grow(delta uint32) error {
	pages := (uint64(delta) + wasmPageSize - 1) / wasmPageSize
	if _, ok := m.Mem.Grow(uint32(pages)); !ok {
		return fmt.Errorf("memory grow failed: pages=%d", pages)
	}
	return nil
}

// Read reads bytes from memory.
func (m *Wazero) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (m *Wazero) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *Wazero) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Wazero) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Wazero) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Wazero) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Wazero) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Wazero) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Wazero) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Wazero) WriteU64(offset uint32, value uint64) error {
	if !m.Mem.WriteUint64Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

// GuestAllocator adapts guest exports alloc(size, align) -> ptr and the
// optional free(ptr, size, align).
type GuestAllocator struct {
	Ctx     context.Context
	AllocFn api.Function
	FreeFn  api.Function
}

// WrapGuestAllocator returns nil when the guest exports no allocator.
func WrapGuestAllocator(ctx context.Context, alloc, free api.Function) *GuestAllocator {
	if alloc == nil {
		return nil
	}
	return &GuestAllocator{Ctx: ctx, AllocFn: alloc, FreeFn: free}
}

// Alloc allocates guest memory.
func (a *GuestAllocator) Alloc(size, align uint32) (uint32, error) {
	results, err := a.AllocFn.Call(a.Ctx, uint64(size), uint64(align))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	ptr := uint32(results[0])
	if ptr == 0 && size > 0 {
		return 0, fmt.Errorf("allocation returned null for %d bytes", size)
	}
	return ptr, nil
}

// Free releases guest memory if the guest exports free.
func (a *GuestAllocator) Free(ptr, size, align uint32) {
	if a.FreeFn == nil {
		return
	}
	_, _ = a.FreeFn.Call(a.Ctx, uint64(ptr), uint64(size), uint64(align))
}

var (
	_ flowgraph.Memory      = (*Wazero)(nil)
	_ flowgraph.MemorySizer = (*Wazero)(nil)
	_ flowgraph.Allocator   = (*GuestAllocator)(nil)
)
