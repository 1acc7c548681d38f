package memory

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/flowgraph"
)

// Grower is implemented by memories that can be enlarged on demand.
type Grower interface {
	Grow(delta uint32) error
}

// Buffer is an in-process linear memory for native components.
// Offset 0 is a valid byte but is never handed out by an Arena, so it can
// serve as the null address.
type Buffer struct {
	data []byte
	max  uint32
}

// NewBuffer returns a zeroed buffer of size bytes that may grow up to limit
// bytes. limit == 0 means the 4 GiB address space limit.
func NewBuffer(size, limit uint32) *Buffer {
	if limit == 0 {
		limit = math.MaxUint32
	}
	if size > limit {
		size = limit
	}
	return &Buffer{data: make([]byte, size), max: limit}
}

// Size returns the current size in bytes.
func (b *Buffer) Size() uint32 {
	return uint32(len(b.data))
}

// Grow enlarges the buffer by delta bytes.
func (b *Buffer) Grow(delta uint32) error {
	newSize := uint64(len(b.data)) + uint64(delta)
	if newSize > uint64(b.max) {
		return fmt.Errorf("buffer limit exceeded: size=%d, max=%d", newSize, b.max)
	}
	grown := make([]byte, newSize)
	copy(grown, b.data)
	b.data = grown
	return nil
}

// Bytes exposes the backing slice. It is invalidated by Grow.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) span(offset, length uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(b.data)) {
		return nil, false
	}
	return b.data[offset:end], true
}

// Read returns a view of length bytes at offset.
func (b *Buffer) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := b.span(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

// Write copies data to offset.
func (b *Buffer) Write(offset uint32, data []byte) error {
	dst, ok := b.span(offset, uint32(len(data)))
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(dst, data)
	return nil
}

func (b *Buffer) ReadU8(offset uint32) (uint8, error) {
	p, ok := b.span(offset, 1)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return p[0], nil
}

func (b *Buffer) ReadU16(offset uint32) (uint16, error) {
	p, ok := b.span(offset, 2)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (b *Buffer) ReadU32(offset uint32) (uint32, error) {
	p, ok := b.span(offset, 4)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (b *Buffer) ReadU64(offset uint32) (uint64, error) {
	p, ok := b.span(offset, 8)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return binary.LittleEndian.Uint64(p), nil
}

func (b *Buffer) WriteU8(offset uint32, value uint8) error {
	p, ok := b.span(offset, 1)
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	p[0] = value
	return nil
}

func (b *Buffer) WriteU16(offset uint32, value uint16) error {
	p, ok := b.span(offset, 2)
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	binary.LittleEndian.PutUint16(p, value)
	return nil
}

func (b *Buffer) WriteU32(offset uint32, value uint32) error {
	p, ok := b.span(offset, 4)
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	binary.LittleEndian.PutUint32(p, value)
	return nil
}

func (b *Buffer) WriteU64(offset uint32, value uint64) error {
	p, ok := b.span(offset, 8)
	if !ok {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	binary.LittleEndian.PutUint64(p, value)
	return nil
}

// ReadF64 reads a little-endian float64.
func ReadF64(m flowgraph.Memory, offset uint32) (float64, error) {
	v, err := m.ReadU64(offset)
	return math.Float64frombits(v), err
}

// WriteF64 writes a little-endian float64.
func WriteF64(m flowgraph.Memory, offset uint32, v float64) error {
	return m.WriteU64(offset, math.Float64bits(v))
}

var _ flowgraph.Memory = (*Buffer)(nil)
