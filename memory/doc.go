// Package memory provides slot storage: address spaces, allocators and the
// codec that moves Go values in and out of them.
//
// # Address Spaces
//
//   - Buffer: growable in-process memory used by native components
//   - Wazero: adapter over guest memory exported by a wazero module
//
// Both implement flowgraph.Memory with 32-bit offsets and little-endian
// values.
//
// # Allocators
//
//   - Arena: bump allocator over any sized memory, growing it when possible
//   - GuestAllocator: adapter over guest exports alloc/free
//
// # Codec
//
// Codec lays values out according to a slot type and a slot.Calculator:
//
//	c := memory.NewCodec(mem, alloc, slot.NewCalculator(slot.Wasm32))
//	addr, _ := c.New(frame)
//	_ = c.Encode(frame, addr, []any{2.5, []int32{1, 2, 3, 4}})
//	v, _ := c.Decode(frame, addr)
package memory
