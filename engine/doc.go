// Package engine runs components compiled to WebAssembly.
//
// A guest implements the slot ABI as plain core-module exports:
//
//	memory                              exported linear memory
//	num_input_slots() -> i32
//	num_output_slots() -> i32
//	set_input_slot(addr i32, index i32)
//	set_output_slot(addr i32, index i32)
//	process()
//	done()
//	init()                              optional, called after instantiation
//	alloc(size i32, align i32) -> i32   optional slot storage allocator
//	free(ptr i32, size i32, align i32)  optional
//
// Slot types and the API version are not expressible as core wasm types.
// The guest carries them as a CBOR wire.Manifest in the custom section
// named wire.SectionName.
//
// # Types
//
//	WazeroEngine   - shared wazero runtime, compiles guests
//	WazeroModule   - compiled guest with its manifest; a component.Factory
//	WazeroInstance - anonymous guest instance; a component.Component
//
// Slot addresses are offsets into the guest memory. Without a guest alloc
// export the host hands out storage from a memory.Arena starting at
// Config.HeapBase, so guests keep their own data below that address.
//
// Instances are independent and may run on separate goroutines; a single
// instance is not safe for concurrent use.
package engine
