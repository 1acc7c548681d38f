// Package flowgraph implements the FlowGraph slot ABI: a self-describing type
// tree that lets a host and independently compiled components agree on the
// shape of the data they exchange without sharing type definitions.
//
// # Architecture Overview
//
//	flowgraph/           Root package with Memory, Allocator and API version
//	├── slot/            SlotType trees: construction, equality, copy, layout
//	│   └── wire/        CBOR manifests, YAML schemas, WIT conversion
//	├── component/       Component contract, lifecycle guard, versions
//	│   └── builtin/     In-process Go components
//	├── memory/          Slot storage: buffers, arenas, value codec
//	├── engine/          wazero-backed components
//	├── host/            Slot matching, binding and execution
//	└── errors/          Structured error types
//
// # Quick Start
//
// Describe a slot type, attach a component and drive it:
//
//	frame := slot.Must(slot.NewNamedObject("Frame", []*slot.Type{
//	    slot.Must(slot.NewPointer(slot.F64())),
//	    slot.Must(slot.NewArray(slot.I32(), 4)),
//	}))
//
//	h := host.New(host.DefaultConfig())
//	b, err := h.Attach(ctx, builtin.Accumulate(), host.Expect{Inputs: map[string]*slot.Type{"frame": frame}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close(ctx)
//
//	_ = b.Set("frame", []any{2.0, []int32{1, 2, 3, 4}})
//	_ = b.Process(ctx)
//	sum, _ := b.Get("sum") // 20.0
//
// # Structural Equality
//
// Slot types are compared by shape only: kind, array length, arity and
// children in order. Display names (idents) are metadata and never compared.
//
// # Thread Safety
//
// Slot type trees are immutable once built and may be read from any number of
// goroutines. A component instance is NOT thread-safe; each goroutine should
// drive its own instance.
package flowgraph
