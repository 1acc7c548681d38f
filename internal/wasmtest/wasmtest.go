// Package wasmtest assembles small guest modules implementing the slot ABI
// for tests.
package wasmtest

import (
	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/slot"
	"github.com/wippyai/flowgraph/slot/wire"
)

// Options varies the scale guest.
type Options struct {
	// Manifest replaces the embedded manifest; an empty non-nil slice
	// omits the custom section.
	Manifest []byte
	// Omit drops the named export.
	Omit string
	// Inputs is what num_input_slots reports, 2 when zero.
	Inputs byte
	// Alloc adds a bump allocator export starting at 2048.
	Alloc bool
}

// ScaleDescriptors returns fresh descriptors matching the scale guest.
func ScaleDescriptors() []slot.Descriptor {
	return []slot.Descriptor{
		{Name: "x", Type: slot.F64(), Direction: slot.Input},
		{Name: "factor", Type: slot.F64(), Direction: slot.Input},
		{Name: "y", Type: slot.F64(), Direction: slot.Output},
	}
}

// ScaleManifest encodes the manifest of the scale guest.
func ScaleManifest(v component.Version) []byte {
	m, err := wire.NewManifest("scale-wasm", v, ScaleDescriptors())
	if err != nil {
		panic(err)
	}
	data, err := wire.MarshalManifest(m)
	if err != nil {
		panic(err)
	}
	return data
}

// Scale assembles a guest computing y = x * factor over f64 slots. Slot
// addresses are kept in a table at address 0: inputs at 0 and 4, the
// output at 16.
func Scale(opts Options) []byte {
	if opts.Inputs == 0 {
		opts.Inputs = 2
	}
	if opts.Manifest == nil {
		opts.Manifest = ScaleManifest(component.APIVersion)
	}

	types := vec(
		[]byte{0x60, 0x00, 0x01, 0x7f},             // () -> i32
		[]byte{0x60, 0x02, 0x7f, 0x7f, 0x00},       // (i32, i32) -> ()
		[]byte{0x60, 0x00, 0x00},                   // () -> ()
		[]byte{0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f}, // (i32, i32) -> i32
	)

	funcs := [][]byte{{0}, {0}, {1}, {1}, {2}, {2}}
	codes := [][]byte{
		body(0x41, opts.Inputs), // i32.const inputs
		body(0x41, 0x01),        // i32.const 1
		// table[index] = addr
		body(0x20, 0x01, 0x41, 0x04, 0x6c, 0x20, 0x00, 0x36, 0x02, 0x00),
		body(0x20, 0x01, 0x41, 0x04, 0x6c, 0x20, 0x00, 0x36, 0x02, 0x10),
		// *out = *x * *factor
		body(
			0x41, 0x10, 0x28, 0x02, 0x00,
			0x41, 0x00, 0x28, 0x02, 0x00, 0x2b, 0x03, 0x00,
			0x41, 0x04, 0x28, 0x02, 0x00, 0x2b, 0x03, 0x00,
			0xa2,
			0x39, 0x03, 0x00,
		),
		body(),
	}

	type export struct {
		name string
		kind byte
		idx  byte
	}
	exports := []export{
		{"memory", 0x02, 0},
		{"num_input_slots", 0x00, 0},
		{"num_output_slots", 0x00, 1},
		{"set_input_slot", 0x00, 2},
		{"set_output_slot", 0x00, 3},
		{"process", 0x00, 4},
		{"done", 0x00, 5},
	}
	if opts.Alloc {
		funcs = append(funcs, []byte{3})
		// ret = g; g += size
		codes = append(codes, body(0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00))
		exports = append(exports, export{"alloc", 0x00, 6})
	}

	var exportItems [][]byte
	for _, e := range exports {
		if e.name == opts.Omit {
			continue
		}
		exportItems = append(exportItems, append(name(e.name), e.kind, e.idx))
	}

	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	wasm = append(wasm, section(1, types)...)
	wasm = append(wasm, section(3, vec(funcs...))...)
	wasm = append(wasm, section(5, vec([]byte{0x00, 0x01}))...) // 1 page
	if opts.Alloc {
		// mutable i32 global = 2048
		wasm = append(wasm, section(6, vec([]byte{0x7f, 0x01, 0x41, 0x80, 0x10, 0x0b}))...)
	}
	wasm = append(wasm, section(7, vec(exportItems...))...)
	wasm = append(wasm, section(10, vec(codes...))...)
	if len(opts.Manifest) > 0 {
		wasm = append(wasm, section(0, append(name(wire.SectionName), opts.Manifest...))...)
	}
	return wasm
}

func leb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func section(id byte, payload []byte) []byte {
	out := append([]byte{id}, leb(uint32(len(payload)))...)
	return append(out, payload...)
}

func vec(items ...[]byte) []byte {
	out := leb(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func name(s string) []byte {
	return append(leb(uint32(len(s))), s...)
}

func body(instrs ...byte) []byte {
	b := append([]byte{0x00}, instrs...) // no locals
	b = append(b, 0x0b)
	return append(leb(uint32(len(b))), b...)
}
