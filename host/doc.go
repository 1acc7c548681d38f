// Package host attaches components and exchanges values through their
// slots.
//
// Attaching checks the component's API version against a semver constraint,
// copies its slot descriptors, verifies every expected slot by name and
// structural type equality, allocates storage for each slot in the
// component's memory and binds it:
//
//	h := host.New(host.DefaultConfig())
//	b, err := h.Attach(ctx, builtin.Accumulate(), host.Expect{
//	    Inputs: map[string]*slot.Type{"frame": builtin.FrameType()},
//	})
//	_ = b.Set("frame", []any{2.0, []int32{1, 2, 3, 4}})
//	_ = b.Process(ctx)
//	sum, _ := b.Get("sum") // 20.0
//	_ = b.Close(ctx)
//
// Wasm guests are loaded with LoadWasm and attached the same way.
// RunAll processes independent bindings concurrently.
//
// Configuration is TOML, see Config. Schemas referenced by the config are
// YAML, see wire.ParseSchema.
package host
