// Package slot defines slot type trees, the self-describing format a host and
// its components use to agree on the layout of the values they exchange.
//
// A tree mirrors a concrete C-compatible type: primitive leaves (i8..u64,
// f32, f64) under pointer, fixed-length array and object nodes.
//
//	frame := slot.Must(slot.NewNamedObject("Frame", []*slot.Type{
//	    slot.Must(slot.NewPointer(slot.F64())),
//	    slot.Must(slot.NewArray(slot.I32(), 4)),
//	}))
//
// # Ownership
//
// Every node has one owner. Constructors take ownership of their arguments;
// handing the same node to two constructors fails with an aliased error. Use
// Copy to reuse a subtree. Dispose releases a root and its descendants, and
// fails on a second call instead of corrupting state.
//
// # Equality
//
// Equal compares shape only: kind, array length, arity and children in order.
// Object idents are display metadata, so a named object equals a structurally
// identical unnamed one.
//
// # Layout
//
// Calculator computes size, alignment and member offsets using C struct
// rules for a given pointer width (Wasm32 or Native).
package slot
