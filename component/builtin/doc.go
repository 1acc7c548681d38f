// Package builtin provides in-process components implemented in Go.
//
// Each builtin owns a growable memory.Buffer; slot addresses are offsets
// into it and its Arena hands out slot storage. They use 32-bit pointers, so
// slot layouts match a wasm32 guest declaring the same types.
//
//   - scale: y = x * factor
//   - accumulate: weighted sum of a Frame{*f64, [4]i32}, with running total
package builtin
