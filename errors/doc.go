// Package errors provides structured error types for the flowgraph module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: slot name, type path, type notation and cause chain.
//
// Contract violations that a C host would leave undefined (binding an
// out-of-range slot, processing with unbound slots, disposing twice) surface
// here as distinct kinds.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBind, errors.KindTypeMismatch).
//		Slot("frame").
//		Type("Frame{*f64, [4]i32}").
//		Detail("expected %s", want).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(errors.PhaseBind, "input slot", 3, 2)
//	err := errors.Disposed(errors.PhaseDispose, "slot type")
//
// All errors implement the standard error interface and support errors.Is/As.
// Sentinels such as ErrDisposed match any phase.
package errors
