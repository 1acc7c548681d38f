package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/wippyai/flowgraph/component"
	fgerrors "github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/internal/wasmtest"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
)

func newEngine(t *testing.T) *WazeroEngine {
	t.Helper()
	ctx := context.Background()
	e, err := NewWazeroEngine(ctx)
	if err != nil {
		t.Fatalf("NewWazeroEngine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func runScale(t *testing.T, c component.Component, x, factor float64) float64 {
	t.Helper()
	ctx := context.Background()
	codec := memory.NewCodec(c.Memory(), c.Allocator(), nil)

	addrs := make([]uint32, 3)
	for i, d := range c.Slots() {
		addr, err := codec.New(d.Type)
		if err != nil {
			t.Fatalf("allocate %s: %v", d.Name, err)
		}
		addrs[i] = addr
	}
	if err := c.SetInputSlot(0, addrs[0]); err != nil {
		t.Fatal(err)
	}
	if err := c.SetInputSlot(1, addrs[1]); err != nil {
		t.Fatal(err)
	}
	if err := c.SetOutputSlot(0, addrs[2]); err != nil {
		t.Fatal(err)
	}
	if err := codec.Encode(slot.F64(), addrs[0], x); err != nil {
		t.Fatal(err)
	}
	if err := codec.Encode(slot.F64(), addrs[1], factor); err != nil {
		t.Fatal(err)
	}
	if err := c.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}
	y, err := memory.ReadF64(c.Memory(), addrs[2])
	if err != nil {
		t.Fatal(err)
	}
	return y
}

func TestLoadModule_Scale(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	m, err := e.LoadModule(ctx, wasmtest.Scale(wasmtest.Options{}))
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if m.Name() != "scale-wasm" || m.Version() != component.APIVersion {
		t.Errorf("module = %s %s", m.Name(), m.Version())
	}

	c, err := m.New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.NumInputSlots() != 2 || c.NumOutputSlots() != 1 {
		t.Fatalf("slots = %d/%d, want 2/1", c.NumInputSlots(), c.NumOutputSlots())
	}
	if _, ok := c.Allocator().(*memory.Arena); !ok {
		t.Errorf("allocator = %T, want host arena", c.Allocator())
	}

	if y := runScale(t, c, 2.5, 4); y != 10 {
		t.Errorf("y = %v, want 10", y)
	}

	if err := c.Done(ctx); err != nil {
		t.Fatalf("Done: %v", err)
	}
	if err := c.Dispose(ctx); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := c.Dispose(ctx); !errors.Is(err, fgerrors.ErrDisposed) {
		t.Errorf("second Dispose = %v, want disposed", err)
	}
}

func TestLoadModule_GuestAlloc(t *testing.T) {
	ctx := context.Background()
	m, err := newEngine(t).LoadModule(ctx, wasmtest.Scale(wasmtest.Options{Alloc: true}))
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	c, err := m.New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Dispose(ctx)

	if _, ok := c.Allocator().(*memory.GuestAllocator); !ok {
		t.Fatalf("allocator = %T, want guest allocator", c.Allocator())
	}
	ptr, err := c.Allocator().Alloc(8, 8)
	if err != nil || ptr < 2048 {
		t.Errorf("Alloc = %d, %v; want guest heap address", ptr, err)
	}
	if y := runScale(t, c, -3, 3); y != -9 {
		t.Errorf("y = %v, want -9", y)
	}
}

func TestLoadModule_Independent(t *testing.T) {
	ctx := context.Background()
	m, err := newEngine(t).LoadModule(ctx, wasmtest.Scale(wasmtest.Options{}))
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	a, _ := m.New(ctx)
	b, _ := m.New(ctx)
	defer a.Dispose(ctx)
	defer b.Dispose(ctx)

	if a.Slots()[0].Type == b.Slots()[0].Type {
		t.Error("instances share descriptor trees")
	}
	runScale(t, a, 1, 1)
	if y := runScale(t, b, 6, 7); y != 42 {
		t.Errorf("y = %v, want 42", y)
	}
}

func TestLoadModule_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	tests := []struct {
		name string
		opts wasmtest.Options
		kind fgerrors.Kind
	}{
		{"missing process", wasmtest.Options{Omit: ExportProcess}, fgerrors.KindMissingExport},
		{"missing memory", wasmtest.Options{Omit: ExportMemory}, fgerrors.KindMissingExport},
		{"missing manifest", wasmtest.Options{Manifest: []byte{}}, fgerrors.KindNotFound},
		{"corrupt manifest", wasmtest.Options{Manifest: []byte{0xff}}, fgerrors.KindInvalidData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.LoadModule(ctx, wasmtest.Scale(tc.opts))
			if !errors.Is(err, &fgerrors.Error{Kind: tc.kind}) {
				t.Errorf("error = %v, want %s", err, tc.kind)
			}
		})
	}

	if _, err := e.LoadModule(ctx, []byte("not wasm")); err == nil {
		t.Error("expected compile error")
	}
}

func TestInstantiate_CountMismatch(t *testing.T) {
	ctx := context.Background()
	m, err := newEngine(t).LoadModule(ctx, wasmtest.Scale(wasmtest.Options{Inputs: 3}))
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if _, err := m.New(ctx); !errors.Is(err, &fgerrors.Error{Kind: fgerrors.KindInvalidData}) {
		t.Errorf("error = %v, want invalid_data", err)
	}
}

func TestProcess_Unbound(t *testing.T) {
	ctx := context.Background()
	m, err := newEngine(t).LoadModule(ctx, wasmtest.Scale(wasmtest.Options{}))
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	c, _ := m.New(ctx)
	defer c.Dispose(ctx)

	if err := c.Process(ctx); !errors.Is(err, fgerrors.ErrUnbound) {
		t.Errorf("error = %v, want unbound", err)
	}
	if err := c.SetInputSlot(2, 1024); !errors.Is(err, fgerrors.ErrOutOfRange) {
		t.Errorf("error = %v, want out_of_range", err)
	}
}
