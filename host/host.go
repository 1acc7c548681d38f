package host

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/engine"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
	"github.com/wippyai/flowgraph/slot/wire"
)

// Host attaches components, checks their slots against expectations and
// drives them.
type Host struct {
	engine *engine.WazeroEngine
	cfg    Config
	mu     sync.Mutex
}

// New creates a host. The wasm engine is created on first use.
func New(cfg Config) *Host {
	return &Host{cfg: cfg}
}

func (h *Host) Config() Config { return h.cfg }

// LoadWasm compiles a guest component. The returned module is a
// component.Factory for Attach.
func (h *Host) LoadWasm(ctx context.Context, wasmBytes []byte) (*engine.WazeroModule, error) {
	h.mu.Lock()
	if h.engine == nil {
		e, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
			MemoryLimitPages: h.cfg.MemoryLimitPages,
			HeapBase:         h.cfg.HeapBase,
		})
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		h.engine = e
	}
	e := h.engine
	h.mu.Unlock()

	return e.LoadModule(ctx, wasmBytes)
}

// Close releases the wasm engine and every guest loaded through it.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.engine == nil {
		return nil
	}
	err := h.engine.Close(ctx)
	h.engine = nil
	return err
}

// Expect maps slot names to the types the host requires. Slots a component
// declares but Expect does not name are still bound.
type Expect struct {
	Inputs  map[string]*slot.Type
	Outputs map[string]*slot.Type
}

// ExpectFromManifest builds expectations from a schema. The caller owns the
// trees and releases them with Dispose.
func ExpectFromManifest(m *wire.Manifest) (Expect, error) {
	descs, err := m.Descriptors()
	if err != nil {
		return Expect{}, err
	}
	exp := Expect{Inputs: map[string]*slot.Type{}, Outputs: map[string]*slot.Type{}}
	for _, d := range descs {
		if d.Direction == slot.Input {
			exp.Inputs[d.Name] = d.Type
		} else {
			exp.Outputs[d.Name] = d.Type
		}
	}
	return exp, nil
}

// Expectations loads Config.Schema, or returns empty expectations when no
// schema is configured.
func (h *Host) Expectations() (Expect, error) {
	if h.cfg.Schema == "" {
		return Expect{}, nil
	}
	m, err := wire.LoadSchema(h.cfg.Schema)
	if err != nil {
		return Expect{}, err
	}
	return ExpectFromManifest(m)
}

// Dispose releases every expected type.
func (e Expect) Dispose() {
	for _, t := range e.Inputs {
		_ = t.Dispose()
	}
	for _, t := range e.Outputs {
		_ = t.Dispose()
	}
}

// Attach constructs an instance from f and binds every slot:
//
//  1. the factory version must meet Config.APIConstraint
//  2. descriptors are copied so the host owns its view of the types
//  3. each expected slot must exist with a structurally equal type
//  4. storage for every slot is allocated through the component allocator
//     following the slot layout, then bound
//
// On error the instance is disposed.
func (h *Host) Attach(ctx context.Context, f component.Factory, exp Expect) (*Binding, error) {
	if err := f.Version().Check(h.cfg.APIConstraint); err != nil {
		return nil, err
	}

	c, err := f.New(ctx)
	if err != nil {
		return nil, err
	}
	g, err := component.Guard(c)
	if err != nil {
		_ = c.Dispose(ctx)
		return nil, err
	}

	b, err := bind(g, exp)
	if err != nil {
		_ = g.Dispose(ctx)
		return nil, err
	}
	b.name = f.Name()

	Logger().Debug("component attached",
		zap.String("name", b.name),
		zap.Stringer("version", f.Version()),
		zap.Int("inputs", g.NumInputSlots()),
		zap.Int("outputs", g.NumOutputSlots()))
	return b, nil
}

func bind(g *component.Guarded, exp Expect) (*Binding, error) {
	descs := g.Slots()
	copies := make([]slot.Descriptor, 0, len(descs))
	release := func() {
		for _, d := range copies {
			_ = d.Type.Dispose()
		}
	}
	for _, d := range descs {
		cp, err := d.Copy()
		if err != nil {
			release()
			return nil, err
		}
		copies = append(copies, cp)
	}

	if err := match(copies, slot.Input, exp.Inputs); err != nil {
		release()
		return nil, err
	}
	if err := match(copies, slot.Output, exp.Outputs); err != nil {
		release()
		return nil, err
	}

	codec := memory.NewCodec(g.Memory(), g.Allocator(), slot.NewCalculator(component.PointerSize(g)))
	addrs := make([]uint32, len(copies))
	inputs := g.NumInputSlots()
	for i, d := range copies {
		addr, err := codec.New(d.Type)
		if err != nil {
			codec.Release()
			release()
			return nil, errors.New(errors.PhaseBind, errors.KindAllocation).
				Slot(d.Name).
				Cause(err).
				Detail("allocate slot storage").
				Build()
		}
		addrs[i] = addr

		if i < inputs {
			err = g.SetInputSlot(i, addr)
		} else {
			err = g.SetOutputSlot(i-inputs, addr)
		}
		if err != nil {
			codec.Release()
			release()
			return nil, err
		}
	}

	return &Binding{comp: g, codec: codec, slots: copies, addrs: addrs}, nil
}

func match(descs []slot.Descriptor, dir slot.Direction, want map[string]*slot.Type) error {
	for name, t := range want {
		idx, ok := slot.Find(descs, dir, name)
		if !ok {
			return errors.NotFound(errors.PhaseBind, dir.String()+" slot", name)
		}
		if !slot.Equal(t, descs[idx].Type) {
			return errors.TypeMismatch(errors.PhaseBind, name, t.String(), descs[idx].Type.String())
		}
	}
	return nil
}

// RunAll processes each binding rounds times. Bindings run concurrently,
// at most Config.Parallel at a time; each binding stays on one goroutine.
// The first error cancels the remaining work.
func (h *Host) RunAll(ctx context.Context, bindings []*Binding, rounds int) error {
	g, ctx := errgroup.WithContext(ctx)
	if h.cfg.Parallel > 0 {
		g.SetLimit(h.cfg.Parallel)
	}

	for _, b := range bindings {
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := b.Process(ctx); err != nil {
					Logger().Warn("process failed",
						zap.String("name", b.name),
						zap.Int("round", r),
						zap.Error(err))
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
