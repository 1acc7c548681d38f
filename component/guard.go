package component

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/flowgraph"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// State is the lifecycle state of a guarded instance.
type State uint8

const (
	StateReady State = iota
	StateProcessing
	StateDone
	StateDisposed
)

var stateNames = [...]string{
	StateReady:      "ready",
	StateProcessing: "processing",
	StateDone:       "done",
	StateDisposed:   "disposed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Guarded wraps a component and reports contract violations as errors:
// out-of-range slot indices, processing with unbound slots, operations in
// the wrong lifecycle state and any use after dispose.
//
// Guarded is not safe for concurrent use, like the component it wraps.
type Guarded struct {
	inner    Component
	descs    []slot.Descriptor
	inBound  []bool
	outBound []bool
	inputs   int
	outputs  int
	state    State
}

// Guard validates the slot surface of c and wraps it.
func Guard(c Component) (*Guarded, error) {
	if g, ok := c.(*Guarded); ok {
		return g, nil
	}

	in, out := c.NumInputSlots(), c.NumOutputSlots()
	descs := c.Slots()
	if in < 0 || out < 0 || len(descs) != in+out {
		return nil, errors.New(errors.PhaseLifecycle, errors.KindInvalidData).
			Detail("component reports %d inputs and %d outputs but %d descriptors", in, out, len(descs)).
			Build()
	}

	for i, d := range descs {
		want := slot.Input
		if i >= in {
			want = slot.Output
		}
		if d.Direction != want {
			return nil, errors.New(errors.PhaseLifecycle, errors.KindInvalidData).
				Slot(d.Name).
				Detail("descriptor %d is %s, want %s", i, d.Direction, want).
				Build()
		}
		if err := d.Type.Validate(); err != nil {
			return nil, errors.New(errors.PhaseLifecycle, errors.KindInvalidData).
				Slot(d.Name).
				Cause(err).
				Detail("invalid slot type").
				Build()
		}
	}

	return &Guarded{
		inner:    c,
		descs:    descs,
		inBound:  make([]bool, in),
		outBound: make([]bool, out),
		inputs:   in,
		outputs:  out,
		state:    StateReady,
	}, nil
}

// Inner returns the wrapped component.
func (g *Guarded) Inner() Component { return g.inner }

// State returns the current lifecycle state.
func (g *Guarded) State() State { return g.state }

func (g *Guarded) NumInputSlots() int  { return g.inputs }
func (g *Guarded) NumOutputSlots() int { return g.outputs }

func (g *Guarded) Slots() []slot.Descriptor {
	if g.state == StateDisposed {
		return nil
	}
	return g.descs
}

func (g *Guarded) PointerSize() uint32 {
	return PointerSize(g.inner)
}

func (g *Guarded) Memory() flowgraph.Memory {
	if g.state == StateDisposed {
		return nil
	}
	return g.inner.Memory()
}

func (g *Guarded) Allocator() flowgraph.Allocator {
	if g.state == StateDisposed {
		return nil
	}
	return g.inner.Allocator()
}

func (g *Guarded) checkBind(op string) error {
	switch g.state {
	case StateDisposed:
		return errors.Disposed(errors.PhaseBind, "component")
	case StateReady:
		return nil
	default:
		return errors.InvalidState(op, g.state.String())
	}
}

func (g *Guarded) SetInputSlot(index int, addr uint32) error {
	if err := g.checkBind("bind input"); err != nil {
		return err
	}
	if index < 0 || index >= g.inputs {
		return errors.OutOfRange(errors.PhaseBind, "input slot", index, g.inputs)
	}
	if err := g.inner.SetInputSlot(index, addr); err != nil {
		return err
	}
	g.inBound[index] = true
	return nil
}

func (g *Guarded) SetOutputSlot(index int, addr uint32) error {
	if err := g.checkBind("bind output"); err != nil {
		return err
	}
	if index < 0 || index >= g.outputs {
		return errors.OutOfRange(errors.PhaseBind, "output slot", index, g.outputs)
	}
	if err := g.inner.SetOutputSlot(index, addr); err != nil {
		return err
	}
	g.outBound[index] = true
	return nil
}

// Process requires every slot to be bound.
func (g *Guarded) Process(ctx context.Context) error {
	switch g.state {
	case StateDisposed:
		return errors.Disposed(errors.PhaseProcess, "component")
	case StateReady:
	default:
		return errors.InvalidState("process", g.state.String())
	}

	for i, bound := range g.inBound {
		if !bound {
			return errors.Unbound(g.descs[i].Name)
		}
	}
	for i, bound := range g.outBound {
		if !bound {
			return errors.Unbound(g.descs[g.inputs+i].Name)
		}
	}

	g.state = StateProcessing
	err := g.inner.Process(ctx)
	g.state = StateReady
	if err != nil {
		return errors.Wrap(errors.PhaseProcess, errors.KindInvalidData, err, "process")
	}
	return nil
}

func (g *Guarded) Done(ctx context.Context) error {
	switch g.state {
	case StateDisposed:
		return errors.Disposed(errors.PhaseLifecycle, "component")
	case StateReady:
	default:
		return errors.InvalidState("done", g.state.String())
	}

	g.state = StateDone
	if err := g.inner.Done(ctx); err != nil {
		return errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidData, err, "done")
	}
	return nil
}

// Dispose calls Done first if the host never did.
func (g *Guarded) Dispose(ctx context.Context) error {
	switch g.state {
	case StateDisposed:
		return errors.Disposed(errors.PhaseDispose, "component")
	case StateProcessing:
		return errors.InvalidState("dispose", g.state.String())
	case StateReady:
		Logger().Debug("dispose without done", zap.Int("inputs", g.inputs), zap.Int("outputs", g.outputs))
		if err := g.Done(ctx); err != nil {
			Logger().Warn("implicit done failed", zap.Error(err))
		}
	}

	g.state = StateDisposed
	g.descs = nil
	return g.inner.Dispose(ctx)
}

var _ Component = (*Guarded)(nil)
