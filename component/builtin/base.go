package builtin

import (
	"context"

	"github.com/wippyai/flowgraph"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
)

const (
	initialMemory = 4096
	memoryLimit   = 1 << 20
)

// base carries the slot bookkeeping shared by the builtin components. Slot
// addresses are offsets into buf.
type base struct {
	buf      *memory.Buffer
	arena    *memory.Arena
	descs    []slot.Descriptor
	inputs   []uint32
	outputs  []uint32
	inBound  []bool
	outBound []bool
	done     bool
}

func newBase(descs []slot.Descriptor) base {
	var in, out int
	for _, d := range descs {
		if d.Direction == slot.Input {
			in++
		} else {
			out++
		}
	}
	buf := memory.NewBuffer(initialMemory, memoryLimit)
	return base{
		buf:      buf,
		arena:    memory.NewArena(buf, memory.MinBase),
		descs:    descs,
		inputs:   make([]uint32, in),
		outputs:  make([]uint32, out),
		inBound:  make([]bool, in),
		outBound: make([]bool, out),
	}
}

func (b *base) NumInputSlots() int             { return len(b.inputs) }
func (b *base) NumOutputSlots() int            { return len(b.outputs) }
func (b *base) Slots() []slot.Descriptor       { return b.descs }
func (b *base) Memory() flowgraph.Memory       { return b.buf }
func (b *base) Allocator() flowgraph.Allocator { return b.arena }

func (b *base) SetInputSlot(index int, addr uint32) error {
	if index < 0 || index >= len(b.inputs) {
		return errors.OutOfRange(errors.PhaseBind, "input slot", index, len(b.inputs))
	}
	b.inputs[index] = addr
	b.inBound[index] = true
	return nil
}

func (b *base) SetOutputSlot(index int, addr uint32) error {
	if index < 0 || index >= len(b.outputs) {
		return errors.OutOfRange(errors.PhaseBind, "output slot", index, len(b.outputs))
	}
	b.outputs[index] = addr
	b.outBound[index] = true
	return nil
}

// ready reports the first unbound slot, or an invalid state after Done.
func (b *base) ready() error {
	if b.done {
		return errors.InvalidState("process", "done")
	}
	for i, ok := range b.inBound {
		if !ok {
			return errors.Unbound(b.descs[i].Name)
		}
	}
	for i, ok := range b.outBound {
		if !ok {
			return errors.Unbound(b.descs[len(b.inputs)+i].Name)
		}
	}
	return nil
}

func (b *base) Done(context.Context) error {
	b.done = true
	return nil
}

// Dispose releases the descriptor trees and the address space.
func (b *base) Dispose(context.Context) error {
	for _, d := range b.descs {
		if err := d.Type.Dispose(); err != nil {
			return err
		}
	}
	b.descs = nil
	b.buf = nil
	b.arena = nil
	return nil
}
