package host

import (
	"context"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
)

// Binding is an attached instance with storage bound to every slot. Values
// are exchanged through Set and Get, which encode and decode slot memory.
//
// A Binding is not safe for concurrent use.
type Binding struct {
	comp  *component.Guarded
	codec *memory.Codec
	name  string
	slots []slot.Descriptor
	addrs []uint32
}

// Name is the factory name of the component.
func (b *Binding) Name() string { return b.name }

// Component returns the guarded instance.
func (b *Binding) Component() *component.Guarded { return b.comp }

// Slots returns the host's copies of the slot descriptors, inputs first.
func (b *Binding) Slots() []slot.Descriptor { return b.slots }

// Addr returns the address bound to a slot.
func (b *Binding) Addr(dir slot.Direction, name string) (uint32, bool) {
	idx, ok := slot.Find(b.slots, dir, name)
	if !ok {
		return 0, false
	}
	return b.addrs[idx], true
}

// Set encodes v into the named input slot.
func (b *Binding) Set(name string, v any) error {
	if b.slots == nil {
		return errors.Disposed(errors.PhaseEncode, "binding")
	}
	idx, ok := slot.Find(b.slots, slot.Input, name)
	if !ok {
		return errors.NotFound(errors.PhaseEncode, "input slot", name)
	}
	if err := b.codec.Encode(b.slots[idx].Type, b.addrs[idx], v); err != nil {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Slot(name).
			Cause(err).
			Detail("set").
			Build()
	}
	return nil
}

// Get decodes the named output slot, or the input slot of that name when
// there is no such output.
func (b *Binding) Get(name string) (any, error) {
	if b.slots == nil {
		return nil, errors.Disposed(errors.PhaseDecode, "binding")
	}
	idx, ok := slot.Find(b.slots, slot.Output, name)
	if !ok {
		if idx, ok = slot.Find(b.slots, slot.Input, name); !ok {
			return nil, errors.NotFound(errors.PhaseDecode, "slot", name)
		}
	}
	return b.codec.Decode(b.slots[idx].Type, b.addrs[idx])
}

func (b *Binding) Process(ctx context.Context) error {
	return b.comp.Process(ctx)
}

func (b *Binding) Done(ctx context.Context) error {
	return b.comp.Done(ctx)
}

// Close frees slot storage, disposes the instance (calling Done first if
// needed) and releases the host's descriptor copies.
func (b *Binding) Close(ctx context.Context) error {
	if b.slots == nil {
		return errors.Disposed(errors.PhaseDispose, "binding")
	}
	b.codec.Release()
	err := b.comp.Dispose(ctx)
	for _, d := range b.slots {
		_ = d.Type.Dispose()
	}
	b.slots = nil
	b.addrs = nil
	return err
}
