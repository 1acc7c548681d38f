package builtin

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
)

// FrameType returns a fresh Frame{*f64, [4]i32}: a pointer to a weight and
// four integer samples.
func FrameType() *slot.Type {
	return slot.Must(slot.NewNamedObject("Frame", []*slot.Type{
		slot.Must(slot.NewPointer(slot.F64())),
		slot.Must(slot.NewArray(slot.I32(), 4)),
	}))
}

// Accumulate reads a Frame and writes sum, the weighted sum of the samples
// of this call, and total, the running sum over all calls. Done logs the
// total and freezes it.
//
// Process fails with an unbound error until frame, sum and total are bound,
// and with invalid data when the weight pointer is null.
func Accumulate() component.Factory {
	return component.NewFactory("accumulate", component.APIVersion, func(context.Context) (component.Component, error) {
		a, err := newAccumulate()
		if err != nil {
			return nil, err
		}
		return a, nil
	})
}

type accumulate struct {
	base
	layout slot.Info
	total  float64
	calls  int
}

func newAccumulate() (*accumulate, error) {
	frame := FrameType()
	info, err := slot.Layout(frame, slot.Wasm32)
	if err != nil {
		return nil, err
	}
	return &accumulate{
		base: newBase([]slot.Descriptor{
			{Name: "frame", Type: frame, Direction: slot.Input},
			{Name: "sum", Type: slot.F64(), Direction: slot.Output},
			{Name: "total", Type: slot.F64(), Direction: slot.Output},
		}),
		layout: info,
	}, nil
}

func (a *accumulate) Process(context.Context) error {
	if err := a.ready(); err != nil {
		return err
	}

	frame := a.inputs[0]
	ptr, err := a.buf.ReadU32(frame + a.layout.Offsets[0])
	if err != nil {
		return err
	}
	if ptr == 0 {
		return errors.InvalidData(errors.PhaseProcess, []string{"frame", "0"}, "null weight pointer")
	}
	weight, err := memory.ReadF64(a.buf, ptr)
	if err != nil {
		return err
	}

	var samples int64
	values := frame + a.layout.Offsets[1]
	for i := uint32(0); i < 4; i++ {
		v, err := a.buf.ReadU32(values + 4*i)
		if err != nil {
			return err
		}
		samples += int64(int32(v))
	}

	sum := weight * float64(samples)
	a.total += sum
	a.calls++

	if err := memory.WriteF64(a.buf, a.outputs[0], sum); err != nil {
		return err
	}
	return memory.WriteF64(a.buf, a.outputs[1], a.total)
}

func (a *accumulate) Done(ctx context.Context) error {
	component.Logger().Info("accumulate done",
		zap.Float64("total", a.total),
		zap.Int("calls", a.calls))
	return a.base.Done(ctx)
}
