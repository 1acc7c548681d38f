package builtin

import (
	"context"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
)

// Scale multiplies its two f64 inputs x and factor into output y.
//
// Process fails with an unbound error until x, factor and y are bound.
func Scale() component.Factory {
	return component.NewFactory("scale", component.APIVersion, func(context.Context) (component.Component, error) {
		return newScale(), nil
	})
}

type scale struct {
	base
}

func newScale() *scale {
	return &scale{base: newBase([]slot.Descriptor{
		{Name: "x", Type: slot.F64(), Direction: slot.Input},
		{Name: "factor", Type: slot.F64(), Direction: slot.Input},
		{Name: "y", Type: slot.F64(), Direction: slot.Output},
	})}
}

func (s *scale) Process(context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	x, err := memory.ReadF64(s.buf, s.inputs[0])
	if err != nil {
		return err
	}
	factor, err := memory.ReadF64(s.buf, s.inputs[1])
	if err != nil {
		return err
	}
	return memory.WriteF64(s.buf, s.outputs[0], x*factor)
}
