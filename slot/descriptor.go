package slot

import (
	"github.com/wippyai/flowgraph/errors"
)

// Direction tells whether a slot is read or written by its component.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Descriptor names one slot of a component and describes its type.
type Descriptor struct {
	Type      *Type
	Name      string
	Direction Direction
}

// Copy returns a descriptor owning a deep copy of the type.
func (d Descriptor) Copy() (Descriptor, error) {
	t, err := d.Type.Copy()
	if err != nil {
		return Descriptor{}, errors.New(errors.PhaseCopy, errors.KindInvalidData).
			Slot(d.Name).
			Cause(err).
			Detail("copy slot type").
			Build()
	}
	return Descriptor{Type: t, Name: d.Name, Direction: d.Direction}, nil
}

func (d Descriptor) String() string {
	return d.Direction.String() + " " + d.Name + ": " + d.Type.String()
}

// Find returns the index of the descriptor named name with direction dir.
func Find(descs []Descriptor, dir Direction, name string) (int, bool) {
	for i, d := range descs {
		if d.Direction == dir && d.Name == name {
			return i, true
		}
	}
	return -1, false
}
