package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// SectionName is the wasm custom section carrying a CBOR Manifest.
const SectionName = "flowgraph.slots"

var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{MaxNestedLevels: 4*MaxDepth + 16}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// Slot is one named slot of a Manifest.
type Slot struct {
	Type *Node  `cbor:"2,keyasint" yaml:"type"`
	Name string `cbor:"1,keyasint" yaml:"name"`
}

// Manifest declares the slots and API version of a component. Compiled
// guests embed it in the SectionName custom section; schemas describe the
// slots a host expects.
type Manifest struct {
	Name    string            `cbor:"1,keyasint" yaml:"name,omitempty"`
	Inputs  []Slot            `cbor:"3,keyasint,omitempty" yaml:"inputs,omitempty"`
	Outputs []Slot            `cbor:"4,keyasint,omitempty" yaml:"outputs,omitempty"`
	Version component.Version `cbor:"2,keyasint" yaml:"version"`
}

// NewManifest serializes descriptors, inputs then outputs as Slots returns
// them.
func NewManifest(name string, v component.Version, descs []slot.Descriptor) (*Manifest, error) {
	m := &Manifest{Name: name, Version: v}
	for _, d := range descs {
		n, err := NodeOf(d.Type)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Slot(d.Name).
				Cause(err).
				Detail("serialize slot type").
				Build()
		}
		s := Slot{Name: d.Name, Type: n}
		if d.Direction == slot.Input {
			m.Inputs = append(m.Inputs, s)
		} else {
			m.Outputs = append(m.Outputs, s)
		}
	}
	return m, nil
}

// Descriptors builds fresh descriptors, inputs first. The caller owns every
// returned tree.
func (m *Manifest) Descriptors() ([]slot.Descriptor, error) {
	descs := make([]slot.Descriptor, 0, len(m.Inputs)+len(m.Outputs))
	fail := func(err error) ([]slot.Descriptor, error) {
		for _, d := range descs {
			_ = d.Type.Dispose()
		}
		return nil, err
	}

	add := func(slots []Slot, dir slot.Direction) error {
		for _, s := range slots {
			t, err := s.Type.Type()
			if err != nil {
				return errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Slot(s.Name).
					Cause(err).
					Detail("%s slot type", dir).
					Build()
			}
			descs = append(descs, slot.Descriptor{Type: t, Name: s.Name, Direction: dir})
		}
		return nil
	}

	if err := add(m.Inputs, slot.Input); err != nil {
		return fail(err)
	}
	if err := add(m.Outputs, slot.Output); err != nil {
		return fail(err)
	}
	return descs, nil
}

// Validate checks slot names and that every type builds.
func (m *Manifest) Validate() error {
	for _, group := range []struct {
		slots []Slot
		dir   slot.Direction
	}{{m.Inputs, slot.Input}, {m.Outputs, slot.Output}} {
		seen := make(map[string]bool, len(group.slots))
		for i, s := range group.slots {
			if s.Name == "" {
				return errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Detail("%s slot %d has no name", group.dir, i).
					Build()
			}
			if seen[s.Name] {
				return errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Slot(s.Name).
					Detail("duplicate %s slot", group.dir).
					Build()
			}
			seen[s.Name] = true
		}
	}

	descs, err := m.Descriptors()
	if err != nil {
		return err
	}
	for _, d := range descs {
		_ = d.Type.Dispose()
	}
	return nil
}

// MarshalType serializes t to canonical CBOR.
func MarshalType(t *slot.Type) ([]byte, error) {
	n, err := NodeOf(t)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(n)
}

// UnmarshalType decodes a tree produced by MarshalType.
func UnmarshalType(data []byte) (*slot.Type, error) {
	var n Node
	if err := cborDecMode.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "unmarshal slot type")
	}
	return n.Type()
}

// MarshalManifest serializes m to canonical CBOR.
func MarshalManifest(m *Manifest) ([]byte, error) {
	return cborEncMode.Marshal(m)
}

// UnmarshalManifest decodes and validates a manifest.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := cborDecMode.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "unmarshal manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
