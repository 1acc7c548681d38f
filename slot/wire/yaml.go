package wire

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// ParseSchema reads a slot schema:
//
//	name: accumulate
//	inputs:
//	  - name: frame
//	    type:
//	      object:
//	        ident: Frame
//	        members:
//	          - pointer: f64
//	          - array: {of: i32, elements: 4}
//	outputs:
//	  - name: sum
//	    type: f64
func ParseSchema(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse schema")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadSchema reads and parses a schema file.
func LoadSchema(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Cause(err).
			Detail("read schema").
			Build()
	}
	m, err := ParseSchema(data)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(path).
			Cause(err).
			Detail("schema").
			Build()
	}
	return m, nil
}

// MarshalSchema renders m in the form ParseSchema reads.
func MarshalSchema(m *Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

type arrayForm struct {
	Of       *Node `yaml:"of"`
	Elements int   `yaml:"elements"`
}

type objectForm struct {
	Ident   string  `yaml:"ident,omitempty"`
	Members []*Node `yaml:"members"`
}

type typeForm struct {
	Pointer *Node       `yaml:"pointer"`
	Array   *arrayForm  `yaml:"array"`
	Object  *objectForm `yaml:"object"`
}

// UnmarshalYAML accepts a primitive name or a single-key mapping with one
// of pointer, array or object.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		k, ok := slot.ParseKind(value.Value)
		if !ok || !k.IsPrimitive() {
			return errors.New(errors.PhaseConfig, errors.KindInvalidKind).
				Detail("line %d: %q is not a primitive type", value.Line, value.Value).
				Build()
		}
		*n = Node{Kind: k}
		return nil

	case yaml.MappingNode:
		if len(value.Content) != 2 {
			return errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Detail("line %d: type needs exactly one of pointer, array, object", value.Line).
				Build()
		}
		var form typeForm
		if err := value.Decode(&form); err != nil {
			return err
		}
		switch {
		case form.Pointer != nil:
			*n = Node{Kind: slot.KindPointer, Children: []*Node{form.Pointer}}
		case form.Array != nil:
			if form.Array.Of == nil {
				return errors.New(errors.PhaseConfig, errors.KindNilType).
					Detail("line %d: array needs an element type", value.Line).
					Build()
			}
			*n = Node{Kind: slot.KindArray, Elements: form.Array.Elements, Children: []*Node{form.Array.Of}}
		case form.Object != nil:
			*n = Node{Kind: slot.KindObject, Ident: form.Object.Ident, Children: form.Object.Members}
		default:
			return errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Detail("line %d: unknown type form %q", value.Line, value.Content[0].Value).
				Build()
		}
		return nil

	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Detail("line %d: type must be a name or a mapping", value.Line).
			Build()
	}
}

// MarshalYAML renders n in the form UnmarshalYAML reads.
func (n *Node) MarshalYAML() (any, error) {
	switch {
	case n.Kind.IsPrimitive():
		return n.Kind.String(), nil
	case n.Kind == slot.KindPointer && len(n.Children) == 1:
		return map[string]*Node{"pointer": n.Children[0]}, nil
	case n.Kind == slot.KindArray && len(n.Children) == 1:
		return map[string]arrayForm{"array": {Of: n.Children[0], Elements: n.Elements}}, nil
	case n.Kind == slot.KindObject:
		return map[string]objectForm{"object": {Ident: n.Ident, Members: n.Children}}, nil
	default:
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidKind).
			Detail("cannot render kind %s with %d children", n.Kind, len(n.Children)).
			Build()
	}
}
