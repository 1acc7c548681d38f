package wire

import (
	"strconv"

	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// MaxDepth bounds the nesting of decoded type trees.
const MaxDepth = 64

// Node is the serialized form of a slot type. Nodes are plain data: they
// carry no ownership and are turned into trees with Type.
type Node struct {
	Ident    string    `cbor:"2,keyasint,omitempty"`
	Children []*Node   `cbor:"4,keyasint,omitempty"`
	Elements int       `cbor:"3,keyasint,omitempty"`
	Kind     slot.Kind `cbor:"1,keyasint"`
}

// NodeOf serializes t. t must be a valid, live tree.
func NodeOf(t *slot.Type) (*Node, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return nodeOf(t), nil
}

func nodeOf(t *slot.Type) *Node {
	n := &Node{Kind: t.Kind(), Ident: t.Ident(), Elements: t.Elements()}
	if t.Len() > 0 {
		n.Children = make([]*Node, t.Len())
		for i := range n.Children {
			n.Children[i] = nodeOf(t.Child(i))
		}
	}
	return n
}

// Type builds a fresh slot type tree owned by the caller. Every node goes
// through the slot constructors, so the result satisfies the tree
// invariants or an error is returned.
func (n *Node) Type() (*slot.Type, error) {
	return n.build(nil)
}

func (n *Node) build(path []string) (*slot.Type, error) {
	if n == nil {
		return nil, errors.NilType(errors.PhaseDecode, path)
	}
	if len(path) > MaxDepth {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Detail("type nesting exceeds %d levels", MaxDepth).
			Build()
	}

	switch {
	case n.Kind.IsPrimitive():
		if len(n.Children) != 0 || n.Elements != 0 {
			return nil, arity(path, "primitive %s has children or elements", n.Kind)
		}
		return slot.NewPrimitive(n.Kind)

	case n.Kind == slot.KindPointer:
		if len(n.Children) != 1 || n.Elements != 0 {
			return nil, arity(path, "pointer needs exactly one child, has %d", len(n.Children))
		}
		elem, err := n.Children[0].build(childPath(path, 0))
		if err != nil {
			return nil, err
		}
		return slot.NewPointer(elem)

	case n.Kind == slot.KindArray:
		if len(n.Children) != 1 {
			return nil, arity(path, "array needs exactly one child, has %d", len(n.Children))
		}
		if n.Elements < 0 {
			return nil, arity(path, "negative array length %d", n.Elements)
		}
		elem, err := n.Children[0].build(childPath(path, 0))
		if err != nil {
			return nil, err
		}
		return slot.NewArray(elem, n.Elements)

	case n.Kind == slot.KindObject:
		if len(n.Children) == 0 {
			return nil, arity(path, "object needs at least one member")
		}
		if n.Elements != 0 {
			return nil, arity(path, "object has elements")
		}
		members := make([]*slot.Type, 0, len(n.Children))
		for i, c := range n.Children {
			m, err := c.build(childPath(path, i))
			if err != nil {
				for _, built := range members {
					_ = built.Dispose()
				}
				return nil, err
			}
			members = append(members, m)
		}
		return slot.NewNamedObject(n.Ident, members)

	default:
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidKind).
			Path(path...).
			Detail("unknown kind %d", uint8(n.Kind)).
			Build()
	}
}

func childPath(path []string, i int) []string {
	return append(path[:len(path):len(path)], strconv.Itoa(i))
}

func arity(path []string, format string, args ...any) error {
	err := errors.InvalidArity(errors.PhaseDecode, format, args...)
	err.Path = append([]string(nil), path...)
	return err
}
