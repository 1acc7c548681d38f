package slot

import (
	"strconv"
	"strings"

	"github.com/wippyai/flowgraph/errors"
)

// Type is one node of a slot type tree. Leaves are primitives; pointer and
// array nodes have exactly one child; object nodes have one or more members
// in declaration order.
//
// A node has at most one owner. Constructors take ownership of the nodes
// passed to them, and Dispose releases a whole tree from its root.
type Type struct {
	children []*Type
	parent   *Type
	ident    string
	elements int
	kind     Kind
	disposed bool
}

// NewPrimitive returns a new leaf of a primitive kind.
func NewPrimitive(k Kind) (*Type, error) {
	if !k.IsPrimitive() {
		return nil, errors.InvalidKind(errors.PhaseConstruct, k.String(), "primitive")
	}
	return &Type{kind: k}, nil
}

func I8() *Type { return &Type{kind: KindI8} }
func I16() *Type { return &Type{kind: KindI16} }
func I32() *Type { return &Type{kind: KindI32} }
func I64() *Type { return &Type{kind: KindI64} }
func U8() *Type { return &Type{kind: KindU8} }
func U16() *Type { return &Type{kind: KindU16} }
func U32() *Type { return &Type{kind: KindU32} }
func U64() *Type { return &Type{kind: KindU64} }
func F32() *Type { return &Type{kind: KindF32} }
func F64() *Type { return &Type{kind: KindF64} }

// NewPointer returns a pointer to elem, taking ownership of elem.
func NewPointer(elem *Type) (*Type, error) {
	t := &Type{kind: KindPointer}
	if err := t.adopt([]*Type{elem}); err != nil {
		return nil, err
	}
	return t, nil
}

// NewArray returns an array of n elements of elem, taking ownership of elem.
// n == 0 denotes a flexible array whose extent is known out of band.
func NewArray(elem *Type, n int) (*Type, error) {
	if n < 0 {
		return nil, errors.InvalidArity(errors.PhaseConstruct, "negative array length %d", n)
	}
	t := &Type{kind: KindArray, elements: n}
	if err := t.adopt([]*Type{elem}); err != nil {
		return nil, err
	}
	return t, nil
}

// NewObject returns an unnamed object with the given members in order,
// taking ownership of every member.
func NewObject(members []*Type) (*Type, error) {
	return NewNamedObject("", members)
}

// NewNamedObject is NewObject with a display name. The name is metadata and
// does not take part in equality.
func NewNamedObject(ident string, members []*Type) (*Type, error) {
	if len(members) == 0 {
		return nil, errors.InvalidArity(errors.PhaseConstruct, "object %q needs at least one member", ident)
	}
	t := &Type{kind: KindObject, ident: ident}
	if err := t.adopt(members); err != nil {
		return nil, err
	}
	return t, nil
}

// Must panics if err is non-nil. It is meant for static type literals.
func Must(t *Type, err error) *Type {
	if err != nil {
		panic(err)
	}
	return t
}

// adopt claims children for t. Either every child is claimed or none is.
func (t *Type) adopt(children []*Type) error {
	claimed := make([]*Type, 0, len(children))
	rollback := func() {
		for _, c := range claimed {
			c.parent = nil
		}
	}

	for i, c := range children {
		switch {
		case c == nil:
			rollback()
			return errors.NilType(errors.PhaseConstruct, []string{strconv.Itoa(i)})
		case c.disposed:
			rollback()
			return errors.Disposed(errors.PhaseConstruct, "member "+strconv.Itoa(i))
		case c.parent != nil:
			rollback()
			return errors.Aliased(errors.PhaseConstruct, c.String())
		}
		c.parent = t
		claimed = append(claimed, c)
	}

	t.children = claimed
	return nil
}

func (t *Type) Kind() Kind { return t.kind }
func (t *Type) Ident() string { return t.ident }
func (t *Type) Elements() int { return t.elements }
func (t *Type) Len() int { return len(t.children) }
func (t *Type) Disposed() bool { return t.disposed }
func (t *Type) Owned() bool { return t.parent != nil }
func (t *Type) Child(i int) *Type { return t.children[i] }

// Elem returns the pointee or element type, nil for other kinds.
func (t *Type) Elem() *Type {
	if (t.kind == KindPointer || t.kind == KindArray) && len(t.children) == 1 {
		return t.children[0]
	}
	return nil
}

// Children returns the child nodes in order. The slice is a copy; the nodes
// are shared and must not be passed to constructors.
func (t *Type) Children() []*Type {
	out := make([]*Type, len(t.children))
	copy(out, t.children)
	return out
}

// Flexible reports whether t is an array whose extent is known out of band.
func (t *Type) Flexible() bool {
	return t.kind == KindArray && t.elements == 0
}

// Dispose releases t and every descendant. Only a root may be disposed, and
// only once.
func (t *Type) Dispose() error {
	if t == nil {
		return errors.NilType(errors.PhaseDispose, nil)
	}
	if t.disposed {
		return errors.Disposed(errors.PhaseDispose, "slot type")
	}
	if t.parent != nil {
		return errors.Aliased(errors.PhaseDispose, t.String())
	}
	t.release()
	return nil
}

func (t *Type) release() {
	for _, c := range t.children {
		c.parent = nil
		c.release()
	}
	t.children = nil
	t.disposed = true
}

// Copy returns a deep copy of t that shares no node with it.
func (t *Type) Copy() (*Type, error) {
	if t == nil {
		return nil, errors.NilType(errors.PhaseCopy, nil)
	}
	if t.disposed {
		return nil, errors.Disposed(errors.PhaseCopy, "slot type")
	}
	return t.clone(), nil
}

func (t *Type) clone() *Type {
	c := &Type{
		kind:     t.kind,
		ident:    t.ident,
		elements: t.elements,
	}
	if len(t.children) > 0 {
		c.children = make([]*Type, len(t.children))
		for i, child := range t.children {
			cc := child.clone()
			cc.parent = c
			c.children[i] = cc
		}
	}
	return c
}

// Equal reports whether a and b have the same shape: kind, element count,
// arity and children in order. Idents are ignored.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.disposed || b.disposed {
		return false
	}
	if a == b {
		return true
	}
	if a.kind != b.kind || a.elements != b.elements || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// Equal is shorthand for Equal(t, o).
func (t *Type) Equal(o *Type) bool {
	return Equal(t, o)
}

// Validate re-checks the tree invariants.
func (t *Type) Validate() error {
	return t.validate(nil)
}

func (t *Type) validate(path []string) error {
	if t == nil {
		return errors.NilType(errors.PhaseConstruct, path)
	}
	if t.disposed {
		return errors.Disposed(errors.PhaseConstruct, "slot type")
	}
	if !t.kind.Valid() {
		return errors.New(errors.PhaseConstruct, errors.KindInvalidKind).
			Path(path...).
			Detail("unknown kind %d", uint8(t.kind)).
			Build()
	}

	switch {
	case t.kind.IsPrimitive():
		if len(t.children) != 0 || t.elements != 0 {
			return arityAt(path, "primitive %s has children or elements", t.kind)
		}
	case t.kind == KindObject:
		if len(t.children) == 0 {
			return arityAt(path, "object has no members")
		}
		if t.elements != 0 {
			return arityAt(path, "object has elements")
		}
	case t.kind == KindPointer:
		if len(t.children) != 1 || t.elements != 0 {
			return arityAt(path, "pointer must have exactly one child")
		}
	case t.kind == KindArray:
		if len(t.children) != 1 {
			return arityAt(path, "array must have exactly one child")
		}
		if t.elements < 0 {
			return arityAt(path, "negative array length %d", t.elements)
		}
	}

	for i, c := range t.children {
		if err := c.validate(append(path[:len(path):len(path)], strconv.Itoa(i))); err != nil {
			return err
		}
	}
	return nil
}

func arityAt(path []string, format string, args ...any) error {
	err := errors.InvalidArity(errors.PhaseConstruct, format, args...)
	err.Path = append([]string(nil), path...)
	return err
}

// Walk visits t and its descendants in pre-order. path holds child indices
// from the root. Returning false from fn skips the node's children.
func (t *Type) Walk(fn func(path []int, n *Type) bool) {
	if t == nil {
		return
	}
	t.walk(nil, fn)
}

func (t *Type) walk(path []int, fn func([]int, *Type) bool) {
	if !fn(path, t) {
		return
	}
	for i, c := range t.children {
		c.walk(append(path[:len(path):len(path)], i), fn)
	}
}

// String renders t compactly: f64, *f64, [4]i32, []u8, Frame{*f64, [4]i32}.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	if t.disposed {
		b.WriteString("<disposed>")
		return
	}
	switch t.kind {
	case KindPointer:
		b.WriteByte('*')
		t.writeChild(b, 0)
	case KindArray:
		b.WriteByte('[')
		if t.elements > 0 {
			b.WriteString(strconv.Itoa(t.elements))
		}
		b.WriteByte(']')
		t.writeChild(b, 0)
	case KindObject:
		b.WriteString(t.ident)
		b.WriteByte('{')
		for i, c := range t.children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.write(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString(t.kind.String())
	}
}

func (t *Type) writeChild(b *strings.Builder, i int) {
	if i < len(t.children) {
		t.children[i].write(b)
		return
	}
	b.WriteByte('?')
}
