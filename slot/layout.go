package slot

import (
	"github.com/wippyai/flowgraph/errors"
)

// Pointer widths for the address spaces a slot can live in.
const (
	Wasm32 uint32 = 4
	Native uint32 = 8
)

// Info is the memory layout of one node.
type Info struct {
	// Offsets holds member offsets for objects, nil otherwise.
	Offsets []uint32
	Size    uint32
	Align   uint32
}

// Calculator computes C-compatible layouts. Results are cached per node, so
// a Calculator must not outlive the trees it has seen being disposed.
type Calculator struct {
	cache       map[*Type]Info
	PointerSize uint32
}

func NewCalculator(pointerSize uint32) *Calculator {
	if pointerSize == 0 {
		pointerSize = Wasm32
	}
	return &Calculator{
		cache:       make(map[*Type]Info),
		PointerSize: pointerSize,
	}
}

// Calculate returns the layout of t.
func (c *Calculator) Calculate(t *Type) (Info, error) {
	if t == nil {
		return Info{}, errors.NilType(errors.PhaseLayout, nil)
	}
	if t.disposed {
		return Info{}, errors.Disposed(errors.PhaseLayout, "slot type")
	}
	if cached, ok := c.cache[t]; ok {
		return cached, nil
	}

	var (
		info Info
		err  error
	)

	switch t.kind {
	case KindPointer:
		info = Info{Size: c.PointerSize, Align: c.PointerSize}
	case KindArray:
		info, err = c.calculateArray(t)
	case KindObject:
		info, err = c.calculateObject(t)
	default:
		if !t.kind.IsPrimitive() {
			return Info{}, errors.InvalidKind(errors.PhaseLayout, t.kind.String(), "known")
		}
		w := t.kind.Width()
		info = Info{Size: w, Align: w}
	}
	if err != nil {
		return Info{}, err
	}

	c.cache[t] = info
	return info, nil
}

func (c *Calculator) calculateArray(t *Type) (Info, error) {
	elem, err := c.Calculate(t.Elem())
	if err != nil {
		return Info{}, err
	}
	size := uint64(AlignTo(elem.Size, elem.Align)) * uint64(t.elements)
	if size > uint64(^uint32(0)) {
		return Info{}, errors.Overflow(errors.PhaseLayout, nil, size, t.String())
	}
	return Info{Size: uint32(size), Align: elem.Align}, nil
}

func (c *Calculator) calculateObject(t *Type) (Info, error) {
	offsets := make([]uint32, len(t.children))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, member := range t.children {
		ml, err := c.Calculate(member)
		if err != nil {
			return Info{}, err
		}

		offset = AlignTo(offset, ml.Align)
		offsets[i] = offset

		if ml.Align > maxAlign {
			maxAlign = ml.Align
		}

		offset += ml.Size
	}

	return Info{
		Size:    AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}, nil
}

// Forget drops cached layouts for t and its descendants.
func (c *Calculator) Forget(t *Type) {
	t.Walk(func(_ []int, n *Type) bool {
		delete(c.cache, n)
		return true
	})
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Layout computes the layout of t with a fresh calculator.
func Layout(t *Type, pointerSize uint32) (Info, error) {
	return NewCalculator(pointerSize).Calculate(t)
}
