package memory

import (
	"math"

	"github.com/wippyai/flowgraph"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// MinBase is the lowest address an Arena hands out; 0 stays the null address.
const MinBase uint32 = 8

// Arena is a bump allocator over a memory. Free is a no-op; Reset rewinds.
// If the memory implements Grower, the arena grows it on demand.
type Arena struct {
	mem  flowgraph.MemorySizer
	base uint32
	next uint32
}

func NewArena(mem flowgraph.MemorySizer, base uint32) *Arena {
	if base < MinBase {
		base = MinBase
	}
	return &Arena{mem: mem, base: base, next: base}
}

// Alloc reserves size bytes aligned to align.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	ptr := slot.AlignTo(a.next, align)
	end := uint64(ptr) + uint64(size)
	if ptr < a.next || end > math.MaxUint32 {
		return 0, errors.AllocationFailed(errors.PhaseBind, size, align)
	}

	if have := a.mem.Size(); uint32(end) > have {
		g, ok := a.mem.(Grower)
		if !ok {
			return 0, errors.AllocationFailed(errors.PhaseBind, size, align)
		}
		if err := g.Grow(uint32(end) - have); err != nil {
			e := errors.AllocationFailed(errors.PhaseBind, size, align)
			e.Cause = err
			return 0, e
		}
	}

	a.next = uint32(end)
	return ptr, nil
}

func (a *Arena) Free(ptr, size, align uint32) {}

// Reset releases every allocation at once.
func (a *Arena) Reset() {
	a.next = a.base
}

// Used returns the number of bytes handed out, padding included.
func (a *Arena) Used() uint32 {
	return a.next - a.base
}

var _ flowgraph.Allocator = (*Arena)(nil)
