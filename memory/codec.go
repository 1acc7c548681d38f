package memory

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/wippyai/flowgraph"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// Addr is a raw address inside a component memory. Encoding an Addr into a
// pointer slot stores it as is; decoding yields an Addr wherever the extent
// of the pointee is unknown.
type Addr uint32

// Allocation records storage obtained by a Codec.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// Codec moves Go values in and out of slot storage.
//
// Value mapping:
//
//	i8..u64, f32, f64   int8..uint64, float32, float64 (any Go number on encode)
//	array               []any or any slice/array of matching length
//	object              []any, any slice, or a struct with one exported field per member
//	pointer             Addr, nil, or the pointee value (stored in new storage)
type Codec struct {
	mem    flowgraph.Memory
	alloc  flowgraph.Allocator
	calc   *slot.Calculator
	allocs []Allocation
}

func NewCodec(mem flowgraph.Memory, alloc flowgraph.Allocator, calc *slot.Calculator) *Codec {
	if calc == nil {
		calc = slot.NewCalculator(slot.Wasm32)
	}
	return &Codec{mem: mem, alloc: alloc, calc: calc}
}

// Calculator returns the layout calculator used by the codec.
func (c *Codec) Calculator() *slot.Calculator {
	return c.calc
}

// New allocates zeroed storage for one value of t.
func (c *Codec) New(t *slot.Type) (uint32, error) {
	info, err := c.calc.Calculate(t)
	if err != nil {
		return 0, err
	}
	return c.allocate(info.Size, info.Align)
}

func (c *Codec) allocate(size, align uint32) (uint32, error) {
	if c.alloc == nil {
		return 0, errors.AllocationFailed(errors.PhaseEncode, size, align)
	}
	if align == 0 {
		align = 1
	}
	ptr, err := c.alloc.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	if size > 0 {
		if err := c.mem.Write(ptr, make([]byte, size)); err != nil {
			return 0, err
		}
	}
	c.allocs = append(c.allocs, Allocation{Ptr: ptr, Size: size, Align: align})
	return ptr, nil
}

// Allocations returns the storage obtained so far.
func (c *Codec) Allocations() []Allocation {
	return c.allocs
}

// Release frees every allocation made by the codec.
func (c *Codec) Release() {
	if c.alloc != nil {
		for _, a := range c.allocs {
			if a.Ptr != 0 {
				c.alloc.Free(a.Ptr, a.Size, a.Align)
			}
		}
	}
	c.allocs = c.allocs[:0]
}

// Encode writes v at addr as a value of t.
func (c *Codec) Encode(t *slot.Type, addr uint32, v any) error {
	return c.encode(t, addr, reflect.ValueOf(v), nil)
}

// Decode reads the value of t stored at addr.
func (c *Codec) Decode(t *slot.Type, addr uint32) (any, error) {
	return c.decode(t, addr, nil)
}

func sub(path []string, i int) []string {
	return append(path[:len(path):len(path)], strconv.Itoa(i))
}

func (c *Codec) encode(t *slot.Type, addr uint32, v reflect.Value, path []string) error {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if t.Kind() != slot.KindPointer && v.IsValid() && v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	switch t.Kind() {
	case slot.KindPointer:
		return c.encodePointer(t, addr, v, path)
	case slot.KindArray:
		return c.encodeArray(t, addr, v, path)
	case slot.KindObject:
		return c.encodeObject(t, addr, v, path)
	default:
		if !v.IsValid() {
			return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
				Path(path...).Type(t.String()).Detail("nil value").Build()
		}
		return c.encodePrimitive(t, addr, v, path)
	}
}

func (c *Codec) encodePrimitive(t *slot.Type, addr uint32, v reflect.Value, path []string) error {
	k := t.Kind()

	if k.IsFloat() {
		f, ok := toFloat(v)
		if !ok {
			return mismatch(path, t, v)
		}
		if k == slot.KindF32 {
			return c.mem.WriteU32(addr, math.Float32bits(float32(f)))
		}
		return c.mem.WriteU64(addr, math.Float64bits(f))
	}

	var bits uint64
	if k.IsSigned() {
		n, ok := toInt(v)
		if !ok {
			return mismatch(path, t, v)
		}
		shift := 64 - 8*k.Width()
		if n<<shift>>shift != n {
			return errors.Overflow(errors.PhaseEncode, path, n, t.String())
		}
		bits = uint64(n)
	} else {
		n, ok := toUint(v)
		if !ok {
			return mismatch(path, t, v)
		}
		if w := k.Width(); w < 8 && n>>(8*w) != 0 {
			return errors.Overflow(errors.PhaseEncode, path, n, t.String())
		}
		bits = n
	}

	switch k.Width() {
	case 1:
		return c.mem.WriteU8(addr, uint8(bits))
	case 2:
		return c.mem.WriteU16(addr, uint16(bits))
	case 4:
		return c.mem.WriteU32(addr, uint32(bits))
	default:
		return c.mem.WriteU64(addr, bits)
	}
}

func (c *Codec) encodeArray(t *slot.Type, addr uint32, v reflect.Value, path []string) error {
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return mismatch(path, t, v)
	}
	switch {
	case t.Flexible() && v.Len() > 0:
		return errors.New(errors.PhaseEncode, errors.KindInvalidArity).
			Path(path...).
			Type(t.String()).
			Detail("flexible array has no inline storage, got %d elements", v.Len()).
			Build()
	case !t.Flexible() && v.Len() != t.Elements():
		return errors.New(errors.PhaseEncode, errors.KindInvalidArity).
			Path(path...).
			Type(t.String()).
			Detail("got %d elements", v.Len()).
			Build()
	}
	return c.encodeElements(t, addr, v, path)
}

// encodeElements writes every element of v from addr without checking the
// extent against t.
func (c *Codec) encodeElements(t *slot.Type, addr uint32, v reflect.Value, path []string) error {
	elem := t.Elem()
	info, err := c.calc.Calculate(elem)
	if err != nil {
		return err
	}
	stride := slot.AlignTo(info.Size, info.Align)

	for i := 0; i < v.Len(); i++ {
		if err := c.encode(elem, addr+uint32(i)*stride, v.Index(i), sub(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) encodeObject(t *slot.Type, addr uint32, v reflect.Value, path []string) error {
	info, err := c.calc.Calculate(t)
	if err != nil {
		return err
	}

	var member func(int) reflect.Value
	switch {
	case !v.IsValid():
		return mismatch(path, t, v)
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		if v.Len() != t.Len() {
			return errors.New(errors.PhaseEncode, errors.KindInvalidArity).
				Path(path...).
				Type(t.String()).
				Detail("got %d members, want %d", v.Len(), t.Len()).
				Build()
		}
		member = v.Index
	case v.Kind() == reflect.Struct:
		fields := exportedFields(v.Type())
		if len(fields) != t.Len() {
			return errors.New(errors.PhaseEncode, errors.KindInvalidArity).
				Path(path...).
				Type(t.String()).
				Detail("struct %s has %d exported fields, want %d", v.Type(), len(fields), t.Len()).
				Build()
		}
		member = func(i int) reflect.Value { return v.Field(fields[i]) }
	default:
		return mismatch(path, t, v)
	}

	for i := 0; i < t.Len(); i++ {
		if err := c.encode(t.Child(i), addr+info.Offsets[i], member(i), sub(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func exportedFields(rt reflect.Type) []int {
	var idx []int
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			idx = append(idx, i)
		}
	}
	return idx
}

func (c *Codec) encodePointer(t *slot.Type, addr uint32, v reflect.Value, path []string) error {
	var target uint32

	switch {
	case !v.IsValid():
		target = 0
	case v.Type() == reflect.TypeOf(Addr(0)):
		target = uint32(v.Interface().(Addr))
	case v.Kind() == reflect.Pointer && v.IsNil():
		target = 0
	default:
		elem := t.Elem()
		info, err := c.calc.Calculate(elem)
		if err != nil {
			return err
		}
		size := info.Size
		if elem.Flexible() {
			if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
				return mismatch(path, elem, v)
			}
			inner, err := c.calc.Calculate(elem.Elem())
			if err != nil {
				return err
			}
			size = slot.AlignTo(inner.Size, inner.Align) * uint32(v.Len())
		}
		target, err = c.allocate(size, info.Align)
		if err != nil {
			return err
		}
		if elem.Flexible() {
			err = c.encodeElements(elem, target, v, sub(path, 0))
		} else {
			err = c.encode(elem, target, v, sub(path, 0))
		}
		if err != nil {
			return err
		}
	}

	return c.writeAddr(addr, target)
}

func (c *Codec) writeAddr(addr, target uint32) error {
	if c.calc.PointerSize == slot.Native {
		return c.mem.WriteU64(addr, uint64(target))
	}
	return c.mem.WriteU32(addr, target)
}

func (c *Codec) readAddr(addr uint32) (uint32, error) {
	if c.calc.PointerSize == slot.Native {
		v, err := c.mem.ReadU64(addr)
		if err != nil {
			return 0, err
		}
		if v > math.MaxUint32 {
			return 0, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("address %#x beyond 32-bit memory", v))
		}
		return uint32(v), nil
	}
	return c.mem.ReadU32(addr)
}

// ReadAddr reads a pointer value stored at addr.
func (c *Codec) ReadAddr(addr uint32) (Addr, error) {
	p, err := c.readAddr(addr)
	return Addr(p), err
}

func (c *Codec) decode(t *slot.Type, addr uint32, path []string) (any, error) {
	switch t.Kind() {
	case slot.KindPointer:
		target, err := c.readAddr(addr)
		if err != nil {
			return nil, err
		}
		if target == 0 {
			return nil, nil
		}
		if t.Elem().Flexible() {
			return Addr(target), nil
		}
		return c.decode(t.Elem(), target, sub(path, 0))

	case slot.KindArray:
		if t.Flexible() {
			return Addr(addr), nil
		}
		elem := t.Elem()
		info, err := c.calc.Calculate(elem)
		if err != nil {
			return nil, err
		}
		stride := slot.AlignTo(info.Size, info.Align)
		out := make([]any, t.Elements())
		for i := range out {
			if out[i], err = c.decode(elem, addr+uint32(i)*stride, sub(path, i)); err != nil {
				return nil, err
			}
		}
		return out, nil

	case slot.KindObject:
		info, err := c.calc.Calculate(t)
		if err != nil {
			return nil, err
		}
		out := make([]any, t.Len())
		for i := range out {
			if out[i], err = c.decode(t.Child(i), addr+info.Offsets[i], sub(path, i)); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	return c.decodePrimitive(t.Kind(), addr)
}

func (c *Codec) decodePrimitive(k slot.Kind, addr uint32) (any, error) {
	switch k {
	case slot.KindI8:
		v, err := c.mem.ReadU8(addr)
		return int8(v), err
	case slot.KindU8:
		return c.mem.ReadU8(addr)
	case slot.KindI16:
		v, err := c.mem.ReadU16(addr)
		return int16(v), err
	case slot.KindU16:
		return c.mem.ReadU16(addr)
	case slot.KindI32:
		v, err := c.mem.ReadU32(addr)
		return int32(v), err
	case slot.KindU32:
		return c.mem.ReadU32(addr)
	case slot.KindI64:
		v, err := c.mem.ReadU64(addr)
		return int64(v), err
	case slot.KindU64:
		return c.mem.ReadU64(addr)
	case slot.KindF32:
		v, err := c.mem.ReadU32(addr)
		return math.Float32frombits(v), err
	case slot.KindF64:
		v, err := c.mem.ReadU64(addr)
		return math.Float64frombits(v), err
	default:
		return nil, errors.InvalidKind(errors.PhaseDecode, k.String(), "primitive")
	}
}

func toInt(v reflect.Value) (int64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

func toUint(v reflect.Value) (uint64, bool) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, false
		}
		return uint64(f), true
	default:
		return 0, false
	}
}

func toFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

func mismatch(path []string, t *slot.Type, v reflect.Value) error {
	got := "nil"
	if v.IsValid() {
		got = v.Type().String()
	}
	return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
		Path(path...).
		Type(t.String()).
		Detail("cannot encode Go %s", got).
		Build()
}
