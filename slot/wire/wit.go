package wire

import (
	"fmt"
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// FromWIT maps a WIT type to a slot type:
//
//   - integers and floats map to the primitive of the same width
//   - bool maps to u8 and char to u32
//   - records and tuples map to objects; a named record keeps its name
//   - list<T> maps to a pointer to a flexible array of T
//   - type aliases resolve to their target
//
// Strings, options, results, variants, enums, flags and resource handles
// have no slot representation and are reported as unsupported.
func FromWIT(t wit.Type) (*slot.Type, error) {
	return fromWIT(t, nil)
}

func fromWIT(t wit.Type, path []string) (*slot.Type, error) {
	if len(path) > MaxDepth {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Detail("type nesting exceeds %d levels", MaxDepth).
			Build()
	}

	switch v := t.(type) {
	case wit.Bool, wit.U8:
		return slot.U8(), nil
	case wit.S8:
		return slot.I8(), nil
	case wit.U16:
		return slot.U16(), nil
	case wit.S16:
		return slot.I16(), nil
	case wit.U32, wit.Char:
		return slot.U32(), nil
	case wit.S32:
		return slot.I32(), nil
	case wit.U64:
		return slot.U64(), nil
	case wit.S64:
		return slot.I64(), nil
	case wit.F32:
		return slot.F32(), nil
	case wit.F64:
		return slot.F64(), nil
	case *wit.TypeDef:
		return fromTypeDef(v, path)
	case nil:
		return nil, errors.NilType(errors.PhaseDecode, path)
	default:
		return nil, unsupportedWIT(path, t)
	}
}

func fromTypeDef(td *wit.TypeDef, path []string) (*slot.Type, error) {
	switch kind := td.Kind.(type) {
	case *wit.Record:
		ident := ""
		if td.Name != nil {
			ident = *td.Name
		}
		members := make([]*slot.Type, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			m, err := fromWIT(f.Type, append(path[:len(path):len(path)], f.Name))
			if err != nil {
				disposeAll(members)
				return nil, err
			}
			members = append(members, m)
		}
		return slot.NewNamedObject(ident, members)

	case *wit.Tuple:
		members := make([]*slot.Type, 0, len(kind.Types))
		for i, et := range kind.Types {
			m, err := fromWIT(et, append(path[:len(path):len(path)], strconv.Itoa(i)))
			if err != nil {
				disposeAll(members)
				return nil, err
			}
			members = append(members, m)
		}
		return slot.NewObject(members)

	case *wit.List:
		elem, err := fromWIT(kind.Type, append(path[:len(path):len(path)], "[]"))
		if err != nil {
			return nil, err
		}
		arr, err := slot.NewArray(elem, 0)
		if err != nil {
			return nil, err
		}
		return slot.NewPointer(arr)

	case wit.Type:
		return fromWIT(kind, path)

	default:
		return nil, unsupportedWIT(path, td.Kind)
	}
}

func unsupportedWIT(path []string, t any) error {
	err := errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("WIT type %s has no slot representation", witName(t)))
	err.Path = path
	return err
}

func witName(t any) string {
	switch t.(type) {
	case wit.String:
		return "string"
	case *wit.Option:
		return "option"
	case *wit.Result:
		return "result"
	case *wit.Variant:
		return "variant"
	case *wit.Enum:
		return "enum"
	case *wit.Flags:
		return "flags"
	case *wit.Own, *wit.Borrow:
		return "resource handle"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func disposeAll(ts []*slot.Type) {
	for _, t := range ts {
		_ = t.Dispose()
	}
}
