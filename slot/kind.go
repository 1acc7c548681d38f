package slot

// Kind tags a slot type node. Primitive kinds are leaves, the rest are
// internal nodes.
type Kind uint8

const (
	KindI8 Kind = iota
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindObject
	KindPointer
	KindArray
)

var kindNames = [...]string{
	KindI8:      "i8",
	KindI16:     "i16",
	KindI32:     "i32",
	KindI64:     "i64",
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindF32:     "f32",
	KindF64:     "f64",
	KindObject:  "object",
	KindPointer: "pointer",
	KindArray:   "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) Valid() bool {
	return k <= KindArray
}

func (k Kind) IsPrimitive() bool {
	return k <= KindF64
}

func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

func (k Kind) IsSigned() bool {
	return k <= KindI64
}

// Width returns the byte width of a primitive kind, 0 otherwise.
func (k Kind) Width() uint32 {
	switch k {
	case KindI8, KindU8:
		return 1
	case KindI16, KindU16:
		return 2
	case KindI32, KindU32, KindF32:
		return 4
	case KindI64, KindU64, KindF64:
		return 8
	default:
		return 0
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}
