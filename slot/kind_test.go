package slot

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"i8", KindI8},
		{"i16", KindI16},
		{"i32", KindI32},
		{"i64", KindI64},
		{"u8", KindU8},
		{"u16", KindU16},
		{"u32", KindU32},
		{"u64", KindU64},
		{"f32", KindF32},
		{"f64", KindF64},
		{"object", KindObject},
		{"pointer", KindPointer},
		{"array", KindArray},
		{"unknown", Kind(255)},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindIsPrimitive(t *testing.T) {
	primitives := []Kind{
		KindI8, KindI16, KindI32, KindI64,
		KindU8, KindU16, KindU32, KindU64,
		KindF32, KindF64,
	}
	for _, k := range primitives {
		if !k.IsPrimitive() {
			t.Errorf("%s should be primitive", k)
		}
	}

	for _, k := range []Kind{KindObject, KindPointer, KindArray} {
		if k.IsPrimitive() {
			t.Errorf("%s should not be primitive", k)
		}
	}

	if Kind(200).Valid() {
		t.Error("Kind(200) should not be valid")
	}
}

func TestKindWidth(t *testing.T) {
	tests := []struct {
		kind Kind
		want uint32
	}{
		{KindI8, 1},
		{KindU16, 2},
		{KindF32, 4},
		{KindI64, 8},
		{KindObject, 0},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			if got := tc.kind.Width(); got != tc.want {
				t.Errorf("Width() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for k := KindI8; k <= KindArray; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("bool"); ok {
		t.Error("ParseKind(bool) should fail")
	}
}
