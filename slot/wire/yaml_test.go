package wire

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	fgerrors "github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

const accumulateSchema = `
name: accumulate
version: {major: 0, minor: 1, patch: 0}
inputs:
  - name: frame
    type:
      object:
        ident: Frame
        members:
          - pointer: f64
          - array: {of: i32, elements: 4}
outputs:
  - name: sum
    type: f64
  - name: total
    type: f64
`

func TestParseSchema(t *testing.T) {
	m, err := ParseSchema([]byte(accumulateSchema))
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	if m.Name != "accumulate" || m.Version.Minor != 1 {
		t.Errorf("header = %q %s", m.Name, m.Version)
	}

	descs, err := m.Descriptors()
	if err != nil {
		t.Fatalf("Descriptors: %v", err)
	}
	if len(descs) != 3 {
		t.Fatalf("descriptors = %d, want 3", len(descs))
	}
	if !slot.Equal(descs[0].Type, frameType()) {
		t.Errorf("frame = %s, want %s", descs[0].Type, frameType())
	}
	if descs[0].Type.Ident() != "Frame" {
		t.Errorf("ident = %q, want Frame", descs[0].Type.Ident())
	}
	if descs[2].Name != "total" || descs[2].Direction != slot.Output {
		t.Errorf("last descriptor = %s", descs[2])
	}
}

func TestSchema_RoundTrip(t *testing.T) {
	m, err := ParseSchema([]byte(accumulateSchema))
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	out, err := MarshalSchema(m)
	if err != nil {
		t.Fatalf("MarshalSchema: %v", err)
	}
	again, err := ParseSchema(out)
	if err != nil {
		t.Fatalf("ParseSchema(MarshalSchema): %v\n%s", err, out)
	}

	a, _ := m.Descriptors()
	b, _ := again.Descriptors()
	for i := range a {
		if !slot.Equal(a[i].Type, b[i].Type) || a[i].Name != b[i].Name {
			t.Errorf("slot %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestParseSchema_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		kind   fgerrors.Kind
	}{
		{
			name:   "unknown primitive",
			schema: "inputs:\n  - name: x\n    type: f128\n",
			kind:   fgerrors.KindInvalidData,
		},
		{
			name:   "two forms",
			schema: "inputs:\n  - name: x\n    type: {pointer: f64, array: {of: u8}}\n",
			kind:   fgerrors.KindInvalidData,
		},
		{
			name:   "array without element",
			schema: "inputs:\n  - name: x\n    type: {array: {elements: 3}}\n",
			kind:   fgerrors.KindInvalidData,
		},
		{
			name:   "empty object",
			schema: "inputs:\n  - name: x\n    type: {object: {members: []}}\n",
			kind:   fgerrors.KindInvalidData,
		},
		{
			name:   "duplicate slot",
			schema: "outputs:\n  - {name: y, type: f64}\n  - {name: y, type: f32}\n",
			kind:   fgerrors.KindInvalidData,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tc.schema))
			if !errors.Is(err, &fgerrors.Error{Kind: tc.kind}) {
				t.Errorf("error = %v, want %s", err, tc.kind)
			}
		})
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acc.yaml")
	if err := os.WriteFile(path, []byte(accumulateSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchema(path); err != nil {
		t.Errorf("LoadSchema: %v", err)
	}
	if _, err := LoadSchema(filepath.Join(dir, "missing.yaml")); !errors.Is(err, fgerrors.ErrNotFound) {
		t.Errorf("missing file: %v, want not_found", err)
	}
}
