package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/flowgraph/slot"
	"github.com/wippyai/flowgraph/slot/wire"
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

func writeSchema(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestShow(t *testing.T) {
	path := writeSchema(t, "acc.yaml", accumulateSchema)

	out, err := execute(t, "show", path)
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	for _, want := range []string{
		"accumulate 0.1.0",
		"input frame: Frame{*f64, [4]i32}",
		"object Frame members=2",
		"array elements=4",
		"output total: f64",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShow_Invalid(t *testing.T) {
	path := writeSchema(t, "bad.yaml", "inputs:\n  - name: x\n    type: q32\n")
	if _, err := execute(t, "show", path); err == nil {
		t.Fatal("expected error for unknown primitive")
	}
}

func TestCompare(t *testing.T) {
	a := writeSchema(t, "a.yaml", accumulateSchema)
	same := writeSchema(t, "same.yaml", accumulateSchema)

	out, err := execute(t, "compare", a, same)
	if err != nil {
		t.Fatalf("compare equal schemas: %v\n%s", err, out)
	}
	if !strings.Contains(out, "= input frame") {
		t.Errorf("output = %q", out)
	}

	changed := strings.Replace(accumulateSchema, "  - name: sum\n    type: f64", "  - name: sum\n    type: f32", 1)
	changed += "  - name: count\n    type: u32\n"
	b := writeSchema(t, "b.yaml", changed)

	out, err = execute(t, "compare", a, b)
	if !errors.Is(err, errMismatch) {
		t.Fatalf("compare = %v, want errMismatch", err)
	}
	for _, want := range []string{"! output sum: f64 != f32", "+ output count: u32", "= output total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompare_IdentIgnored(t *testing.T) {
	a := writeSchema(t, "a.yaml", accumulateSchema)
	b := writeSchema(t, "b.yaml", strings.Replace(accumulateSchema, "ident: Frame", "ident: Sample", 1))

	if out, err := execute(t, "compare", a, b); err != nil {
		t.Fatalf("compare: %v\n%s", err, out)
	}
}

func TestLayout(t *testing.T) {
	path := writeSchema(t, "acc.yaml", accumulateSchema)

	tests := []struct {
		pointerSize string
		want        []string
	}{
		{"4", []string{"Frame{*f64, [4]i32} size=20 align=4", "4    [4]i32 size=16 align=4", "f64 size=8 align=8"}},
		{"8", []string{"Frame{*f64, [4]i32} size=24 align=8", "8    [4]i32 size=16 align=4"}},
	}
	for _, tt := range tests {
		t.Run("ptr"+tt.pointerSize, func(t *testing.T) {
			out, err := execute(t, "layout", "--pointer-size", tt.pointerSize, path)
			if err != nil {
				t.Fatalf("layout: %v\n%s", err, out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}

	if _, err := execute(t, "layout", "--pointer-size", "2", path); err == nil {
		t.Error("expected error for pointer size 2")
	}
	layoutFlags.pointerSize = slot.Wasm32
}

func TestPack(t *testing.T) {
	path := writeSchema(t, "acc.yaml", accumulateSchema)
	outFile := filepath.Join(t.TempDir(), "acc.cbor")

	if out, err := execute(t, "pack", path, "-o", outFile); err != nil {
		t.Fatalf("pack: %v\n%s", err, out)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	m, err := wire.UnmarshalManifest(data)
	if err != nil {
		t.Fatalf("UnmarshalManifest: %v", err)
	}
	if m.Name != "accumulate" || len(m.Inputs) != 1 || len(m.Outputs) != 2 {
		t.Errorf("manifest = %+v", m)
	}
}
