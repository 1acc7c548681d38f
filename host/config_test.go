package host

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/flowgraph/component/builtin"
	fgerrors "github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
api_constraint = ">=0.1, <0.3"
log_level = "debug"
parallel = 3
heap_base = 4096
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	want := DefaultConfig()
	want.APIConstraint = ">=0.1, <0.3"
	want.LogLevel = "debug"
	want.Parallel = 3
	want.HeapBase = 4096
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	if _, err := cfg.NewLogger(); err != nil {
		t.Errorf("NewLogger: %v", err)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `parallel = `},
		{"unknown key", `paralel = 2`},
		{"zero parallel", `parallel = 0`},
		{"bad constraint", `api_constraint = "sometime soon"`},
		{"bad level", `log_level = "loud"`},
		{"null page heap", `heap_base = 4`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.toml))
			if !errors.Is(err, &fgerrors.Error{Phase: fgerrors.PhaseConfig, Kind: fgerrors.KindInvalidInput}) &&
				!errors.Is(err, &fgerrors.Error{Phase: fgerrors.PhaseConfig, Kind: fgerrors.KindInvalidData}) {
				t.Errorf("error = %v, want config error", err)
			}
		})
	}
}

const schema = `
name: accumulate
inputs:
  - name: frame
    type:
      object:
        ident: Frame
        members:
          - pointer: f64
          - array: {of: i32, elements: 4}
outputs:
  - name: total
    type: f64
`

func TestLoadConfig_Schema(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "acc.yaml"), []byte(schema), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "host.toml")
	if err := os.WriteFile(path, []byte(`schema = "acc.yaml"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Schema != filepath.Join(dir, "acc.yaml") {
		t.Errorf("schema = %q, want resolved path", cfg.Schema)
	}

	exp, err := New(cfg).Expectations()
	if err != nil {
		t.Fatalf("Expectations: %v", err)
	}
	defer exp.Dispose()
	if !slot.Equal(exp.Inputs["frame"], builtin.FrameType()) {
		t.Errorf("frame = %s", exp.Inputs["frame"])
	}
	if !slot.Equal(exp.Outputs["total"], slot.F64()) {
		t.Errorf("total = %s", exp.Outputs["total"])
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); !errors.Is(err, fgerrors.ErrNotFound) {
		t.Errorf("missing config: %v, want not_found", err)
	}
}

func TestExpectations_None(t *testing.T) {
	exp, err := New(DefaultConfig()).Expectations()
	if err != nil || exp.Inputs != nil || exp.Outputs != nil {
		t.Errorf("Expectations = %+v, %v; want empty", exp, err)
	}
}
