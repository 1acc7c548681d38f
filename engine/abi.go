package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/flowgraph/errors"
)

// Guest exports of the slot ABI.
const (
	ExportMemory         = "memory"
	ExportNumInputSlots  = "num_input_slots"
	ExportNumOutputSlots = "num_output_slots"
	ExportSetInputSlot   = "set_input_slot"
	ExportSetOutputSlot  = "set_output_slot"
	ExportProcess        = "process"
	ExportDone           = "done"

	// Optional exports.
	ExportInit  = "init"
	ExportAlloc = "alloc"
	ExportFree  = "free"
)

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

var (
	i32 = api.ValueTypeI32

	sigCount   = signature{results: []api.ValueType{i32}}
	sigBind    = signature{params: []api.ValueType{i32, i32}}
	sigVoid    = signature{}
	sigAlloc   = signature{params: []api.ValueType{i32, i32}, results: []api.ValueType{i32}}
	sigFree    = signature{params: []api.ValueType{i32, i32, i32}}
	requiredFn = map[string]signature{
		ExportNumInputSlots:  sigCount,
		ExportNumOutputSlots: sigCount,
		ExportSetInputSlot:   sigBind,
		ExportSetOutputSlot:  sigBind,
		ExportProcess:        sigVoid,
		ExportDone:           sigVoid,
	}
	optionalFn = map[string]signature{
		ExportInit:  sigVoid,
		ExportAlloc: sigAlloc,
		ExportFree:  sigFree,
	}
)

func (s signature) matches(def api.FunctionDefinition) bool {
	return sameTypes(s.params, def.ParamTypes()) && sameTypes(s.results, def.ResultTypes())
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkExports verifies the compiled module exports the slot ABI with the
// expected signatures.
func checkExports(memories map[string]api.MemoryDefinition, funcs map[string]api.FunctionDefinition) error {
	if _, ok := memories[ExportMemory]; !ok {
		return errors.MissingExport(ExportMemory)
	}
	for name, sig := range requiredFn {
		def, ok := funcs[name]
		if !ok {
			return errors.MissingExport(name)
		}
		if !sig.matches(def) {
			return signatureMismatch(name, def)
		}
	}
	for name, sig := range optionalFn {
		if def, ok := funcs[name]; ok && !sig.matches(def) {
			return signatureMismatch(name, def)
		}
	}
	return nil
}

func signatureMismatch(name string, def api.FunctionDefinition) error {
	return errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
		Path(name).
		Detail("export %s has signature %v -> %v", name, valueTypeNames(def.ParamTypes()), valueTypeNames(def.ResultTypes())).
		Build()
}

func valueTypeNames(ts []api.ValueType) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return names
}
