package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/flowgraph"
	"github.com/wippyai/flowgraph/component"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/memory"
	"github.com/wippyai/flowgraph/slot"
	"github.com/wippyai/flowgraph/slot/wire"
)

// DefaultHeapBase is where the host arena starts in guests without alloc.
const DefaultHeapBase = 1024

// WazeroEngine loads guest components into a shared wazero runtime.
type WazeroEngine struct {
	runtime wazero.Runtime
	cfg     Config
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// HeapBase is the first address the host arena hands out when the guest
	// does not export alloc. 0 means DefaultHeapBase.
	HeapBase uint32
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCustomSections(true)

	var c Config
	if cfg != nil {
		c = *cfg
		if c.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
		}
	}
	if c.HeapBase == 0 {
		c.HeapBase = DefaultHeapBase
	}

	return &WazeroEngine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg), cfg: c}, nil
}

// LoadModule compiles a guest and reads its slot manifest.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile failed", err)
	}

	if err := checkExports(compiled.ExportedMemories(), compiled.ExportedFunctions()); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	var section []byte
	found := false
	for _, cs := range compiled.CustomSections() {
		if cs.Name() == wire.SectionName {
			section = cs.Data()
			found = true
			break
		}
	}
	if !found {
		_ = compiled.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "custom section", wire.SectionName)
	}

	manifest, err := wire.UnmarshalManifest(section)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Load("read slot manifest", err)
	}

	funcs := compiled.ExportedFunctions()
	_, hasInit := funcs[ExportInit]
	_, hasAlloc := funcs[ExportAlloc]

	Logger().Debug("module loaded",
		zap.String("name", manifest.Name),
		zap.Stringer("version", manifest.Version),
		zap.Int("inputs", len(manifest.Inputs)),
		zap.Int("outputs", len(manifest.Outputs)),
		zap.Bool("alloc", hasAlloc))

	return &WazeroModule{
		engine:   e,
		compiled: compiled,
		manifest: manifest,
		hasInit:  hasInit,
		hasAlloc: hasAlloc,
	}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// WazeroModule is a compiled guest. It implements component.Factory.
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
	manifest *wire.Manifest
	hasInit  bool
	hasAlloc bool
}

func (m *WazeroModule) Name() string               { return m.manifest.Name }
func (m *WazeroModule) Version() component.Version { return m.manifest.Version }

// Manifest returns the slot manifest embedded in the guest.
func (m *WazeroModule) Manifest() *wire.Manifest { return m.manifest }

// New instantiates an independent, anonymous instance. ctx is kept for the
// slot binding calls, which take no context of their own.
func (m *WazeroModule) New(ctx context.Context) (component.Component, error) {
	return m.Instantiate(ctx)
}

// Instantiate is New returning the concrete instance.
func (m *WazeroModule) Instantiate(ctx context.Context) (*WazeroInstance, error) {
	modConfig := wazero.NewModuleConfig().
		WithName(""). // anonymous for parallel instantiation
		WithStartFunctions()

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Load("instantiate failed", err)
	}

	inst := &WazeroInstance{
		module:  m,
		mod:     mod,
		ctx:     ctx,
		mem:     memory.WrapWazero(mod.ExportedMemory(ExportMemory)),
		setIn:   mod.ExportedFunction(ExportSetInputSlot),
		setOut:  mod.ExportedFunction(ExportSetOutputSlot),
		process: mod.ExportedFunction(ExportProcess),
		done:    mod.ExportedFunction(ExportDone),
	}

	if m.hasInit {
		if _, err := mod.ExportedFunction(ExportInit).Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, errors.Load("guest init", err)
		}
	}

	if err := inst.readCounts(ctx); err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}

	descs, err := m.manifest.Descriptors()
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	inst.descs = descs

	if m.hasAlloc {
		inst.alloc = memory.WrapGuestAllocator(ctx, mod.ExportedFunction(ExportAlloc), mod.ExportedFunction(ExportFree))
	} else {
		inst.alloc = memory.NewArena(inst.mem, m.engine.cfg.HeapBase)
	}

	return inst, nil
}

func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// WazeroInstance is a guest instance driven through the slot ABI.
type WazeroInstance struct {
	ctx      context.Context
	module   *WazeroModule
	mod      api.Module
	mem      *memory.Wazero
	alloc    flowgraph.Allocator
	setIn    api.Function
	setOut   api.Function
	process  api.Function
	done     api.Function
	descs    []slot.Descriptor
	inBound  []bool
	outBound []bool
}

// readCounts checks the guest's slot counts against its manifest.
func (i *WazeroInstance) readCounts(ctx context.Context) error {
	in, err := callCount(ctx, i.mod, ExportNumInputSlots)
	if err != nil {
		return err
	}
	out, err := callCount(ctx, i.mod, ExportNumOutputSlots)
	if err != nil {
		return err
	}

	m := i.module.manifest
	if in != len(m.Inputs) || out != len(m.Outputs) {
		return errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Detail("guest reports %d inputs and %d outputs, manifest declares %d and %d",
				in, out, len(m.Inputs), len(m.Outputs)).
			Build()
	}
	i.inBound = make([]bool, in)
	i.outBound = make([]bool, out)
	return nil
}

func callCount(ctx context.Context, mod api.Module, name string) (int, error) {
	res, err := mod.ExportedFunction(name).Call(ctx)
	if err != nil {
		return 0, errors.Load(name, err)
	}
	n := int32(api.DecodeI32(res[0]))
	if n < 0 {
		return 0, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Path(name).
			Detail("negative slot count %d", n).
			Build()
	}
	return int(n), nil
}

func (i *WazeroInstance) NumInputSlots() int             { return len(i.inBound) }
func (i *WazeroInstance) NumOutputSlots() int            { return len(i.outBound) }
func (i *WazeroInstance) Slots() []slot.Descriptor       { return i.descs }
func (i *WazeroInstance) Memory() flowgraph.Memory       { return i.mem }
func (i *WazeroInstance) Allocator() flowgraph.Allocator { return i.alloc }
func (i *WazeroInstance) PointerSize() uint32            { return slot.Wasm32 }

// Module returns the compiled guest this instance came from.
func (i *WazeroInstance) Module() *WazeroModule { return i.module }

func (i *WazeroInstance) SetInputSlot(index int, addr uint32) error {
	if index < 0 || index >= len(i.inBound) {
		return errors.OutOfRange(errors.PhaseBind, "input slot", index, len(i.inBound))
	}
	if _, err := i.setIn.Call(i.ctx, api.EncodeU32(addr), api.EncodeI32(int32(index))); err != nil {
		return errors.Wrap(errors.PhaseBind, errors.KindInvalidData, err, "guest "+ExportSetInputSlot)
	}
	i.inBound[index] = true
	return nil
}

func (i *WazeroInstance) SetOutputSlot(index int, addr uint32) error {
	if index < 0 || index >= len(i.outBound) {
		return errors.OutOfRange(errors.PhaseBind, "output slot", index, len(i.outBound))
	}
	if _, err := i.setOut.Call(i.ctx, api.EncodeU32(addr), api.EncodeI32(int32(index))); err != nil {
		return errors.Wrap(errors.PhaseBind, errors.KindInvalidData, err, "guest "+ExportSetOutputSlot)
	}
	i.outBound[index] = true
	return nil
}

// Process runs the guest once. Unbound slots are reported before the guest
// is entered since it would otherwise read address zero.
func (i *WazeroInstance) Process(ctx context.Context) error {
	for idx, ok := range i.inBound {
		if !ok {
			return errors.Unbound(i.descs[idx].Name)
		}
	}
	for idx, ok := range i.outBound {
		if !ok {
			return errors.Unbound(i.descs[len(i.inBound)+idx].Name)
		}
	}
	if _, err := i.process.Call(ctx); err != nil {
		return errors.Wrap(errors.PhaseProcess, errors.KindInvalidData, err, "guest "+ExportProcess)
	}
	return nil
}

func (i *WazeroInstance) Done(ctx context.Context) error {
	if _, err := i.done.Call(ctx); err != nil {
		return errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidData, err, "guest "+ExportDone)
	}
	return nil
}

// Dispose releases the descriptor trees and closes the guest instance.
func (i *WazeroInstance) Dispose(ctx context.Context) error {
	if i.mod == nil {
		return errors.Disposed(errors.PhaseDispose, "instance")
	}
	for _, d := range i.descs {
		_ = d.Type.Dispose()
	}
	err := i.mod.Close(ctx)

	i.descs = nil
	i.mod = nil
	i.mem = nil
	i.alloc = nil
	i.setIn = nil
	i.setOut = nil
	i.process = nil
	i.done = nil
	return err
}

var (
	_ component.Factory   = (*WazeroModule)(nil)
	_ component.Component = (*WazeroInstance)(nil)
)
