package component

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/wippyai/flowgraph"
	"github.com/wippyai/flowgraph/errors"
	"github.com/wippyai/flowgraph/slot"
)

// Component is the operation set a plugin exposes to its host. The concrete
// state stays behind the interface.
//
// Slot counts and descriptors are fixed for the lifetime of an instance.
// Descriptors returned by Slots belong to the component: the host reads them
// and copies what it wants to keep.
//
// Addresses passed to SetInputSlot and SetOutputSlot refer to Memory().
// Implementations need not validate indices or types; wrap them with Guard
// to get reported errors instead.
type Component interface {
	NumInputSlots() int
	NumOutputSlots() int
	// Slots returns inputs then outputs.
	Slots() []slot.Descriptor
	SetInputSlot(index int, addr uint32) error
	SetOutputSlot(index int, addr uint32) error
	Process(ctx context.Context) error
	// Done is called once after the last Process and before Dispose.
	Done(ctx context.Context) error
	// Dispose releases the instance and every slot type it allocated.
	Dispose(ctx context.Context) error
	Memory() flowgraph.Memory
	Allocator() flowgraph.Allocator
}

// PointerSizer is implemented by components whose address space uses
// pointers wider than 32 bits.
type PointerSizer interface {
	PointerSize() uint32
}

// PointerSize returns the pointer width slot layouts use for c.
func PointerSize(c Component) uint32 {
	if ps, ok := c.(PointerSizer); ok {
		return ps.PointerSize()
	}
	return slot.Wasm32
}

// Factory constructs independent, zero-initialized instances.
type Factory interface {
	Name() string
	Version() Version
	New(ctx context.Context) (Component, error)
}

type funcFactory struct {
	fn      func(ctx context.Context) (Component, error)
	name    string
	version Version
}

// NewFactory adapts a constructor function to Factory.
func NewFactory(name string, v Version, fn func(ctx context.Context) (Component, error)) Factory {
	return &funcFactory{fn: fn, name: name, version: v}
}

func (f *funcFactory) Name() string     { return f.name }
func (f *funcFactory) Version() Version { return f.version }

func (f *funcFactory) New(ctx context.Context) (Component, error) {
	return f.fn(ctx)
}

// Version is the three-part API version a component declares.
type Version struct {
	Major uint32 `cbor:"1,keyasint" yaml:"major"`
	Minor uint32 `cbor:"2,keyasint" yaml:"minor"`
	Patch uint32 `cbor:"3,keyasint" yaml:"patch"`
}

// APIVersion is the version of the contract implemented by this module.
var APIVersion = Version{
	Major: flowgraph.APIVersionMajor,
	Minor: flowgraph.APIVersionMinor,
	Patch: flowgraph.APIVersionPatch,
}

// DefaultConstraint accepts components built against any 0.1.x contract.
const DefaultConstraint = "^0.1"

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Semver converts v for constraint checks.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.Major), uint64(v.Minor), uint64(v.Patch), "", "")
}

// Check returns an incompatible error unless v satisfies constraint.
// An empty constraint means DefaultConstraint.
func (v Version) Check(constraint string) error {
	if constraint == "" {
		constraint = DefaultConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse version constraint "+constraint)
	}
	if !c.Check(v.Semver()) {
		return errors.Incompatible(v.String(), constraint)
	}
	return nil
}
