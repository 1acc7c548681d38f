package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConstruct Phase = "construct" // slot type construction
	PhaseDispose   Phase = "dispose"   // slot type disposal
	PhaseCopy      Phase = "copy"      // deep copy
	PhaseLayout    Phase = "layout"    // size/alignment calculation
	PhaseBind      Phase = "bind"      // slot matching and binding
	PhaseProcess   Phase = "process"   // component execution
	PhaseLifecycle Phase = "lifecycle" // construct/done/dispose transitions
	PhaseEncode    Phase = "encode"    // Go to slot memory / wire
	PhaseDecode    Phase = "decode"    // slot memory / wire to Go
	PhaseLoad      Phase = "load"      // guest module loading
	PhaseConfig    Phase = "config"    // configuration and schemas
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch  Kind = "type_mismatch"
	KindOutOfRange    Kind = "out_of_range"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindAllocation    Kind = "allocation"
	KindInvalidKind   Kind = "invalid_kind"
	KindInvalidArity  Kind = "invalid_arity"
	KindNilType       Kind = "nil_type"
	KindAliased       Kind = "aliased"
	KindDisposed      Kind = "disposed"
	KindUnbound       Kind = "unbound"
	KindInvalidState  Kind = "invalid_state"
	KindIncompatible  Kind = "incompatible"
	KindMissingExport Kind = "missing_export"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindOverflow      Kind = "overflow"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Slot   string
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Slot != "" {
		b.WriteString(" slot ")
		b.WriteString(e.Slot)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches any phase.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return (t.Phase == "" || e.Phase == t.Phase) && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the type path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Slot sets the slot name
func (b *Builder) Slot(name string) *Builder {
	b.err.Slot = name
	return b
}

// Type sets the slot type notation
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrDisposed     = &Error{Kind: KindDisposed}
	ErrAliased      = &Error{Kind: KindAliased}
	ErrOutOfRange   = &Error{Kind: KindOutOfRange}
	ErrUnbound      = &Error{Kind: KindUnbound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrTypeMismatch = &Error{Kind: KindTypeMismatch}
	ErrNotFound     = &Error{Kind: KindNotFound}
)

// Convenience constructors for common error patterns

// TypeMismatch creates a slot type mismatch error
func TypeMismatch(phase Phase, slotName, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Slot:   slotName,
		Type:   got,
		Detail: fmt.Sprintf("expected %s", want),
	}
}

// InvalidKind creates an error for a kind used where it is not allowed
func InvalidKind(phase Phase, kind, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidKind,
		Detail: fmt.Sprintf("kind %s is not %s", kind, want),
		Value:  kind,
	}
}

// InvalidArity creates an error for a wrong child or element count
func InvalidArity(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArity,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NilType creates an error for a nil slot type argument
func NilType(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilType,
		Path:   path,
		Detail: "nil slot type",
	}
}

// Aliased creates an error for a node that already has an owner
func Aliased(phase Phase, typ string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAliased,
		Type:   typ,
		Detail: "node is owned by another tree; copy it instead",
	}
}

// Disposed creates a use-after-dispose error
func Disposed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDisposed,
		Detail: fmt.Sprintf("%s already disposed", what),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// OutOfRange creates a slot index out of range error
func OutOfRange(phase Phase, what string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Detail: fmt.Sprintf("%s index %d out of range (count %d)", what, index, length),
		Value:  index,
	}
}

// Unbound creates an error for processing with unbound slots
func Unbound(slotName string) *Error {
	return &Error{
		Phase:  PhaseProcess,
		Kind:   KindUnbound,
		Slot:   slotName,
		Detail: "slot has no backing storage",
	}
}

// InvalidState creates a lifecycle state error
func InvalidState(op, state string) *Error {
	return &Error{
		Phase:  PhaseLifecycle,
		Kind:   KindInvalidState,
		Detail: fmt.Sprintf("%s not allowed in state %s", op, state),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Type:   targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Incompatible creates a version compatibility error
func Incompatible(version, constraint string) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindIncompatible,
		Detail: fmt.Sprintf("component API %s does not satisfy %s", version, constraint),
	}
}

// MissingExport creates an error for a guest lacking a contract export
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
