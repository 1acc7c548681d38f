package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseBind,
				Kind:   KindTypeMismatch,
				Slot:   "frame",
				Path:   []string{"0", "1"},
				Type:   "[4]i32",
				Detail: "expected [3]i32",
			},
			contains: []string{"[bind]", "type_mismatch", "slot frame", "0.1", "[4]i32", "expected [3]i32"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDispose,
				Kind:  KindDisposed,
			},
			contains: []string{"[dispose]", "disposed"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseBind,
		Kind:  KindOutOfRange,
		Slot:  "x",
	}

	if !err.Is(&Error{Phase: PhaseBind, Kind: KindOutOfRange}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindOutOfRange}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseBind, Kind: KindUnbound}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrOutOfRange) {
		t.Error("errors.Is should match phase-less sentinel")
	}
	if errors.Is(err, ErrDisposed) {
		t.Error("errors.Is should not match other sentinel")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseBind, KindTypeMismatch).
		Path("frame", "1").
		Slot("frame").
		Type("[4]i32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "[3]i32", "[4]i32").
		Build()

	if err.Phase != PhaseBind {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseBind)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "frame" || err.Path[1] != "1" {
		t.Errorf("Path = %v, want [frame 1]", err.Path)
	}
	if err.Slot != "frame" {
		t.Errorf("Slot = %v, want 'frame'", err.Slot)
	}
	if err.Type != "[4]i32" {
		t.Errorf("Type = %v, want '[4]i32'", err.Type)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected [3]i32, got [4]i32" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseBind, "x", "f64", "f32")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.Slot != "x" || err.Type != "f32" {
			t.Errorf("Slot=%v Type=%v", err.Slot, err.Type)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseBind, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		err := OutOfRange(PhaseBind, "input slot", 3, 2)
		if err.Kind != KindOutOfRange {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfRange)
		}
		if err.Value != 3 {
			t.Errorf("Value = %v, want 3", err.Value)
		}
	})

	t.Run("Unbound", func(t *testing.T) {
		err := Unbound("factor")
		if err.Phase != PhaseProcess || err.Slot != "factor" {
			t.Errorf("Phase=%v Slot=%v", err.Phase, err.Slot)
		}
		if !errors.Is(err, ErrUnbound) {
			t.Error("should match ErrUnbound")
		}
	})

	t.Run("InvalidState", func(t *testing.T) {
		err := InvalidState("process", "done")
		if !strings.Contains(err.Error(), "process not allowed in state done") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Disposed", func(t *testing.T) {
		err := Disposed(PhaseCopy, "slot type")
		if !errors.Is(err, ErrDisposed) {
			t.Error("should match ErrDisposed")
		}
	})

	t.Run("Incompatible", func(t *testing.T) {
		err := Incompatible("1.0.0", "^0.1")
		if err.Kind != KindIncompatible {
			t.Errorf("Kind = %v, want %v", err.Kind, KindIncompatible)
		}
	})

	t.Run("MissingExport", func(t *testing.T) {
		err := MissingExport("process")
		if err.Phase != PhaseLoad || !strings.Contains(err.Detail, "process") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"val"}, 300, "u8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})
}
