package memory

import (
	"errors"
	"testing"

	fgerrors "github.com/wippyai/flowgraph/errors"
)

func TestBuffer_ReadWrite(t *testing.T) {
	buf := NewBuffer(64, 0)

	if err := buf.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := buf.Read(0, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if data[0] != 1 || data[3] != 4 {
		t.Errorf("Read = %v, want [1 2 3 4]", data)
	}

	if err := buf.WriteU16(8, 0xBEEF); err != nil {
		t.Fatalf("WriteU16 failed: %v", err)
	}
	if v, _ := buf.ReadU16(8); v != 0xBEEF {
		t.Errorf("ReadU16 = %#x, want 0xBEEF", v)
	}
	if b, _ := buf.ReadU8(8); b != 0xEF {
		t.Errorf("little-endian low byte = %#x, want 0xEF", b)
	}

	if err := buf.WriteU32(12, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	if v, _ := buf.ReadU32(12); v != 0xDEADBEEF {
		t.Errorf("ReadU32 = %#x", v)
	}

	if err := WriteF64(buf, 16, 3.5); err != nil {
		t.Fatalf("WriteF64 failed: %v", err)
	}
	if v, _ := ReadF64(buf, 16); v != 3.5 {
		t.Errorf("ReadF64 = %v, want 3.5", v)
	}
}

func TestBuffer_OutOfBounds(t *testing.T) {
	buf := NewBuffer(16, 0)

	if _, err := buf.Read(10, 10); err == nil {
		t.Error("expected read error")
	}
	if err := buf.WriteU64(12, 1); err == nil {
		t.Error("expected write error")
	}
	if _, err := buf.ReadU32(0xFFFFFFFE); err == nil {
		t.Error("expected error for offset near address space end")
	}
}

func TestBuffer_Grow(t *testing.T) {
	buf := NewBuffer(8, 32)
	_ = buf.WriteU8(7, 42)

	if err := buf.Grow(24); err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	if buf.Size() != 32 {
		t.Errorf("Size = %d, want 32", buf.Size())
	}
	if v, _ := buf.ReadU8(7); v != 42 {
		t.Error("Grow lost existing contents")
	}
	if err := buf.Grow(1); err == nil {
		t.Error("expected limit error")
	}
}

func TestArena(t *testing.T) {
	buf := NewBuffer(64, 256)
	a := NewArena(buf, 0)

	p1, err := a.Alloc(1, 1)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p1 != MinBase {
		t.Errorf("first alloc = %d, want %d", p1, MinBase)
	}

	p2, err := a.Alloc(8, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p2 != 16 {
		t.Errorf("aligned alloc = %d, want 16", p2)
	}

	if _, err := a.Alloc(100, 4); err != nil {
		t.Fatalf("Alloc with growth: %v", err)
	}
	if buf.Size() < 124 {
		t.Errorf("buffer did not grow: size %d", buf.Size())
	}

	if _, err := a.Alloc(1024, 4); !errors.Is(err, &fgerrors.Error{Kind: fgerrors.KindAllocation}) {
		t.Errorf("error = %v, want allocation", err)
	}

	a.Reset()
	if a.Used() != 0 {
		t.Errorf("Used after Reset = %d", a.Used())
	}
}

type fixedSize uint32

func (f fixedSize) Size() uint32 { return uint32(f) }

func TestArena_NoGrow(t *testing.T) {
	a := NewArena(fixedSize(32), 16)
	if _, err := a.Alloc(16, 4); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if _, err := a.Alloc(1, 1); err == nil {
		t.Error("expected allocation failure on fixed memory")
	}
}
