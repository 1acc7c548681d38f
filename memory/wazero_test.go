package memory

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

func TestWrapWazero_Nil(t *testing.T) {
	if WrapWazero(nil) != nil {
		t.Error("expected nil for nil memory")
	}
	if WrapGuestAllocator(context.Background(), nil, nil) != nil {
		t.Error("expected nil for nil function")
	}
}

func TestWazero_ReadWriteGrow(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	defer mod.Close(ctx)

	mem := WrapWazero(mod.ExportedMemory("memory"))
	if mem == nil {
		t.Fatal("expected non-nil wrapped memory")
	}
	if mem.Size() != wasmPageSize {
		t.Errorf("Size = %d, want %d", mem.Size(), wasmPageSize)
	}

	if err := mem.WriteU32(100, 0x12345678); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	if v, _ := mem.ReadU32(100); v != 0x12345678 {
		t.Errorf("ReadU32 = %#x", v)
	}
	if _, err := mem.ReadU64(wasmPageSize - 4); err == nil {
		t.Error("expected out of bounds error")
	}

	a := NewArena(mem, 1024)
	if _, err := a.Alloc(wasmPageSize, 8); err != nil {
		t.Fatalf("Alloc with guest memory growth: %v", err)
	}
	if mem.Size() != 2*wasmPageSize {
		t.Errorf("Size after grow = %d, want %d", mem.Size(), 2*wasmPageSize)
	}
}
