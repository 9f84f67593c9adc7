package heap

import "testing"

func TestUnmanagedAllocateDeallocateRoundTrip(t *testing.T) {
	h := NewUnmanagedHeap(0)

	addr, ok := h.Allocate(16)
	if !ok {
		t.Fatalf("allocate failed")
	}
	if !h.Owns(addr) {
		t.Fatalf("expected Owns(addr) to be true")
	}

	buf, ok := h.At(addr)
	if !ok || len(buf) != 16 {
		t.Fatalf("expected a 16-byte live allocation, got %d ok=%v", len(buf), ok)
	}

	if !h.Deallocate(addr) {
		t.Fatalf("deallocate failed")
	}
	if _, ok := h.At(addr); ok {
		t.Fatalf("expected At to fail after deallocation")
	}
	if h.Deallocate(addr) {
		t.Fatalf("expected a double free to report false")
	}
}

// An address into the middle of a live allocation (as FLea produces for
// a structure field) must resolve to the right sub-slice, not just the
// allocation's base address.
func TestUnmanagedAtResolvesInteriorOffsets(t *testing.T) {
	h := NewUnmanagedHeap(0)

	base, ok := h.Allocate(32)
	if !ok {
		t.Fatalf("allocate failed")
	}

	buf, ok := h.At(base)
	if !ok {
		t.Fatalf("expected base address to resolve")
	}
	buf[0] = 0xAB

	field, ok := h.At(base + 24)
	if !ok {
		t.Fatalf("expected interior offset to resolve")
	}
	if len(field) != 8 {
		t.Fatalf("expected 8 remaining bytes at offset 24 of a 32-byte allocation, got %d", len(field))
	}

	// field aliases the same backing array as buf.
	wholeBuf, _ := h.At(base)
	if wholeBuf[0] != 0xAB {
		t.Fatalf("expected interior lookups to alias the same backing bytes")
	}

	if _, ok := h.At(base + 32); ok {
		t.Fatalf("expected an address past the allocation's end to fail")
	}
}

// Deallocate must drop the freed address from the bases index too, not
// just the live map, or bases grows without bound across alloc/free churn.
func TestUnmanagedDeallocateShrinksBasesIndex(t *testing.T) {
	h := NewUnmanagedHeap(0)

	for i := 0; i < 100; i++ {
		addr, ok := h.Allocate(8)
		if !ok {
			t.Fatalf("allocate %d failed", i)
		}
		if !h.Deallocate(addr) {
			t.Fatalf("deallocate %d failed", i)
		}
	}

	if len(h.bases) != 0 {
		t.Fatalf("expected bases to shrink back to empty, got %d entries", len(h.bases))
	}
}

func TestUnmanagedHeapRespectsLimit(t *testing.T) {
	h := NewUnmanagedHeap(16)

	if _, ok := h.Allocate(8); !ok {
		t.Fatalf("expected first allocation under the limit to succeed")
	}
	if _, ok := h.Allocate(16); ok {
		t.Fatalf("expected an allocation that exceeds the limit to fail")
	}
}

func TestManagedAtResolvesInteriorOffsetsAndInfo(t *testing.T) {
	h := NewManagedHeap()

	base := h.Allocate(nil, 24)

	if _, ok := h.At(base + 16); !ok {
		t.Fatalf("expected interior offset to resolve")
	}
	if _, ok := h.InfoAt(base); !ok {
		t.Fatalf("expected InfoAt(base) to resolve")
	}
	if _, ok := h.InfoAt(base + 16); !ok {
		t.Fatalf("expected InfoAt to resolve from an interior offset too")
	}
	if h.Count() != 1 {
		t.Fatalf("expected 1 live managed allocation, got %d", h.Count())
	}
}
