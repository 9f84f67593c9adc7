package types

import "testing"

func TestFundamentalSizesIncludeTag(t *testing.T) {
	cases := []struct {
		t    *Type
		size uint32
	}{
		{IntType, TagSize + 4},
		{LongType, TagSize + 8},
		{DoubleType, TagSize + 8},
		{PointerType, TagSize + 8},
		{GCPointerType, TagSize + 8},
	}
	for _, c := range cases {
		if c.t.Size != c.size {
			t.Fatalf("%s: expected size %d, got %d", c.t.Name, c.size, c.t.Size)
		}
		if !c.t.IsFundamental() {
			t.Fatalf("%s: expected IsFundamental", c.t.Name)
		}
		if c.t.IsStructure() {
			t.Fatalf("%s: expected not IsStructure", c.t.Name)
		}
	}
}

func TestGetTypeFromTypeCodeResolvesStructures(t *testing.T) {
	st := NewStructureType(FirstStructure, "point", TagSize+8, 4, []Field{
		{Name: "x", Type: IntType, Offset: TagSize},
		{Name: "y", Type: IntType, Offset: TagSize + 4},
	})
	structures := []*Type{st}

	got, err := GetTypeFromTypeCode(structures, FirstStructure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != st {
		t.Fatalf("expected the same structure pointer back")
	}
	if !got.IsStructure() {
		t.Fatalf("expected IsStructure")
	}

	if _, err := GetTypeFromTypeCode(structures, FirstStructure+1); err == nil {
		t.Fatalf("expected an out-of-range error")
	}
}

func TestNewArrayFieldTypeSize(t *testing.T) {
	arr := NewArrayFieldType(IntType, 3)
	want := uint32(TagSize) + 4 + 3*IntType.Size
	if arr.Size != want {
		t.Fatalf("expected size %d, got %d", want, arr.Size)
	}
	if !arr.IsArray() {
		t.Fatalf("expected IsArray")
	}
}
